package hotel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avstrong/hotelbooking/internal/clock"
	"github.com/avstrong/hotelbooking/internal/logger"
	"github.com/avstrong/hotelbooking/internal/offerid"
)

type idGenerator interface {
	GetID(ctx context.Context) (int, error)
}

type storageReader interface {
	GetHotel(ctx context.Context, code string) (*Hotel, error)
	ListRooms(ctx context.Context, hotelCode string) ([]*Room, error)
	ReservationsForRoom(ctx context.Context, hotelCode string, number int) ([]*Reservation, error)
}

type storageWriter interface {
	BeginTransaction(ctx context.Context) (context.Context, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
	// FindRoomForUpdate locks the room until the surrounding transaction ends.
	FindRoomForUpdate(ctx context.Context, hotelCode string, number int) (*Room, error)
	CommitReservation(ctx context.Context, reservation *Reservation) error
}

type storage interface {
	storageReader
	storageWriter
}

type eventPublisher interface {
	PublishReservationConfirmed(ctx context.Context, event ConfirmedEvent) error
}

const publishTimeout = 3 * time.Second

// Manager is one hotel's search and reservation engine.
type Manager struct {
	l           *logger.Logger
	code        string
	storage     storage
	idGenerator idGenerator
	clock       clock.Clock
	publisher   eventPublisher
	newToken    func() string

	// publishing tracks confirmation events still on their way to the broker.
	publishing sync.WaitGroup
}

type Option func(*Manager)

// WithPublisher enables best-effort reservation events.
func WithPublisher(p eventPublisher) Option {
	return func(m *Manager) {
		m.publisher = p
	}
}

func New(
	l *logger.Logger,
	hotelCode string,
	storage storage,
	idGenerator idGenerator,
	clk clock.Clock,
	opts ...Option,
) *Manager {
	m := &Manager{
		l:           l,
		code:        strings.ToLower(hotelCode),
		storage:     storage,
		idGenerator: idGenerator,
		clock:       clk,
		newToken: func() string {
			return strings.ToUpper(uuid.NewString()[:8])
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Manager) Code() string {
	return m.code
}

func (m *Manager) hotel(ctx context.Context) (*Hotel, error) {
	h, err := m.storage.GetHotel(ctx, m.code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("hotel '%s' is not seeded: %w", m.code, err)
		}

		return nil, fmt.Errorf("get hotel from storage: %w", err)
	}

	return h, nil
}

// Validate checks the date range and party size.
func (c *SearchCriteria) Validate() error {
	inputErr := newInputError()

	if c.Arrival.IsZero() != c.Departure.IsZero() {
		inputErr.addError("dates", "provide both arrival and departure or neither")
	}

	if c.hasDates() && !c.Departure.After(c.Arrival) {
		inputErr.addError("departure", "departure must be after arrival")
	}

	if c.NumPersons < 0 {
		inputErr.addError("num_persons", "num_persons must not be negative")
	}

	if inputErr.fieldsCount() > 0 {
		return inputErr
	}

	return nil
}

// Search lists an offer for every room that fits the criteria, in storage
// order. Prices are never discounted here.
func (m *Manager) Search(ctx context.Context, criteria SearchCriteria) ([]Offer, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	criteria.Arrival, criteria.Departure = Day(criteria.Arrival), Day(criteria.Departure)

	h, err := m.hotel(ctx)
	if err != nil {
		return nil, err
	}

	city := strings.TrimSpace(criteria.City)
	if city != "" && !strings.EqualFold(city, h.City) {
		m.l.LogDebug("city mismatch requested='%s' hotel='%s', no offers", city, h.City)

		return []Offer{}, nil
	}

	rooms, err := m.storage.ListRooms(ctx, m.code)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	nights := Nights(criteria.Arrival, criteria.Departure)
	offers := make([]Offer, 0, len(rooms))

	for _, room := range rooms {
		if criteria.NumPersons > 0 && room.Beds < criteria.NumPersons {
			continue
		}

		if criteria.hasDates() {
			available, err := m.isAvailable(ctx, room.Number, criteria)
			if err != nil {
				return nil, err
			}

			if !available {
				m.l.LogDebug("room %d busy for [%s, %s)", room.Number,
					FormatDate(criteria.Arrival), FormatDate(criteria.Departure))

				continue
			}
		}

		total := room.PricePerNight * nights

		offers = append(offers, Offer{
			ID:            offerid.Encode(m.code, room.Number),
			Hotel:         *h,
			Room:          *room,
			Arrival:       criteria.Arrival,
			Departure:     criteria.Departure,
			Nights:        nights,
			PricePerNight: room.PricePerNight,
			TotalPrice:    total,
			FinalPrice:    total,
			Currency:      Currency,
		})
	}

	m.l.LogInfo("search city='%s' persons=%d agency='%s' returned %d offers",
		criteria.City, criteria.NumPersons, criteria.AgencyID, len(offers))

	return offers, nil
}

func (m *Manager) isAvailable(ctx context.Context, roomNumber int, criteria SearchCriteria) (bool, error) {
	reservations, err := m.storage.ReservationsForRoom(ctx, m.code, roomNumber)
	if err != nil {
		return false, fmt.Errorf("get reservations of room %d: %w", roomNumber, err)
	}

	for _, r := range reservations {
		if Overlaps(criteria.Arrival, criteria.Departure, r.Arrival, r.Departure) {
			return false, nil
		}
	}

	return true, nil
}

func (r *ReservationRequest) validate() error {
	inputErr := newInputError()

	if r.RoomNumber <= 0 {
		inputErr.addError("room_id", "provide a positive room number")
	}

	if strings.TrimSpace(r.ClientName) == "" {
		inputErr.addError("client_name", "provide client_name")
	}

	if r.Arrival.IsZero() {
		inputErr.addError("arrival_date", "provide arrival_date")
	}

	if r.Departure.IsZero() {
		inputErr.addError("departure_date", "provide departure_date")
	}

	if !r.Arrival.IsZero() && !r.Departure.IsZero() && !r.Departure.After(r.Arrival) {
		inputErr.addError("departure_date", "departure_date must be after arrival_date")
	}

	if r.NumPersons < 0 {
		inputErr.addError("num_persons", "num_persons must not be negative")
	}

	if inputErr.fieldsCount() > 0 {
		return inputErr
	}

	return nil
}

func (m *Manager) buildReservation(ctx context.Context, req *ReservationRequest, room *Room) (*Reservation, error) {
	id, err := m.idGenerator.GetID(ctx)
	if err != nil {
		return nil, ErrNextID
	}

	agency := strings.TrimSpace(req.Agency)
	if agency == "" {
		agency = DirectAgency
	}

	token := m.newToken()

	return &Reservation{
		ID:               fmt.Sprintf("RES-%d", id),
		HotelCode:        m.code,
		RoomNumber:       room.Number,
		ClientName:       strings.TrimSpace(req.ClientName),
		ClientFirstName:  strings.TrimSpace(req.ClientFirstName),
		MaskedCard:       MaskCard(req.Card),
		Arrival:          req.Arrival,
		Departure:        req.Departure,
		NumPersons:       req.NumPersons,
		Agency:           agency,
		Reference:        fmt.Sprintf("RES-%s-%d-%s", strings.ToUpper(m.code), room.Number, token),
		ConfirmationCode: "CONF-" + m.newToken(),
		TotalPrice:       room.PricePerNight * Nights(req.Arrival, req.Departure),
		Status:           StatusConfirmed,
		CreatedAt:        m.clock.Now(),
	}, nil
}

func (m *Manager) checkAvailability(ctx context.Context, req *ReservationRequest) error {
	reservations, err := m.storage.ReservationsForRoom(ctx, m.code, req.RoomNumber)
	if err != nil {
		return fmt.Errorf("get reservations of room %d: %w", req.RoomNumber, err)
	}

	availabilityErr := NewAvailabilityError(m.code, req.RoomNumber)

	for _, r := range reservations {
		if Overlaps(req.Arrival, req.Departure, r.Arrival, r.Departure) {
			availabilityErr.AddConflict(r.Arrival, r.Departure)
		}
	}

	if availabilityErr.ConflictsCount() > 0 {
		return availabilityErr
	}

	return nil
}

// Reserve re-checks availability under the room lock and commits the
// reservation. Exactly one of two concurrent overlapping requests succeeds.
func (m *Manager) Reserve(ctx context.Context, req ReservationRequest) (*Confirmation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	req.Arrival, req.Departure = Day(req.Arrival), Day(req.Departure)

	if _, err := m.hotel(ctx); err != nil {
		return nil, err
	}

	reservation, err := m.reserve(ctx, &req)
	if err != nil {
		return nil, err
	}

	m.l.LogInfo("reservation %s confirmed room=%d [%s, %s) agency=%s card=%s",
		reservation.ID, reservation.RoomNumber, FormatDate(reservation.Arrival),
		FormatDate(reservation.Departure), reservation.Agency, reservation.MaskedCard)

	m.announce(ctx, reservation)

	return &Confirmation{
		ReservationID:    reservation.ID,
		HotelCode:        m.code,
		ClientName:       reservation.ClientName,
		Status:           reservation.Status,
		TotalPrice:       reservation.TotalPrice,
		CreatedAt:        reservation.CreatedAt,
		ConfirmationCode: reservation.ConfirmationCode,
		Reference:        reservation.Reference,
		Arrival:          reservation.Arrival,
		Departure:        reservation.Departure,
		NumPersons:       reservation.NumPersons,
	}, nil
}

func (m *Manager) reserve(ctx context.Context, req *ReservationRequest) (_ *Reservation, err error) {
	ctx, err = m.storage.BeginTransaction(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := m.storage.RollbackTransaction(ctx); rbErr != nil {
				m.l.LogErrorf("Could not rollback reservation transaction after panic %v", p)
			}

			panic(p)
		}

		if err != nil {
			if rbErr := m.storage.RollbackTransaction(ctx); rbErr != nil {
				m.l.LogErrorf("Could not rollback reservation transaction after error %v", rbErr.Error())
			}

			return
		}

		if cmErr := m.storage.CommitTransaction(ctx); cmErr != nil {
			m.l.LogErrorf("Could not commit reservation transaction, err %v", cmErr.Error())

			err = fmt.Errorf("commit reservation: %w", cmErr)
		}
	}()

	room, err := m.storage.FindRoomForUpdate(ctx, m.code, req.RoomNumber)
	if err != nil {
		return nil, fmt.Errorf("room %d: %w", req.RoomNumber, err)
	}

	if err = m.checkAvailability(ctx, req); err != nil {
		return nil, err
	}

	reservation, err := m.buildReservation(ctx, req, room)
	if err != nil {
		return nil, fmt.Errorf("build reservation: %w", err)
	}

	if err = m.storage.CommitReservation(ctx, reservation); err != nil {
		return nil, fmt.Errorf("save reservation to storage: %w", err)
	}

	return reservation, nil
}

// announce publishes the confirmation event in the background, bounded by
// publishTimeout and detached from the request. Failures are logged only.
func (m *Manager) announce(ctx context.Context, r *Reservation) {
	if m.publisher == nil {
		return
	}

	event := ConfirmedEvent{
		ReservationID: r.ID,
		Reference:     r.Reference,
		HotelCode:     r.HotelCode,
		RoomNumber:    r.RoomNumber,
		Agency:        r.Agency,
		Arrival:       FormatDate(r.Arrival),
		Departure:     FormatDate(r.Departure),
		TotalPrice:    r.TotalPrice,
		ConfirmedAt:   r.CreatedAt,
	}

	m.publishing.Add(1)

	go func() {
		defer m.publishing.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		if err := m.publisher.PublishReservationConfirmed(ctx, event); err != nil {
			m.l.LogWarn("Could not publish confirmation of %s: %v", event.ReservationID, err.Error())
		}
	}()
}

// Wait blocks until every pending confirmation event was published or given up.
func (m *Manager) Wait() {
	m.publishing.Wait()
}

func (m *Manager) Catalog(ctx context.Context) (*Catalog, error) {
	h, err := m.hotel(ctx)
	if err != nil {
		return nil, err
	}

	rooms, err := m.storage.ListRooms(ctx, m.code)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	out := &Catalog{Hotel: *h, Rooms: make([]Room, 0, len(rooms))}
	for _, r := range rooms {
		out.Rooms = append(out.Rooms, *r)
	}

	return out, nil
}

// GetReservation is not offered by hotels yet.
func (m *Manager) GetReservation(_ context.Context, id string) (*Reservation, error) {
	return nil, fmt.Errorf("lookup of reservation %q: %w", id, ErrUnimplemented)
}

// CancelReservation is not offered by hotels yet.
func (m *Manager) CancelReservation(_ context.Context, id, _ string) error {
	return fmt.Errorf("cancellation of reservation %q: %w", id, ErrUnimplemented)
}
