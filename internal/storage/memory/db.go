package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/logger"
	"github.com/avstrong/hotelbooking/internal/storage/trx"
)

type Config struct {
	L *logger.Logger
}

type roomKey struct {
	hotelCode string
	number    int
}

type transaction struct {
	id                   string
	hotelModifications   map[string]*hotel.Hotel
	roomModifications    map[roomKey]*hotel.Room
	roomOrder            []roomKey
	reservationAdditions []*hotel.Reservation
	lockedRooms          []roomKey
}

// DB keeps one or more hotels' inventory in process memory. Reservations are
// append-only.
type DB struct {
	mu           sync.Mutex
	l            *logger.Logger
	hotels       map[string]*hotel.Hotel
	rooms        map[string][]*hotel.Room
	reservations map[roomKey][]*hotel.Reservation
	roomLocks    map[roomKey]chan struct{}
	transactions map[string]*transaction
	nextTrxID    int64
}

func New(conf Config) *DB {
	//nolint:exhaustruct
	return &DB{
		l:            conf.L,
		hotels:       make(map[string]*hotel.Hotel),
		rooms:        make(map[string][]*hotel.Room),
		reservations: make(map[roomKey][]*hotel.Reservation),
		roomLocks:    make(map[roomKey]chan struct{}),
		transactions: make(map[string]*transaction),
	}
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func (db *DB) BeginTransaction(ctx context.Context) (context.Context, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	trxID := fmt.Sprintf("trx-%d", db.nextTrxID)
	db.nextTrxID++

	db.transactions[trxID] = &transaction{
		id:                 trxID,
		hotelModifications: make(map[string]*hotel.Hotel),
		roomModifications:  make(map[roomKey]*hotel.Room),
	}

	return trx.WithID(ctx, trxID), nil
}

// transaction must be called with db.mu held.
func (db *DB) transaction(ctx context.Context) (*transaction, error) {
	trxID, err := trx.IDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	tr, exists := db.transactions[trxID]
	if !exists {
		return nil, trx.NotFound(trxID)
	}

	return tr, nil
}

func (db *DB) CommitTransaction(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tr, err := db.transaction(ctx)
	if err != nil {
		return err
	}

	for code, h := range tr.hotelModifications {
		db.hotels[code] = h
	}

	for _, key := range tr.roomOrder {
		db.upsertRoom(tr.roomModifications[key])
	}

	for _, r := range tr.reservationAdditions {
		key := roomKey{hotelCode: r.HotelCode, number: r.RoomNumber}
		db.reservations[key] = append(db.reservations[key], r)
	}

	db.release(tr)
	delete(db.transactions, tr.id)

	return nil
}

func (db *DB) RollbackTransaction(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tr, err := db.transaction(ctx)
	if err != nil {
		return err
	}

	if n := len(tr.reservationAdditions); n > 0 {
		db.l.LogDebug("%s rolled back, %d staged reservations discarded", tr.id, n)
	}

	db.release(tr)
	delete(db.transactions, tr.id)

	return nil
}

// release must be called with db.mu held.
func (db *DB) release(tr *transaction) {
	for _, key := range tr.lockedRooms {
		<-db.roomLocks[key]
	}

	tr.lockedRooms = nil
}

// upsertRoom must be called with db.mu held.
func (db *DB) upsertRoom(room *hotel.Room) {
	rooms := db.rooms[room.HotelCode]

	for i, r := range rooms {
		if r.Number == room.Number {
			rooms[i] = room

			return
		}
	}

	db.rooms[room.HotelCode] = append(rooms, room)
}

func (db *DB) SaveHotel(ctx context.Context, h *hotel.Hotel) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tr, err := db.transaction(ctx)
	if err != nil {
		return err
	}

	stored := *h
	stored.Code = normalize(h.Code)
	tr.hotelModifications[stored.Code] = &stored

	return nil
}

func (db *DB) SaveRooms(ctx context.Context, rooms []*hotel.Room) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tr, err := db.transaction(ctx)
	if err != nil {
		return err
	}

	for _, room := range rooms {
		stored := *room
		stored.HotelCode = normalize(room.HotelCode)

		key := roomKey{hotelCode: stored.HotelCode, number: stored.Number}
		if _, ok := tr.roomModifications[key]; !ok {
			tr.roomOrder = append(tr.roomOrder, key)
		}

		tr.roomModifications[key] = &stored
	}

	return nil
}

func (db *DB) GetHotel(_ context.Context, code string) (*hotel.Hotel, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	h, ok := db.hotels[normalize(code)]
	if !ok {
		return nil, fmt.Errorf("hotel '%s': %w", code, hotel.ErrNotFound)
	}

	out := *h

	return &out, nil
}

func (db *DB) ListRooms(_ context.Context, hotelCode string) ([]*hotel.Room, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rooms := db.rooms[normalize(hotelCode)]

	out := make([]*hotel.Room, 0, len(rooms))
	for _, r := range rooms {
		room := *r
		out = append(out, &room)
	}

	return out, nil
}

// findRoom must be called with db.mu held.
func (db *DB) findRoom(hotelCode string, number int) (*hotel.Room, error) {
	for _, r := range db.rooms[hotelCode] {
		if r.Number == number {
			room := *r

			return &room, nil
		}
	}

	return nil, fmt.Errorf("room %d of hotel '%s': %w", number, hotelCode, hotel.ErrNotFound)
}

// FindRoomForUpdate blocks until no other transaction holds the room. The lock
// is released when the transaction is committed or rolled back.
func (db *DB) FindRoomForUpdate(ctx context.Context, hotelCode string, number int) (*hotel.Room, error) {
	key := roomKey{hotelCode: normalize(hotelCode), number: number}

	db.mu.Lock()

	tr, err := db.transaction(ctx)
	if err != nil {
		db.mu.Unlock()

		return nil, err
	}

	room, err := db.findRoom(key.hotelCode, key.number)
	if err != nil {
		db.mu.Unlock()

		return nil, err
	}

	for _, locked := range tr.lockedRooms {
		if locked == key {
			db.mu.Unlock()

			return room, nil
		}
	}

	lock, ok := db.roomLocks[key]
	if !ok {
		lock = make(chan struct{}, 1)
		db.roomLocks[key] = lock
	}

	db.mu.Unlock()

	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("lock room %d of hotel '%s': %w", number, key.hotelCode, ctx.Err())
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tr.lockedRooms = append(tr.lockedRooms, key)

	return room, nil
}

func (db *DB) ReservationsForRoom(_ context.Context, hotelCode string, number int) ([]*hotel.Reservation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := db.reservations[roomKey{hotelCode: normalize(hotelCode), number: number}]

	out := make([]*hotel.Reservation, 0, len(stored))
	for _, r := range stored {
		reservation := *r
		out = append(out, &reservation)
	}

	return out, nil
}

func (db *DB) CommitReservation(ctx context.Context, reservation *hotel.Reservation) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tr, err := db.transaction(ctx)
	if err != nil {
		return err
	}

	stored := *reservation
	stored.HotelCode = normalize(reservation.HotelCode)

	if _, err := db.findRoom(stored.HotelCode, stored.RoomNumber); err != nil {
		return err
	}

	tr.reservationAdditions = append(tr.reservationAdditions, &stored)

	return nil
}
