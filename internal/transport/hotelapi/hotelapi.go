// Package hotelapi holds the JSON documents exchanged between the agency and
// hotel backends and converts them to and from the hotel model. Every decode
// path validates required fields before anything reaches the engines.
package hotelapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/avstrong/hotelbooking/internal/hotel"
)

const (
	SearchPath       = "/api/hotel/v1/offers/search"
	ReservationsPath = "/api/hotel/v1/reservations"
	CatalogPath      = "/api/hotel/v1/catalog"

	HeaderRequestID = "X-Request-Id"
	HeaderTraceID   = "X-Trace-Id"
)

var ErrMalformed = errors.New("malformed document")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Check validates v against its struct tags and reports the failing fields.
func Check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %T: %w", v, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}

	return fmt.Errorf("%w: %s", ErrMalformed, strings.Join(fields, ", "))
}

type SearchRequest struct {
	City          string `json:"city"`
	ArrivalDate   string `json:"arrivalDate" validate:"omitempty,datetime=2006-01-02"`
	DepartureDate string `json:"departureDate" validate:"omitempty,datetime=2006-01-02"`
	NumPersons    int    `json:"numPersons" validate:"gte=0"`
	AgencyID      string `json:"agencyId,omitempty"`
}

func NewSearchRequest(c hotel.SearchCriteria) SearchRequest {
	return SearchRequest{
		City:          c.City,
		ArrivalDate:   hotel.FormatDate(c.Arrival),
		DepartureDate: hotel.FormatDate(c.Departure),
		NumPersons:    c.NumPersons,
		AgencyID:      c.AgencyID,
	}
}

func (r SearchRequest) Criteria() (hotel.SearchCriteria, error) {
	arrival, err := hotel.ParseDate(r.ArrivalDate)
	if err != nil {
		return hotel.SearchCriteria{}, fmt.Errorf("arrivalDate: %w", err)
	}

	departure, err := hotel.ParseDate(r.DepartureDate)
	if err != nil {
		return hotel.SearchCriteria{}, fmt.Errorf("departureDate: %w", err)
	}

	return hotel.SearchCriteria{
		City:       r.City,
		Arrival:    arrival,
		Departure:  departure,
		NumPersons: r.NumPersons,
		AgencyID:   r.AgencyID,
	}, nil
}

type Hotel struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name"`
	City     string `json:"city" validate:"required"`
	Country  string `json:"country"`
	Street   string `json:"street"`
	Stars    int    `json:"stars"`
	Category string `json:"category"`
}

type Room struct {
	Number        int    `json:"number" validate:"gt=0"`
	BedCount      int    `json:"bedCount" validate:"gt=0"`
	PricePerNight int    `json:"pricePerNight" validate:"gte=0"`
	ImageURL      string `json:"imageUrl,omitempty"`
}

type Offer struct {
	OfferID       string `json:"offerId" validate:"required"`
	Hotel         Hotel  `json:"hotel"`
	Room          Room   `json:"room"`
	ArrivalDate   string `json:"arrivalDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DepartureDate string `json:"departureDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	NumNights     int    `json:"numNights" validate:"gt=0"`
	PricePerNight int    `json:"pricePerNight" validate:"gte=0"`
	TotalPrice    int    `json:"totalPrice" validate:"gte=0"`
	FinalPrice    int    `json:"finalPrice" validate:"gte=0"`
	Currency      string `json:"currency" validate:"required"`
}

func NewOffer(o *hotel.Offer) Offer {
	return Offer{
		OfferID: o.ID,
		Hotel: Hotel{
			Code:     o.Hotel.Code,
			Name:     o.Hotel.Name,
			City:     o.Hotel.City,
			Country:  o.Hotel.Country,
			Street:   o.Hotel.Street,
			Stars:    o.Hotel.Stars,
			Category: o.Hotel.Category,
		},
		Room: Room{
			Number:        o.Room.Number,
			BedCount:      o.Room.Beds,
			PricePerNight: o.Room.PricePerNight,
			ImageURL:      o.Room.ImageURL,
		},
		ArrivalDate:   hotel.FormatDate(o.Arrival),
		DepartureDate: hotel.FormatDate(o.Departure),
		NumNights:     o.Nights,
		PricePerNight: o.PricePerNight,
		TotalPrice:    o.TotalPrice,
		FinalPrice:    o.FinalPrice,
		Currency:      o.Currency,
	}
}

// Model validates o and converts it. Dates were checked by Check.
func (o *Offer) Model() (hotel.Offer, error) {
	if err := Check(o); err != nil {
		return hotel.Offer{}, err
	}

	arrival, _ := hotel.ParseDate(o.ArrivalDate)
	departure, _ := hotel.ParseDate(o.DepartureDate)
	code := strings.ToLower(o.Hotel.Code)

	return hotel.Offer{
		ID: o.OfferID,
		Hotel: hotel.Hotel{
			Code:     code,
			Name:     o.Hotel.Name,
			City:     o.Hotel.City,
			Country:  o.Hotel.Country,
			Street:   o.Hotel.Street,
			Stars:    o.Hotel.Stars,
			Category: o.Hotel.Category,
		},
		Room: hotel.Room{
			HotelCode:     code,
			Number:        o.Room.Number,
			Beds:          o.Room.BedCount,
			PricePerNight: o.Room.PricePerNight,
			ImageURL:      o.Room.ImageURL,
		},
		Arrival:       arrival,
		Departure:     departure,
		Nights:        o.NumNights,
		PricePerNight: o.PricePerNight,
		TotalPrice:    o.TotalPrice,
		FinalPrice:    o.FinalPrice,
		Currency:      o.Currency,
	}, nil
}

type SearchResponse struct {
	Offers     []Offer `json:"offers" validate:"required,dive"`
	TotalCount int     `json:"totalCount"`
}

type ReservationRequest struct {
	HotelID         string `json:"hotelId"`
	RoomID          int    `json:"roomId" validate:"gt=0"`
	ClientName      string `json:"clientName" validate:"required"`
	ClientFirstName string `json:"clientFirstName"`
	ClientCard      string `json:"clientCard"`
	ArrivalDate     string `json:"arrivalDate" validate:"required,datetime=2006-01-02"`
	DepartureDate   string `json:"departureDate" validate:"required,datetime=2006-01-02"`
	NumPersons      int    `json:"numPersons" validate:"gte=0"`
	AgencyName      string `json:"agencyName,omitempty"`
}

func NewReservationRequest(hotelCode string, r *hotel.ReservationRequest) ReservationRequest {
	return ReservationRequest{
		HotelID:         hotelCode,
		RoomID:          r.RoomNumber,
		ClientName:      r.ClientName,
		ClientFirstName: r.ClientFirstName,
		ClientCard:      r.Card,
		ArrivalDate:     hotel.FormatDate(r.Arrival),
		DepartureDate:   hotel.FormatDate(r.Departure),
		NumPersons:      r.NumPersons,
		AgencyName:      r.Agency,
	}
}

// Model converts r without validating it; the reservation engine reports
// missing fields itself.
func (r *ReservationRequest) Model() (hotel.ReservationRequest, error) {
	arrival, err := hotel.ParseDate(r.ArrivalDate)
	if err != nil {
		return hotel.ReservationRequest{}, fmt.Errorf("arrivalDate: %w", err)
	}

	departure, err := hotel.ParseDate(r.DepartureDate)
	if err != nil {
		return hotel.ReservationRequest{}, fmt.Errorf("departureDate: %w", err)
	}

	return hotel.ReservationRequest{
		RoomNumber:      r.RoomID,
		ClientName:      r.ClientName,
		ClientFirstName: r.ClientFirstName,
		Card:            r.ClientCard,
		Arrival:         arrival,
		Departure:       departure,
		NumPersons:      r.NumPersons,
		Agency:          r.AgencyName,
	}, nil
}

type Confirmation struct {
	ReservationID    string    `json:"reservationId" validate:"required"`
	HotelID          string    `json:"hotelId" validate:"required"`
	ClientName       string    `json:"clientName"`
	Status           string    `json:"status" validate:"required"`
	TotalPrice       int       `json:"totalPrice" validate:"gte=0"`
	CreatedAt        time.Time `json:"createdAt"`
	ConfirmationCode string    `json:"confirmationCode" validate:"required"`
	Reference        string    `json:"reference"`
	ArrivalDate      string    `json:"arrivalDate" validate:"required,datetime=2006-01-02"`
	DepartureDate    string    `json:"departureDate" validate:"required,datetime=2006-01-02"`
	NumPersons       int       `json:"numPersons"`
}

func NewConfirmation(c *hotel.Confirmation) Confirmation {
	return Confirmation{
		ReservationID:    c.ReservationID,
		HotelID:          c.HotelCode,
		ClientName:       c.ClientName,
		Status:           string(c.Status),
		TotalPrice:       c.TotalPrice,
		CreatedAt:        c.CreatedAt,
		ConfirmationCode: c.ConfirmationCode,
		Reference:        c.Reference,
		ArrivalDate:      hotel.FormatDate(c.Arrival),
		DepartureDate:    hotel.FormatDate(c.Departure),
		NumPersons:       c.NumPersons,
	}
}

func (c *Confirmation) Model() (*hotel.Confirmation, error) {
	if err := Check(c); err != nil {
		return nil, err
	}

	arrival, _ := hotel.ParseDate(c.ArrivalDate)
	departure, _ := hotel.ParseDate(c.DepartureDate)

	return &hotel.Confirmation{
		ReservationID:    c.ReservationID,
		HotelCode:        strings.ToLower(c.HotelID),
		ClientName:       c.ClientName,
		Status:           hotel.Status(c.Status),
		TotalPrice:       c.TotalPrice,
		CreatedAt:        c.CreatedAt,
		ConfirmationCode: c.ConfirmationCode,
		Reference:        c.Reference,
		Arrival:          arrival,
		Departure:        departure,
		NumPersons:       c.NumPersons,
	}, nil
}

// Catalog reuses the model documents, which carry their own JSON names.
type Catalog struct {
	Hotel hotel.Hotel  `json:"hotel" validate:"required"`
	Rooms []hotel.Room `json:"rooms"`
}
