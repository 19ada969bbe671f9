// Package agency aggregates offers from partner hotels, applies the agency
// discount to what clients see and routes reservations back to one hotel.
package agency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/logger"
	"github.com/avstrong/hotelbooking/internal/pricing"
)

var (
	ErrNoPartners     = errors.New("no partner hotels configured")
	ErrUnknownPartner = errors.New("unknown partner hotel")
)

const (
	defaultHotelTimeout = 5 * time.Second
	defaultMaxWorkers   = 10
)

// Partner is one hotel backend the agency may query.
type Partner struct {
	Code     string
	Endpoint string
}

// HotelClient is the agency's view of a single hotel's engines.
type HotelClient interface {
	Search(ctx context.Context, criteria hotel.SearchCriteria) ([]hotel.Offer, error)
	Reserve(ctx context.Context, req hotel.ReservationRequest) (*hotel.Confirmation, error)
	Catalog(ctx context.Context) (*hotel.Catalog, error)
}

type ClientFactory func(p Partner) HotelClient

// SearchCache stores already discounted results. Entries are returned as is.
type SearchCache interface {
	Get(ctx context.Context, key string) ([]Offer, bool, error)
	Set(ctx context.Context, key string, offers []Offer) error
}

type Conf struct {
	Name         string
	HotelTimeout time.Duration
	MaxWorkers   int
}

type partnerClient struct {
	Partner
	client HotelClient
}

type Aggregator struct {
	l        *logger.Logger
	conf     Conf
	discount *pricing.Discount
	partners []partnerClient
	cache    SearchCache
}

type Option func(*Aggregator)

func WithCache(c SearchCache) Option {
	return func(a *Aggregator) {
		a.cache = c
	}
}

func New(
	l *logger.Logger,
	conf Conf,
	discount *pricing.Discount,
	partners []Partner,
	newClient ClientFactory,
	opts ...Option,
) (*Aggregator, error) {
	if len(partners) == 0 {
		return nil, ErrNoPartners
	}

	if conf.HotelTimeout <= 0 {
		conf.HotelTimeout = defaultHotelTimeout
	}

	if conf.MaxWorkers <= 0 {
		conf.MaxWorkers = defaultMaxWorkers
	}

	a := &Aggregator{
		l:        l,
		conf:     conf,
		discount: discount,
		partners: make([]partnerClient, 0, len(partners)),
	}

	for _, p := range partners {
		p.Code = strings.ToLower(strings.TrimSpace(p.Code))
		a.partners = append(a.partners, partnerClient{Partner: p, client: newClient(p)})
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

func (a *Aggregator) Name() string {
	return a.conf.Name
}

func (a *Aggregator) partner(code string) (partnerClient, bool) {
	for _, p := range a.partners {
		if p.Code == code {
			return p, true
		}
	}

	return partnerClient{}, false
}

// RoomView is the client-facing room projection.
type RoomView struct {
	Number        int    `json:"number"`
	BedCount      int    `json:"bedCount"`
	PricePerNight int    `json:"pricePerNight"`
	Type          string `json:"type"`
	ImageURL      string `json:"imageUrl,omitempty"`
}

// Offer is a hotel offer as displayed to the agency's clients.
type Offer struct {
	OfferID       string   `json:"offerId"`
	HotelCode     string   `json:"hotelCode"`
	HotelName     string   `json:"hotelName"`
	City          string   `json:"city"`
	Country       string   `json:"country"`
	Street        string   `json:"street"`
	Stars         int      `json:"stars"`
	Category      string   `json:"category"`
	Room          RoomView `json:"room"`
	ArrivalDate   string   `json:"arrivalDate,omitempty"`
	DepartureDate string   `json:"departureDate,omitempty"`
	Nights        int      `json:"numNights"`
	pricing.Quote
	Currency string `json:"currency"`
	Agency   string `json:"agency"`
}

func (a *Aggregator) display(p Partner, o *hotel.Offer) Offer {
	code := o.Hotel.Code
	if code == "" {
		code = p.Code
	}

	currency := o.Currency
	if currency == "" {
		currency = hotel.Currency
	}

	return Offer{
		OfferID:   o.ID,
		HotelCode: code,
		HotelName: o.Hotel.Name,
		City:      o.Hotel.City,
		Country:   o.Hotel.Country,
		Street:    o.Hotel.Street,
		Stars:     o.Hotel.Stars,
		Category:  o.Hotel.Category,
		Room: RoomView{
			Number:        o.Room.Number,
			BedCount:      o.Room.Beds,
			PricePerNight: o.Room.PricePerNight,
			Type:          o.Room.Category(),
			ImageURL:      o.Room.ImageURL,
		},
		ArrivalDate:   hotel.FormatDate(o.Arrival),
		DepartureDate: hotel.FormatDate(o.Departure),
		Nights:        o.Nights,
		Quote:         a.discount.Quote(o.TotalPrice),
		Currency:      currency,
		Agency:        a.conf.Name,
	}
}
