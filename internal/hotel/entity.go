package hotel

import "time"

const (
	Currency     = "EUR"
	DirectAgency = "DIRECT"
)

type Status string

const StatusConfirmed Status = "CONFIRMED"

type Hotel struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Street   string `json:"street"`
	Stars    int    `json:"stars"`
	Category string `json:"category"`
}

type Room struct {
	HotelCode     string `json:"hotelCode"`
	Number        int    `json:"number"`
	Beds          int    `json:"bedCount"`
	PricePerNight int    `json:"pricePerNight"`
	ImageURL      string `json:"imageUrl,omitempty"`
}

// Category is derived from the bed count.
func (r Room) Category() string {
	switch r.Beds {
	case 1:
		return "SINGLE"
	case 2: //nolint:gomnd
		return "DOUBLE"
	case 3: //nolint:gomnd
		return "TRIPLE"
	default:
		return "FAMILY"
	}
}

type Reservation struct {
	ID               string    `json:"id"`
	HotelCode        string    `json:"hotelCode"`
	RoomNumber       int       `json:"roomNumber"`
	ClientName       string    `json:"clientName"`
	ClientFirstName  string    `json:"clientFirstName"`
	MaskedCard       string    `json:"maskedCard"`
	Arrival          time.Time `json:"arrivalDate"`
	Departure        time.Time `json:"departureDate"`
	NumPersons       int       `json:"numPersons"`
	Agency           string    `json:"agency"`
	Reference        string    `json:"reference"`
	ConfirmationCode string    `json:"confirmationCode"`
	TotalPrice       int       `json:"totalPrice"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
}

// SearchCriteria leaves Arrival/Departure zero when the caller gave no dates
// and NumPersons zero when no capacity bound was requested.
type SearchCriteria struct {
	City       string
	Arrival    time.Time
	Departure  time.Time
	NumPersons int
	AgencyID   string
}

func (c SearchCriteria) hasDates() bool {
	return !c.Arrival.IsZero() && !c.Departure.IsZero()
}

type Offer struct {
	ID            string    `json:"offerId"`
	Hotel         Hotel     `json:"hotel"`
	Room          Room      `json:"room"`
	Arrival       time.Time `json:"arrivalDate"`
	Departure     time.Time `json:"departureDate"`
	Nights        int       `json:"numNights"`
	PricePerNight int       `json:"pricePerNight"`
	TotalPrice    int       `json:"totalPrice"`
	FinalPrice    int       `json:"finalPrice"`
	Currency      string    `json:"currency"`
}

type ReservationRequest struct {
	RoomNumber      int
	ClientName      string
	ClientFirstName string
	Card            string
	Arrival         time.Time
	Departure       time.Time
	NumPersons      int
	Agency          string
}

type Confirmation struct {
	ReservationID    string    `json:"reservationId"`
	HotelCode        string    `json:"hotelCode"`
	ClientName       string    `json:"clientName"`
	Status           Status    `json:"status"`
	TotalPrice       int       `json:"totalPrice"`
	CreatedAt        time.Time `json:"createdAt"`
	ConfirmationCode string    `json:"confirmationCode"`
	Reference        string    `json:"reference"`
	Arrival          time.Time `json:"arrivalDate"`
	Departure        time.Time `json:"departureDate"`
	NumPersons       int       `json:"numPersons"`
}

type Catalog struct {
	Hotel Hotel  `json:"hotel"`
	Rooms []Room `json:"rooms"`
}

// ConfirmedEvent is emitted after a reservation has been committed.
type ConfirmedEvent struct {
	ReservationID string    `json:"reservationId"`
	Reference     string    `json:"reference"`
	HotelCode     string    `json:"hotelCode"`
	RoomNumber    int       `json:"roomNumber"`
	Agency        string    `json:"agency"`
	Arrival       string    `json:"arrivalDate"`
	Departure     string    `json:"departureDate"`
	TotalPrice    int       `json:"totalPrice"`
	ConfirmedAt   time.Time `json:"confirmedAt"`
}
