package agency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/offerid"
)

type ReservationRequest struct {
	HotelCode       string
	OfferID         string
	AgencyID        string
	ClientLastName  string
	ClientFirstName string
	Card            string
	Arrival         time.Time
	Departure       time.Time
	NumPersons      int
}

// Outcome is always returned to the caller. Reference and ReservationID are
// set only when Success is true.
type Outcome struct {
	Success       bool         `json:"success"`
	Message       string       `json:"message"`
	Reference     string       `json:"reference,omitempty"`
	ReservationID string       `json:"reservationId,omitempty"`
	TotalPrice    int          `json:"totalPrice,omitempty"`
	Status        hotel.Status `json:"status,omitempty"`
	HotelCode     string       `json:"hotelCode,omitempty"`
}

func failure(format string, v ...any) Outcome {
	return Outcome{Success: false, Message: "Reservation failed: " + fmt.Sprintf(format, v...)}
}

// Reserve routes the request to the single hotel named by the offer id, or by
// HotelCode when given. The hotel's total is returned unchanged: the discount
// only ever applies to displayed search prices.
func (a *Aggregator) Reserve(ctx context.Context, req ReservationRequest) Outcome {
	key := offerid.Resolve(req.HotelCode, req.OfferID)

	if key.HotelCode == "" {
		return failure("offer id %q does not name a hotel", req.OfferID)
	}

	p, ok := a.partner(key.HotelCode)
	if !ok {
		a.l.LogWarn("reservation for unknown hotel '%s'", key.HotelCode)

		return failure("hotel '%s': %v", key.HotelCode, ErrUnknownPartner)
	}

	agencyName := strings.TrimSpace(req.AgencyID)
	if agencyName == "" {
		agencyName = a.conf.Name
	}

	ctx, cancel := context.WithTimeout(ctx, a.conf.HotelTimeout)
	defer cancel()

	conf, err := p.client.Reserve(ctx, hotel.ReservationRequest{
		RoomNumber:      key.RoomNumber,
		ClientName:      req.ClientLastName,
		ClientFirstName: req.ClientFirstName,
		Card:            req.Card,
		Arrival:         req.Arrival,
		Departure:       req.Departure,
		NumPersons:      req.NumPersons,
		Agency:          agencyName,
	})
	if err != nil {
		a.l.LogWarn("reservation of room %d at '%s' failed: %v", key.RoomNumber, p.Code, err)

		return failure("%v", err)
	}

	if conf == nil || conf.ConfirmationCode == "" {
		return failure("hotel '%s' returned no confirmation", p.Code)
	}

	a.l.LogInfo("reservation %s confirmed by '%s' for agency %s", conf.ReservationID, p.Code, agencyName)

	return Outcome{
		Success:       true,
		Message:       "Reservation confirmed",
		Reference:     conf.ConfirmationCode,
		ReservationID: conf.ReservationID,
		TotalPrice:    conf.TotalPrice,
		Status:        conf.Status,
		HotelCode:     p.Code,
	}
}
