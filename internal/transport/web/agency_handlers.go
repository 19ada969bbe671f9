package web

import (
	"encoding/json"
	"net/http"

	"github.com/avstrong/hotelbooking/internal/agency"
	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/transport/hotelapi"
)

type agencySearchResponse struct {
	Agency string         `json:"agency"`
	Offers []agency.Offer `json:"offers"`
	Count  int            `json:"count"`
}

type agencyReservationRequest struct {
	HotelCode       string `json:"hotelCode"`
	OfferID         string `json:"offerId" validate:"required"`
	AgencyID        string `json:"agencyId"`
	ClientLastName  string `json:"clientLastName" validate:"required"`
	ClientFirstName string `json:"clientFirstName"`
	CardNumber      string `json:"cardNumber"`
	ArrivalDate     string `json:"arrivalDate" validate:"required,datetime=2006-01-02"`
	DepartureDate   string `json:"departureDate" validate:"required,datetime=2006-01-02"`
	NumPersons      int    `json:"numPersons" validate:"gte=0"`
}

func (s *Server) searchCriteria(w http.ResponseWriter, r *http.Request) (hotel.SearchCriteria, bool) {
	var in hotelapi.SearchRequest

	if err := decode(r, &in); err != nil {
		s.writeError(w, err)

		return hotel.SearchCriteria{}, false
	}

	if err := checkRequest(&in); err != nil {
		s.writeError(w, err)

		return hotel.SearchCriteria{}, false
	}

	criteria, err := in.Criteria()
	if err != nil {
		s.writeError(w, err)

		return hotel.SearchCriteria{}, false
	}

	if err := criteria.Validate(); err != nil {
		s.writeError(w, err)

		return hotel.SearchCriteria{}, false
	}

	return criteria, true
}

func (s *Server) agencySearchHandler(w http.ResponseWriter, r *http.Request) {
	criteria, ok := s.searchCriteria(w, r)
	if !ok {
		return
	}

	offers, err := s.agency.SearchAll(r.Context(), criteria)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, agencySearchResponse{Agency: s.agency.Name(), Offers: offers, Count: len(offers)})
}

// agencyStreamHandler writes one JSON offer per line as hotels answer.
func (s *Server) agencyStreamHandler(w http.ResponseWriter, r *http.Request) {
	criteria, ok := s.searchCriteria(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		s.l.LogDebug("stream flush unsupported: %v", err)
	}

	n, err := s.agency.SearchStream(r.Context(), criteria, func(o agency.Offer) error {
		if err := enc.Encode(o); err != nil {
			return err
		}

		if err := rc.Flush(); err != nil {
			s.l.LogDebug("stream flush: %v", err)
		}

		return nil
	})
	if err != nil {
		s.l.LogWarn("Offer stream interrupted after %d offers: %v", n, err.Error())

		return
	}

	s.l.LogDebug("Offer stream finished with %d offers", n)
}

func (s *Server) agencyReserveHandler(w http.ResponseWriter, r *http.Request) {
	var in agencyReservationRequest

	if err := decode(r, &in); err != nil {
		s.writeError(w, err)

		return
	}

	if err := hotelapi.Check(&in); err != nil {
		s.writeJSON(w, http.StatusOK, agency.Outcome{Success: false, Message: "Reservation failed: " + err.Error()})

		return
	}

	// Dates were checked above.
	arrival, _ := hotel.ParseDate(in.ArrivalDate)
	departure, _ := hotel.ParseDate(in.DepartureDate)

	out := s.agency.Reserve(r.Context(), agency.ReservationRequest{
		HotelCode:       in.HotelCode,
		OfferID:         in.OfferID,
		AgencyID:        in.AgencyID,
		ClientLastName:  in.ClientLastName,
		ClientFirstName: in.ClientFirstName,
		Card:            in.CardNumber,
		Arrival:         arrival,
		Departure:       departure,
		NumPersons:      in.NumPersons,
	})

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) agencyCatalogHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.agency.Catalog(r.Context()))
}
