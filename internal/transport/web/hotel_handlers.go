package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/transport/hotelapi"
)

func (s *Server) hotelSearchHandler(w http.ResponseWriter, r *http.Request) {
	var in hotelapi.SearchRequest

	if err := decode(r, &in); err != nil {
		s.writeError(w, err)

		return
	}

	if err := checkRequest(&in); err != nil {
		s.writeError(w, err)

		return
	}

	criteria, err := in.Criteria()
	if err != nil {
		s.writeError(w, err)

		return
	}

	offers, err := s.hotel.Search(r.Context(), criteria)
	if err != nil {
		s.writeError(w, err)

		return
	}

	out := hotelapi.SearchResponse{Offers: make([]hotelapi.Offer, 0, len(offers)), TotalCount: len(offers)}
	for i := range offers {
		out.Offers = append(out.Offers, hotelapi.NewOffer(&offers[i]))
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) hotelReserveHandler(w http.ResponseWriter, r *http.Request) {
	var in hotelapi.ReservationRequest

	if err := decode(r, &in); err != nil {
		s.writeError(w, err)

		return
	}

	if code := strings.TrimSpace(in.HotelID); code != "" && !strings.EqualFold(code, s.hotel.Code()) {
		s.writeError(w, fmt.Errorf("hotel '%s' is not served here: %w", code, hotel.ErrNotFound))

		return
	}

	req, err := in.Model()
	if err != nil {
		s.writeError(w, err)

		return
	}

	conf, err := s.hotel.Reserve(r.Context(), req)
	if err != nil {
		if availabilityErr := hotel.IsAvailabilityError(err); availabilityErr != nil {
			s.l.LogInfo("Reservation refused: %v", availabilityErr.Error())
		}

		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusCreated, hotelapi.NewConfirmation(conf))
}

func (s *Server) hotelGetReservationHandler(w http.ResponseWriter, r *http.Request) {
	res, err := s.hotel.GetReservation(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, res)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) hotelCancelReservationHandler(w http.ResponseWriter, r *http.Request) {
	var in cancelRequest

	// The reason is optional; an absent or unreadable body leaves it empty.
	_ = decode(r, &in)

	if err := s.hotel.CancelReservation(r.Context(), r.PathValue("id"), in.Reason); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) hotelCatalogHandler(w http.ResponseWriter, r *http.Request) {
	c, err := s.hotel.Catalog(r.Context())
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, hotelapi.Catalog{Hotel: c.Hotel, Rooms: c.Rooms})
}
