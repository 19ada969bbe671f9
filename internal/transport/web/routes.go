package web

import (
	"fmt"
	"net/http"

	"github.com/avstrong/hotelbooking/internal/transport/hotelapi"
)

func (s *Server) livenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handle(r *http.ServeMux, pattern string, h http.HandlerFunc) {
	r.Handle(pattern, s.applyMiddlewares(h, s.loggerMiddleware(), s.recoverMiddleware()))
}

func (s *Server) addRoutes(r *http.ServeMux) {
	if s.hotel != nil {
		s.handle(r, "POST "+hotelapi.SearchPath, s.hotelSearchHandler)
		s.handle(r, "POST "+hotelapi.ReservationsPath, s.hotelReserveHandler)
		s.handle(r, "GET "+hotelapi.ReservationsPath+"/{id}", s.hotelGetReservationHandler)
		s.handle(r, "POST "+hotelapi.ReservationsPath+"/{id}/cancel", s.hotelCancelReservationHandler)
		s.handle(r, "GET "+hotelapi.CatalogPath, s.hotelCatalogHandler)
	}

	if s.agency != nil {
		s.handle(r, "POST /api/agency/v1/offers/search", s.agencySearchHandler)
		s.handle(r, "POST /api/agency/v1/offers/stream", s.agencyStreamHandler)
		s.handle(r, "POST /api/agency/v1/reservations", s.agencyReserveHandler)
		s.handle(r, "GET /api/agency/v1/catalog", s.agencyCatalogHandler)
	}

	s.handle(r, fmt.Sprintf("GET %s", s.conf.LivenessEndpoint), s.livenessHandler)
}
