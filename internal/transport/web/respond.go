package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/transport/hotelapi"
)

const maxRequestBody = 1 << 20

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.l.LogErrorf("Could not encode response: %v", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := hotelapi.NewError(err)

	_, status := hotelapi.Classify(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		s.l.LogErrorf("Could not serve request: %v", err.Error())

		body.Message = http.StatusText(status)
	}

	s.writeJSON(w, status, body)
}

// decode reads a JSON body into v. Syntax errors are InvalidArgument.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("request body: %v: %w", err, hotel.ErrInvalidArgument)
	}

	return nil
}

// checkRequest validates struct tags of an incoming document.
func checkRequest(v any) error {
	if err := hotelapi.Check(v); err != nil {
		return fmt.Errorf("%v: %w", err, hotel.ErrInvalidArgument)
	}

	return nil
}
