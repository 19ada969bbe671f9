package hotelapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/avstrong/hotelbooking/internal/hotel"
)

const (
	CodeNotFound        = "not_found"
	CodeInvalidArgument = "invalid_argument"
	CodeAlreadyExists   = "already_exists"
	CodeUnavailable     = "unavailable"
	CodeUnimplemented   = "unimplemented"
	CodeInternal        = "internal"
)

// Error is the body of every non-2xx response.
type Error struct {
	Message string              `json:"error"`
	Code    string              `json:"code"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

var codes = []struct {
	err    error
	code   string
	status int
}{
	{err: hotel.ErrInvalidArgument, code: CodeInvalidArgument, status: http.StatusBadRequest},
	{err: hotel.ErrNotFound, code: CodeNotFound, status: http.StatusNotFound},
	{err: hotel.ErrAlreadyExists, code: CodeAlreadyExists, status: http.StatusConflict},
	{err: hotel.ErrUnavailable, code: CodeUnavailable, status: http.StatusServiceUnavailable},
	{err: hotel.ErrUnimplemented, code: CodeUnimplemented, status: http.StatusNotImplemented},
}

// Classify maps err onto a response code and HTTP status.
func Classify(err error) (string, int) {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code, c.status
		}
	}

	return CodeInternal, http.StatusInternalServerError
}

func NewError(err error) Error {
	code, _ := Classify(err)

	out := Error{Message: err.Error(), Code: code}
	if inputErr := hotel.IsInputError(err); inputErr != nil {
		out.Fields = inputErr.Fields()
	}

	if availabilityErr := hotel.IsAvailabilityError(err); availabilityErr != nil {
		out.Fields = map[string][]string{"conflicts": availabilityErr.Conflicts()}
	}

	return out
}

// Err turns a decoded error body back into an error matching the hotel
// sentinels.
func (e Error) Err() error {
	for _, c := range codes {
		if c.code == e.Code {
			return fmt.Errorf("%s: %w", e.Message, c.err)
		}
	}

	return fmt.Errorf("%s: %w", e.Message, hotel.ErrUnavailable)
}
