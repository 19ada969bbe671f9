package hotel

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyExists   = errors.New("already exists")
	ErrUnavailable     = errors.New("unavailable")
	ErrUnimplemented   = errors.New("unimplemented")
	ErrNextID          = errors.New("get next id from generator")
)

// AvailabilityError reports the reservations a requested stay collides with.
type AvailabilityError struct {
	HotelCode  string
	RoomNumber int
	conflicts  []string
}

func NewAvailabilityError(hotelCode string, roomNumber int) *AvailabilityError {
	return &AvailabilityError{HotelCode: hotelCode, RoomNumber: roomNumber}
}

func IsAvailabilityError(err error) *AvailabilityError {
	if err == nil {
		return nil
	}

	var availabilityError *AvailabilityError

	if errors.As(err, &availabilityError) {
		return availabilityError
	}

	return nil
}

func (e *AvailabilityError) AddConflict(from, to time.Time) {
	e.conflicts = append(e.conflicts, fmt.Sprintf("[%s, %s)", FormatDate(from), FormatDate(to)))
}

func (e *AvailabilityError) ConflictsCount() int {
	return len(e.conflicts)
}

func (e *AvailabilityError) Conflicts() []string {
	return e.conflicts
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf(
		"room %d of hotel '%s' not available for requested period, conflicts with %s",
		e.RoomNumber,
		e.HotelCode,
		strings.Join(e.conflicts, ", "),
	)
}

func (e *AvailabilityError) Is(target error) bool {
	return target == ErrAlreadyExists
}

type InputError struct {
	fields map[string][]string
}

func newInputError() *InputError {
	return &InputError{
		fields: make(map[string][]string),
	}
}

func IsInputError(err error) *InputError {
	if err == nil {
		return nil
	}

	var inputError *InputError

	if errors.As(err, &inputError) {
		return inputError
	}

	return nil
}

func (ie *InputError) fieldsCount() int {
	return len(ie.fields)
}

func (ie *InputError) addError(field, msg string) {
	ie.fields[field] = append(ie.fields[field], msg)
}

func (ie *InputError) Error() string {
	keys := make([]string, 0, len(ie.fields))
	for k := range ie.fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(ie.fields[k], "; ")))
	}

	return "invalid argument: " + strings.Join(parts, ", ")
}

func (ie *InputError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func (ie *InputError) Fields() map[string][]string {
	return ie.fields
}
