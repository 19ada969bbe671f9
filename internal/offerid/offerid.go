// Package offerid encodes the routing token carried by every offer:
// {hotelCode}-{roomNumber}-{uniqueness token}.
package offerid

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	separator = "-"

	// UnknownRoom is returned when the room segment cannot be parsed.
	UnknownRoom = 0
)

type Key struct {
	HotelCode  string
	RoomNumber int
}

// Encode builds an offer id with a random uniqueness token, so two offers for
// the same room generated in the same instant still differ.
func Encode(hotelCode string, roomNumber int) string {
	return EncodeWithToken(hotelCode, roomNumber, uuid.NewString())
}

func EncodeWithToken(hotelCode string, roomNumber int, token string) string {
	return hotelCode + separator + strconv.Itoa(roomNumber) + separator + token
}

// Decode extracts what it can from id. It never fails: a missing or
// non-numeric room segment yields UnknownRoom and the caller is expected to
// validate the room against the hotel inventory.
func Decode(id string) Key {
	parts := strings.SplitN(strings.TrimSpace(id), separator, 3) //nolint:gomnd

	var key Key

	key.HotelCode = strings.ToLower(strings.TrimSpace(parts[0]))

	if len(parts) < 2 { //nolint:gomnd
		return key
	}

	n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || n < 0 {
		return key
	}

	key.RoomNumber = n

	return key
}

// Resolve prefers an explicitly supplied hotel code over the decoded one.
func Resolve(explicitHotelCode, id string) Key {
	key := Decode(id)

	if code := strings.ToLower(strings.TrimSpace(explicitHotelCode)); code != "" {
		key.HotelCode = code
	}

	return key
}
