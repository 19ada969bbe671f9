package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/logger"
)

var ErrUnknownHotel = errors.New("no seed data for hotel")

type storage interface {
	BeginTransaction(ctx context.Context) (context.Context, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
	GetHotel(ctx context.Context, code string) (*hotel.Hotel, error)
	SaveHotel(ctx context.Context, h *hotel.Hotel) error
	SaveRooms(ctx context.Context, rooms []*hotel.Room) error
}

type seed struct {
	hotel hotel.Hotel
	rooms []hotel.Room
}

func room(code string, number, beds, price int) hotel.Room {
	return hotel.Room{
		HotelCode:     code,
		Number:        number,
		Beds:          beds,
		PricePerNight: price,
		ImageURL:      fmt.Sprintf("/images/%s/%d.svg", code, number),
	}
}

//nolint:gomnd // seed data
var seeds = map[string]seed{
	"opera": {
		hotel: hotel.Hotel{
			Code:     "opera",
			Name:     "Opera",
			City:     "Montpellier",
			Country:  "France",
			Street:   "5 Bd Victor",
			Stars:    5,
			Category: "HAUT_DE_GAMME",
		},
		rooms: []hotel.Room{
			room("opera", 201, 2, 220),
			room("opera", 202, 2, 240),
			room("opera", 203, 3, 280),
		},
	},
	"rivage": {
		hotel: hotel.Hotel{
			Code:     "rivage",
			Name:     "Rivage",
			City:     "Sète",
			Country:  "France",
			Street:   "1 Quai du Large",
			Stars:    4,
			Category: "HAUT_DE_GAMME",
		},
		rooms: []hotel.Room{
			room("rivage", 101, 2, 120),
			room("rivage", 102, 3, 150),
			room("rivage", 103, 2, 130),
		},
	},
}

// Codes lists the hotels Up knows how to seed.
func Codes() []string {
	return []string{"opera", "rivage"}
}

// Up seeds the hotel identified by code and its rooms. A hotel that is already
// present is left untouched.
func Up(ctx context.Context, l *logger.Logger, storage storage, code string) (err error) {
	code = strings.ToLower(strings.TrimSpace(code))

	s, ok := seeds[code]
	if !ok {
		return fmt.Errorf("hotel '%s': %w", code, ErrUnknownHotel)
	}

	if _, err = storage.GetHotel(ctx, code); err == nil {
		l.LogInfo("Hotel '%s' already seeded", code)

		return nil
	} else if !errors.Is(err, hotel.ErrNotFound) {
		return fmt.Errorf("check hotel '%s': %w", code, err)
	}

	ctx, err = storage.BeginTransaction(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := storage.RollbackTransaction(ctx); rbErr != nil {
				l.LogErrorf("Could not rollback migration transaction after panic %v", p)
			}

			l.LogInfo("Migration transaction has been roll backed after panic")

			panic(p)
		}

		if err != nil {
			if rbErr := storage.RollbackTransaction(ctx); rbErr != nil {
				l.LogErrorf("Could not rollback migration transaction after error %v", rbErr.Error())
			}

			l.LogInfo("Migration transaction has been roll backed after error")

			return
		}

		if err = storage.CommitTransaction(ctx); err != nil {
			l.LogErrorf("Could not commit migration transaction, err %v", err.Error())

			return
		}

		l.LogInfo("Hotel '%s' seeded with %d rooms", code, len(s.rooms))
	}()

	h := s.hotel
	if err = storage.SaveHotel(ctx, &h); err != nil {
		return fmt.Errorf("save hotel to storage: %w", err)
	}

	rooms := make([]*hotel.Room, 0, len(s.rooms))
	for i := range s.rooms {
		r := s.rooms[i]
		rooms = append(rooms, &r)
	}

	if err = storage.SaveRooms(ctx, rooms); err != nil {
		return fmt.Errorf("save rooms to storage: %w", err)
	}

	return nil
}
