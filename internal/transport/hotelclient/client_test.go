package hotelclient

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avstrong/hotelbooking/internal/clock"
	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/idgen/simple"
	"github.com/avstrong/hotelbooking/internal/logger"
	"github.com/avstrong/hotelbooking/internal/migration"
	"github.com/avstrong/hotelbooking/internal/storage/memory"
	"github.com/avstrong/hotelbooking/internal/transport/hotelapi"
	"github.com/avstrong/hotelbooking/internal/transport/web"
)

func discardLogger() *logger.Logger {
	return logger.New(log.New(io.Discard, "", 0))
}

func newHotelServer(t *testing.T, code string) *httptest.Server {
	t.Helper()

	l := discardLogger()
	db := memory.New(memory.Config{L: l})

	if err := migration.Up(context.Background(), l, db, code); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m := hotel.New(l, code, db, simple.New(), clock.NewFixed(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))

	srv, err := web.NewHotel(context.Background(), web.Conf{
		L:                l,
		ServerLogger:     log.New(io.Discard, "", 0),
		LivenessEndpoint: "/liveness",
	}, m)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts
}

func TestClient_AgainstHotelServer(t *testing.T) {
	t.Parallel()

	ts := newHotelServer(t, "rivage")
	c := New(discardLogger(), "rivage", ts.URL+"/", ts.Client())
	ctx := context.Background()

	arrival := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	departure := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)

	offers, err := c.Search(ctx, hotel.SearchCriteria{City: "sète", Arrival: arrival, Departure: departure, NumPersons: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(offers) != 3 || offers[0].Room.Number != 101 || offers[0].TotalPrice != 360 {
		t.Fatalf("unexpected offers %+v", offers)
	}
	if !offers[0].Arrival.Equal(arrival) || offers[0].Nights != 3 {
		t.Fatalf("dates lost on the wire: %+v", offers[0])
	}

	conf, err := c.Reserve(ctx, hotel.ReservationRequest{
		RoomNumber: 101,
		ClientName: "Durand",
		Card:       "4970100000001234",
		Arrival:    arrival,
		Departure:  departure,
		Agency:     "agency-1",
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if conf.TotalPrice != 360 || conf.HotelCode != "rivage" || conf.ConfirmationCode == "" {
		t.Fatalf("unexpected confirmation %+v", conf)
	}

	_, err = c.Reserve(ctx, hotel.ReservationRequest{
		RoomNumber: 101,
		ClientName: "Martin",
		Arrival:    arrival.AddDate(0, 0, 1),
		Departure:  departure.AddDate(0, 0, 1),
	})
	if !errors.Is(err, hotel.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists across the wire, got %v", err)
	}

	catalog, err := c.Catalog(ctx)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if catalog.Hotel.City != "Sète" || len(catalog.Rooms) != 3 {
		t.Fatalf("unexpected catalog %+v", catalog)
	}
}

func TestClient_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "offer without id",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"offers":[{"hotel":{"code":"opera","city":"Montpellier"},"room":{"number":201,"bedCount":2},"numNights":1,"currency":"EUR"}],"totalCount":1}`)
			},
			wantErr: hotelapi.ErrMalformed,
		},
		{
			name: "missing offers",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"totalCount":0}`)
			},
			wantErr: hotelapi.ErrMalformed,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `<html>`)
			},
			wantErr: hotelapi.ErrMalformed,
		},
		{
			name: "bare 502",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr: hotel.ErrUnavailable,
		},
		{
			name: "error envelope",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"error":"hotel 'opera' is not seeded","code":"not_found"}`)
			},
			wantErr: hotel.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			_, err := New(discardLogger(), "opera", ts.URL, ts.Client()).Search(context.Background(), hotel.SearchCriteria{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(discardLogger(), "opera", url, nil).Search(context.Background(), hotel.SearchCriteria{})
	if !errors.Is(err, hotel.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
