package config

import (
	"errors"
	"testing"
	"time"
)

func TestParsePartners(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []Partner
		wantErr bool
	}{
		{
			name:  "two partners",
			input: "opera=http://localhost:8082, Rivage=http://localhost:8084/",
			want: []Partner{
				{Code: "opera", Endpoint: "http://localhost:8082"},
				{Code: "rivage", Endpoint: "http://localhost:8084"},
			},
		},
		{
			name:  "empty list",
			input: " , ",
		},
		{
			name:    "missing endpoint",
			input:   "opera=",
			wantErr: true,
		},
		{
			name:    "duplicate code",
			input:   "opera=http://a:1,opera=http://b:2",
			wantErr: true,
		},
		{
			name:    "endpoint without scheme",
			input:   "opera=localhost",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePartners(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPartner) {
					t.Fatalf("expected ErrInvalidPartner, got %v", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("expected %d partners, got %d (%+v)", len(tt.want), len(got), got)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("partner %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestLoadAgency(t *testing.T) {
	t.Setenv("AGENCY_DISCOUNT_RATE", "0.2")
	t.Setenv("AGENCY_HOTEL_TIMEOUT", "750ms")
	t.Setenv("AGENCY_MAX_WORKERS", "0")
	t.Setenv("AGENCY_PARTNERS", "opera=http://opera:8082")

	conf, err := LoadAgency()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conf.DiscountRate != 0.2 {
		t.Fatalf("expected rate 0.2, got %v", conf.DiscountRate)
	}

	if conf.HotelTimeout != 750*time.Millisecond {
		t.Fatalf("expected 750ms timeout, got %v", conf.HotelTimeout)
	}

	if conf.MaxWorkers != 1 {
		t.Fatalf("expected workers clamped to 1, got %d", conf.MaxWorkers)
	}

	if len(conf.Partners) != 1 || conf.Partners[0].Code != "opera" {
		t.Fatalf("unexpected partners %+v", conf.Partners)
	}
}

func TestLoadAgencyRejectsDiscountRate(t *testing.T) {
	t.Setenv("AGENCY_DISCOUNT_RATE", "1.5")

	if _, err := LoadAgency(); !errors.Is(err, ErrInvalidDiscountRate) {
		t.Fatalf("expected ErrInvalidDiscountRate, got %v", err)
	}
}

func TestLoadHotelRejectsStorage(t *testing.T) {
	t.Setenv("STORAGE", "mongo")

	if _, err := LoadHotel(); !errors.Is(err, ErrUnknownStorage) {
		t.Fatalf("expected ErrUnknownStorage, got %v", err)
	}
}
