package web

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avstrong/hotelbooking/internal/agency"
	"github.com/avstrong/hotelbooking/internal/clock"
	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/idgen/simple"
	"github.com/avstrong/hotelbooking/internal/logger"
	"github.com/avstrong/hotelbooking/internal/migration"
	"github.com/avstrong/hotelbooking/internal/pricing"
	"github.com/avstrong/hotelbooking/internal/storage/memory"
	"github.com/avstrong/hotelbooking/internal/transport/hotelapi"
)

func testConf() Conf {
	l := logger.New(log.New(io.Discard, "", 0))

	return Conf{
		L:                 l,
		ServerLogger:      log.New(io.Discard, "", 0),
		Host:              "localhost",
		Port:              "0",
		ReadHeaderTimeout: time.Second,
		LivenessEndpoint:  "/liveness",
	}
}

func newHotelHandler(t *testing.T) http.Handler {
	t.Helper()

	conf := testConf()
	db := memory.New(memory.Config{L: conf.L})

	if err := migration.Up(context.Background(), conf.L, db, "opera"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m := hotel.New(conf.L, "opera", db, simple.New(), clock.NewFixed(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))

	srv, err := NewHotel(context.Background(), conf, m)
	if err != nil {
		t.Fatalf("new hotel server: %v", err)
	}

	return srv.Handler()
}

func TestHotelRoutes(t *testing.T) {
	t.Parallel()

	h := newHotelHandler(t)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "search",
			method:         http.MethodPost,
			path:           hotelapi.SearchPath,
			body:           `{"city":"montpellier","arrivalDate":"2025-06-01","departureDate":"2025-06-04","numPersons":3}`,
			expectedStatus: http.StatusOK,
			expectedSubstr: `"totalCount":1`,
		},
		{
			name:           "search other city",
			method:         http.MethodPost,
			path:           hotelapi.SearchPath,
			body:           `{"city":"Paris"}`,
			expectedStatus: http.StatusOK,
			expectedSubstr: `"offers":[]`,
		},
		{
			name:           "search bad date",
			method:         http.MethodPost,
			path:           hotelapi.SearchPath,
			body:           `{"arrivalDate":"06/01/2025","departureDate":"2025-06-04"}`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"code":"invalid_argument"`,
		},
		{
			name:           "search invalid json",
			method:         http.MethodPost,
			path:           hotelapi.SearchPath,
			body:           `{"city":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "reserve",
			method:         http.MethodPost,
			path:           hotelapi.ReservationsPath,
			body:           `{"hotelId":"opera","roomId":202,"clientName":"Durand","clientCard":"4970100000001234","arrivalDate":"2025-06-01","departureDate":"2025-06-04","numPersons":2}`,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"totalPrice":720`,
		},
		{
			name:           "reserve other hotel",
			method:         http.MethodPost,
			path:           hotelapi.ReservationsPath,
			body:           `{"hotelId":"rivage","roomId":101,"clientName":"Durand","arrivalDate":"2025-06-01","departureDate":"2025-06-04"}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "reserve unknown room",
			method:         http.MethodPost,
			path:           hotelapi.ReservationsPath,
			body:           `{"roomId":999,"clientName":"Durand","arrivalDate":"2025-06-01","departureDate":"2025-06-04"}`,
			expectedStatus: http.StatusNotFound,
			expectedSubstr: `"code":"not_found"`,
		},
		{
			name:           "reserve missing client",
			method:         http.MethodPost,
			path:           hotelapi.ReservationsPath,
			body:           `{"roomId":201,"arrivalDate":"2025-06-01","departureDate":"2025-06-04"}`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"client_name"`,
		},
		{
			name:           "lookup is not implemented",
			method:         http.MethodGet,
			path:           hotelapi.ReservationsPath + "/RES-1",
			expectedStatus: http.StatusNotImplemented,
			expectedSubstr: `"code":"unimplemented"`,
		},
		{
			name:           "cancel is not implemented",
			method:         http.MethodPost,
			path:           hotelapi.ReservationsPath + "/RES-1/cancel",
			body:           `{"reason":"changed plans"}`,
			expectedStatus: http.StatusNotImplemented,
		},
		{
			name:           "catalog",
			method:         http.MethodGet,
			path:           hotelapi.CatalogPath,
			expectedStatus: http.StatusOK,
			expectedSubstr: `"city":"Montpellier"`,
		},
		{
			name:           "liveness",
			method:         http.MethodGet,
			path:           "/liveness",
			expectedStatus: http.StatusNoContent,
		},
	}

	// Sequential: the reservation case changes state.
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		if rec.Code != tt.expectedStatus {
			t.Fatalf("%s: expected status %d, got %d (%s)", tt.name, tt.expectedStatus, rec.Code, rec.Body.String())
		}

		if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
			t.Fatalf("%s: expected body to contain %s, got %s", tt.name, tt.expectedSubstr, rec.Body.String())
		}
	}
}

func TestHotelReserveConflict(t *testing.T) {
	t.Parallel()

	h := newHotelHandler(t)
	body := `{"roomId":201,"clientName":"Durand","arrivalDate":"2025-06-01","departureDate":"2025-06-04"}`

	statuses := make([]int, 0, 2)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, hotelapi.ReservationsPath, strings.NewReader(body)))
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusCreated || statuses[1] != http.StatusConflict {
		t.Fatalf("expected 201 then 409, got %v", statuses)
	}
}

type stubAgency struct {
	offers  []agency.Offer
	outcome agency.Outcome
	got     agency.ReservationRequest
}

func (s *stubAgency) Name() string { return "agency-1" }

func (s *stubAgency) SearchAll(_ context.Context, c hotel.SearchCriteria) ([]agency.Offer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return s.offers, nil
}

func (s *stubAgency) SearchStream(_ context.Context, _ hotel.SearchCriteria, emit func(agency.Offer) error) (int, error) {
	for i, o := range s.offers {
		if err := emit(o); err != nil {
			return i, err
		}
	}

	return len(s.offers), nil
}

func (s *stubAgency) Reserve(_ context.Context, req agency.ReservationRequest) agency.Outcome {
	s.got = req

	return s.outcome
}

func (s *stubAgency) Catalog(context.Context) *agency.Catalog {
	return &agency.Catalog{Name: "agency-1", Cities: []string{"Montpellier", "Sète"}}
}

func discounted(id string, original int) agency.Offer {
	d, _ := pricing.New(pricing.DefaultRate)

	return agency.Offer{OfferID: id, HotelName: "Opera", Quote: d.Quote(original)}
}

func newAgencyHandler(t *testing.T, stub *stubAgency) http.Handler {
	t.Helper()

	srv, err := NewAgency(context.Background(), testConf(), stub)
	if err != nil {
		t.Fatalf("new agency server: %v", err)
	}

	return srv.Handler()
}

func TestAgencySearch(t *testing.T) {
	t.Parallel()

	h := newAgencyHandler(t, &stubAgency{offers: []agency.Offer{discounted("opera-201-a", 660)}})

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "success",
			body:           `{"city":"Montpellier","arrivalDate":"2025-06-01","departureDate":"2025-06-04","numPersons":2}`,
			expectedStatus: http.StatusOK,
			expectedSubstr: `"totalPrice":594`,
		},
		{
			name:           "inverted dates",
			body:           `{"arrivalDate":"2025-06-04","departureDate":"2025-06-01"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative persons",
			body:           `{"numPersons":-1}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/agency/v1/offers/search", strings.NewReader(tt.body)))

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}

			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected body to contain %s, got %s", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

func TestAgencyStream(t *testing.T) {
	t.Parallel()

	stub := &stubAgency{offers: []agency.Offer{discounted("opera-201-a", 660), discounted("rivage-101-b", 120)}}
	h := newAgencyHandler(t, stub)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/agency/v1/offers/stream", strings.NewReader(`{}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("unexpected content type %s", ct)
	}

	var ids []string

	sc := bufio.NewScanner(rec.Body)
	for sc.Scan() {
		var o agency.Offer
		if err := json.Unmarshal(sc.Bytes(), &o); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}

		ids = append(ids, o.OfferID)
	}

	if len(ids) != 2 || ids[0] != "opera-201-a" || ids[1] != "rivage-101-b" {
		t.Fatalf("unexpected stream %v", ids)
	}
}

func TestAgencyReserve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		outcome        agency.Outcome
		expectedStatus int
		expectedSubstr string
		reachesAgency  bool
	}{
		{
			name:           "confirmed",
			body:           `{"offerId":"opera-201-a","clientLastName":"Durand","cardNumber":"4970100000001234","arrivalDate":"2025-06-01","departureDate":"2025-06-04","numPersons":2}`,
			outcome:        agency.Outcome{Success: true, Message: "Reservation confirmed", Reference: "CONF-ABCDEF12", TotalPrice: 660},
			expectedStatus: http.StatusOK,
			expectedSubstr: `"reference":"CONF-ABCDEF12"`,
			reachesAgency:  true,
		},
		{
			name:           "hotel refused",
			body:           `{"offerId":"opera-201-a","clientLastName":"Durand","arrivalDate":"2025-06-01","departureDate":"2025-06-04"}`,
			outcome:        agency.Outcome{Success: false, Message: "Reservation failed: already exists"},
			expectedStatus: http.StatusOK,
			expectedSubstr: `"success":false`,
			reachesAgency:  true,
		},
		{
			name:           "missing offer id",
			body:           `{"clientLastName":"Durand","arrivalDate":"2025-06-01","departureDate":"2025-06-04"}`,
			expectedStatus: http.StatusOK,
			expectedSubstr: `"success":false`,
		},
		{
			name:           "invalid json",
			body:           `{"offerId":`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stub := &stubAgency{outcome: tt.outcome}
			h := newAgencyHandler(t, stub)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/agency/v1/reservations", strings.NewReader(tt.body)))

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}

			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected body to contain %s, got %s", tt.expectedSubstr, rec.Body.String())
			}

			if tt.reachesAgency != (stub.got.OfferID != "") {
				t.Fatalf("reachesAgency=%v but agency got %+v", tt.reachesAgency, stub.got)
			}

			if tt.reachesAgency && stub.got.Arrival.IsZero() {
				t.Fatalf("dates were not forwarded: %+v", stub.got)
			}
		})
	}
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	srv, err := NewAgency(context.Background(), testConf(), &stubAgency{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	h := srv.applyMiddlewares(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), srv.loggerMiddleware(), srv.recoverMiddleware())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), `"code":"internal"`) {
		t.Fatalf("expected 500 envelope, got %d %s", rec.Code, rec.Body.String())
	}
}
