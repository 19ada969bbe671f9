package web

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/avstrong/hotelbooking/internal/agency"
	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/logger"
)

type hotelService interface {
	Code() string
	Search(ctx context.Context, criteria hotel.SearchCriteria) ([]hotel.Offer, error)
	Reserve(ctx context.Context, req hotel.ReservationRequest) (*hotel.Confirmation, error)
	Catalog(ctx context.Context) (*hotel.Catalog, error)
	GetReservation(ctx context.Context, id string) (*hotel.Reservation, error)
	CancelReservation(ctx context.Context, id, reason string) error
}

type agencyService interface {
	Name() string
	SearchAll(ctx context.Context, criteria hotel.SearchCriteria) ([]agency.Offer, error)
	SearchStream(ctx context.Context, criteria hotel.SearchCriteria, emit func(agency.Offer) error) (int, error)
	Reserve(ctx context.Context, req agency.ReservationRequest) agency.Outcome
	Catalog(ctx context.Context) *agency.Catalog
}

// Server serves either a hotel API or an agency API.
type Server struct {
	srv    *http.Server
	router *http.ServeMux
	l      *logger.Logger
	conf   Conf
	hotel  hotelService
	agency agencyService
}

type Conf struct {
	L                 *logger.Logger
	ServerLogger      *log.Logger
	Host              string
	Port              string
	ReadHeaderTimeout time.Duration
	LivenessEndpoint  string
}

func newServer(ctx context.Context, conf Conf) *Server {
	mux := http.NewServeMux()

	//nolint:exhaustruct
	srv := &http.Server{
		Addr:              net.JoinHostPort(conf.Host, conf.Port),
		ReadHeaderTimeout: conf.ReadHeaderTimeout,
		ErrorLog:          conf.ServerLogger,
		Handler:           mux,
		BaseContext: func(listener net.Listener) context.Context {
			return ctx
		},
	}

	//nolint:exhaustruct
	return &Server{
		srv:    srv,
		router: mux,
		l:      conf.L,
		conf:   conf,
	}
}

func NewHotel(ctx context.Context, conf Conf, hotelManager hotelService) (*Server, error) {
	if hotelManager == nil {
		return nil, ErrNoService
	}

	server := newServer(ctx, conf)
	server.hotel = hotelManager
	server.addRoutes(server.router)

	return server, nil
}

func NewAgency(ctx context.Context, conf Conf, aggregator agencyService) (*Server, error) {
	if aggregator == nil {
		return nil, ErrNoService
	}

	server := newServer(ctx, conf)
	server.agency = aggregator
	server.addRoutes(server.router)

	return server, nil
}

func (s *Server) Srv() *http.Server {
	return s.srv
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
