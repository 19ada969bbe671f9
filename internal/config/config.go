package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrInvalidPartner      = errors.New("invalid partner definition")
	ErrInvalidDiscountRate = errors.New("discount rate must be in [0, 1)")
	ErrUnknownStorage      = errors.New("unknown storage kind")
)

const (
	StorageMemory = "memory"
	StorageMySQL  = "mysql"

	defaultPartners = "opera=http://localhost:8082,rivage=http://localhost:8084"
)

type Server struct {
	Host              string
	Port              string
	ReadHeaderTimeout time.Duration
	LivenessEndpoint  string
}

type DB struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

type Hotel struct {
	Code        string
	Server      Server
	Storage     string
	DB          DB
	RabbitMQURL string
	Debug       bool
}

type Partner struct {
	Code     string
	Endpoint string
}

type Cache struct {
	Enabled  bool
	TTL      time.Duration
	Addr     string
	Password string
	DB       int
}

type Agency struct {
	Name         string
	Server       Server
	DiscountRate float64
	Partners     []Partner
	HotelTimeout time.Duration
	MaxWorkers   int
	Cache        Cache
	Debug        bool
}

// LoadDotEnv loads .env from the working directory when present. A missing
// file is not an error: the environment alone is a valid source.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

func loadServer(defaultPort string) Server {
	return Server{
		Host:              envStr("HOST", "localhost"),
		Port:              defaultPort,
		ReadHeaderTimeout: envDur("READ_HEADER_TIMEOUT", 20*time.Second), //nolint:gomnd
		LivenessEndpoint:  envStr("LIVENESS_ENDPOINT", "/liveness"),
	}
}

func LoadHotel() (Hotel, error) {
	code := strings.ToLower(envStr("HOTEL_CODE", "opera"))

	srv := loadServer(envStr("HOTEL_PORT", "8082"))
	srv.Host = envStr("HOTEL_HOST", srv.Host)

	conf := Hotel{
		Code:    code,
		Server:  srv,
		Storage: strings.ToLower(envStr("STORAGE", StorageMemory)),
		DB: DB{
			User: envStr("DB_USER", "hotel"),
			Pass: envStr("DB_PASS", ""),
			Host: envStr("DB_HOST", "localhost"),
			Port: envStr("DB_PORT", "3306"),
			Name: envStr("DB_NAME", "hotel_"+code),
		},
		RabbitMQURL: envStr("RABBITMQ_URL", ""),
		Debug:       envBool("LOG_DEBUG", false),
	}

	if conf.Storage != StorageMemory && conf.Storage != StorageMySQL {
		return Hotel{}, fmt.Errorf("%q: %w", conf.Storage, ErrUnknownStorage)
	}

	return conf, nil
}

func LoadAgency() (Agency, error) {
	srv := loadServer(envStr("AGENCY_PORT", "8090"))
	srv.Host = envStr("AGENCY_HOST", srv.Host)

	partners, err := ParsePartners(envStr("AGENCY_PARTNERS", defaultPartners))
	if err != nil {
		return Agency{}, fmt.Errorf("parse AGENCY_PARTNERS: %w", err)
	}

	rate := envFloat("AGENCY_DISCOUNT_RATE", 0.10) //nolint:gomnd
	if rate < 0 || rate >= 1 {
		return Agency{}, fmt.Errorf("%v: %w", rate, ErrInvalidDiscountRate)
	}

	workers := envInt("AGENCY_MAX_WORKERS", 10) //nolint:gomnd
	if workers < 1 {
		workers = 1
	}

	return Agency{
		Name:         envStr("AGENCY_NAME", "Agence Centrale"),
		Server:       srv,
		DiscountRate: rate,
		Partners:     partners,
		HotelTimeout: envDur("AGENCY_HOTEL_TIMEOUT", 5*time.Second), //nolint:gomnd
		MaxWorkers:   workers,
		Cache: Cache{
			Enabled:  envBool("CACHE_ENABLED", false),
			TTL:      envDur("CACHE_TTL", 30*time.Second), //nolint:gomnd
			Addr:     envStr("REDIS_ADDR", "localhost:6379"),
			Password: envStr("REDIS_PASSWORD", ""),
			DB:       envInt("REDIS_DB", 0),
		},
		Debug: envBool("LOG_DEBUG", false),
	}, nil
}

// ParsePartners reads "code=baseURL" pairs separated by commas.
func ParsePartners(s string) ([]Partner, error) {
	var out []Partner

	seen := make(map[string]struct{})

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		code, endpoint, ok := strings.Cut(part, "=")
		code = strings.ToLower(strings.TrimSpace(code))
		endpoint = strings.TrimSpace(endpoint)

		if !ok || code == "" || endpoint == "" {
			return nil, fmt.Errorf("%q: %w", part, ErrInvalidPartner)
		}

		if _, dup := seen[code]; dup {
			return nil, fmt.Errorf("duplicate code %q: %w", code, ErrInvalidPartner)
		}

		if u, err := url.Parse(endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%q has no valid endpoint: %w", code, ErrInvalidPartner)
		}

		seen[code] = struct{}{}
		out = append(out, Partner{Code: code, Endpoint: strings.TrimRight(endpoint, "/")})
	}

	return out, nil
}
