// Package hotelclient calls a hotel backend over HTTP on behalf of the agency.
package hotelclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/logger"
	"github.com/avstrong/hotelbooking/internal/transport/hotelapi"
)

const maxBodySize = 4 << 20

type Client struct {
	l        *logger.Logger
	code     string
	endpoint string
	http     *http.Client
}

// New returns a client for the hotel served at endpoint. Per-call deadlines
// come from the caller's context.
func New(l *logger.Logger, code, endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		l:        l,
		code:     strings.ToLower(code),
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     httpClient,
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader

	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(hotelapi.HeaderRequestID, uuid.NewString())

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		req.Header.Set(hotelapi.HeaderTraceID, sc.TraceID().String())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("hotel '%s' %s %s: %v: %w", c.code, method, path, err, hotel.ErrUnavailable)
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr hotelapi.Error
		if err := dec.Decode(&apiErr); err != nil || apiErr.Code == "" {
			return fmt.Errorf("hotel '%s' answered %d: %w", c.code, resp.StatusCode, hotel.ErrUnavailable)
		}

		return fmt.Errorf("hotel '%s': %w", c.code, apiErr.Err())
	}

	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("hotel '%s' decode %s: %v: %w", c.code, path, err, hotelapi.ErrMalformed)
	}

	return nil
}

func (c *Client) Search(ctx context.Context, criteria hotel.SearchCriteria) ([]hotel.Offer, error) {
	var resp hotelapi.SearchResponse

	if err := c.do(ctx, http.MethodPost, hotelapi.SearchPath, hotelapi.NewSearchRequest(criteria), &resp); err != nil {
		return nil, err
	}

	if err := hotelapi.Check(&resp); err != nil {
		return nil, fmt.Errorf("hotel '%s' search response: %w", c.code, err)
	}

	offers := make([]hotel.Offer, 0, len(resp.Offers))

	for i := range resp.Offers {
		o, err := resp.Offers[i].Model()
		if err != nil {
			return nil, fmt.Errorf("hotel '%s' offer %d: %w", c.code, i, err)
		}

		offers = append(offers, o)
	}

	return offers, nil
}

func (c *Client) Reserve(ctx context.Context, req hotel.ReservationRequest) (*hotel.Confirmation, error) {
	var resp hotelapi.Confirmation

	in := hotelapi.NewReservationRequest(c.code, &req)
	if err := c.do(ctx, http.MethodPost, hotelapi.ReservationsPath, in, &resp); err != nil {
		return nil, err
	}

	conf, err := resp.Model()
	if err != nil {
		return nil, fmt.Errorf("hotel '%s' confirmation: %w", c.code, err)
	}

	c.l.LogDebug("hotel '%s' confirmed %s", c.code, conf.ReservationID)

	return conf, nil
}

func (c *Client) Catalog(ctx context.Context) (*hotel.Catalog, error) {
	var resp hotelapi.Catalog

	if err := c.do(ctx, http.MethodGet, hotelapi.CatalogPath, nil, &resp); err != nil {
		return nil, err
	}

	if err := hotelapi.Check(&resp); err != nil {
		return nil, fmt.Errorf("hotel '%s' catalog: %w", c.code, err)
	}

	return &hotel.Catalog{Hotel: resp.Hotel, Rooms: resp.Rooms}, nil
}
