package agency

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/avstrong/hotelbooking/internal/hotel"
)

type Catalog struct {
	Name   string        `json:"name"`
	Cities []string      `json:"cities"`
	Hotels []hotel.Hotel `json:"hotels"`
}

// Catalog lists partner hotels and their cities, deduplicated in partner
// order. Unreachable partners are left out.
func (a *Aggregator) Catalog(ctx context.Context) *Catalog {
	perHotel := make([]*hotel.Catalog, len(a.partners))

	var g errgroup.Group

	g.SetLimit(a.conf.MaxWorkers)

	for i, p := range a.partners {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(ctx, a.conf.HotelTimeout)
			defer cancel()

			c, err := p.client.Catalog(ctx)
			if err != nil {
				a.l.LogWarn("hotel '%s' catalog failed, skipping: %v", p.Code, err)

				return nil
			}

			perHotel[i] = c

			return nil
		})
	}

	_ = g.Wait()

	out := &Catalog{Name: a.conf.Name, Cities: []string{}, Hotels: []hotel.Hotel{}}
	seen := make(map[string]struct{})

	for _, c := range perHotel {
		if c == nil {
			continue
		}

		out.Hotels = append(out.Hotels, c.Hotel)

		if _, ok := seen[c.Hotel.City]; ok || c.Hotel.City == "" {
			continue
		}

		seen[c.Hotel.City] = struct{}{}
		out.Cities = append(out.Cities, c.Hotel.City)
	}

	return out
}
