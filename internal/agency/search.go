package agency

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/avstrong/hotelbooking/internal/hotel"
)

// CacheKey identifies a search for SearchCache.
func CacheKey(c hotel.SearchCriteria) string {
	return fmt.Sprintf("search:%s|%s|%s|%d|%s",
		strings.ToLower(strings.TrimSpace(c.City)),
		hotel.FormatDate(c.Arrival),
		hotel.FormatDate(c.Departure),
		c.NumPersons,
		strings.TrimSpace(c.AgencyID),
	)
}

// searchOne never fails: an unreachable, slow or broken hotel yields no offers.
func (a *Aggregator) searchOne(ctx context.Context, p partnerClient, criteria hotel.SearchCriteria) []Offer {
	ctx, cancel := context.WithTimeout(ctx, a.conf.HotelTimeout)
	defer cancel()

	raw, err := p.client.Search(ctx, criteria)
	if err != nil {
		a.l.LogWarn("hotel '%s' search failed, skipping: %v", p.Code, err)

		return nil
	}

	offers := make([]Offer, 0, len(raw))
	for i := range raw {
		offers = append(offers, a.display(p.Partner, &raw[i]))
	}

	a.l.LogDebug("hotel '%s' returned %d offers", p.Code, len(offers))

	return offers
}

// SearchAll queries every partner concurrently and waits for all of them.
// Offers are concatenated in partner order. Partner failures are logged and
// contribute nothing; only invalid criteria produce an error.
func (a *Aggregator) SearchAll(ctx context.Context, criteria hotel.SearchCriteria) ([]Offer, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	key := CacheKey(criteria)

	if a.cache != nil {
		cached, ok, err := a.cache.Get(ctx, key)
		if err != nil {
			a.l.LogWarn("search cache get %s: %v", key, err)
		} else if ok {
			a.l.LogDebug("search cache hit %s", key)

			return cached, nil
		}
	}

	perHotel := make([][]Offer, len(a.partners))

	var g errgroup.Group

	g.SetLimit(a.conf.MaxWorkers)

	for i, p := range a.partners {
		g.Go(func() error {
			perHotel[i] = a.searchOne(ctx, p, criteria)

			return nil
		})
	}

	_ = g.Wait()

	offers := make([]Offer, 0)
	for _, o := range perHotel {
		offers = append(offers, o...)
	}

	a.l.LogInfo("search city='%s' returned %d offers from %d hotels", criteria.City, len(offers), len(a.partners))

	if a.cache != nil && ctx.Err() == nil {
		if err := a.cache.Set(ctx, key, offers); err != nil {
			a.l.LogWarn("search cache set %s: %v", key, err)
		}
	}

	return offers, nil
}

// SearchStream hands each offer to emit as soon as its hotel answers. emit is
// never called concurrently. Once ctx is done or emit fails, remaining results
// are dropped. It returns the number of emitted offers.
func (a *Aggregator) SearchStream(
	ctx context.Context,
	criteria hotel.SearchCriteria,
	emit func(Offer) error,
) (int, error) {
	if err := criteria.Validate(); err != nil {
		return 0, err
	}

	var (
		mu      sync.Mutex
		sent    int
		emitErr error
		g       errgroup.Group
	)

	g.SetLimit(a.conf.MaxWorkers)

	for _, p := range a.partners {
		g.Go(func() error {
			offers := a.searchOne(ctx, p, criteria)

			mu.Lock()
			defer mu.Unlock()

			for _, o := range offers {
				if emitErr != nil || ctx.Err() != nil {
					return nil
				}

				if err := emit(o); err != nil {
					emitErr = err

					return nil
				}

				sent++
			}

			return nil
		})
	}

	_ = g.Wait()

	if emitErr != nil {
		return sent, fmt.Errorf("emit offer: %w", emitErr)
	}

	return sent, nil
}
