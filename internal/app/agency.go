package app

import (
	"net/http"

	"github.com/avstrong/hotelbooking/internal/agency"
	"github.com/avstrong/hotelbooking/internal/config"
	"github.com/avstrong/hotelbooking/internal/logger"
	"github.com/avstrong/hotelbooking/internal/pricing"
	"github.com/avstrong/hotelbooking/internal/storage/redis"
	"github.com/avstrong/hotelbooking/internal/transport/hotelclient"
	"github.com/avstrong/hotelbooking/internal/transport/web"
)

// RunAgency serves the aggregating agency API until a termination signal
// arrives.
func RunAgency(l *logger.Logger) error {
	ctx, cancel := notifyContext()
	defer cancel()

	conf, err := config.LoadAgency()
	if err != nil {
		return wrap(err, "load agency config")
	}

	l = l.WithDebug(conf.Debug).Named("agency")

	discount, err := pricing.New(conf.DiscountRate)
	if err != nil {
		return wrap(err, "init pricing")
	}

	partners := make([]agency.Partner, 0, len(conf.Partners))
	for _, p := range conf.Partners {
		partners = append(partners, agency.Partner{Code: p.Code, Endpoint: p.Endpoint})
	}

	httpClient := &http.Client{} //nolint:exhaustruct
	newClient := func(p agency.Partner) agency.HotelClient {
		return hotelclient.New(l.Named("client:"+p.Code), p.Code, p.Endpoint, httpClient)
	}

	var opts []agency.Option

	if conf.Cache.Enabled {
		cacheConf := redis.Conf{
			Addr:     conf.Cache.Addr,
			Password: conf.Cache.Password,
			DB:       conf.Cache.DB,
			TTL:      conf.Cache.TTL,
		}

		client, err := redis.NewClient(ctx, cacheConf)
		if err != nil {
			l.LogWarn("Search cache disabled: %v", err)
		} else {
			defer client.Close()

			opts = append(opts, agency.WithCache(redis.NewSearchCache(l.Named("cache"), client, cacheConf)))
		}
	}

	aggregator, err := agency.New(l, agency.Conf{
		Name:         conf.Name,
		HotelTimeout: conf.HotelTimeout,
		MaxWorkers:   conf.MaxWorkers,
	}, discount, partners, newClient, opts...)
	if err != nil {
		return wrap(err, "init aggregator")
	}

	l.LogInfo("Agency %q aggregates %d partner hotels, discount rate %.2f", conf.Name, len(partners), discount.Rate())

	wc := webConf(l, conf.Server)

	srv, err := web.NewAgency(ctx, wc, aggregator)
	if err != nil {
		return wrap(err, "init http server")
	}

	return serve(ctx, cancel, l, wc, srv)
}
