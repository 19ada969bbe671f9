package app

import (
	"context"
	"fmt"

	"github.com/avstrong/hotelbooking/internal/clock"
	"github.com/avstrong/hotelbooking/internal/config"
	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/idgen/simple"
	"github.com/avstrong/hotelbooking/internal/logger"
	"github.com/avstrong/hotelbooking/internal/migration"
	"github.com/avstrong/hotelbooking/internal/queue"
	"github.com/avstrong/hotelbooking/internal/storage/memory"
	"github.com/avstrong/hotelbooking/internal/storage/mysql"
	"github.com/avstrong/hotelbooking/internal/transport/web"
)

type hotelStorage interface {
	BeginTransaction(ctx context.Context) (context.Context, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
	GetHotel(ctx context.Context, code string) (*hotel.Hotel, error)
	SaveHotel(ctx context.Context, h *hotel.Hotel) error
	SaveRooms(ctx context.Context, rooms []*hotel.Room) error
	ListRooms(ctx context.Context, hotelCode string) ([]*hotel.Room, error)
	FindRoomForUpdate(ctx context.Context, hotelCode string, number int) (*hotel.Room, error)
	ReservationsForRoom(ctx context.Context, hotelCode string, number int) ([]*hotel.Reservation, error)
	CommitReservation(ctx context.Context, reservation *hotel.Reservation) error
}

// openStorage returns the configured store together with the last
// reservation number it already holds.
func openStorage(ctx context.Context, l *logger.Logger, conf config.Hotel) (hotelStorage, int, func(), error) {
	if conf.Storage != config.StorageMySQL {
		return memory.New(memory.Config{L: l.Named("memory")}), 0, func() {}, nil
	}

	sqlDB, err := mysql.Open(ctx, mysql.Conf{
		User: conf.DB.User,
		Pass: conf.DB.Pass,
		Host: conf.DB.Host,
		Port: conf.DB.Port,
		Name: conf.DB.Name,
	})
	if err != nil {
		return nil, 0, nil, err
	}

	db := mysql.New(l.Named("mysql"), sqlDB)
	if err := db.Migrate(ctx); err != nil {
		_ = sqlDB.Close()

		return nil, 0, nil, err
	}

	last, err := db.LastReservationNumber(ctx, conf.Code)
	if err != nil {
		_ = sqlDB.Close()

		return nil, 0, nil, err
	}

	return db, last, func() { _ = sqlDB.Close() }, nil
}

// RunHotel serves one hotel's search and reservation API until a
// termination signal arrives.
func RunHotel(l *logger.Logger) error {
	ctx, cancel := notifyContext()
	defer cancel()

	conf, err := config.LoadHotel()
	if err != nil {
		return wrap(err, "load hotel config")
	}

	l = l.WithDebug(conf.Debug).Named(conf.Code)

	storage, last, closeStorage, err := openStorage(ctx, l, conf)
	if err != nil {
		return wrap(err, "open storage")
	}
	defer closeStorage()

	if err := migration.Up(ctx, l, storage, conf.Code); err != nil {
		return fmt.Errorf("seed hotel %s: %w", conf.Code, err)
	}

	l.LogInfo("Hotel %s is seeded (%s storage)", conf.Code, conf.Storage)

	var opts []hotel.Option

	if conf.RabbitMQURL != "" {
		publisher := queue.NewPublisher(l.Named("queue"), conf.RabbitMQURL)
		defer publisher.Close()

		opts = append(opts, hotel.WithPublisher(publisher))
	}

	manager := hotel.New(l, conf.Code, storage, simple.NewFrom(last), clock.NewSystem(), opts...)
	defer manager.Wait()

	wc := webConf(l, conf.Server)

	srv, err := web.NewHotel(ctx, wc, manager)
	if err != nil {
		return wrap(err, "init http server")
	}

	return serve(ctx, cancel, l, wc, srv)
}
