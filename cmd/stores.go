package main

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/tour-booking/internal/config"
	"github.com/Shivanand-hulikatti/tour-booking/internal/database"
	"github.com/Shivanand-hulikatti/tour-booking/internal/repository"
	"github.com/Shivanand-hulikatti/tour-booking/internal/service"
	"github.com/sirupsen/logrus"
)

type stores struct {
	bookings service.BookingStore
	payments service.PaymentStore
	users    service.UserStore
	close    func()
}

// openStores connects the backend named by STORE_DRIVER and makes sure its
// schema and unique indexes exist.
func openStores(ctx context.Context, cfg config.App, log logrus.FieldLogger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := database.NewPool(ctx, cfg.PostgresDSN(), log)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("connected to postgres")
		return &stores{
			bookings: repository.NewBookingRepository(pool),
			payments: repository.NewPaymentRepository(pool),
			users:    repository.NewUserRepository(pool),
			close:    pool.Close,
		}, nil

	case config.DriverMongo:
		client, err := database.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := database.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.WithField("database", cfg.MongoDatabase).Info("connected to mongo")
		return &stores{
			bookings: repository.NewMongoBookingRepository(db),
			payments: repository.NewMongoPaymentRepository(db),
			users:    repository.NewMongoUserRepository(db),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.WithError(err).Warn("mongo disconnect")
				}
			},
		}, nil

	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on exit")
		mem := repository.NewMemoryDB()
		return &stores{
			bookings: mem.Bookings(),
			payments: mem.Payments(),
			users:    mem.Users(),
			close:    func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
