package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/telemed-routing/internal/appointment"
	"github.com/hackgods/telemed-routing/internal/config"
	"github.com/hackgods/telemed-routing/internal/db"
	"github.com/hackgods/telemed-routing/internal/directory"
	"github.com/hackgods/telemed-routing/internal/encounter"
	"github.com/hackgods/telemed-routing/internal/events"
	redisclient "github.com/hackgods/telemed-routing/internal/redis"
	"github.com/hackgods/telemed-routing/internal/routing"
)

// App holds the process-wide dependencies shared by the server and worker
// binaries.
type App struct {
	Config config.Config
	Log    zerolog.Logger

	Pool  *pgxpool.Pool
	Redis *redis.Client

	Directory    *directory.PgDirectory
	Names        *directory.NameCache
	Table        *routing.Table
	Appointments *appointment.Service
	Encounters   *encounter.Service

	publisher events.Publisher
}

// NewLogger returns a JSON logger, or a console logger in dev.
func NewLogger(cfg config.Config, component string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", component).Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
			With().Timestamp().Str("app", component).Logger()
	}
	return logger
}

func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.ConnectPostgres(pgCtx, cfg)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	rdb, err := redisclient.NewRedisClient(ctx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")

	a := &App{Config: cfg, Log: log, Pool: pool, Redis: rdb}

	if len(cfg.KafkaBrokers) > 0 {
		a.publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("kafka publishing enabled")
	}
	recorder := events.NewRecorder(events.NewPgStore(pool), a.publisher, log)

	a.Directory = directory.NewPgDirectory(pool)
	a.Names, err = directory.NewNameCache(a.Directory, a.Directory, cfg.NameCacheSize)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("name cache: %w", err)
	}

	a.Table = routing.NewTable(cfg.DefaultFacility, routing.NabhaFacilities)
	locker := redisclient.NewRedisDoctorLocker(rdb, cfg.LockTTL, cfg.LockWait)

	a.Appointments = appointment.NewService(
		appointment.NewPgRepository(pool),
		a.Directory,
		a.Table,
		locker,
		cfg,
		appointment.WithLogger(log),
		appointment.WithEvents(recorder),
	)
	a.Encounters = encounter.NewService(
		encounter.NewPgRepository(pool),
		a.Directory,
		a.Directory,
		encounter.WithLogger(log),
		encounter.WithEvents(recorder),
	)
	return a, nil
}

func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("closing kafka writer")
		}
	}
	if err := a.Redis.Close(); err != nil {
		a.Log.Warn().Err(err).Msg("closing redis")
	}
	a.Pool.Close()
}
