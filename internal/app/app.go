package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/hub"
	"github.com/thenoetrevino/tablero/internal/lock"
	"github.com/thenoetrevino/tablero/internal/ordering"
	boardservice "github.com/thenoetrevino/tablero/internal/services/board"
	statusservice "github.com/thenoetrevino/tablero/internal/services/status"
	ticketservice "github.com/thenoetrevino/tablero/internal/services/ticket"
	userservice "github.com/thenoetrevino/tablero/internal/services/user"
)

// App holds all application services and provides dependency injection.
// This is the main application container that manages service lifecycles.
type App struct {
	// Repository layer (direct database access)
	DB   *sql.DB
	Repo *database.Repository

	// Orderer places statuses and tickets inside their groups
	Orderer *ordering.Manager

	// Hub is nil unless the app was built WithHub
	Hub *hub.Hub

	// Service layer (business logic)
	UserService   userservice.Service
	BoardService  boardservice.Service
	StatusService statusservice.Service
	TicketService ticketservice.Service

	logger  *slog.Logger
	closers []func() error
}

// New creates a new App with all services initialized from cfg.
// This is the single entry point for creating the application container.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := &appConfig{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	a := &App{logger: o.logger}

	a.DB = o.db
	if a.DB == nil {
		db, err := database.InitDB(ctx, cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		a.DB = db
		a.closers = append(a.closers, db.Close)
	}
	a.Repo = database.NewRepository(a.DB)

	locker := o.locker
	if locker == nil {
		var err error
		if locker, err = a.newLocker(ctx, cfg.Lock); err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	a.Orderer = ordering.NewManager(ordering.Config{
		Baseline:    cfg.Ordering.Baseline,
		Precision:   cfg.Ordering.Precision,
		MaxAttempts: cfg.Ordering.MaxAttempts,
	}, locker, o.logger)

	publisher := o.publisher
	if o.withHub {
		a.Hub = hub.New(hub.Config{
			BroadcastBuffer: cfg.Hub.BroadcastBuffer,
			ClientBuffer:    cfg.Hub.ClientBuffer,
		}, o.logger)
		publisher = a.Hub
	}

	a.wireServices(cfg, publisher)
	return a, nil
}

func (a *App) wireServices(cfg *config.Config, publisher events.Publisher) {
	a.UserService = userservice.NewService(a.Repo)
	a.BoardService = boardservice.NewService(a.Repo, a.Orderer, publisher, boardservice.Config{
		InviteCodeLength: cfg.Board.InviteCodeLength,
		PageSize:         cfg.Board.PageSize,
	})
	a.StatusService = statusservice.NewService(a.Repo, a.BoardService, a.Orderer, publisher)
	a.TicketService = ticketservice.NewService(a.Repo, a.BoardService, a.StatusService, a.Orderer, publisher)
}

// newLocker builds the group locker of the configured backend.
func (a *App) newLocker(ctx context.Context, cfg config.LockConfig) (ordering.Locker, error) {
	switch cfg.Backend {
	case config.LockRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis unreachable: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.logger.Info("using redis group locks", "addr", opts.Addr)
		return lock.NewRedisLocker(client, cfg.TTL, a.logger), nil
	case config.LockMemory, "":
		return ordering.NewMutexLocker(), nil
	default:
		return nil, fmt.Errorf("unsupported lock backend %q", cfg.Backend)
	}
}

// Close stops the hub and releases the database and redis connections.
func (a *App) Close() error {
	if a.Hub != nil {
		a.Hub.Shutdown()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
