package app

import (
	"database/sql"
	"log/slog"

	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/ordering"
)

// Option is a functional option for configuring App initialization
type Option func(*appConfig)

// appConfig holds the configuration for App initialization
type appConfig struct {
	publisher events.Publisher
	logger    *slog.Logger
	db        *sql.DB
	locker    ordering.Locker
	withHub   bool
}

// WithEventPublisher sets the event publisher for the application.
// It is ignored when WithHub is also given.
func WithEventPublisher(p events.Publisher) Option {
	return func(cfg *appConfig) {
		cfg.publisher = p
	}
}

// WithHub creates the websocket hub and publishes every event through it
func WithHub() Option {
	return func(cfg *appConfig) {
		cfg.withHub = true
	}
}

// WithLogger sets the logger for the application
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) {
		cfg.logger = logger
	}
}

// WithDB uses an already opened database instead of the configured path.
// The caller keeps ownership of db.
func WithDB(db *sql.DB) Option {
	return func(cfg *appConfig) {
		cfg.db = db
	}
}

// WithLocker overrides the configured lock backend
func WithLocker(l ordering.Locker) Option {
	return func(cfg *appConfig) {
		cfg.locker = l
	}
}
