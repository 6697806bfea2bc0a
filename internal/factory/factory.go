package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/tallydeck/tallydeck/internal/dependencies/clock"
	"github.com/tallydeck/tallydeck/internal/dependencies/random"
	"github.com/tallydeck/tallydeck/internal/services/auth"
	"github.com/tallydeck/tallydeck/internal/services/eventlog"
	"github.com/tallydeck/tallydeck/internal/services/presence"
	"github.com/tallydeck/tallydeck/internal/services/score"
	"github.com/tallydeck/tallydeck/internal/services/session"
	"github.com/tallydeck/tallydeck/internal/services/sessionsync"
	"github.com/tallydeck/tallydeck/internal/sessionlock"
	"github.com/tallydeck/tallydeck/internal/storage"
	"github.com/tallydeck/tallydeck/internal/storage/memory"
	redisstorage "github.com/tallydeck/tallydeck/internal/storage/redis"
	sqlitestorage "github.com/tallydeck/tallydeck/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	EventLog          *eventlog.Service
	SessionController *session.Controller
	ScoreAggregator   *score.Aggregator
	PresenceTracker   *presence.Tracker
	SyncService       *sessionsync.Service
	AuthService       *auth.Service
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file path (required if StorageType is "sqlite")
	SQLitePath string
	// JWTSecret signs bearer tokens
	JWTSecret []byte
	// PresenceTimeout is the online window (optional, defaults applied)
	PresenceTimeout time.Duration
	// EventPageSize caps events per poll (optional, defaults applied)
	EventPageSize int
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlitestorage.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	locks := sessionlock.New()

	eventLog := eventlog.New(store, clk, cfg.EventPageSize)
	sessionController := session.NewController(store, eventLog, rnd, locks, logger)
	scoreAggregator := score.NewAggregator(store, eventLog, locks, logger)
	presenceTracker := presence.NewTracker(clk, cfg.PresenceTimeout)
	syncService := sessionsync.New(store, sessionController, scoreAggregator, eventLog, presenceTracker, clk, logger)
	authService := auth.New(store, clk, cfg.JWTSecret, 0, logger)

	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		EventLog:          eventLog,
		SessionController: sessionController,
		ScoreAggregator:   scoreAggregator,
		PresenceTracker:   presenceTracker,
		SyncService:       syncService,
		AuthService:       authService,
	}
}
