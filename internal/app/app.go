// Package app holds the AnswerXtractor use cases: accounts, documents,
// grounded chat and study tools.
package app

import (
	"context"
	"errors"
	"time"

	"answerxtractor/pkg/ai"
	"answerxtractor/pkg/storage"
	"answerxtractor/pkg/store"
)

const (
	defaultGenerationTimeout = 60 * time.Second
	defaultMaxUploadBytes    = 16 << 20
	defaultPresignExpiry     = 15 * time.Minute
)

// Config wires the dependencies used by App.
type Config struct {
	Store     store.Store
	Sessions  store.SessionStore
	Generator ai.TextGenerator
	// Objects archives original uploads. Nil disables archival and downloads.
	Objects storage.ObjectStore

	// HistoryLimit is how many earlier messages are replayed to the model. 0 sends none.
	HistoryLimit      int
	GenerationTimeout time.Duration
	MaxUploadBytes    int64
	PresignExpiry     time.Duration
}

// App coordinates persistence, extraction and generation.
type App struct {
	store     store.Store
	sessions  store.SessionStore
	generator ai.TextGenerator
	objects   storage.ObjectStore

	historyLimit      int
	generationTimeout time.Duration
	maxUploadBytes    int64
	presignExpiry     time.Duration
	now               func() time.Time
}

// New constructs the application service.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("store required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("text generator required")
	}
	if cfg.HistoryLimit < 0 {
		return nil, errors.New("history limit must not be negative")
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaultGenerationTimeout
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = defaultPresignExpiry
	}
	return &App{
		store:             cfg.Store,
		sessions:          cfg.Sessions,
		generator:         cfg.Generator,
		objects:           cfg.Objects,
		historyLimit:      cfg.HistoryLimit,
		generationTimeout: cfg.GenerationTimeout,
		maxUploadBytes:    cfg.MaxUploadBytes,
		presignExpiry:     cfg.PresignExpiry,
		now:               func() time.Time { return time.Now().UTC() },
	}, nil
}

// MaxUploadBytes is the upload ceiling enforced by UploadDocument.
func (a *App) MaxUploadBytes() int64 {
	return a.maxUploadBytes
}

// DownloadsEnabled reports whether originals are archived.
func (a *App) DownloadsEnabled() bool {
	return a.objects != nil
}

// Ping checks that the database answers.
func (a *App) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}
