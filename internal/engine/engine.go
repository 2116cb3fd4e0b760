package engine

import (
	"database/sql"
	"errors"
	"time"

	"scoreline/internal/config"
	"scoreline/internal/events"
	"scoreline/internal/repo"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrPlayerInUse   = errors.New("player has games")
	ErrNothingToUndo = errors.New("no throws to undo")
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time

	locks *lockTable
}

func New(db *sql.DB, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
		locks:  newLockTable(),
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

// events returns the writer with the engine clock applied.
func (e Engine) events() events.Writer {
	w := e.Events
	if w.Now == nil {
		w.Now = e.now
	}
	return w
}

func (e Engine) config() *config.Config {
	if e.Config != nil {
		return e.Config
	}
	return config.Default()
}

// PageLimit clamps a paginated listing request to listing.max_limit,
// defaulting to 50.
func (e Engine) PageLimit(requested int) int {
	return e.limit(requested, 50)
}

// limit clamps a requested page size to the configured bounds.
func (e Engine) limit(requested, fallback int) int {
	max := e.config().Listing.MaxLimit
	if requested <= 0 {
		requested = fallback
	}
	if max > 0 && requested > max {
		requested = max
	}
	return requested
}
