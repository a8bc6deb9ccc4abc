// Package tracking keeps a local history of source resolutions
package tracking

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Error constants
var (
	ErrCgoDisabled      = errors.New("CGO disabled: sqlite tracking not available")
	ErrTrackerNotInited = errors.New("tracker not initialized")
)

// Outcome classifies how a resolution ended
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeSlugUnresolved Outcome = "slug_unresolved"
	OutcomePrimaryFailed  Outcome = "primary_failed"
)

// Event is one resolution attempt
type Event struct {
	ID                  int64         `json:"id"`
	EpisodeID           string        `json:"episodeId"`
	AnimeSlug           string        `json:"animeSlug,omitempty"`
	Outcome             Outcome       `json:"outcome"`
	Sources             int           `json:"sources"`
	HasWatchAnimeWorld  bool          `json:"hasWatchAnimeWorld"`
	HasAnimeHindiDubbed bool          `json:"hasAnimeHindiDubbed"`
	Duration            time.Duration `json:"duration"`
	CreatedAt           time.Time     `json:"createdAt"`
}

// Recorder stores resolution events
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// DefaultDBPath returns the history database location under the user data dir
func DefaultDBPath() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "animestream", "history.db")
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "animestream", "history.db")
}
