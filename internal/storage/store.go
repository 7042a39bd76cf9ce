package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/casim/internal/control"
	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/optim"
	"github.com/san-kum/casim/internal/sim"
)

var ErrNotFound = errors.New("run not found")

type RunKind string

const (
	KindEpisode RunKind = "episode"
	KindTuning  RunKind = "tuning"
	KindSweep   RunKind = "sweep"
)

// RunMetadata describes one stored run. Config and Summary are set for
// episodes; Gains for tuning runs.
type RunMetadata struct {
	ID         string           `json:"id"`
	Kind       RunKind          `json:"kind"`
	Name       string           `json:"name,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
	Seed       int64            `json:"seed"`
	Controller string           `json:"controller,omitempty"`
	Status     string           `json:"status,omitempty"`
	Config     *sim.Config      `json:"config,omitempty"`
	Summary    *metrics.Summary `json:"summary,omitempty"`
	Gains      *control.Gains   `json:"gains,omitempty"`
}

// Store persists episodes, tuning results and sweep rows. Save methods
// assign the run ID and timestamp and return the ID.
type Store interface {
	Init() error
	SaveEpisode(meta RunMetadata, trace sim.Trace) (string, error)
	SaveTuning(meta RunMetadata, res *optim.TuneResult) (string, error)
	SaveSweep(meta RunMetadata, rows []metrics.Row) (string, error)
	ListRuns() ([]RunMetadata, error)
	LoadRun(id string) (*RunMetadata, error)
	LoadTrace(id string) (sim.Trace, error)
	LoadTuning(id string) (*optim.TuneResult, error)
	LoadSweep(id string) ([]metrics.Row, error)
	Close() error
}

// NewStore opens a store of the given kind rooted at dir. The sqlite store
// keeps everything in dir/casim.db.
func NewStore(kind, dir string) (Store, error) {
	switch kind {
	case "", "file":
		return NewFileStore(dir), nil
	case "sqlite":
		return NewSQLiteStore(dir), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func stamp(meta RunMetadata, kind RunKind) RunMetadata {
	meta.Kind = kind
	meta.ID = fmt.Sprintf("%s_%s", kind, uuid.NewString())
	meta.Timestamp = time.Now().UTC()
	if meta.Summary != nil {
		sum := *meta.Summary
		sum.Overshoot = finite(sum.Overshoot)
		sum.StabilityVariance = finite(sum.StabilityVariance)
		sum.ControlEffort = finite(sum.ControlEffort)
		meta.Summary = &sum
	}
	return meta
}

func notFound(id string) error {
	return fmt.Errorf("%s: %w", id, ErrNotFound)
}
