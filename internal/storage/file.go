package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/optim"
	"github.com/san-kum/casim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
	tuningFile   = "tuning.json"
	sweepFile    = "sweep_raw.csv"
)

// FileStore keeps one directory per run under baseDir.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (s *FileStore) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) SaveEpisode(meta RunMetadata, trace sim.Trace) (string, error) {
	meta = stamp(meta, KindEpisode)
	return meta.ID, s.save(meta, traceFile, func(f *os.File) error {
		return WriteTraceCSV(f, trace)
	})
}

func (s *FileStore) SaveTuning(meta RunMetadata, res *optim.TuneResult) (string, error) {
	meta = stamp(meta, KindTuning)
	return meta.ID, s.save(meta, tuningFile, func(f *os.File) error {
		return writeJSON(f, jsonSafe(res))
	})
}

func (s *FileStore) SaveSweep(meta RunMetadata, rows []metrics.Row) (string, error) {
	meta = stamp(meta, KindSweep)
	return meta.ID, s.save(meta, sweepFile, func(f *os.File) error {
		return WriteRowsCSV(f, rows)
	})
}

func (s *FileStore) save(meta RunMetadata, payload string, write func(*os.File) error) error {
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()
	if err := writeJSON(metaFile, meta); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(runDir, payload))
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f)
}

func writeJSON(f *os.File, v any) error {
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ListRuns returns every readable run, oldest first. Directories without
// valid metadata are skipped.
func (s *FileStore) ListRuns() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.LoadRun(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *FileStore) LoadRun(id string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := s.readJSON(id, metadataFile, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *FileStore) LoadTrace(id string) (sim.Trace, error) {
	f, err := s.open(id, traceFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTraceCSV(f)
}

func (s *FileStore) LoadTuning(id string) (*optim.TuneResult, error) {
	var res optim.TuneResult
	if err := s.readJSON(id, tuningFile, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *FileStore) LoadSweep(id string) ([]metrics.Row, error) {
	f, err := s.open(id, sweepFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRowsCSV(f)
}

func (s *FileStore) open(id, name string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.baseDir, id, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, notFound(id)
	}
	return f, err
}

func (s *FileStore) readJSON(id, name string, v any) error {
	f, err := s.open(id, name)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}
