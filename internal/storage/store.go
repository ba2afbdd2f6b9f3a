// Package storage persists simulation runs on disk, one directory per run
// holding metadata.json and trajectory.csv.
package storage

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/san-kum/moosim/internal/dynamo"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

var (
	ErrNotFound  = errors.New("storage: run not found")
	ErrInvalidID = errors.New("storage: invalid run id")
)

type Store struct {
	baseDir string

	mu      sync.Mutex
	entropy io.Reader
}

func New(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Stepper    string             `json:"stepper"`
	Jacobian   string             `json:"jacobian"`
	Timestamp  time.Time          `json:"timestamp"`
	Start      float64            `json:"start"`
	Stop       float64            `json:"stop"`
	Samples    int                `json:"samples"`
	XSize      int                `json:"x_size"`
	USize      int                `json:"u_size"`
	ParamNames []string           `json:"param_names,omitempty"`
	Params     []float64          `json:"params"`
	Metrics    Metrics            `json:"metrics,omitempty"`
}

// Metrics holds named metric values. Non-finite values are written as the
// strings "+Inf", "-Inf" and "NaN".
type Metrics map[string]float64

func (m Metrics) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m))
	for name, v := range m {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			out[name] = strconv.FormatFloat(v, 'g', -1, 64)
			continue
		}
		out[name] = v
	}
	return json.Marshal(out)
}

func (m *Metrics) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Metrics, len(raw))
	for name, msg := range raw {
		var v float64
		if err := json.Unmarshal(msg, &v); err == nil {
			out[name] = v
			continue
		}

		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return fmt.Errorf("storage: metric %s: %w", name, err)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("storage: metric %s: %w", name, err)
		}
		out[name] = f
	}
	*m = out
	return nil
}

func (s *Store) newID() (ulid.ULID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.New(ulid.Timestamp(time.Now()), s.entropy)
}

// Save writes a new run and returns its id. The id, timestamp, sizes and
// parameter snapshot in meta are filled from the trajectory.
func (s *Store) Save(meta RunMetadata, traj *dynamo.Trajectory) (string, error) {
	id, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("storage: new run id: %w", err)
	}

	meta.ID = id.String()
	meta.Timestamp = ulid.Time(id.Time()).UTC()
	meta.Samples = traj.Len()
	meta.XSize = traj.XSize()
	meta.USize = traj.USize()
	meta.Params = traj.P
	if !traj.Empty() {
		meta.Start = traj.T[0]
		meta.Stop = traj.T[traj.Len()-1]
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeRun(runDir, meta, traj); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return meta.ID, nil
}

func writeRun(runDir string, meta RunMetadata, traj *dynamo.Trajectory) error {
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return fmt.Errorf("storage: write metadata: %w", err)
	}

	f, err := os.Create(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteCSV(f, traj); err != nil {
		return fmt.Errorf("storage: write trajectory: %w", err)
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// List returns the metadata of every stored run, oldest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
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

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}

func (s *Store) runDir(runID string) (string, error) {
	if _, err := ulid.ParseStrict(runID); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, runID)
	}
	return filepath.Join(s.baseDir, runID), nil
}

func (s *Store) open(runID, name string) (*os.File, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dir, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return f, err
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	f, err := s.open(runID, metadataFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var meta RunMetadata
	if err := json.NewDecoder(f).Decode(&meta); err != nil {
		return nil, fmt.Errorf("storage: decode metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrajectory reads a stored trajectory back, including the parameter
// snapshot from its metadata.
func (s *Store) LoadTrajectory(runID string) (*dynamo.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	f, err := s.open(runID, trajectoryFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	traj, err := ReadCSV(f, meta.XSize, meta.USize)
	if err != nil {
		return nil, fmt.Errorf("storage: read trajectory of %s: %w", runID, err)
	}
	traj.P = meta.Params
	return traj, nil
}
