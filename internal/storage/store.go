package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/springz/internal/config"
	"github.com/san-kum/springz/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	sceneFile    = "scene.yaml"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string                  `json:"id"`
	Scene      string                  `json:"scene"`
	Timestamp  time.Time               `json:"timestamp"`
	Collection config.CollectionConfig `json:"collection"`
	Steps      int                     `json:"steps"`
	StepsTaken int                     `json:"steps_taken"`
	Settled    bool                    `json:"settled"`
	Labels     []string                `json:"labels"`
	Width      float64                 `json:"width"`
	Height     float64                 `json:"height"`
	Energy     []float64               `json:"energy"`
	Metrics    map[string]float64      `json:"metrics"`
}

// runName reduces a scene name to a single path element so a run can
// never land outside the base directory.
func runName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == filepath.Separator {
			return '_'
		}
		return r
	}, name)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		return "run"
	}
	return name
}

// Save writes a run directory holding metadata.json, frames.csv and the
// scene that was run, and returns the new run id.
func (s *Store) Save(scene *config.Scene, labels []string, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", runName(scene.Name), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Scene:      scene.Name,
		Timestamp:  time.Now(),
		Collection: scene.Collection,
		Steps:      scene.Run.Steps,
		StepsTaken: result.StepsTaken,
		Settled:    result.Settled,
		Labels:     labels,
		Width:      scene.Run.Width,
		Height:     scene.Run.Height,
		Energy:     result.Energy,
		Metrics:    result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := config.Save(filepath.Join(runDir, sceneFile), scene); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)

	header := []string{"step"}
	for _, l := range labels {
		header = append(header, l+"_x", l+"_y")
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, f := range result.Frames {
		row := []string{strconv.Itoa(f.Step)}
		for i := range f.X {
			row = append(row,
				strconv.FormatFloat(f.X[i], 'f', 6, 64),
				strconv.FormatFloat(f.Y[i], 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return runID, nil
}

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

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadScene reads back the scene a run was started from.
func (s *Store) LoadScene(runID string) (*config.Scene, error) {
	return config.Load(filepath.Join(s.baseDir, runID, sceneFile))
}

// LoadFrames reads the sampled positions of a run. Malformed rows are
// skipped.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []sim.Frame{}, nil
	}

	frames := make([]sim.Frame, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) == 0 || len(record)%2 == 0 {
			continue
		}

		step, err := strconv.Atoi(record[0])
		if err != nil {
			continue
		}

		n := (len(record) - 1) / 2
		f := sim.Frame{Step: step, X: make([]float64, n), Y: make([]float64, n)}
		ok := true
		for i := 0; i < n && ok; i++ {
			x, errX := strconv.ParseFloat(record[1+2*i], 64)
			y, errY := strconv.ParseFloat(record[2+2*i], 64)
			ok = errX == nil && errY == nil
			f.X[i], f.Y[i] = x, y
		}
		if ok {
			frames = append(frames, f)
		}
	}

	return frames, nil
}
