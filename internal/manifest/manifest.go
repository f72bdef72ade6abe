// Package manifest records one pipeline run and the files it produced.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/healthrisk-cli/internal/utils"
)

// FileName is the manifest's name inside the dashboard directory.
const FileName = "manifest.json"

// Artifact kinds.
const (
	KindCleanCSV = "clean_csv"
	KindChart    = "chart"
	KindDatabase = "database"
	KindProfile  = "profile"
)

// Manifest describes a run persisted on disk.
type Manifest struct {
	RunID             string     `json:"run_id"`
	Source            string     `json:"source"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	RowsRaw           int        `json:"rows_raw"`
	RowsClean         int        `json:"rows_clean"`
	DuplicatesRemoved int        `json:"duplicates_removed"`
	Artifacts         []Artifact `json:"artifacts"`
}

// Artifact is one output file.
type Artifact struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// New starts a manifest for a run over source. Call Save to persist.
func New(source string) *Manifest {
	now := time.Now().UTC()
	return &Manifest{
		RunID:     uuid.NewString(),
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
		Artifacts: []Artifact{},
	}
}

// Add records the file at path. The file must exist.
func (m *Manifest) Add(kind, path string) error {
	if m == nil {
		return errors.New("manifest is nil")
	}
	size, err := utils.FileSize(path)
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}
	m.Artifacts = append(m.Artifacts, Artifact{Kind: kind, Path: path, Bytes: size})
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// ByKind returns the artifacts of one kind, in the order they were added.
func (m *Manifest) ByKind(kind string) []Artifact {
	var out []Artifact
	for _, a := range m.Artifacts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Save writes dir/manifest.json atomically and returns its path.
func (m *Manifest) Save(dir string) (string, error) {
	if m == nil {
		return "", errors.New("manifest is nil")
	}
	m.UpdatedAt = time.Now().UTC()
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := utils.SafeWriteFile(path, data); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// Load reads dir/manifest.json.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
