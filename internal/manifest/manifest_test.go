package manifest_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/KaramelBytes/healthrisk-cli/internal/manifest"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "clean.csv")
	if err := os.WriteFile(csvPath, []byte("age\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := manifest.New("raw.csv")
	if _, err := uuid.Parse(m.RunID); err != nil {
		t.Fatalf("run id is not a uuid: %v", err)
	}
	m.RowsRaw, m.RowsClean, m.DuplicatesRemoved = 3, 2, 1
	if err := m.Add(manifest.KindCleanCSV, csvPath); err != nil {
		t.Fatalf("add: %v", err)
	}

	path, err := m.Save(filepath.Join(dir, "dashboard"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != manifest.FileName {
		t.Fatalf("saved to %s", path)
	}

	got, err := manifest.Load(filepath.Join(dir, "dashboard"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.RunID != m.RunID || got.Source != "raw.csv" || got.DuplicatesRemoved != 1 {
		t.Fatalf("unexpected manifest: %+v", got)
	}
	if len(got.Artifacts) != 1 || got.Artifacts[0].Bytes != 6 {
		t.Fatalf("artifacts: %+v", got.Artifacts)
	}
	if len(got.ByKind(manifest.KindCleanCSV)) != 1 || len(got.ByKind(manifest.KindChart)) != 0 {
		t.Fatalf("ByKind mismatch")
	}
}

func TestAddMissingFile(t *testing.T) {
	m := manifest.New("raw.csv")
	if err := m.Add(manifest.KindChart, filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Fatal("expected error for missing artifact")
	}
	if len(m.Artifacts) != 0 {
		t.Fatalf("artifact recorded despite error")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := manifest.Load(t.TempDir())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}
