package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-repository-proxy/metadata"
)

// Dataset is a list of rows to seed into a store, in insertion order.
//
//	{"rows": [{"entity": "User", "values": {"id": 1, "name": "Fab"}}]}
type Dataset struct {
	Rows []Row `json:"rows"`
}

// Row is one row of a concrete entity type, keyed by column.
type Row struct {
	Entity string         `json:"entity"`
	Values map[string]any `json:"values"`
}

// Inserter is satisfied by memstore.Store.
type Inserter interface {
	Insert(t *metadata.EntityType, values map[string]any) error
}

// ContextInserter is satisfied by bunstore.Client.
type ContextInserter interface {
	Insert(ctx context.Context, t *metadata.EntityType, values map[string]any) error
}

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t testing.TB, path string, dest interface{}) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// LoadDataset reads a Dataset. Whole JSON numbers become int64 so that identifiers compare
// equal to the ones stores return.
func LoadDataset(t testing.TB, path string) Dataset {
	t.Helper()

	dec := json.NewDecoder(bytes.NewReader(LoadFixture(t, path)))
	dec.UseNumber()

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		t.Fatalf("failed to decode dataset %s: %v", path, err)
	}
	for _, row := range ds.Rows {
		for column, v := range row.Values {
			row.Values[column] = convertNumber(v)
		}
	}
	return ds
}

// Seed inserts every row of ds into s.
func Seed(t testing.TB, registry *metadata.Registry, s Inserter, ds Dataset) {
	t.Helper()

	for _, row := range ds.Rows {
		if err := s.Insert(entityType(t, registry, row.Entity), row.Values); err != nil {
			t.Fatalf("failed to seed %s: %v", row.Entity, err)
		}
	}
}

// SeedContext inserts every row of ds into s.
func SeedContext(t testing.TB, ctx context.Context, registry *metadata.Registry, s ContextInserter, ds Dataset) {
	t.Helper()

	for _, row := range ds.Rows {
		if err := s.Insert(ctx, entityType(t, registry, row.Entity), row.Values); err != nil {
			t.Fatalf("failed to seed %s: %v", row.Entity, err)
		}
	}
}

// CompareWithGolden compares actual data with expected data from a golden file.
// If the golden file doesn't exist, it creates one with the actual data.
func CompareWithGolden(t testing.TB, path string, actual []byte) {
	t.Helper()

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Logf("Golden file %s does not exist, creating it", path)
			WriteGolden(t, path, actual)
			return
		}
		t.Fatalf("failed to read golden file %s: %v", path, err)
	}

	if string(actual) != string(expected) {
		t.Errorf("output mismatch for %s:\nExpected:\n%s\nActual:\n%s", path, expected, actual)
	}
}

// WriteGolden writes test output to a golden file.
func WriteGolden(t testing.TB, path string, data []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write golden file to %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// GoldenPath constructs a path to a golden file relative to the testdata directory.
func GoldenPath(filename string) string {
	return filepath.Join("testdata", "golden", filename)
}

func entityType(t testing.TB, registry *metadata.Registry, name string) *metadata.EntityType {
	t.Helper()

	et, ok := registry.Entity(name)
	if !ok {
		t.Fatalf("dataset references unknown entity %q", name)
	}
	return et
}

func convertNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
