package fixture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirStore reads fixtures from a directory laid out as
// <root>/context/<id>.json and <root>/expected/<id>.json.
type DirStore struct {
	Root string
}

// NewDirStore returns a store rooted at root.
func NewDirStore(root string) *DirStore {
	return &DirStore{Root: root}
}

// Load reads both documents for id. Files are read fresh on every call.
func (s *DirStore) Load(_ context.Context, id string) (*Scenario, error) {
	if err := validID(id); err != nil {
		return nil, &NotFoundError{ScenarioID: id, Path: id, Err: err}
	}
	ctxData, err := s.read(id, ContextPath(id))
	if err != nil {
		return nil, err
	}
	expData, err := s.read(id, ExpectedPath(id))
	if err != nil {
		return nil, err
	}
	return decode(id, ctxData, expData)
}

func (s *DirStore) read(id, rel string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, &NotFoundError{ScenarioID: id, Path: rel, Err: err}
	}
	return data, nil
}

// List returns ids that have both a context and an expectation file.
func (s *DirStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.Root, contextDir))
	if err != nil {
		return nil, fmt.Errorf("fixture.DirStore.List: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		if _, err := os.Stat(filepath.Join(s.Root, filepath.FromSlash(ExpectedPath(id)))); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
