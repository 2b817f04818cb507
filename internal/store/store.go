// Package store persists the collected dataset as immutable JSON files.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/devoid00/creto-votes/internal/votes"
)

const indexFile = "votes-index.json"

// Store writes dataset documents under a fixed output directory. Every
// write goes to a temporary sibling path and is renamed into place, so a
// reader sees either the previous complete file or the new one, never a
// truncated one.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New returns a Store rooted at dir, creating it if needed.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// ListFile names the summary list file for a target.
func ListFile(t votes.Target) string {
	return fmt.Sprintf("votes-%d-%s-%d.json", t.Congress, t.Chamber, t.Session)
}

// DetailFile names the per-roll detail file.
func DetailFile(congress int, chamber votes.Chamber, session, rollcall int) string {
	return fmt.Sprintf("vote-%d-%s-%d-%d.json", congress, chamber, session, rollcall)
}

// SaveSummaries writes a target's list file.
func (s *Store) SaveSummaries(t votes.Target, rows []votes.RollCallSummary) error {
	if rows == nil {
		rows = []votes.RollCallSummary{}
	}
	return s.saveJSON(ListFile(t), rows)
}

// SaveDetail writes one roll-call detail file.
func (s *Store) SaveDetail(d votes.RollCallDetail) error {
	return s.saveJSON(DetailFile(d.Congress, d.Chamber, d.Session, d.RollCall), d)
}

// SaveIndex writes the dataset index.
func (s *Store) SaveIndex(idx votes.DatasetIndex) error {
	if idx.Datasets == nil {
		idx.Datasets = []votes.DatasetEntry{}
	}
	return s.saveJSON(indexFile, idx)
}

// saveJSON marshals v compactly and writes it atomically to name.
func (s *Store) saveJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	target := filepath.Join(s.dir, name)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create dir for %s: %w", target, err)
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s into place: %w", tmp, err)
	}
	s.logger.Debug("wrote document",
		zap.String("path", target),
		zap.Int("bytes", len(data)),
	)
	return nil
}
