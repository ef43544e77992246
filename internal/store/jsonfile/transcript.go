// Package jsonfile provides a file-backed transcript cache. Each project's
// merged timeline is persisted as one JSON file so history survives restarts
// and `parley history` works offline.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/parleyhq/parley/internal/core/conversation"
)

const defaultMaxMessages = 2000

// Transcript is the on-disk shape of a cached conversation.
type Transcript struct {
	ProjectID string                 `json:"project_id"`
	Messages  []conversation.Message `json:"messages"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// TranscriptStore persists per-project transcripts as JSON files. File locks
// keep concurrent parley processes from clobbering each other.
type TranscriptStore struct {
	dir         string
	maxMessages int
	mu          sync.RWMutex
}

// NewTranscriptStore creates a store rooted at the given directory
// (e.g. $XDG_DATA_HOME/parley/transcripts).
func NewTranscriptStore(dir string) *TranscriptStore {
	return &TranscriptStore{
		dir:         dir,
		maxMessages: defaultMaxMessages,
	}
}

// WithMaxMessages sets the retention limit per project.
func (s *TranscriptStore) WithMaxMessages(max int) *TranscriptStore {
	s.maxMessages = max
	return s
}

// transcriptPath returns the file path for a project. Ids are path-escaped so
// any project id, separators and escape characters included, round-trips
// through List.
func (s *TranscriptStore) transcriptPath(projectID string) string {
	return filepath.Join(s.dir, url.PathEscape(projectID)+".json")
}

func (s *TranscriptStore) lockPath(projectID string) string {
	return s.transcriptPath(projectID) + ".lock"
}

func (s *TranscriptStore) withSharedLock(projectID string, fn func() error) error {
	return s.withFileLock(projectID, syscall.LOCK_SH, fn)
}

func (s *TranscriptStore) withExclusiveLock(projectID string, fn func() error) error {
	return s.withFileLock(projectID, syscall.LOCK_EX, fn)
}

// withFileLock acquires a file lock, executes fn, then releases the lock.
func (s *TranscriptStore) withFileLock(projectID string, lockType int, fn func() error) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create transcripts directory: %w", err)
	}

	f, err := os.OpenFile(s.lockPath(projectID), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := syscall.Flock(int(f.Fd()), lockType); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN) //nolint:errcheck

	return fn()
}

// Load returns the cached transcript for a project. A missing file is not an
// error; it returns an empty slice.
func (s *TranscriptStore) Load(ctx context.Context, projectID string) ([]conversation.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var msgs []conversation.Message
	err := s.withSharedLock(projectID, func() error {
		t, err := s.loadTranscript(projectID)
		if err != nil {
			return err
		}
		msgs = t.Messages
		return nil
	})
	if err != nil {
		return nil, err
	}

	return msgs, nil
}

// Save replaces the cached transcript with the given merged timeline. The
// caller is expected to pass an already deduplicated, ordered slice; only the
// retention limit is applied here.
func (s *TranscriptStore) Save(ctx context.Context, projectID string, msgs []conversation.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withExclusiveLock(projectID, func() error {
		t := Transcript{
			ProjectID: projectID,
			Messages:  msgs,
			UpdatedAt: time.Now(),
		}

		if len(t.Messages) > s.maxMessages {
			t.Messages = t.Messages[len(t.Messages)-s.maxMessages:]
		}

		return s.saveTranscript(t)
	})
}

// Merge folds new messages into the cached transcript and saves the result.
// It returns the merged timeline.
func (s *TranscriptStore) Merge(ctx context.Context, projectID string, msgs []conversation.Message) ([]conversation.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var merged []conversation.Message
	err := s.withExclusiveLock(projectID, func() error {
		t, err := s.loadTranscript(projectID)
		if err != nil {
			return err
		}

		merged = conversation.Merge(t.Messages, msgs)

		t.ProjectID = projectID
		t.Messages = merged
		t.UpdatedAt = time.Now()
		if len(t.Messages) > s.maxMessages {
			t.Messages = t.Messages[len(t.Messages)-s.maxMessages:]
		}

		return s.saveTranscript(t)
	})
	if err != nil {
		return nil, err
	}

	return merged, nil
}

// List returns the project IDs with cached transcripts.
func (s *TranscriptStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read transcripts directory: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue // not a file this store wrote
		}
		projects = append(projects, id)
	}

	sort.Strings(projects)
	return projects, nil
}

// Delete removes a project's cached transcript and its lock file.
func (s *TranscriptStore) Delete(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.transcriptPath(projectID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove transcript: %w", err)
	}
	_ = os.Remove(s.lockPath(projectID))
	return nil
}

// loadTranscript reads a transcript file from disk.
// Returns an empty transcript if the file doesn't exist.
func (s *TranscriptStore) loadTranscript(projectID string) (Transcript, error) {
	data, err := os.ReadFile(s.transcriptPath(projectID))
	if err != nil {
		if os.IsNotExist(err) {
			return Transcript{ProjectID: projectID}, nil
		}
		return Transcript{}, fmt.Errorf("read transcript file: %w", err)
	}

	if len(data) == 0 {
		return Transcript{ProjectID: projectID}, nil
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return Transcript{}, fmt.Errorf("parse transcript file: %w", err)
	}

	return t, nil
}

// saveTranscript writes a transcript file to disk atomically.
func (s *TranscriptStore) saveTranscript(t Transcript) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create transcripts directory: %w", err)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	path := s.transcriptPath(t.ProjectID)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
