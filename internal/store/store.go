package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Cristinuc/telegram-weather-bot/internal/domain"
)

var (
	// ErrDuplicate is returned when an identical pending reminder exists.
	ErrDuplicate = errors.New("un memento identic există deja")
	// ErrPersist wraps every failed write of the reminders document.
	ErrPersist = errors.New("persist reminders")
)

// Store owns the reminders JSON document. It is the single source of truth:
// the scheduler derives its timers from it and never keeps a second copy.
// All mutations go through one mutex and are persisted before the in-memory
// state changes, so a failed write never leaves a phantom reminder armed.
type Store struct {
	mu    sync.Mutex
	path  string
	items []domain.Reminder // ordered by id
}

// Open loads the document at path, or starts empty when it does not exist.
// Unknown fields in the document are ignored, never an error.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	s := &Store{path: path}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read reminders: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.items); err != nil {
			return nil, fmt.Errorf("decode reminders: %w", err)
		}
	}
	sort.Slice(s.items, func(i, j int) bool { return s.items[i].ID < s.items[j].ID })
	return s, nil
}

// Add assigns the next id and job name, checks for duplicates, persists and
// returns the stored reminder. The candidate is rejected, not merged, when a
// reminder with the same chat, message, kind and anchor already exists.
func (s *Store) Add(r domain.Reminder) (domain.Reminder, error) {
	r.AnchorUTC = r.AnchorUTC.UTC()
	if err := r.Validate(); err != nil {
		return domain.Reminder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if sameOccurrence(&s.items[i], &r) {
			return domain.Reminder{}, ErrDuplicate
		}
	}

	r.ID = s.nextIDLocked()
	r.JobName = domain.JobName(r.ChatID, r.Kind, r.AnchorUTC)

	next := append(append([]domain.Reminder(nil), s.items...), r)
	if err := s.persist(next); err != nil {
		return domain.Reminder{}, err
	}
	s.items = next
	return r, nil
}

// Delete removes a reminder by id. Deleting an id that is already gone is a
// no-op; that is what makes late fires after a delete harmless.
func (s *Store) Delete(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Reminder, 0, len(s.items))
	found := false
	for _, it := range s.items {
		if it.ID == id {
			found = true
			continue
		}
		next = append(next, it)
	}
	if !found {
		return false, nil
	}
	if err := s.persist(next); err != nil {
		return false, err
	}
	s.items = next
	return true, nil
}

// UpdateAnchor advances a recurring reminder to its next fire time.
// An unknown id is a no-op, so replaying an advance after a crash is safe.
func (s *Store) UpdateAnchor(id int64, next time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := append([]domain.Reminder(nil), s.items...)
	found := false
	for i := range updated {
		if updated[i].ID == id {
			updated[i].AnchorUTC = next.UTC()
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	if err := s.persist(updated); err != nil {
		return false, err
	}
	s.items = updated
	return true, nil
}

// List returns a copy of all reminders, ordered by id.
func (s *Store) List() []domain.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Reminder(nil), s.items...)
}

// ListDue returns the reminders whose anchor is at or before now.
func (s *Store) ListDue(now time.Time) []domain.Reminder {
	now = now.UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []domain.Reminder
	for _, it := range s.items {
		if !it.AnchorUTC.After(now) {
			due = append(due, it)
		}
	}
	return due
}

// Get returns a reminder by id.
func (s *Store) Get(id int64) (domain.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return domain.Reminder{}, false
}

// nextIDLocked returns max(existing ids)+1. Ids are never reused after a
// deletion, so gaps are normal.
func (s *Store) nextIDLocked() int64 {
	var max int64
	for _, it := range s.items {
		if it.ID > max {
			max = it.ID
		}
	}
	return max + 1
}

// sameOccurrence is the dedup key: chat, message, kind and anchor.
func sameOccurrence(a, b *domain.Reminder) bool {
	return a.ChatID == b.ChatID &&
		a.Message == b.Message &&
		a.Kind == b.Kind &&
		a.AnchorUTC.Equal(b.AnchorUTC)
}

// persist writes the full document atomically: marshal, write a temp file
// in the same directory, fsync, rename over the old document. A torn write
// would destroy every pending reminder, hence the rename dance.
func (s *Store) persist(items []domain.Reminder) error {
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	raw = append(raw, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".reminders-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}
