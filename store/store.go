// Package store holds the conversation log: sessions, their messages, the
// active session pointer and the persisted UI configuration.
//
// Every mutation is followed by a call to the configured codey.Persister.
// Persistence failures are logged and swallowed; the in-memory state stays
// authoritative for the rest of the process.
package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fwojciec/codey"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*codey.Session
	versions map[string]uint64
	active   string
	ui       codey.UIConfig
	nextMsg  int64
	nextSeq  int64
	rev      uint64

	saveMu sync.Mutex
	saved  uint64

	persister codey.Persister
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Store.
type Option func(*Store)

// WithPersister sets the persistence collaborator. Without one the store
// is memory-only.
func WithPersister(p codey.Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides session ID generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*codey.Session),
		versions: make(map[string]uint64),
		logger:   zap.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
		ui:       codey.UIConfig{Mode: codey.ModeVibe},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store and loads its state from the persister. Load
// failures are logged and treated as an empty store. Messages left
// streaming by an earlier process are finalized, or dropped when empty.
// The returned store always has at least one session and an active one.
func Open(ctx context.Context, opts ...Option) *Store {
	s := New(opts...)
	if s.persister != nil {
		snap, err := s.persister.Load(ctx)
		if err != nil {
			s.logger.Warn("load conversations", zap.Error(err))
		} else {
			s.restore(snap)
		}
	}

	s.mu.Lock()
	if len(s.sessions) == 0 {
		s.createLocked(codey.DefaultSessionTitle)
	}
	if _, ok := s.sessions[s.active]; !ok {
		s.active = s.newestLocked()
	}
	snap, rev := s.snapshotLocked()
	s.mu.Unlock()

	s.save(snap, rev)
	return s
}

func (s *Store) restore(snap codey.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range snap.Sessions {
		if sess.ID == "" {
			continue
		}
		c := sess.Clone()
		c.Messages = c.Messages[:0:0]
		for _, m := range sess.Messages {
			if m.Streaming {
				if m.Text == "" {
					continue
				}
				m.Streaming = false
			}
			c.Messages = append(c.Messages, m)
			s.nextMsg = max(s.nextMsg, m.ID)
		}
		if c.Title == "" {
			c.Title = codey.DefaultSessionTitle
		}
		s.nextSeq = max(s.nextSeq, c.Seq)
		s.sessions[c.ID] = &c
	}
	s.active = snap.ActiveSessionID
	s.ui = snap.UI
	mode, err := codey.ParseMode(string(s.ui.Mode))
	if err != nil {
		mode = codey.ModeVibe
	}
	s.ui.Mode = mode
}

// Create adds a new session, makes it active and returns a copy.
func (s *Store) Create(title string) codey.Session {
	s.mu.Lock()
	sess := s.createLocked(title)
	s.active = sess.ID
	out := sess.Clone()
	snap, rev := s.snapshotLocked()
	s.mu.Unlock()

	s.save(snap, rev)
	return out
}

func (s *Store) createLocked(title string) *codey.Session {
	if title == "" {
		title = codey.DefaultSessionTitle
	}
	s.nextSeq++
	now := s.now()
	sess := &codey.Session{
		ID:        s.newID(),
		Title:     title,
		Seq:       s.nextSeq,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = sess
	if s.active == "" {
		s.active = sess.ID
	}
	return sess
}

// Activate makes the session with id the active one.
func (s *Store) Activate(id string) error {
	return s.mutate(func() error {
		if _, ok := s.sessions[id]; !ok {
			return fmt.Errorf("activate %q: %w", id, codey.ErrSessionNotFound)
		}
		s.active = id
		return nil
	})
}

// ActiveID returns the active session ID, or "" when there is none.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Active returns a copy of the active session.
func (s *Store) Active() (codey.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[s.active]
	if !ok {
		return codey.Session{}, codey.ErrNoActiveSession
	}
	return sess.Clone(), nil
}

// Session returns a copy of the session with id.
func (s *Store) Session(id string) (codey.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return codey.Session{}, fmt.Errorf("session %q: %w", id, codey.ErrSessionNotFound)
	}
	return sess.Clone(), nil
}

// List returns copies of all sessions, most recently created first.
func (s *Store) List() []codey.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked()
}

func (s *Store) listLocked() []codey.Session {
	out := make([]codey.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	slices.SortFunc(out, func(a, b codey.Session) int {
		return cmp.Compare(b.Seq, a.Seq)
	})
	return out
}

func (s *Store) newestLocked() string {
	var (
		id  string
		seq int64 = -1
	)
	for _, sess := range s.sessions {
		if sess.Seq > seq {
			id, seq = sess.ID, sess.Seq
		}
	}
	return id
}

// Rename sets a session's title. Renaming does not count as a history
// change.
func (s *Store) Rename(id, title string) error {
	return s.mutate(func() error {
		sess, ok := s.sessions[id]
		if !ok {
			return fmt.Errorf("rename %q: %w", id, codey.ErrSessionNotFound)
		}
		sess.Title = title
		sess.UpdatedAt = s.now()
		return nil
	})
}

// Delete removes a session. When it was active, the most recently created
// remaining session becomes active, or none if the store is now empty.
func (s *Store) Delete(id string) error {
	return s.mutate(func() error {
		if _, ok := s.sessions[id]; !ok {
			return fmt.Errorf("delete %q: %w", id, codey.ErrSessionNotFound)
		}
		delete(s.sessions, id)
		delete(s.versions, id)
		if s.active == id {
			s.active = s.newestLocked()
		}
		return nil
	})
}

// Version returns a counter that increases with every change to the
// session's message list.
func (s *Store) Version(id string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[id]
}

// UI returns the persisted UI configuration.
func (s *Store) UI() codey.UIConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ui := s.ui
	ui.CustomThemes = slices.Clone(s.ui.CustomThemes)
	return ui
}

// SetUI replaces the UI configuration.
func (s *Store) SetUI(ui codey.UIConfig) {
	_ = s.mutate(func() error {
		ui.CustomThemes = slices.Clone(ui.CustomThemes)
		s.ui = ui
		return nil
	})
}

// mutate runs fn under the write lock and persists on success.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	snap, rev := s.snapshotLocked()
	s.mu.Unlock()

	s.save(snap, rev)
	return nil
}

func (s *Store) snapshotLocked() (codey.Snapshot, uint64) {
	s.rev++
	if s.persister == nil {
		return codey.Snapshot{}, s.rev
	}
	return s.buildSnapshotLocked(), s.rev
}

func (s *Store) buildSnapshotLocked() codey.Snapshot {
	ui := s.ui
	ui.CustomThemes = slices.Clone(s.ui.CustomThemes)
	return codey.Snapshot{
		Sessions:        s.listLocked(),
		ActiveSessionID: s.active,
		UI:              ui,
	}
}

// save hands snap to the persister unless a newer revision was already
// written. Errors are logged, never returned.
func (s *Store) save(snap codey.Snapshot, rev uint64) {
	if s.persister == nil {
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if rev <= s.saved {
		return
	}
	if err := s.persister.Save(context.Background(), snap); err != nil {
		s.logger.Warn("persist conversations",
			zap.Uint64("revision", rev),
			zap.Error(err),
		)
		return
	}
	s.saved = rev
}
