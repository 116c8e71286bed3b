package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTooManySessions is returned by CreateSession when MaxSessions is reached.
var ErrTooManySessions = errors.New("too many sessions open, please try again later")

// ServiceConfig tunes a Service. Zero values fall back to defaults.
type ServiceConfig struct {
	RequiredColumns []string      // cleaned at ingestion; nil means DefaultRequiredColumns
	MaxSessions     int           // 0 means unlimited
	IdleTimeout     time.Duration // sessions idle longer are swept
	PreviewRows     int
}

// Service owns the merge sessions of a process. Each session is driven
// under its own lock, so actions on one session run one at a time while
// different sessions proceed in parallel.
type Service struct {
	cfg     ServiceConfig
	limiter *UploadLimiter
	sink    *PostgresSink

	mu       sync.RWMutex
	sessions map[string]*Session

	now func() time.Time
}

// NewService creates a Service. sink may be nil, which disables
// ExportToDatabase.
func NewService(cfg ServiceConfig, limiter *UploadLimiter, sink *PostgresSink) *Service {
	if cfg.RequiredColumns == nil {
		cfg.RequiredColumns = DefaultRequiredColumns
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = DefaultPreviewRows
	}
	if limiter == nil {
		limiter = NewUploadLimiter(DefaultMaxConcurrentUploads, DefaultMaxWaitTime)
	}
	return &Service{
		cfg:      cfg,
		limiter:  limiter,
		sink:     sink,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Limiter returns the parsing-slot limiter, for status reporting and drain.
func (s *Service) Limiter() *UploadLimiter { return s.limiter }

// DatabaseExportEnabled reports whether a PostgresSink is configured.
func (s *Service) DatabaseExportEnabled() bool { return s.sink != nil }

// CreateSession opens an empty session and returns its ID.
func (s *Service) CreateSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		return "", ErrTooManySessions
	}
	id := uuid.New().String()
	s.sessions[id] = newSession(id, s.now())
	slog.InfoContext(ctx, "session created", "session_id", id)
	return id, nil
}

// Session returns a session by ID.
func (s *Service) Session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	return sess, nil
}

// DeleteSession discards a session and everything it holds.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	delete(s.sessions, id)
	slog.InfoContext(ctx, "session deleted", "session_id", id)
	return nil
}

// SessionCount returns the number of open sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// with runs fn holding the session's lock and marks the session active.
func (s *Service) with(id string, fn func(*Session) error) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastActive = s.now()
	return fn(sess)
}

// AddSource parses an uploaded file and registers it in the session.
// Parsing happens outside the session lock, inside a limiter slot; a file
// that fails to parse is not registered and the session is unaffected.
func (s *Service) AddSource(ctx context.Context, sessionID, fileName string, data []byte, sheet string) (*SourceInfo, error) {
	if _, err := s.Session(sessionID); err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	src, err := LoadFile(ctx, fileName, data, LoadOptions{
		Sheet:           sheet,
		RequiredColumns: s.cfg.RequiredColumns,
	})
	s.limiter.Release()
	if err != nil {
		return nil, err
	}

	var info SourceInfo
	err = s.with(sessionID, func(sess *Session) error {
		added, err := sess.sources.Add(src)
		if err != nil {
			return err
		}
		info = describeSource(added, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "source added",
		"session_id", sessionID,
		"source_id", info.ID,
		"file", info.Label,
		"rows", info.Rows,
		"columns", len(info.Columns),
		"dropped_rows", info.Dropped,
	)
	return &info, nil
}

// SheetNames lists the sheets of an uploaded workbook.
func (s *Service) SheetNames(ctx context.Context, data []byte) ([]string, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()
	return SheetNames(data)
}

// Sources lists the session's sources in upload order.
func (s *Service) Sources(sessionID string) ([]SourceInfo, error) {
	var out []SourceInfo
	err := s.with(sessionID, func(sess *Session) error {
		for _, src := range sess.sources.List() {
			out = append(out, describeSource(src, sess.state.IsConsumed(src.ID)))
		}
		return nil
	})
	return out, err
}

// RemoveSource drops a source from the session. If the source backs the
// working table, or no sources remain, the merge is reset. Reports whether
// a reset happened.
func (s *Service) RemoveSource(ctx context.Context, sessionID, sourceID string) (bool, error) {
	var reset bool
	err := s.with(sessionID, func(sess *Session) error {
		if !sess.sources.Remove(sourceID) {
			return fmt.Errorf("%s: %w", sourceID, ErrSourceNotFound)
		}
		reset = sess.workflow.RemoveSource(sess.state, sourceID)
		if !reset && sess.sources.Len() == 0 && !sess.state.Empty() {
			sess.workflow.Reset(sess.state)
			reset = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	slog.InfoContext(ctx, "source removed",
		"session_id", sessionID,
		"source_id", sourceID,
		"merge_reset", reset,
	)
	return reset, nil
}

// InitiateMerge joins two sources into the session's first working table.
func (s *Service) InitiateMerge(ctx context.Context, sessionID, primary, secondary string, req JoinRequest) (*StepRecord, error) {
	var rec *StepRecord
	err := s.with(sessionID, func(sess *Session) error {
		var err error
		rec, err = sess.workflow.InitiateMerge(sess.state, primary, secondary, req)
		return err
	})
	s.logStep(ctx, sessionID, rec, err)
	return rec, err
}

// AddToMerge joins one more source onto the working table.
func (s *Service) AddToMerge(ctx context.Context, sessionID, sourceID string, req JoinRequest) (*StepRecord, error) {
	var rec *StepRecord
	err := s.with(sessionID, func(sess *Session) error {
		var err error
		rec, err = sess.workflow.AddSource(sess.state, sourceID, req)
		return err
	})
	s.logStep(ctx, sessionID, rec, err)
	return rec, err
}

func (s *Service) logStep(ctx context.Context, sessionID string, rec *StepRecord, err error) {
	if err != nil {
		slog.WarnContext(ctx, "merge step rejected",
			"session_id", sessionID,
			"code", MapError(err).Code,
			"error", err,
		)
		return
	}
	slog.InfoContext(ctx, "merge step committed",
		"session_id", sessionID,
		"step", rec.Number,
		"source", rec.SourceLabel,
		"mode", rec.Mode,
		"rows", rec.Rows,
		"columns", rec.Columns,
	)
}

// ResetMerge returns the session's merge to EMPTY. Sources are kept.
func (s *Service) ResetMerge(ctx context.Context, sessionID string) error {
	err := s.with(sessionID, func(sess *Session) error {
		sess.workflow.Reset(sess.state)
		return nil
	})
	if err == nil {
		slog.InfoContext(ctx, "merge reset", "session_id", sessionID)
	}
	return err
}

// Snapshot returns the session's current merge summary.
func (s *Service) Snapshot(sessionID string) (*Snapshot, error) {
	var snap *Snapshot
	err := s.with(sessionID, func(sess *Session) error {
		snap = sess.snapshot()
		return nil
	})
	return snap, err
}

// Preview renders the working table. limit <= 0 uses the configured size.
func (s *Service) Preview(sessionID string, columns []string, limit int) (*Preview, error) {
	if limit <= 0 {
		limit = s.cfg.PreviewRows
	}
	var p *Preview
	err := s.with(sessionID, func(sess *Session) error {
		wt := sess.state.WorkingTable()
		if wt == nil {
			return ErrNoWorkingTable
		}
		var err error
		p, err = BuildPreview(wt, columns, limit)
		return err
	})
	return p, err
}

// PreviewSource renders an uploaded source.
func (s *Service) PreviewSource(sessionID, sourceID string, limit int) (*Preview, error) {
	if limit <= 0 {
		limit = s.cfg.PreviewRows
	}
	var p *Preview
	err := s.with(sessionID, func(sess *Session) error {
		src, ok := sess.sources.Lookup(sourceID)
		if !ok {
			return fmt.Errorf("%s: %w", sourceID, ErrSourceNotFound)
		}
		var err error
		if p, err = BuildPreview(src.Table, nil, limit); err == nil {
			p.Name = src.Label()
		}
		return err
	})
	return p, err
}

// Export writes the chosen working-table columns to w. The session lock is
// held only while the working table reference is taken: committed tables
// are never mutated, so serialization can run unlocked.
func (s *Service) Export(ctx context.Context, sessionID string, w io.Writer, format ExportFormat, columns []string) error {
	wt, err := s.workingTable(sessionID)
	if err != nil {
		return err
	}
	if err := format.Write(w, wt, columns); err != nil {
		return err
	}
	slog.InfoContext(ctx, "working table exported",
		"session_id", sessionID,
		"format", string(format),
		"rows", wt.NumRows(),
		"columns", len(columns),
	)
	return nil
}

// ExportToDatabase copies the chosen columns into a new PostgreSQL table.
func (s *Service) ExportToDatabase(ctx context.Context, sessionID, target string, columns []string) (int64, error) {
	if s.sink == nil {
		return 0, ErrExportNotEnabled
	}
	wt, err := s.workingTable(sessionID)
	if err != nil {
		return 0, err
	}
	n, err := s.sink.Export(ctx, wt, columns, target)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "working table exported to database",
		"session_id", sessionID,
		"table", target,
		"rows", n,
	)
	return n, nil
}

func (s *Service) workingTable(sessionID string) (*Table, error) {
	var wt *Table
	err := s.with(sessionID, func(sess *Session) error {
		wt = sess.state.WorkingTable()
		if wt == nil {
			return ErrNoWorkingTable
		}
		return nil
	})
	return wt, err
}

// SweepIdle deletes sessions idle for longer than the configured timeout
// and returns their IDs, oldest first.
func (s *Service) SweepIdle() []string {
	if s.cfg.IdleTimeout <= 0 {
		return nil
	}
	cutoff := s.now().Add(-s.cfg.IdleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	type idle struct {
		id   string
		last time.Time
	}
	var expired []idle
	for id, sess := range s.sessions {
		if last := sess.LastActive(); last.Before(cutoff) {
			expired = append(expired, idle{id, last})
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].last.Before(expired[j].last) })

	ids := make([]string, len(expired))
	for i, e := range expired {
		delete(s.sessions, e.id)
		ids[i] = e.id
	}
	return ids
}
