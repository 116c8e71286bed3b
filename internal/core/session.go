package core

import (
	"fmt"
	"sync"
	"time"
)

// Session is one user's merge workspace: its uploaded sources and the
// MergeState built from them. All access goes through Service, which holds
// mu for the duration of each action.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	sources    *SourceRegistry
	state      *MergeState
	workflow   *Workflow
	lastActive time.Time
}

func newSession(id string, now time.Time) *Session {
	sources := NewSourceRegistry()
	return &Session{
		ID:         id,
		CreatedAt:  now,
		sources:    sources,
		state:      NewMergeState(),
		workflow:   NewWorkflow(sources),
		lastActive: now,
	}
}

// LastActive returns when the session last served an action.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SourceInfo describes a registered source for listings.
type SourceInfo struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	Sheet      string    `json:"sheet,omitempty"`
	Label      string    `json:"label"`
	Rows       int       `json:"rows"`
	Columns    []string  `json:"columns"`
	Dropped    int       `json:"dropped_rows"`
	Consumed   bool      `json:"consumed"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func describeSource(src *Source, consumed bool) SourceInfo {
	return SourceInfo{
		ID:         src.ID,
		FileName:   src.FileName,
		Sheet:      src.Sheet,
		Label:      src.Label(),
		Rows:       src.Table.NumRows(),
		Columns:    src.Table.ColumnNames(),
		Dropped:    src.Dropped,
		Consumed:   consumed,
		UploadedAt: src.UploadedAt,
	}
}

// Snapshot summarizes a session for display.
type Snapshot struct {
	SessionID      string       `json:"session_id"`
	Active         bool         `json:"active"`
	Step           int          `json:"step"`
	Sources        []SourceInfo `json:"sources"`
	Consumed       []string     `json:"consumed"`
	Remaining      []string     `json:"remaining"`
	WorkingColumns []string     `json:"working_columns,omitempty"`
	WorkingRows    int          `json:"working_rows"`
	Steps          []StepRecord `json:"steps"`
}

func (s *Session) snapshot() *Snapshot {
	snap := &Snapshot{
		SessionID: s.ID,
		Active:    !s.state.Empty(),
		Step:      s.state.StepNumber(),
		Consumed:  s.state.ConsumedSources(),
		Steps:     s.state.Steps(),
	}
	all := s.sources.List()
	snap.Sources = make([]SourceInfo, len(all))
	for i, src := range all {
		snap.Sources[i] = describeSource(src, s.state.IsConsumed(src.ID))
	}
	for _, src := range Remaining(s.state, all) {
		snap.Remaining = append(snap.Remaining, src.ID)
	}
	if wt := s.state.WorkingTable(); wt != nil {
		snap.WorkingColumns = wt.ColumnNames()
		snap.WorkingRows = wt.NumRows()
	}
	return snap
}

// Message renders the step the way it is announced to the user.
func (r StepRecord) Message() string {
	if r.Primary != "" {
		return fmt.Sprintf("Step %d: Merged the first two files", r.Number)
	}
	return fmt.Sprintf("Step %d: Added file: %s", r.Number, r.SourceLabel)
}
