package core

import "fmt"

// MergeState is the accumulating result of a merge session.
//
// A zero or freshly reset state is EMPTY: no working table, no consumed
// sources, step number 1. Fields change only at the single commit point of a
// successful step, or all at once in reset.
type MergeState struct {
	working  *Table
	consumed map[string]struct{}
	order    []string
	step     int
	log      []StepRecord
}

// StepRecord describes one committed merge step.
type StepRecord struct {
	Number      int      `json:"number"`
	Primary     string   `json:"primary,omitempty"`
	Source      string   `json:"source"`
	SourceLabel string   `json:"source_label"`
	LeftKey     string   `json:"left_key"`
	RightKey    string   `json:"right_key"`
	Mode        JoinMode `json:"mode"`
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
}

// NewMergeState returns an EMPTY state.
func NewMergeState() *MergeState {
	s := &MergeState{}
	s.reset()
	return s
}

func (s *MergeState) reset() {
	s.working = nil
	s.consumed = make(map[string]struct{})
	s.order = nil
	s.step = 1
	s.log = nil
}

// Empty reports whether no working table exists.
func (s *MergeState) Empty() bool { return s.working == nil }

// WorkingTable returns the current merged table, or nil when EMPTY.
func (s *MergeState) WorkingTable() *Table { return s.working }

// StepNumber is 1 when EMPTY and grows by one per committed step.
func (s *MergeState) StepNumber() int {
	if s.step == 0 {
		return 1
	}
	return s.step
}

// IsConsumed reports whether a source already backs the working table.
func (s *MergeState) IsConsumed(id string) bool {
	_, ok := s.consumed[id]
	return ok
}

// ConsumedSources returns consumed source IDs in the order they were merged.
func (s *MergeState) ConsumedSources() []string {
	return append([]string(nil), s.order...)
}

// Steps returns the committed step log.
func (s *MergeState) Steps() []StepRecord {
	return append([]StepRecord(nil), s.log...)
}

func (s *MergeState) commit(working *Table, rec StepRecord, ids ...string) {
	if s.consumed == nil {
		s.consumed = make(map[string]struct{})
	}
	s.working = working
	for _, id := range ids {
		s.consumed[id] = struct{}{}
		s.order = append(s.order, id)
	}
	s.log = append(s.log, rec)
	s.step = s.StepNumber() + 1
}

// Workflow drives MergeState through its transitions, reading source tables
// from a SourceLookup. It holds no per-session state.
type Workflow struct {
	sources SourceLookup
}

// NewWorkflow returns a Workflow over the given sources.
func NewWorkflow(sources SourceLookup) *Workflow {
	return &Workflow{sources: sources}
}

// InitiateMerge joins two sources into the first working table.
// Valid only from EMPTY; on failure the state stays EMPTY.
func (w *Workflow) InitiateMerge(state *MergeState, primary, secondary string, req JoinRequest) (*StepRecord, error) {
	if !state.Empty() {
		return nil, ErrMergeInProgress
	}
	if primary == secondary {
		return nil, ErrSameSource
	}
	left, err := w.lookup(primary)
	if err != nil {
		return nil, err
	}
	right, err := w.lookup(secondary)
	if err != nil {
		return nil, err
	}

	merged, err := MergeTables(left.Table, right.Table, req)
	if err != nil {
		return nil, fmt.Errorf("merge %s into %s: %w", right.Label(), left.Label(), err)
	}
	merged.Name = left.Label()

	rec := StepRecord{
		Number:      state.StepNumber(),
		Primary:     primary,
		Source:      secondary,
		SourceLabel: right.Label(),
		LeftKey:     req.LeftKey,
		RightKey:    req.RightKey,
		Mode:        req.Mode,
		Rows:        merged.NumRows(),
		Columns:     merged.NumColumns(),
	}
	state.commit(merged, rec, primary, secondary)
	return &rec, nil
}

// AddSource joins one more source onto the working table.
// Valid only from ACTIVE and for sources not yet consumed; on failure the
// state is unchanged.
func (w *Workflow) AddSource(state *MergeState, source string, req JoinRequest) (*StepRecord, error) {
	if state.Empty() {
		return nil, ErrNoWorkingTable
	}
	if state.IsConsumed(source) {
		return nil, fmt.Errorf("%s: %w", source, ErrSourceConsumed)
	}
	right, err := w.lookup(source)
	if err != nil {
		return nil, err
	}

	merged, err := MergeTables(state.working, right.Table, req)
	if err != nil {
		return nil, fmt.Errorf("merge %s: %w", right.Label(), err)
	}
	merged.Name = state.working.Name

	rec := StepRecord{
		Number:      state.StepNumber(),
		Source:      source,
		SourceLabel: right.Label(),
		LeftKey:     req.LeftKey,
		RightKey:    req.RightKey,
		Mode:        req.Mode,
		Rows:        merged.NumRows(),
		Columns:     merged.NumColumns(),
	}
	state.commit(merged, rec, source)
	return &rec, nil
}

// RemoveSource resets the state when the source backs the working table,
// since a join cannot be undone column by column. It reports whether a reset
// happened.
func (w *Workflow) RemoveSource(state *MergeState, source string) bool {
	if !state.IsConsumed(source) {
		return false
	}
	w.Reset(state)
	return true
}

// Reset returns the state to EMPTY from any state.
func (w *Workflow) Reset(state *MergeState) {
	state.reset()
}

// Remaining returns the registered sources not yet consumed, in the order
// given by all.
func Remaining(state *MergeState, all []*Source) []*Source {
	var out []*Source
	for _, src := range all {
		if !state.IsConsumed(src.ID) {
			out = append(out, src)
		}
	}
	return out
}

func (w *Workflow) lookup(id string) (*Source, error) {
	src, ok := w.sources.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrSourceNotFound)
	}
	return src, nil
}
