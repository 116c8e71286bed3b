package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	reg *SourceRegistry
	wf  *Workflow
	ids map[string]string
}

// newFixture registers each table under its name and returns the IDs.
func newFixture(t *testing.T, tables ...*Table) *fixture {
	t.Helper()
	f := &fixture{reg: NewSourceRegistry(), ids: make(map[string]string)}
	for i, tbl := range tables {
		src, err := f.reg.Add(&Source{FileName: tbl.Name, Table: tbl, Fingerprint: uint64(i + 1)})
		require.NoError(t, err)
		f.ids[tbl.Name] = src.ID
	}
	f.wf = NewWorkflow(f.reg)
	return f
}

func tableA() *Table {
	return MustTable("A",
		NewColumn("ID", int64(1), int64(2), int64(3)),
		NewColumn("X", "a", "b", "c"),
	)
}

func tableB() *Table {
	return MustTable("B",
		NewColumn("ID", int64(1), int64(2)),
		NewColumn("Y", "p", "q"),
	)
}

// stateCopy captures everything observable about a MergeState.
type stateCopy struct {
	working  *Table
	consumed []string
	step     int
	steps    []StepRecord
}

func capture(s *MergeState) stateCopy {
	return stateCopy{s.WorkingTable(), s.ConsumedSources(), s.StepNumber(), s.Steps()}
}

func TestWorkflow_InitiateMergeLeftOuter(t *testing.T) {
	f := newFixture(t, tableA(), tableB())
	state := NewMergeState()

	rec, err := f.wf.InitiateMerge(state, f.ids["A"], f.ids["B"], JoinRequest{LeftKey: "ID", RightKey: "ID", Mode: LeftOuter})
	require.NoError(t, err)

	wt := state.WorkingTable()
	require.NotNil(t, wt)
	assert.Equal(t, []any{"1", "2", "3"}, columnValues(t, wt, "ID"))
	assert.Equal(t, []any{"a", "b", "c"}, columnValues(t, wt, "X"))
	assert.Equal(t, []any{"p", "q", nil}, columnValues(t, wt, "Y"))
	assert.Equal(t, 2, state.StepNumber())
	assert.ElementsMatch(t, []string{f.ids["A"], f.ids["B"]}, state.ConsumedSources())

	assert.Equal(t, 1, rec.Number)
	assert.Equal(t, "Step 1: Merged the first two files", rec.Message())
}

func TestWorkflow_InitiateMergeInner(t *testing.T) {
	f := newFixture(t, tableA(), tableB())
	state := NewMergeState()

	_, err := f.wf.InitiateMerge(state, f.ids["A"], f.ids["B"], JoinRequest{LeftKey: "ID", RightKey: "ID", Mode: Inner})
	require.NoError(t, err)

	wt := state.WorkingTable()
	assert.Equal(t, []any{"1", "2"}, columnValues(t, wt, "ID"))
	assert.Equal(t, []any{"a", "b"}, columnValues(t, wt, "X"))
	assert.Equal(t, []any{"p", "q"}, columnValues(t, wt, "Y"))
}

func TestWorkflow_InitiateMergeDuplicateKeys(t *testing.T) {
	dupB := MustTable("B", NewColumn("ID", int64(1), int64(1)), NewColumn("Y", "p", "q"))
	f := newFixture(t, tableA(), dupB)
	state := NewMergeState()
	before := capture(state)

	_, err := f.wf.InitiateMerge(state, f.ids["A"], f.ids["B"], JoinRequest{LeftKey: "ID", RightKey: "ID", Mode: LeftOuter})

	var dke *DuplicateKeyError
	require.ErrorAs(t, err, &dke)
	assert.Equal(t, []string{"1"}, dke.Keys)
	assert.True(t, state.Empty())
	assert.Equal(t, before, capture(state))
	assert.Equal(t, 1, state.StepNumber())
}

func TestWorkflow_InitiateMergeGuards(t *testing.T) {
	f := newFixture(t, tableA(), tableB())
	req := JoinRequest{LeftKey: "ID", RightKey: "ID", Mode: LeftOuter}

	t.Run("same source", func(t *testing.T) {
		_, err := f.wf.InitiateMerge(NewMergeState(), f.ids["A"], f.ids["A"], req)
		assert.ErrorIs(t, err, ErrSameSource)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := f.wf.InitiateMerge(NewMergeState(), f.ids["A"], "missing", req)
		assert.ErrorIs(t, err, ErrSourceNotFound)
	})

	t.Run("already active", func(t *testing.T) {
		state := NewMergeState()
		_, err := f.wf.InitiateMerge(state, f.ids["A"], f.ids["B"], req)
		require.NoError(t, err)
		before := capture(state)

		_, err = f.wf.InitiateMerge(state, f.ids["A"], f.ids["B"], req)
		assert.ErrorIs(t, err, ErrMergeInProgress)
		assert.Equal(t, before, capture(state))
	})
}

func TestWorkflow_AddSource(t *testing.T) {
	c := MustTable("C", NewColumn("CID", "3", "1"), NewColumn("Z", "r", "s"), NewColumn("X", "cx", "cx2"))
	f := newFixture(t, tableA(), tableB(), c)
	state := NewMergeState()
	req := JoinRequest{LeftKey: "ID", RightKey: "ID", Mode: LeftOuter}

	_, err := f.wf.AddSource(state, f.ids["C"], req)
	require.ErrorIs(t, err, ErrNoWorkingTable)

	_, err = f.wf.InitiateMerge(state, f.ids["A"], f.ids["B"], req)
	require.NoError(t, err)

	rec, err := f.wf.AddSource(state, f.ids["C"], JoinRequest{LeftKey: "ID", RightKey: "CID", Mode: LeftOuter})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Number)
	assert.Equal(t, "Step 2: Added file: C", rec.Message())
	assert.Equal(t, 3, state.StepNumber())

	wt := state.WorkingTable()
	assert.Equal(t, "A", wt.Name)
	assert.Equal(t, []string{"ID", "X", "ID_1", "Y", "CID", "Z", "X_1"}, wt.ColumnNames())
	assert.Equal(t, []any{"s", nil, "r"}, columnValues(t, wt, "Z"))
	assert.Len(t, state.Steps(), 2)

	t.Run("consumed source is refused", func(t *testing.T) {
		before := capture(state)
		_, err := f.wf.AddSource(state, f.ids["B"], req)
		assert.ErrorIs(t, err, ErrSourceConsumed)
		assert.Equal(t, before, capture(state))
	})
}

func TestWorkflow_FailedAddSourceLeavesStateUnchanged(t *testing.T) {
	bad := MustTable("D", NewColumn("ID", "1", "1", "2"), NewColumn("W", 1, 2, 3))
	f := newFixture(t, tableA(), tableB(), bad)
	state := NewMergeState()
	req := JoinRequest{LeftKey: "ID", RightKey: "ID", Mode: LeftOuter}

	_, err := f.wf.InitiateMerge(state, f.ids["A"], f.ids["B"], req)
	require.NoError(t, err)
	before := capture(state)
	workingCols := state.WorkingTable().ColumnNames()
	workingID := append([]any(nil), columnValues(t, state.WorkingTable(), "ID")...)

	tests := []JoinRequest{
		{LeftKey: "ID", RightKey: "ID", Mode: LeftOuter},    // duplicate keys
		{LeftKey: "Nope", RightKey: "ID", Mode: LeftOuter},  // missing left column
		{LeftKey: "ID", RightKey: "Nope", Mode: LeftOuter},  // missing right column
		{LeftKey: "ID", RightKey: "ID", Mode: JoinMode("x")}, // bad mode
	}
	for _, r := range tests {
		_, err := f.wf.AddSource(state, f.ids["D"], r)
		require.Error(t, err)
		assert.Equal(t, before, capture(state))
		assert.Equal(t, workingCols, state.WorkingTable().ColumnNames())
		assert.Equal(t, workingID, columnValues(t, state.WorkingTable(), "ID"))
		assert.False(t, state.IsConsumed(f.ids["D"]))
	}

	// The registry copy is untouched as well.
	src, _ := f.reg.Lookup(f.ids["D"])
	assert.Equal(t, []any{"1", "1", "2"}, columnValues(t, src.Table, "ID"))
	assert.Equal(t, []string{"ID", "W"}, src.Table.ColumnNames())
}

func TestWorkflow_RemoveSourceAndReset(t *testing.T) {
	c := MustTable("C", NewColumn("ID", "9"))
	f := newFixture(t, tableA(), tableB(), c)
	req := JoinRequest{LeftKey: "ID", RightKey: "ID", Mode: LeftOuter}

	t.Run("removing an unconsumed source keeps the merge", func(t *testing.T) {
		state := NewMergeState()
		_, err := f.wf.InitiateMerge(state, f.ids["A"], f.ids["B"], req)
		require.NoError(t, err)

		assert.False(t, f.wf.RemoveSource(state, f.ids["C"]))
		assert.False(t, state.Empty())
		assert.Equal(t, 2, state.StepNumber())
	})

	t.Run("removing a consumed source resets", func(t *testing.T) {
		state := NewMergeState()
		_, err := f.wf.InitiateMerge(state, f.ids["A"], f.ids["B"], req)
		require.NoError(t, err)

		assert.True(t, f.wf.RemoveSource(state, f.ids["B"]))
		assert.True(t, state.Empty())
		assert.Equal(t, 1, state.StepNumber())
		assert.Empty(t, state.ConsumedSources())
		assert.Empty(t, state.Steps())
	})

	t.Run("reset from any state", func(t *testing.T) {
		state := NewMergeState()
		f.wf.Reset(state)
		assert.True(t, state.Empty())

		_, err := f.wf.InitiateMerge(state, f.ids["A"], f.ids["B"], req)
		require.NoError(t, err)
		f.wf.Reset(state)
		assert.True(t, state.Empty())
		assert.Equal(t, 1, state.StepNumber())

		_, err = f.wf.InitiateMerge(state, f.ids["B"], f.ids["A"], req)
		assert.NoError(t, err, "a reset state accepts a new initial merge")
	})
}

func TestRemaining(t *testing.T) {
	c := MustTable("C", NewColumn("ID", "9"))
	f := newFixture(t, tableA(), tableB(), c)
	state := NewMergeState()
	_, err := f.wf.InitiateMerge(state, f.ids["A"], f.ids["B"], JoinRequest{LeftKey: "ID", RightKey: "ID", Mode: Inner})
	require.NoError(t, err)

	rest := Remaining(state, f.reg.List())
	require.Len(t, rest, 1)
	assert.Equal(t, f.ids["C"], rest[0].ID)
}

func TestZeroMergeStateIsEmpty(t *testing.T) {
	var s MergeState
	assert.True(t, s.Empty())
	assert.Equal(t, 1, s.StepNumber())
	assert.False(t, s.IsConsumed("x"))
}
