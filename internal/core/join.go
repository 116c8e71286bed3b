package core

import (
	"fmt"
	"strings"
)

// JoinMode selects how unmatched left rows are treated.
type JoinMode string

const (
	// LeftOuter keeps every left row; unmatched rows get nil right-hand cells.
	LeftOuter JoinMode = "left"
	// Inner keeps only left rows with a matching right row.
	Inner JoinMode = "inner"
)

// User-facing labels for the two join modes.
const (
	LeftOuterLabel = "Merge all rows (keep all from the Primary file)"
	InnerLabel     = "Merge only matching rows"
)

// JoinModes lists the supported modes in display order.
var JoinModes = []JoinMode{LeftOuter, Inner}

// Label returns the user-facing description of the mode.
func (m JoinMode) Label() string {
	switch m {
	case LeftOuter:
		return LeftOuterLabel
	case Inner:
		return InnerLabel
	default:
		return string(m)
	}
}

// Valid reports whether m is one of the supported modes.
func (m JoinMode) Valid() bool {
	return m == LeftOuter || m == Inner
}

// ParseJoinMode accepts a mode name ("left", "left_outer", "inner") or one of
// the display labels.
func ParseJoinMode(s string) (JoinMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "left_outer", "leftouter", strings.ToLower(LeftOuterLabel):
		return LeftOuter, nil
	case "inner", strings.ToLower(InnerLabel):
		return Inner, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidJoinMode, s)
}

// Join combines left and right on leftKey = rightKey.
//
// Both inputs must already be normalized and disambiguated: column names are
// concatenated as given and the right key must be unique, which makes each
// lookup return at most one row. Output columns are left's followed by
// right's. Any failure is reported as *JoinExecutionError.
func Join(left, right *Table, leftKey, rightKey string, mode JoinMode) (out *Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &JoinExecutionError{Err: fmt.Errorf("%v", r)}
		}
	}()

	if !mode.Valid() {
		return nil, &JoinExecutionError{Err: fmt.Errorf("%w: %q", ErrInvalidJoinMode, mode)}
	}
	lk, ok := left.Column(leftKey)
	if !ok {
		return nil, &JoinExecutionError{Err: &ColumnNotFoundError{Table: left.Name, Column: leftKey}}
	}
	rk, ok := right.Column(rightKey)
	if !ok {
		return nil, &JoinExecutionError{Err: &ColumnNotFoundError{Table: right.Name, Column: rightKey}}
	}

	index := make(map[string]int, len(rk.Values))
	for i, v := range rk.Values {
		key := FormatValue(v)
		if _, dup := index[key]; dup {
			return nil, &JoinExecutionError{Err: fmt.Errorf("right key %q is not unique at value %q", rightKey, key)}
		}
		index[key] = i
	}

	// matches[i] is the right row for output row i, or -1 for none.
	leftRows := make([]int, 0, left.rows)
	matches := make([]int, 0, left.rows)
	for i, v := range lk.Values {
		j, found := index[FormatValue(v)]
		if !found {
			if mode == Inner {
				continue
			}
			j = -1
		}
		leftRows = append(leftRows, i)
		matches = append(matches, j)
	}

	columns := make([]*Column, 0, len(left.columns)+len(right.columns))
	for _, c := range left.columns {
		values := make([]any, len(leftRows))
		for n, i := range leftRows {
			values[n] = c.Values[i]
		}
		columns = append(columns, &Column{Name: c.Name, Values: values})
	}
	for _, c := range right.columns {
		values := make([]any, len(matches))
		for n, j := range matches {
			if j >= 0 {
				values[n] = c.Values[j]
			}
		}
		columns = append(columns, &Column{Name: c.Name, Values: values})
	}

	out, err = NewTable(left.Name, columns...)
	if err != nil {
		return nil, &JoinExecutionError{Err: err}
	}
	return out, nil
}
