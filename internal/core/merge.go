package core

import "fmt"

// JoinRequest describes one merge step chosen by the user.
type JoinRequest struct {
	LeftKey  string   `json:"left_key" yaml:"left_key"`
	RightKey string   `json:"right_key" yaml:"right_key"`
	Mode     JoinMode `json:"mode" yaml:"mode"`
}

// Validate checks the request is complete before any table is touched.
func (r JoinRequest) Validate() error {
	if r.LeftKey == "" {
		return &ColumnNotFoundError{Column: r.LeftKey}
	}
	if r.RightKey == "" {
		return &ColumnNotFoundError{Column: r.RightKey}
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidJoinMode, r.Mode)
	}
	return nil
}

// MergeTables runs one complete merge step: normalize both keys, refuse
// duplicate right keys, disambiguate right-hand columns, join.
//
// It works on clones, so left and right are unchanged whatever the outcome.
// The normalized keys are visible in the returned table.
func MergeTables(left, right *Table, req JoinRequest) (*Table, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	l := left.Clone()
	r := right.Clone()

	if err := NormalizeKey(l, req.LeftKey); err != nil {
		return nil, err
	}
	if err := NormalizeKey(r, req.RightKey); err != nil {
		return nil, err
	}
	if err := ValidateUniqueKey(r, req.RightKey); err != nil {
		return nil, err
	}

	rightKey, err := ResolveCollisions(l.ColumnNames(), r, req.RightKey)
	if err != nil {
		return nil, err
	}
	return Join(l, r, req.LeftKey, rightKey, req.Mode)
}
