package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"duplicate keys", &DuplicateKeyError{Table: "b.csv", Column: "ID", Keys: []string{"1"}, Total: 1}, "MRG001"},
		{"wrapped duplicate keys", fmt.Errorf("merge b.csv into a.csv: %w", &DuplicateKeyError{Keys: []string{"1"}, Total: 1}), "MRG001"},
		{"column not found", &ColumnNotFoundError{Table: "a.csv", Column: "Id"}, "VAL005"},
		{"join failed", &JoinExecutionError{Err: errors.New("boom")}, "MRG002"},
		{"source consumed", fmt.Errorf("abc: %w", ErrSourceConsumed), "MRG003"},
		{"no working table", ErrNoWorkingTable, "MRG004"},
		{"merge in progress", ErrMergeInProgress, "MRG005"},
		{"same source", ErrSameSource, "MRG006"},
		{"invalid join mode", fmt.Errorf("%w: %q", ErrInvalidJoinMode, "outer"), "MRG007"},
		{"invalid csv", errors.New("a.csv: invalid csv at line 3: bare quote"), "FILE002"},
		{"empty file", fmt.Errorf("a.csv: %w", ErrEmptyFile), "FILE005"},
		{"duplicate source", ErrDuplicateSource, "FILE006"},
		{"unsupported file", fmt.Errorf("a.pdf: %w", ErrUnsupportedFile), "FILE007"},
		{"body too large", errors.New("http: request body too large"), "FILE001"},
		{"session not found", fmt.Errorf("x: %w", ErrSessionNotFound), "SES001"},
		{"source not found", fmt.Errorf("x: %w", ErrSourceNotFound), "SES002"},
		{"too many sessions", ErrTooManySessions, "SES003"},
		{"no columns", ErrNoColumnsChosen, "EXP001"},
		{"db export disabled", ErrExportNotEnabled, "EXP002"},
		{"table exists", errors.New(`create table "public"."out": ERROR: relation "out" already exists (SQLSTATE 42P07)`), "DB001"},
		{"too many uploads", ErrTooManyUploads, "UPL002"},
		{"cancelled", context.Canceled, "UPL004"},
		{"deadline", context.DeadlineExceeded, "UPL005"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"bad body", errors.New("invalid request body: unexpected EOF"), "VAL001"},
		{"missing key", errors.New("missing API key"), "AUTH001"},
		{"wrong key", errors.New("invalid API key"), "AUTH002"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
		{"case insensitive matching", errors.New("EMPTY FILE"), "FILE005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("MapError() returned empty message")
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrNoWorkingTable)
	want := "Nothing has been merged yet (Code: MRG004). Merge the first two files before adding more"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrSameSource, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("abc: %w", ErrSourceNotFound)
		userErr := NewUserError(techErr)

		if userErr.Error() != "File not found in this session" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrSourceNotFound) {
			t.Error("Unwrap() should expose the original error")
		}
	})
}
