package core

// convert.go turns raw spreadsheet cells into typed values.
//
// Every column is typed as a whole: if all its non-empty cells parse as
// integers it becomes int64, then float64, bool, date, and string otherwise.
// A kind is only taken when every cell prints back exactly as written, so
// "007", "1/2/2024", "TRUE" and integers too long for int64 stay strings.
// Empty cells become nil.

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the date formats FormatValue prints, the only ones a date
// column can round-trip.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

type cellKind int

const (
	kindInt cellKind = iota
	kindFloat
	kindBool
	kindDate
	kindString
)

// CleanCell strips Excel formula wrappers (="007") that spreadsheet tools use
// to protect identifiers. Other text is returned unchanged.
func CleanCell(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, `="`) && strings.HasSuffix(t, `"`) && len(t) >= 3 {
		return t[2 : len(t)-1]
	}
	return s
}

// inferKind returns the first kind every non-empty cell parses as.
func inferKind(cells []string) cellKind {
	values := make([]string, 0, len(cells))
	for _, raw := range cells {
		if c := strings.TrimSpace(raw); c != "" {
			values = append(values, c)
		}
	}
	if len(values) == 0 {
		return kindString
	}

	for kind := kindInt; kind < kindString; kind++ {
		all := true
		for _, c := range values {
			if !parsesAs(c, kind) {
				all = false
				break
			}
		}
		if all {
			return kind
		}
	}
	return kindString
}

// parsesAs reports whether the trimmed cell c is a kind value that
// FormatValue prints back unchanged.
func parsesAs(c string, kind cellKind) bool {
	switch kind {
	case kindInt:
		if _, err := strconv.ParseInt(c, 10, 64); err != nil {
			return false
		}
	case kindFloat:
		if !strings.ContainsAny(c, "0123456789") {
			return false
		}
		if _, err := strconv.ParseFloat(c, 64); err != nil {
			return false
		}
	case kindBool:
		if _, err := strconv.ParseBool(c); err != nil {
			return false
		}
	case kindDate:
		if _, ok := parseDate(c); !ok {
			return false
		}
	}
	return FormatValue(convertCell(c, kind)) == c
}

func parseDate(c string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, c); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// convertCell parses a cell as kind. Empty cells are nil.
func convertCell(raw string, kind cellKind) any {
	c := strings.TrimSpace(raw)
	if c == "" {
		return nil
	}
	switch kind {
	case kindInt:
		v, _ := strconv.ParseInt(c, 10, 64)
		return v
	case kindFloat:
		v, _ := strconv.ParseFloat(c, 64)
		return v
	case kindBool:
		return strings.EqualFold(c, "true")
	case kindDate:
		t, _ := parseDate(c)
		return t
	}
	return raw
}
