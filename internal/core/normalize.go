package core

import "strings"

// NormalizeKey rewrites the named column as trimmed strings so keys from
// differently typed sources compare equal ("7", 7 and " 7 " all become "7").
// It mutates t. Applying it twice is the same as applying it once.
func NormalizeKey(t *Table, column string) error {
	col, ok := t.Column(column)
	if !ok {
		return &ColumnNotFoundError{Table: t.Name, Column: column}
	}
	for i, v := range col.Values {
		col.Values[i] = normalizeKeyValue(v)
	}
	return nil
}

func normalizeKeyValue(v any) string {
	return strings.TrimSpace(FormatValue(v))
}
