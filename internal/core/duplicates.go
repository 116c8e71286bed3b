package core

// FindDuplicateKeys returns every value that occurs more than once in the
// column, each listed once, in the order its first repeat appears.
func FindDuplicateKeys(t *Table, column string) ([]string, error) {
	col, ok := t.Column(column)
	if !ok {
		return nil, &ColumnNotFoundError{Table: t.Name, Column: column}
	}

	seen := make(map[string]int, len(col.Values))
	var dups []string
	for _, v := range col.Values {
		key := FormatValue(v)
		seen[key]++
		if seen[key] == 2 {
			dups = append(dups, key)
		}
	}
	return dups, nil
}

// ValidateUniqueKey fails with a *DuplicateKeyError when the column holds
// repeated values. The column is expected to be normalized already.
func ValidateUniqueKey(t *Table, column string) error {
	dups, err := FindDuplicateKeys(t, column)
	if err != nil {
		return err
	}
	if len(dups) == 0 {
		return nil
	}

	preview := dups
	if limit := DuplicatePreviewLimit; limit > 0 && len(preview) > limit {
		preview = preview[:limit]
	}
	return &DuplicateKeyError{
		Table:  t.Name,
		Column: column,
		Keys:   append([]string(nil), preview...),
		Total:  len(dups),
	}
}
