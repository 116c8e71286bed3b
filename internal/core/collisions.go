package core

// CollisionSuffix is appended to right-hand column names that already exist
// on the left. Renaming is single-level: a renamed column that collides again
// is kept as is.
const CollisionSuffix = "_1"

// ResolveCollisions renames right-hand columns so they do not overwrite
// left-hand ones and returns the right key column name to join on.
//
// Every name shared by both sides except rightKey gets CollisionSuffix. The
// key itself is exempt from that pass, then renamed as well if the left side
// has a column of the same name. right is mutated; pass a clone.
func ResolveCollisions(left []string, right *Table, rightKey string) (string, error) {
	if !right.HasColumn(rightKey) {
		return "", &ColumnNotFoundError{Table: right.Name, Column: rightKey}
	}

	leftNames := make(map[string]bool, len(left))
	for _, name := range left {
		leftNames[name] = true
	}

	// Decide renames against the original names before applying any.
	var overlapping []*Column
	var keyCols []*Column
	for _, col := range right.columns {
		switch {
		case col.Name == rightKey:
			keyCols = append(keyCols, col)
		case leftNames[col.Name]:
			overlapping = append(overlapping, col)
		}
	}
	for _, col := range overlapping {
		col.Name += CollisionSuffix
	}

	effectiveKey := rightKey
	if leftNames[rightKey] {
		effectiveKey = rightKey + CollisionSuffix
		for _, col := range keyCols {
			col.Name = effectiveKey
		}
	}
	return effectiveKey, nil
}
