package dataset

// CleanReport describes what Clean changed.
type CleanReport struct {
	RowsBefore        int
	RowsAfter         int
	DuplicatesRemoved int
	Columns           []string
	// Categories maps each categorical column to its distinct values, first-seen order.
	Categories map[string][]string
}

// Clean drops exact duplicate rows (first occurrence wins, order kept) and normalises the
// column names. The input table is not modified. Cleaning a cleaned table is a no-op.
func Clean(t *Table) (*Table, CleanReport) {
	out := &Table{
		Columns: make([]string, len(t.Columns)),
		Records: make([]Record, 0, t.Len()),
	}
	for i, c := range t.Columns {
		out.Columns[i] = NormalizeColumn(c)
	}
	seen := make(map[Record]struct{}, t.Len())
	for _, r := range t.Records {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out.Records = append(out.Records, r)
	}

	rep := CleanReport{
		RowsBefore:        t.Len(),
		RowsAfter:         out.Len(),
		DuplicatesRemoved: t.Len() - out.Len(),
		Columns:           append([]string(nil), out.Columns...),
		Categories:        make(map[string][]string, len(CategoricalColumns)),
	}
	for _, c := range CategoricalColumns {
		vals, _ := Unique(out, c)
		rep.Categories[c] = vals
	}
	return out, rep
}

// Duplicates counts rows equal to an earlier row.
func Duplicates(t *Table) int {
	seen := make(map[Record]struct{}, t.Len())
	n := 0
	for _, r := range t.Records {
		if _, ok := seen[r]; ok {
			n++
			continue
		}
		seen[r] = struct{}{}
	}
	return n
}
