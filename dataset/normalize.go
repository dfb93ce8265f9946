package dataset

// ============================================================================
// LONG-FORM NORMALIZER: wide sheet → (curriculum, age, headcount, period)
// ============================================================================
// A pure pivot-to-long: one record per present cell, nothing invented and
// nothing dropped. Records come out row-major in the wide table's order.
// ============================================================================

// Normalize converts a wide table into a period-tagged fragment.
func Normalize(w WideTable, period int) Fragment {
	f := Fragment{
		Source:  w.Source,
		Sheet:   w.Sheet,
		Period:  period,
		Records: make([]Record, 0, w.Cells()),
	}

	brackets := w.AgeBrackets
	for _, row := range w.Rows {
		seen := make(map[string]bool, len(row.Counts))
		for _, age := range brackets {
			v, ok := row.Counts[age]
			if !ok || seen[age] {
				continue
			}
			seen[age] = true
			f.Records = append(f.Records, NewRecord(row.Curriculum, age, period, v))
		}
		// Cells under brackets the header list does not name still count.
		if len(seen) < len(row.Counts) {
			for _, age := range sortedKeys(row.Counts) {
				if seen[age] {
					continue
				}
				f.Records = append(f.Records, NewRecord(row.Curriculum, age, period, row.Counts[age]))
			}
		}
	}
	return f
}

// Pivot re-widens a fragment: the inverse of Normalize up to absent cells.
// Brackets keep first-seen order; rows with a repeated curriculum are merged
// by summing, matching how views treat duplicate keys.
func Pivot(f Fragment) WideTable {
	w := WideTable{Source: f.Source, Sheet: f.Sheet}
	rowIdx := make(map[string]int)
	ageSeen := make(map[string]bool)

	for _, r := range f.Records {
		if !ageSeen[r.AgeBracket] {
			ageSeen[r.AgeBracket] = true
			w.AgeBrackets = append(w.AgeBrackets, r.AgeBracket)
		}
		i, ok := rowIdx[r.Curriculum]
		if !ok {
			i = len(w.Rows)
			rowIdx[r.Curriculum] = i
			w.Rows = append(w.Rows, WideRow{Curriculum: r.Curriculum, Counts: map[string]float64{}})
		}
		w.Rows[i].Counts[r.AgeBracket] += r.Headcount
	}
	return w
}
