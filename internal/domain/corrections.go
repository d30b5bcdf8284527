package domain

// ManuallyUpdated is the bool column marking rows touched by ApplyCorrections.
const ManuallyUpdated = "manually_updated"

// Correction replaces one cell of the row whose id column equals ID.
type Correction struct {
	ID     string `csv:"id"`
	Column string `csv:"column"`
	Value  string `csv:"value"`
}

// CorrectionReport lists what ApplyCorrections did.
type CorrectionReport struct {
	Applied   int
	Rows      int
	Unmatched []string
}

// ApplyCorrections returns a copy of t with the corrections applied and a
// ManuallyUpdated column set to true on every corrected row. Rows that were
// already marked keep their mark. An empty Value clears the cell.
func ApplyCorrections(t *Table, idColumn string, corrections []Correction) (*Table, *CorrectionReport, error) {
	id, err := t.Resolve("id", idColumn)
	if err != nil {
		return nil, nil, err
	}
	targets := make(map[string]Column)
	for _, c := range corrections {
		if _, ok := targets[c.Column]; ok {
			continue
		}
		col, err := t.Resolve("correction", c.Column)
		if err != nil {
			return nil, nil, err
		}
		if col.Index == id.Index {
			return nil, nil, configErr("correction", "the id column %q cannot be corrected", c.Column)
		}
		targets[c.Column] = col
	}

	byID := make(map[string][]int, t.Len())
	for i := 0; i < t.Len(); i++ {
		if v := t.Value(i, id); !IsMissing(v) {
			k := canonicalKey(v)
			byID[k] = append(byID[k], i)
		}
	}

	out := t.Clone()
	marks := make([]any, out.Len())
	if out.Has(ManuallyUpdated) {
		mc, _ := out.Resolve("manually_updated", ManuallyUpdated)
		for i := range marks {
			b, _ := out.Value(i, mc).(bool)
			marks[i] = b
		}
	} else {
		for i := range marks {
			marks[i] = false
		}
	}

	report := &CorrectionReport{}
	touched := make(map[int]bool)
	for _, c := range corrections {
		rows, ok := byID[canonicalKey(c.ID)]
		if !ok {
			report.Unmatched = append(report.Unmatched, c.ID)
			continue
		}
		for _, r := range rows {
			var v any
			if c.Value != "" {
				v = c.Value
			}
			out.SetValue(r, targets[c.Column], v)
			marks[r] = true
			touched[r] = true
		}
		report.Applied++
	}
	report.Rows = len(touched)
	if err := out.SetColumn(ManuallyUpdated, marks); err != nil {
		return nil, nil, err
	}
	return out, report, nil
}
