package ingest

// RawRow is one spreadsheet data row keyed by header. A key that is present with
// an empty string means the column existed but the cell was blank; a missing key
// means the sheet had no such column. Validation rules care about the difference.
type RawRow map[string]string

// NewRawRow pairs a header row with one data row. Cells beyond the header width
// are dropped, headers beyond the row width map to empty cells.
func NewRawRow(headers []string, cells []string) RawRow {
	row := make(RawRow, len(headers))
	for i, header := range headers {
		if header == "" {
			continue
		}
		value := ""
		if i < len(cells) {
			value = cells[i]
		}
		row[header] = value
	}
	return row
}

// Get returns the raw cell value and whether the column exists at all.
func (r RawRow) Get(key string) (string, bool) {
	value, ok := r[key]
	return value, ok
}
