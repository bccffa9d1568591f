package contracts

// Table is the tabular abstraction shared by every step.
// Rows are positional and always have len(Columns) cells; a missing
// value is the empty string.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable creates an empty table with the given header
func NewTable(columns ...string) *Table {
	return &Table{
		Columns: append([]string(nil), columns...),
		Rows:    make([][]string, 0),
	}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the index of name, or -1
func (t *Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumns reports whether every name is present
func (t *Table) HasColumns(names ...string) bool {
	for _, n := range names {
		if t.Column(n) < 0 {
			return false
		}
	}
	return true
}

// Append adds a row, padding or truncating it to the header width
func (t *Table) Append(row []string) {
	out := make([]string, len(t.Columns))
	copy(out, row)
	t.Rows = append(t.Rows, out)
}

// Value returns the cell at (row, column name) or ""
func (t *Table) Value(row int, name string) string {
	idx := t.Column(name)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][idx]
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}

// Head returns a copy of the first n rows
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := NewTable(t.Columns...)
	for _, r := range t.Rows[:n] {
		out.Rows = append(out.Rows, append([]string(nil), r...))
	}
	return out
}
