package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CellRef is a 1-based spreadsheet coordinate (column A = 1, row 1 = 1).
type CellRef struct {
	Col int
	Row int
}

// ParseCellRef parses an A1-style reference like "B5" into coordinates.
func ParseCellRef(s string) (CellRef, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(s) {
		return CellRef{}, fmt.Errorf("invalid cell reference %q", s)
	}
	col, err := ColumnNumber(s[:i])
	if err != nil {
		return CellRef{}, err
	}
	row := 0
	for _, c := range s[i:] {
		if c < '0' || c > '9' {
			return CellRef{}, fmt.Errorf("invalid cell reference %q", s)
		}
		row = row*10 + int(c-'0')
	}
	if row < 1 {
		return CellRef{}, fmt.Errorf("invalid cell reference %q: row must be positive", s)
	}
	return CellRef{Col: col, Row: row}, nil
}

// String renders the reference in A1 form.
func (c CellRef) String() string {
	return ColumnName(c.Col) + fmt.Sprint(c.Row)
}

// ColumnName converts a 1-based column number to its letter form (1 -> "A",
// 27 -> "AA").
func ColumnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// ColumnNumber converts a column letter form back to its 1-based number.
func ColumnNumber(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty column name")
	}
	n := 0
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("invalid column name %q", s)
		}
		n = n*26 + int(c-'A') + 1
	}
	return n, nil
}

// RangeRef is an inclusive rectangular cell range. The JSON form is the
// A1-style string "A2:B10"; a single cell "C3" is the degenerate range
// covering itself.
type RangeRef struct {
	From CellRef
	To   CellRef
}

// ParseRangeRef parses "A2:B10" or a single cell "C3".
func ParseRangeRef(s string) (RangeRef, error) {
	from, to, found := strings.Cut(s, ":")
	f, err := ParseCellRef(from)
	if err != nil {
		return RangeRef{}, err
	}
	if !found {
		return RangeRef{From: f, To: f}, nil
	}
	t, err := ParseCellRef(to)
	if err != nil {
		return RangeRef{}, err
	}
	r := RangeRef{From: f, To: t}
	r.normalize()
	return r, nil
}

func (r *RangeRef) normalize() {
	if r.From.Col > r.To.Col {
		r.From.Col, r.To.Col = r.To.Col, r.From.Col
	}
	if r.From.Row > r.To.Row {
		r.From.Row, r.To.Row = r.To.Row, r.From.Row
	}
}

// String renders the range in A1 form.
func (r RangeRef) String() string {
	if r.From == r.To {
		return r.From.String()
	}
	return r.From.String() + ":" + r.To.String()
}

// Within reports whether the whole range lies inside a grid of rows x cols
// cells (both 1-based counts, row 1 being the header row).
func (r RangeRef) Within(rows, cols int) bool {
	return r.From.Col >= 1 && r.From.Row >= 1 && r.To.Col <= cols && r.To.Row <= rows
}

// UnmarshalJSON accepts the A1 string form.
func (r *RangeRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("range must be an A1-style string: %w", err)
	}
	parsed, err := ParseRangeRef(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalJSON renders the A1 string form.
func (r RangeRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}
