// internal/app/system/csvutil/roster.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/app/system/inputval"
)

// Upload size and row limits for roster imports.
const (
	MaxUploadSize = 1 << 20 // 1 MB
	MaxRows       = 2000
)

var ErrTooManyRows = fmt.Errorf("roster has more than %d rows", MaxRows)

// RosterRow is one normalized line of a roster file.
type RosterRow struct {
	Line     int    `json:"line"`
	FullName string `json:"full_name" validate:"required,max=200" label:"full name"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

// RowError explains why a line was rejected.
type RowError struct {
	Line   int    `json:"line"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

// Result is the outcome of ParseRoster.
type Result struct {
	Rows   []RosterRow
	Errors []RowError
}

func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// ParseRoster reads "full name, email[, phone]" lines. A header line is
// skipped when its first two cells read name/full name and email. Blank
// lines are ignored and duplicate emails within the file are reported.
// It never writes to a DB; it's safe to call before any mutations.
func ParseRoster(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		res  Result
		seen = map[string]int{}
		line = 0
	)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return Result{}, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		row := RosterRow{Line: line, FullName: cell(rec, 0), Email: strings.ToLower(cell(rec, 1)), Phone: cell(rec, 2)}
		if row.FullName == "" && row.Email == "" && row.Phone == "" {
			continue
		}
		if len(res.Rows)+len(res.Errors) >= MaxRows {
			return Result{}, ErrTooManyRows
		}
		if v := inputval.Validate(row); v.HasErrors() {
			res.Errors = append(res.Errors, RowError{Line: line, Email: row.Email, Reason: v.First()})
			continue
		}
		if first, dup := seen[row.Email]; dup {
			res.Errors = append(res.Errors, RowError{
				Line: line, Email: row.Email, Reason: fmt.Sprintf("duplicate of line %d", first),
			})
			continue
		}
		seen[row.Email] = line
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func cell(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

func isHeader(rec []string) bool {
	first := strings.ToLower(cell(rec, 0))
	return (first == "name" || first == "full name") && strings.EqualFold(cell(rec, 1), "email")
}
