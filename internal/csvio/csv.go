// Package csvio reads and writes the member CSV interchange format.
// Import is best-effort: bad lines are reported individually and the
// batch continues.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ExportHeader is the fixed column order of a member export.
var ExportHeader = []string{
	"random_id", "first_name", "last_name", "mobile", "email", "gender",
	"date_of_birth", "payment", "start_date", "period", "end_date",
	"branch", "coach", "status", "notes",
}

// ImportHeader is the fixed column order expected on import. Derived
// fields (random id, period, end date, status) are computed on create
// and therefore absent.
var ImportHeader = []string{
	"first_name", "last_name", "mobile", "email", "gender",
	"date_of_birth", "payment", "start_date", "branch", "coach", "notes",
}

// MemberRow is one export line, already rendered to strings by the caller.
type MemberRow struct {
	RandomID    string
	FirstName   string
	LastName    string
	Mobile      string
	Email       string
	Gender      string
	DateOfBirth string
	Payment     string
	StartDate   string
	Period      string
	EndDate     string
	Branch      string
	Coach       string
	Status      string
	Notes       string
}

// ImportRecord is one parsed import line. Values are raw strings; the
// member service validates and converts them.
type ImportRecord struct {
	Line        int
	FirstName   string
	LastName    string
	Mobile      string
	Email       string
	Gender      string
	DateOfBirth string
	Payment     string
	StartDate   string
	Branch      string
	Coach       string
	Notes       string
}

// LineError reports a single rejected line without failing the batch.
type LineError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

// WriteMembers writes the header row followed by one row per member.
func WriteMembers(w io.Writer, rows []MemberRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.RandomID, r.FirstName, r.LastName, r.Mobile, r.Email, r.Gender,
			r.DateOfBirth, r.Payment, r.StartDate, r.Period, r.EndDate,
			r.Branch, r.Coach, r.Status, r.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMembers parses an import file. The header row and blank lines are
// skipped; lines with the wrong field count are reported as LineErrors.
func ReadMembers(r io.Reader) ([]ImportRecord, []LineError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // field count checked per line below

	var records []ImportRecord
	var lineErrors []LineError

	lineNo := 0
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		lineNo++
		if err != nil {
			lineErrors = append(lineErrors, LineError{Line: lineNo, Err: err.Error()})
			continue
		}

		if isBlank(fields) {
			continue
		}
		if lineNo == 1 && strings.EqualFold(strings.TrimSpace(fields[0]), ImportHeader[0]) {
			continue
		}

		if len(fields) != len(ImportHeader) {
			lineErrors = append(lineErrors, LineError{
				Line: lineNo,
				Err:  fmt.Sprintf("expected %d fields, got %d", len(ImportHeader), len(fields)),
			})
			continue
		}

		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		records = append(records, ImportRecord{
			Line:        lineNo,
			FirstName:   fields[0],
			LastName:    fields[1],
			Mobile:      fields[2],
			Email:       fields[3],
			Gender:      fields[4],
			DateOfBirth: fields[5],
			Payment:     fields[6],
			StartDate:   fields[7],
			Branch:      fields[8],
			Coach:       fields[9],
			Notes:       fields[10],
		})
	}

	return records, lineErrors, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
