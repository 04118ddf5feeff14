// Package output renders a finished roster as CSV (the operator-facing
// spreadsheet artifact) and as JSON (a supplemental machine-readable
// rendering of the same table, absent from the distilled pipeline but
// present in the original multi-script habit of keeping a parallel
// temp_shift_final.csv / shift_final.csv pair).
package output

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kt-git-1/nurse-scheduling/internal/calendar"
	"github.com/kt-git-1/nurse-scheduling/internal/roster"
)

// summaryHeader is the trailing column WriteCSV appends to every row.
const summaryHeader = "休み合計"

// WriteCSV renders the full roster table plus a trailing 休み合計 summary
// column: header row is 日付 followed by each day-of-month, then one row per
// nurse. Outpatient codes (1-4) are plain ASCII digits already, so the csv
// package emits them unquoted the same way it emits every other glyph;
// Excel recognizes bare digit cells as numbers without further coercion.
func WriteCSV(w io.Writer, cal *calendar.Calendar, r *roster.Roster) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	days := cal.Days()
	header := make([]string, 0, len(days)+2)
	header = append(header, "日付")
	for _, d := range days {
		header = append(header, strconv.Itoa(d.Date.Day()))
	}
	header = append(header, summaryHeader)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, n := range r.Nurses() {
		row := make([]string, 0, len(days)+2)
		row = append(row, n.Name)
		for _, d := range days {
			row = append(row, string(r.Get(n.Name, d.Index).Code))
		}
		score := r.OffScore(n.Name)
		row = append(row, score.String())
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}

// NurseSummary is one nurse's per-code shift-count breakdown plus their
// weighted off-score total, the JSON rendering's supplemental detail beyond
// the flat CSV table.
type NurseSummary struct {
	Name     string           `json:"name"`
	Shifts   map[string][]int `json:"shifts"`
	Counts   map[string]int   `json:"counts"`
	OffScore string           `json:"off_score"`
}

// Document is the JSON rendering's top-level shape: the year and month of
// the window's first day (day 0, the 21st of the preceding month), the
// window length, and per nurse the days of month each code falls on, the
// per-code counts and the off-score.
type Document struct {
	Year        int            `json:"year"`
	Month       int            `json:"month"`
	DaysInMonth int            `json:"days_in_month"`
	Nurses      []NurseSummary `json:"nurses"`
}

// BuildDocument assembles the JSON rendering's in-memory shape from the same
// roster WriteCSV reads.
func BuildDocument(cal *calendar.Calendar, r *roster.Roster) Document {
	days := cal.Days()
	doc := Document{DaysInMonth: len(days)}
	if len(days) > 0 {
		doc.Year = days[0].Date.Year()
		doc.Month = int(days[0].Date.Month())
	}

	for _, n := range r.Nurses() {
		summary := NurseSummary{
			Name:     n.Name,
			Shifts:   make(map[string][]int),
			Counts:   make(map[string]int),
			OffScore: r.OffScore(n.Name).String(),
		}
		for _, d := range days {
			code := string(r.Get(n.Name, d.Index).Code)
			summary.Shifts[code] = append(summary.Shifts[code], d.Date.Day())
			summary.Counts[code]++
		}
		doc.Nurses = append(doc.Nurses, summary)
	}
	return doc
}

// WriteJSON renders the roster as the supplemental JSON document.
func WriteJSON(w io.Writer, cal *calendar.Calendar, r *roster.Roster) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDocument(cal, r))
}
