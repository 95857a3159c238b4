// package formatter renders sync responses and history for display (plain text, Markdown, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/desertthunder/allezgo/internal/models"
)

// EmptyMessage is shown when the remote API found no rides in the window.
const EmptyMessage = "No Peloton rides found during this period."

// Row is one rendered sync result.
type Row struct {
	Date        string
	Title       string
	Description string
	PelotonLink string
	GarminLink  string
	GarminLabel string
	Created     bool
}

// ResultView is the render model for a [models.SyncResponse].
//
// The result section and the error notice are independent: a response may produce either, both or neither.
type ResultView struct {
	HasResult bool
	NumDays   int
	Heading   string
	Empty     bool
	Rows      []Row
	Error     string
}

// HasError reports whether an error notice should be shown.
func (v ResultView) HasError() bool {
	return v.Error != ""
}

// IsZero reports whether there is nothing to render.
func (v ResultView) IsZero() bool {
	return !v.HasResult && !v.HasError()
}

// NewResultView maps resp to a render model. numDays is the window the request asked for.
func NewResultView(resp *models.SyncResponse, numDays int) ResultView {
	if resp == nil {
		return ResultView{}
	}

	view := ResultView{Error: resp.Error, NumDays: numDays}
	if !resp.HasResult() {
		return view
	}

	view.HasResult = true
	view.Heading = Heading(numDays)
	view.Empty = len(resp.Result) == 0
	view.Rows = make([]Row, 0, len(resp.Result))
	for _, sr := range resp.Result {
		view.Rows = append(view.Rows, NewRow(sr))
	}

	return view
}

// Heading returns the result section title for a sync window.
func Heading(numDays int) string {
	return fmt.Sprintf("Your rides over the last %d days", numDays)
}

// NewRow converts a single result.
func NewRow(sr models.SyncResult) Row {
	return Row{
		Date:        sr.ActivityDate,
		Title:       sr.Title,
		Description: sr.Description,
		PelotonLink: sr.PelotonLink,
		GarminLink:  sr.GarminLink,
		GarminLabel: GarminLabel(sr.WasCreated),
		Created:     sr.WasCreated,
	}
}

// GarminLabel is the link text for the Garmin activity, marked when the sync created it.
func GarminLabel(created bool) string {
	if created {
		return "Garmin (new)"
	}
	return "Garmin"
}

// ExportToText converts a ResultView to plain text
func ExportToText(view ResultView) ([]byte, error) {
	var buf bytes.Buffer

	if view.HasResult {
		buf.WriteString(view.Heading + "\n\n")
		if view.Empty {
			buf.WriteString(EmptyMessage + "\n")
		}
		for _, row := range view.Rows {
			buf.WriteString(fmt.Sprintf("%s  %s\n", row.Date, row.Title))
			if row.Description != "" {
				buf.WriteString(fmt.Sprintf("    %s\n", row.Description))
			}
			buf.WriteString(fmt.Sprintf("    Peloton: %s\n", row.PelotonLink))
			buf.WriteString(fmt.Sprintf("    %s: %s\n", row.GarminLabel, row.GarminLink))
		}
	}

	if view.HasError() {
		if view.HasResult {
			buf.WriteString("\n")
		}
		buf.WriteString(fmt.Sprintf("Error: %s\n", view.Error))
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a ResultView to Markdown, one list item per ride
func ExportToMarkdown(view ResultView) ([]byte, error) {
	var buf bytes.Buffer

	if view.HasResult {
		buf.WriteString(fmt.Sprintf("## %s\n\n", view.Heading))
		if view.Empty {
			buf.WriteString(EmptyMessage + "\n")
		}
		for _, row := range view.Rows {
			buf.WriteString(fmt.Sprintf("- %s **%s**", row.Date, row.Title))
			if row.Description != "" {
				buf.WriteString(" " + row.Description)
			}
			buf.WriteString(fmt.Sprintf(" ([Peloton](%s), [%s](%s))\n", row.PelotonLink, row.GarminLabel, row.GarminLink))
		}
	}

	if view.HasError() {
		if view.HasResult {
			buf.WriteString("\n")
		}
		buf.WriteString(fmt.Sprintf("> **Error**: %s\n", view.Error))
	}

	return buf.Bytes(), nil
}

// ExportToCSV converts the rows of a ResultView to CSV with columns: Date, Title, Description, Peloton, Garmin, Created
func ExportToCSV(view ResultView) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Date", "Title", "Description", "Peloton", "Garmin", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range view.Rows {
		record := []string{
			row.Date,
			row.Title,
			row.Description,
			row.PelotonLink,
			row.GarminLink,
			strconv.FormatBool(row.Created),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// Format selects an exporter by name: "text", "markdown" (or "md") and "csv".
func Format(view ResultView, format string) ([]byte, error) {
	switch format {
	case "", "text":
		return ExportToText(view)
	case "markdown", "md":
		return ExportToMarkdown(view)
	case "csv":
		return ExportToCSV(view)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// WriteResult renders view in format and writes it to w.
func WriteResult(w io.Writer, view ResultView, format string) error {
	data, err := Format(view, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// ExportHistory renders sync runs as a plain text table, newest first as given.
func ExportHistory(runs []models.SyncRun) ([]byte, error) {
	var buf bytes.Buffer

	if len(runs) == 0 {
		buf.WriteString("No sync runs recorded.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString(fmt.Sprintf("%-36s  %-19s  %4s  %7s  %7s  %8s  %s\n",
		"ID", "STARTED", "DAYS", "RESULTS", "CREATED", "DURATION", "ERROR"))
	for _, run := range runs {
		buf.WriteString(fmt.Sprintf("%-36s  %-19s  %4d  %7d  %7d  %8s  %s\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.NumDays,
			run.ResultCount,
			run.CreatedCount,
			FormatDuration(run.Duration()),
			run.Error,
		))
	}

	return buf.Bytes(), nil
}

// FormatDuration rounds d for display: milliseconds under a second, tenths of a second otherwise.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
