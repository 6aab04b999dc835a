// Package archive turns batches of audit records into immutable archive files
// (xlsx or csv) and keeps them in blob storage under Prefix.
package archive

import (
	"fmt"
	"io"
	"time"

	audit "abcretail/pkg/platform/audit"
)

const (
	// SheetName is the worksheet holding the rows of an xlsx archive.
	SheetName = "Audit Logs"
	// TimeLayout formats both timestamp columns.
	TimeLayout = "2006-01-02 15:04"
	// Prefix is the blob prefix for archive files.
	Prefix = "log-files/"
)

// Format selects an archive encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Header is the first row of every archive file.
var Header = []string{"Action", "Entity", "Name", "Id", "Queue Inserted At", "Event Timestamp"}

// Encoder writes records as one archive file.
type Encoder interface {
	Encode(w io.Writer, records []audit.Record) error
	Ext() string
	ContentType() string
}

// NewEncoder returns the encoder for format. Timestamps are rendered in loc;
// nil means UTC.
func NewEncoder(format Format, loc *time.Location) (Encoder, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch format {
	case FormatXLSX:
		return &XLSXEncoder{loc: loc}, nil
	case FormatCSV:
		return &CSVEncoder{loc: loc}, nil
	default:
		return nil, fmt.Errorf("unknown archive format %q", format)
	}
}

// Row renders one record. Fallback records keep the raw body in the Name
// column and the message id in the Id column.
func Row(r audit.Record, loc *time.Location) []string {
	if !r.Parsed() {
		return []string{audit.ActionUnparsed, "", r.Raw, r.MessageID, formatTime(r.InsertionTime, loc), ""}
	}
	return []string{
		r.Action,
		r.Entity,
		r.Name,
		r.ID,
		formatTime(r.InsertionTime, loc),
		formatTime(r.Timestamp, loc),
	}
}

// FileName names an archive written at t, for example
// audit-log-20250301-093000.xlsx. The name is always in UTC.
func FileName(t time.Time, ext string) string {
	return fmt.Sprintf("audit-log-%s.%s", t.UTC().Format("20060102-150405"), ext)
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimeLayout)
}
