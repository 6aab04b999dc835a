package archive

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	audit "abcretail/pkg/platform/audit"
)

// CSVEncoder writes archives as comma separated values.
type CSVEncoder struct {
	loc *time.Location
}

func (e *CSVEncoder) Ext() string         { return "csv" }
func (e *CSVEncoder) ContentType() string { return "text/csv" }

func (e *CSVEncoder) Encode(w io.Writer, records []audit.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(Row(r, e.loc)); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.MessageID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
