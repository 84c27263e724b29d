package transfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// csvHeader is a stable export format, column order matters to consumers.
var csvHeader = []string{
	"Timestamp",
	"Upload_Speed_KBps",
	"Packets_Estimate",
	"Bytes_Transferred",
	"Total_Bytes",
	"Progress_Percent",
}

// ExportCSV writes the session's metric history as a comma-delimited table,
// one row per sample. Speed and progress are rounded to two decimals.
func ExportCSV(w io.Writer, s *Session) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header, %w", err)
	}

	for _, sample := range s.Samples() {
		row := []string{
			sample.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(sample.SpeedKBps, 'f', 2, 64),
			strconv.FormatInt(sample.Packets, 10),
			strconv.FormatInt(sample.BytesTransferred, 10),
			strconv.FormatInt(sample.TotalBytes, 10),
			strconv.FormatFloat(sample.Progress, 'f', 2, 64),
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row, %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}
