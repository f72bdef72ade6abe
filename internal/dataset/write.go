package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/KaramelBytes/healthrisk-cli/internal/utils"
)

// WriteCSV writes the table to path (no index column), creating parent directories.
func WriteCSV(t *Table, path string) error {
	var buf bytes.Buffer
	if err := Write(t, &buf); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Write encodes the table as CSV with t.Columns as header.
func Write(t *Table, w io.Writer) error {
	header := t.Columns
	if len(header) == 0 {
		header = Schema
	}
	if len(header) != len(Schema) {
		return fmt.Errorf("%w: table has %d columns, want %d", ErrSchema, len(header), len(Schema))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(Schema))
	for _, r := range t.Records {
		row[0] = strconv.Itoa(r.Age)
		row[1] = r.Sex
		row[2] = formatFloat(r.BMI)
		row[3] = strconv.Itoa(r.Children)
		row[4] = r.Smoker
		row[5] = r.Region
		row[6] = formatFloat(r.Charges)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
