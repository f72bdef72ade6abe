package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Load reads an insurance CSV file with a header row.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read parses insurance CSV data. Header names are matched after normalisation, so
// " Age " maps to age; columns may come in any order and extra columns are ignored.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input, no header", ErrSchema)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	// BOM on the first header cell would hide the first column.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[string]int, len(Schema))
	raw := make(map[string]string, len(Schema))
	for i, h := range header {
		name := NormalizeColumn(h)
		if _, dup := index[name]; dup {
			continue
		}
		index[name] = i
		raw[name] = h
	}
	var missing []string
	for _, c := range Schema {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing column(s) %s", ErrSchema, strings.Join(missing, ", "))
	}

	t := &Table{Columns: make([]string, len(Schema))}
	for i, c := range Schema {
		t.Columns[i] = raw[c]
	}

	row := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}
		row++
		if isBlank(rec) {
			continue
		}
		r, err := parseRecord(rec, index, row)
		if err != nil {
			return nil, err
		}
		t.Records = append(t.Records, r)
	}
	return t, nil
}

func parseRecord(rec []string, index map[string]int, row int) (Record, error) {
	cell := func(col string) string {
		i := index[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	var r Record
	var err error
	if r.Age, err = parseInt(cell(ColAge)); err != nil {
		return r, &RowError{Row: row, Column: ColAge, Value: cell(ColAge), Err: err}
	}
	if r.BMI, err = parseFloat(cell(ColBMI)); err != nil {
		return r, &RowError{Row: row, Column: ColBMI, Value: cell(ColBMI), Err: err}
	}
	if r.Children, err = parseInt(cell(ColChildren)); err != nil {
		return r, &RowError{Row: row, Column: ColChildren, Value: cell(ColChildren), Err: err}
	}
	if r.Charges, err = parseFloat(cell(ColCharges)); err != nil {
		return r, &RowError{Row: row, Column: ColCharges, Value: cell(ColCharges), Err: err}
	}
	for _, c := range []struct {
		name string
		dst  *string
	}{{ColSex, &r.Sex}, {ColSmoker, &r.Smoker}, {ColRegion, &r.Region}} {
		v := cell(c.name)
		if v == "" {
			return r, &RowError{Row: row, Column: c.name, Value: v, Err: errEmpty}
		}
		*c.dst = v
	}
	return r, nil
}

var (
	errEmpty     = errors.New("empty value")
	errNotFinite = errors.New("not a finite number")
)

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, errEmpty
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	// Exports sometimes write integer columns as "19.0".
	f, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, errEmpty
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
