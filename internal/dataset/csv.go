// Package dataset loads feature/label tables into the flat row-major buffers
// consumed by the mini-batch partitioner.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Dataset is a table of Rows samples with NInputs features followed by
// NOutputs labels each.
type Dataset struct {
	X        []float64
	Y        []float64
	NInputs  int
	NOutputs int
	Rows     int
}

// ErrNoColumns indicates a table too narrow to hold both features and labels.
var ErrNoColumns = errors.New("dataset: need at least one feature column and the label columns")

// Load reads every CSV file under path (see DiscoverFiles) into one Dataset.
// All files must share the same width.
func Load(path string, nOutputs int) (*Dataset, error) {
	files, err := DiscoverFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("dataset: no csv files under %s", path)
	}
	var out *Dataset
	for _, file := range files {
		ds, err := loadFile(file, nOutputs)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = ds
			continue
		}
		if err := out.Append(ds); err != nil {
			return nil, fmt.Errorf("dataset %s: %w", file, err)
		}
	}
	return out, nil
}

func loadFile(path string, nOutputs int) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Read(f, nOutputs)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return ds, nil
}

// Read parses comma-separated rows from r. The trailing nOutputs columns are
// labels. A leading header row is skipped when its first cell is not numeric
// and lines starting with '#' are ignored.
func Read(r io.Reader, nOutputs int) (*Dataset, error) {
	if nOutputs <= 0 {
		return nil, fmt.Errorf("dataset: n_outputs must be > 0 (got %d)", nOutputs)
	}
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	ds := &Dataset{NOutputs: nOutputs}
	first := true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if first {
			first = false
			if _, err := parseCell(record[0]); err != nil {
				continue
			}
		}
		if ds.NInputs == 0 {
			if len(record) <= nOutputs {
				return nil, fmt.Errorf("line %d: %w", line, ErrNoColumns)
			}
			ds.NInputs = len(record) - nOutputs
		}
		for i, cell := range record {
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			if i < ds.NInputs {
				ds.X = append(ds.X, v)
			} else {
				ds.Y = append(ds.Y, v)
			}
		}
		ds.Rows++
	}
	return ds, nil
}

// Append concatenates other's rows onto d.
func (d *Dataset) Append(other *Dataset) error {
	if other == nil || other.Rows == 0 {
		return nil
	}
	if d.Rows == 0 && d.NInputs == 0 {
		d.NInputs = other.NInputs
	}
	if other.NInputs != d.NInputs || other.NOutputs != d.NOutputs {
		return fmt.Errorf("width mismatch: %d+%d columns, want %d+%d",
			other.NInputs, other.NOutputs, d.NInputs, d.NOutputs)
	}
	d.X = append(d.X, other.X...)
	d.Y = append(d.Y, other.Y...)
	d.Rows += other.Rows
	return nil
}

func parseCell(cell string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(cell), 64)
}
