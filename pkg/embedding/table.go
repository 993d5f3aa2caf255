package embedding

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
	"github.com/dd0wney/cluso-fraudgraph/pkg/vector"
)

// ErrAlreadySet is returned when a key is written twice.
var ErrAlreadySet = errors.New("embedding already set")

// Table holds one vector per key. Rows are write-once and keep insertion
// order.
type Table struct {
	dim  int
	keys []string
	rows map[string][]float64
}

// NewTable creates an empty table of the given width.
func NewTable(dim int) *Table {
	return &Table{dim: dim, rows: make(map[string][]float64)}
}

// Set stores a copy of vec under key.
func (t *Table) Set(key string, vec []float64) error {
	if len(vec) != t.dim {
		return fmt.Errorf("%w: key %q has %d values, table width %d", vector.ErrDimensionMismatch, key, len(vec), t.dim)
	}
	if _, ok := t.rows[key]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadySet, key)
	}
	t.rows[key] = append([]float64(nil), vec...)
	t.keys = append(t.keys, key)
	return nil
}

// Get returns the vector of key. The slice must not be modified.
func (t *Table) Get(key string) ([]float64, bool) {
	v, ok := t.rows[key]
	return v, ok
}

func (t *Table) Keys() []string { return t.keys }
func (t *Table) Dim() int       { return t.dim }
func (t *Table) Len() int       { return len(t.keys) }

// Rows returns the vectors of keys in order. A key without a row fails with
// graph.ErrUnmappedKey.
func (t *Table) Rows(keys []string) ([][]float64, error) {
	out := make([][]float64, len(keys))
	for i, k := range keys {
		v, ok := t.rows[k]
		if !ok {
			return nil, &graph.GraphError{Op: "Table.Rows", Key: k, Cause: graph.ErrUnmappedKey}
		}
		out[i] = v
	}
	return out, nil
}

// MostSimilar returns the k keys closest to key by cosine distance.
func (t *Table) MostSimilar(key string, k int) ([]vector.Result, error) {
	q, ok := t.rows[key]
	if !ok {
		return nil, &graph.GraphError{Op: "Table.MostSimilar", Key: key, Cause: graph.ErrUnmappedKey}
	}
	vecs := make([][]float64, len(t.keys))
	for i, key := range t.keys {
		vecs[i] = t.rows[key]
	}
	return vector.Nearest(q, t.keys, vecs, k, vector.MetricCosine, key)
}

// WriteCSV writes a header "key,v0,...,vD-1" followed by one row per key.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	record := make([]string, t.dim+1)
	record[0] = "key"
	for i := 0; i < t.dim; i++ {
		record[i+1] = "v" + strconv.Itoa(i)
	}
	if err := cw.Write(record); err != nil {
		return err
	}
	for _, key := range t.keys {
		record[0] = key
		for i, x := range t.rows[key] {
			record[i+1] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading embedding header: %w", err)
	}
	if len(header) == 0 || header[0] != "key" {
		return nil, fmt.Errorf("embedding header must start with key column, got %v", header)
	}
	t := NewTable(len(header) - 1)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading embedding row: %w", err)
		}
		vec := make([]float64, t.dim)
		for i := range vec {
			if vec[i], err = strconv.ParseFloat(record[i+1], 64); err != nil {
				return nil, fmt.Errorf("embedding %q column %d: %w", record[0], i, err)
			}
		}
		if err := t.Set(record[0], vec); err != nil {
			return nil, err
		}
	}
}
