package sage

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"gonum.org/v1/gonum/mat"
)

const snapshotVersion = 1

type paramSnapshot struct {
	Name string    `json:"name"`
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

type snapshot struct {
	Version    int             `json:"version"`
	InputDim   int             `json:"input_dim"`
	Hidden     int             `json:"hidden"`
	Dimensions int             `json:"dimensions"`
	Params     []paramSnapshot `json:"params"`
}

// WriteSnapshot writes the model weights as snappy-framed JSON.
func (m *Model) WriteSnapshot(w io.Writer) error {
	s := snapshot{Version: snapshotVersion, InputDim: m.InputDim, Hidden: m.Hidden, Dimensions: m.Dimensions}
	for i, p := range m.params() {
		r, c := p.Dims()
		data := make([]float64, 0, r*c)
		for row := 0; row < r; row++ {
			data = append(data, p.RawRowView(row)...)
		}
		s.Params = append(s.Params, paramSnapshot{Name: paramNames[i], Rows: r, Cols: c, Data: data})
	}

	sw := snappy.NewBufferedWriter(w)
	if err := json.NewEncoder(sw).Encode(&s); err != nil {
		sw.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return sw.Close()
}

// ReadSnapshot restores a model written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Model, error) {
	var s snapshot
	if err := json.NewDecoder(snappy.NewReader(r)).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}

	byName := make(map[string]*mat.Dense, len(s.Params))
	for _, p := range s.Params {
		if p.Rows*p.Cols != len(p.Data) || p.Rows == 0 || p.Cols == 0 {
			return nil, fmt.Errorf("%w: parameter %s declares %dx%d with %d values", ErrDimensionMismatch, p.Name, p.Rows, p.Cols, len(p.Data))
		}
		byName[p.Name] = mat.NewDense(p.Rows, p.Cols, p.Data)
	}
	get := func(name string, rows, cols int) (*mat.Dense, error) {
		d, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("snapshot missing parameter %s", name)
		}
		if r, c := d.Dims(); r != rows || c != cols {
			return nil, fmt.Errorf("%w: parameter %s is %dx%d, want %dx%d", ErrDimensionMismatch, name, r, c, rows, cols)
		}
		return d, nil
	}

	shapes := [][2]int{
		{s.InputDim, s.Hidden}, {s.InputDim, s.Hidden}, {1, s.Hidden},
		{s.Hidden, s.Dimensions}, {s.Hidden, s.Dimensions}, {1, s.Dimensions},
		{s.Dimensions, numClasses}, {1, numClasses},
	}
	ps := make([]*mat.Dense, len(paramNames))
	for i, name := range paramNames {
		d, err := get(name, shapes[i][0], shapes[i][1])
		if err != nil {
			return nil, err
		}
		ps[i] = d
	}
	return &Model{
		InputDim: s.InputDim, Hidden: s.Hidden, Dimensions: s.Dimensions,
		W1Self: ps[0], W1Neigh: ps[1], B1: ps[2],
		W2Self: ps[3], W2Neigh: ps[4], B2: ps[5],
		WOut: ps[6], BOut: ps[7],
	}, nil
}
