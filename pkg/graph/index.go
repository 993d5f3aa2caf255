package graph

// Index maps node keys to dense row positions for matrix consumers.
type Index struct {
	keys []string
	pos  map[string]int
}

// NewIndex builds an index over keys. Keys must be unique.
func NewIndex(keys []string) (*Index, error) {
	ix := &Index{
		keys: make([]string, len(keys)),
		pos:  make(map[string]int, len(keys)),
	}
	for i, k := range keys {
		if _, ok := ix.pos[k]; ok {
			return nil, &GraphError{Op: "NewIndex", Key: k, Cause: ErrDuplicateNode}
		}
		ix.keys[i] = k
		ix.pos[k] = i
	}
	return ix, nil
}

// IndexOf builds an index over every node of g in ID order, so positions
// equal node IDs.
func IndexOf(g *Graph) *Index {
	ix, _ := NewIndex(g.Keys())
	return ix
}

// Pos returns the row of key.
func (ix *Index) Pos(key string) (int, error) {
	p, ok := ix.pos[key]
	if !ok {
		return -1, &GraphError{Op: "Index.Pos", Key: key, Cause: ErrUnmappedKey}
	}
	return p, nil
}

// Key returns the key at row i.
func (ix *Index) Key(i int) string {
	return ix.keys[i]
}

func (ix *Index) Keys() []string {
	return ix.keys
}

func (ix *Index) Len() int {
	return len(ix.keys)
}
