package search

import (
	"bytes"

	"github.com/RoaringBitmap/roaring/v2"
)

// Trace records the set of nodes settled by a search.
//
// Plug Record into a request's OnNodeSettled hook. The compressed bitmap keeps full
// expansion traces of large maps small enough to return over the API.
type Trace struct {
	nodes *roaring.Bitmap
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{nodes: roaring.New()}
}

// Record adds node to the trace.
func (t *Trace) Record(node int) {
	t.nodes.Add(uint32(node))
}

// Contains reports whether node was recorded.
func (t *Trace) Contains(node int) bool {
	return t.nodes.Contains(uint32(node))
}

// Count returns the number of recorded nodes.
func (t *Trace) Count() int {
	return int(t.nodes.GetCardinality())
}

// Nodes returns the recorded nodes in ascending order.
func (t *Trace) Nodes() []int {
	out := make([]int, 0, t.nodes.GetCardinality())
	it := t.nodes.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Bytes returns the portable serialized bitmap.
func (t *Trace) Bytes() ([]byte, error) {
	t.nodes.RunOptimize()
	var buf bytes.Buffer
	if _, err := t.nodes.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadTrace decodes a trace produced by Bytes.
func ReadTrace(data []byte) (*Trace, error) {
	bm := roaring.New()
	if _, err := bm.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return &Trace{nodes: bm}, nil
}
