package vectorstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Hit is one nearest-neighbor result: the ordinal position of the vector in
// insertion order and its squared Euclidean distance from the query.
type Hit struct {
	Position int
	Distance float64
}

// FlatIndex is a flat squared-L2 nearest-neighbor index. Vectors keep their
// insertion-order ordinal position forever; Append never invalidates prior
// positions, which is what lets the parallel metadata store resolve results.
type FlatIndex struct {
	dim  int
	vecs [][]float32
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("flatindex: invalid dimension %d", dim)
	}
	return &FlatIndex{dim: dim}, nil
}

// Build constructs an index from an initial batch of vectors.
func Build(vectors [][]float32) (*FlatIndex, error) {
	if len(vectors) == 0 {
		return nil, errors.New("flatindex: cannot build from empty batch")
	}
	idx, err := NewFlatIndex(len(vectors[0]))
	if err != nil {
		return nil, err
	}
	for _, v := range vectors {
		if err := idx.Append(v); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Dimension returns the vector dimensionality.
func (i *FlatIndex) Dimension() int { return i.dim }

// Len returns the number of indexed vectors.
func (i *FlatIndex) Len() int { return len(i.vecs) }

// Append adds one vector at the next ordinal position without rebuilding.
func (i *FlatIndex) Append(vec []float32) error {
	if len(vec) != i.dim {
		return fmt.Errorf("flatindex: vector dim %d != index dim %d", len(vec), i.dim)
	}
	i.vecs = append(i.vecs, append([]float32(nil), vec...))
	return nil
}

// Search returns up to k positions closest to query by squared L2 distance,
// ascending, with ties broken by insertion order.
func (i *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != i.dim {
		return nil, fmt.Errorf("flatindex: query dim %d != index dim %d", len(query), i.dim)
	}
	if k <= 0 || len(i.vecs) == 0 {
		return nil, nil
	}

	hits := make([]Hit, len(i.vecs))
	for pos, vec := range i.vecs {
		hits[pos] = Hit{Position: pos, Distance: sqDistance(query, vec)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func sqDistance(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return s
}

// MarshalBinary stores: dim(uint32), n(uint32), then n*dim float32 values,
// little-endian throughout.
func (i *FlatIndex) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, 8+4*i.dim*len(i.vecs))
	buf := make([]byte, 4)
	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf, v)
		out = append(out, buf...)
	}
	putU32(uint32(i.dim))
	putU32(uint32(len(i.vecs)))
	for _, vec := range i.vecs {
		for _, f := range vec {
			putU32(math.Float32bits(f))
		}
	}
	return out, nil
}

// UnmarshalBinary restores the index from bytes.
func (i *FlatIndex) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return errors.New("flatindex: invalid data")
	}
	off := 0
	getU32 := func() uint32 {
		v := binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
		return v
	}
	dim := int(getU32())
	n := int(getU32())
	if dim <= 0 {
		return fmt.Errorf("flatindex: invalid dimension %d in serialized data", dim)
	}
	if len(data) < 8+4*dim*n {
		return errors.New("flatindex: truncated data")
	}
	vecs := make([][]float32, n)
	for idx := 0; idx < n; idx++ {
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(getU32())
		}
		vecs[idx] = vec
	}
	i.dim = dim
	i.vecs = vecs
	return nil
}
