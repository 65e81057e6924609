// Package format defines the decoded-payload shapes returned by this
// module: the typed column variant, its fill values, and the per-sensor
// metadata projected onto an output column.
package format

import "math"

// Kind identifies the concrete element type stored in a TypedColumn. It is
// derived from a sensor's declared byte width: 1->I8, 2->I16, 4->F32, 8->F64.
type Kind uint8

const (
	KindI8 Kind = iota
	KindI16
	KindF32
	KindF64
)

func (k Kind) String() string {
	switch k {
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	default:
		return "unknown"
	}
}

// KindForSize maps a sensor's declared byte width to its column Kind.
// ok is false for any width outside {1,2,4,8}.
func KindForSize(size uint8) (Kind, bool) {
	switch size {
	case 1:
		return KindI8, true
	case 2:
		return KindI16, true
	case 4:
		return KindF32, true
	case 8:
		return KindF64, true
	default:
		return 0, false
	}
}

// Fill values: the sentinel written into a cell that no record ever set.
const (
	FillI8  = math.MinInt8
	FillI16 = math.MinInt16
)

// FillF32 and FillF64 are NaN; defined as functions because Go has no
// untyped-NaN constant.
func FillF32() float32 { return float32(math.NaN()) }
func FillF64() float64 { return math.NaN() }

// TypedColumn is a tagged union over the four element types a DBD sensor
// can declare. Only the slice selected by Kind is used; it is nil when the
// column holds no elements after Truncate(0).
type TypedColumn struct {
	Kind Kind
	I8   []int8
	I16  []int16
	F32  []float32
	F64  []float64
}

// NewTypedColumn allocates a TypedColumn of the given kind and length,
// filled with the type-appropriate fill value.
func NewTypedColumn(kind Kind, n int) TypedColumn {
	col := TypedColumn{Kind: kind}
	switch kind {
	case KindI8:
		col.I8 = make([]int8, n)
		for i := range col.I8 {
			col.I8[i] = FillI8
		}
	case KindI16:
		col.I16 = make([]int16, n)
		for i := range col.I16 {
			col.I16[i] = FillI16
		}
	case KindF32:
		col.F32 = make([]float32, n)
		fill := FillF32()
		for i := range col.F32 {
			col.F32[i] = fill
		}
	case KindF64:
		col.F64 = make([]float64, n)
		fill := FillF64()
		for i := range col.F64 {
			col.F64[i] = fill
		}
	}

	return col
}

// Len returns the number of elements in the column.
func (c *TypedColumn) Len() int {
	switch c.Kind {
	case KindI8:
		return len(c.I8)
	case KindI16:
		return len(c.I16)
	case KindF32:
		return len(c.F32)
	case KindF64:
		return len(c.F64)
	default:
		return 0
	}
}

// Grow extends the column to at least minCap elements, doubling the
// backing capacity (or more, to reach minCap) and filling the newly added
// tail with the type-appropriate fill value. A column that already holds
// minCap elements is left unchanged. It implements the geometric growth
// policy of the decoder's column buffers.
func (c *TypedColumn) Grow(minCap int) {
	switch c.Kind {
	case KindI8:
		c.I8 = growI8(c.I8, minCap)
	case KindI16:
		c.I16 = growI16(c.I16, minCap)
	case KindF32:
		c.F32 = growF32(c.F32, minCap)
	case KindF64:
		c.F64 = growF64(c.F64, minCap)
	}
}

// Truncate trims the column to exactly n elements, releasing the tail
// capacity acquired during geometric growth.
func (c *TypedColumn) Truncate(n int) {
	switch c.Kind {
	case KindI8:
		c.I8 = append([]int8(nil), c.I8[:n]...)
	case KindI16:
		c.I16 = append([]int16(nil), c.I16[:n]...)
	case KindF32:
		c.F32 = append([]float32(nil), c.F32[:n]...)
	case KindF64:
		c.F64 = append([]float64(nil), c.F64[:n]...)
	}
}

func nextCap(cur, min int) int {
	n := cur * 2
	if n < min {
		n = min
	}
	if n < 1 {
		n = 1
	}

	return n
}

func growI8(s []int8, minCap int) []int8 {
	if len(s) >= minCap {
		return s
	}
	n := make([]int8, nextCap(cap(s), minCap))
	copy(n, s)
	for i := len(s); i < len(n); i++ {
		n[i] = FillI8
	}

	return n
}

func growI16(s []int16, minCap int) []int16 {
	if len(s) >= minCap {
		return s
	}
	n := make([]int16, nextCap(cap(s), minCap))
	copy(n, s)
	for i := len(s); i < len(n); i++ {
		n[i] = FillI16
	}

	return n
}

func growF32(s []float32, minCap int) []float32 {
	if len(s) >= minCap {
		return s
	}
	n := make([]float32, nextCap(cap(s), minCap))
	copy(n, s)
	fill := FillF32()
	for i := range n[len(s):] {
		n[len(s)+i] = fill
	}

	return n
}

func growF64(s []float64, minCap int) []float64 {
	if len(s) >= minCap {
		return s
	}
	n := make([]float64, nextCap(cap(s), minCap))
	copy(n, s)
	fill := FillF64()
	for i := range n[len(s):] {
		n[len(s)+i] = fill
	}

	return n
}

// SensorInfo is the catalog entry projected to what an output column needs.
type SensorInfo struct {
	Name  string
	Units string
	Size  uint8
}

// ColumnDataResult is the decoded payload of one file: a set of kept
// columns, their sensor metadata, and the committed row count.
type ColumnDataResult struct {
	Columns    []TypedColumn
	SensorInfo []SensorInfo
	NRecords   int
}
