// Package decoder implements the binary record stream walk: presence
// bitmap decoding, per-sensor carry-previous-value semantics, criteria-
// gated row commits, and the truncate-on-error "retain clean prefix"
// guarantee that makes a corrupt tail lose only its own rows.
package decoder

import (
	"io"
	"math"

	"github.com/oceangliders/dbd/catalog"
	"github.com/oceangliders/dbd/endian"
	"github.com/oceangliders/dbd/format"
)

const (
	tagData = 'd'
	tagEnd  = 'X'
)

const minInitialCapacity = 256

// initialCapacity seeds column growth with a rough share of the estimated
// file size per sensor, with a floor so tiny or unknown-size inputs still
// get one reasonably sized allocation.
func initialCapacity(estBytes, nSensors int) int {
	n := 2*estBytes/(nSensors+1) + 1
	if n < minInitialCapacity {
		n = minInitialCapacity
	}

	return n
}

// ReadColumns walks r as a stream of 'd'-tagged records (or an 'X'
// terminator) described by cat, resolving multi-byte fields with probe's
// byte order. It never returns an error from a mid-stream failure: any
// read error, short read, or (when repair is false) unexpected tag byte
// ends the walk and returns everything committed so far.
func ReadColumns(r io.Reader, probe endian.Probe, cat *catalog.SensorCatalog, repair bool, estBytes int) (format.ColumnDataResult, error) {
	nSensors := cat.Len()
	nKept := cat.NKept()
	nCriteria := cat.NCriteria()
	headerBytes := (nSensors + 3) / 4

	cols := make([]format.TypedColumn, nKept)
	prev := make([]cell, nKept)
	info := make([]format.SensorInfo, nKept)

	initCap := initialCapacity(estBytes, nSensors)
	for i, s := range cat.Sensors {
		oi, kept := cat.OutIndexOf(i)
		if !kept {
			continue
		}
		kind, ok := format.KindForSize(s.Size)
		if !ok {
			// Unsupported size on a kept sensor: nothing useful can be
			// decoded at all, so return an empty-but-valid result.
			return format.ColumnDataResult{Columns: cols, SensorInfo: info}, nil
		}
		cols[oi] = format.NewTypedColumn(kind, initCap)
		prev[oi] = fillCell(kind)
		info[oi] = format.SensorInfo{Name: s.Name, Units: s.Units, Size: s.Size}
	}

	nRows := 0
	presence := make([]byte, headerBytes)
	scratch := make([]byte, 8)

loop:
	for {
		tag, err := readByte(r)
		if err != nil {
			break
		}
		switch tag {
		case tagEnd:
			break loop
		case tagData:
			// proceed
		default:
			if !repair {
				break loop
			}
			found := false
			for {
				b, err := readByte(r)
				if err != nil {
					break loop
				}
				if b == tagData {
					found = true
					break
				}
			}
			if !found {
				break loop
			}
		}

		if _, err := io.ReadFull(r, presence); err != nil {
			break loop
		}

		rowKeep := nCriteria == 0

		for i := 0; i < nSensors; i++ {
			code := (presence[i/4] >> uint(6-2*(i%4))) & 0x3
			if code == 0 {
				continue
			}

			s := cat.Sensors[i]
			oi, kept := cat.OutIndexOf(i)

			switch code {
			case 1: // repeat previous
				if s.Criteria {
					rowKeep = true
				}
				if kept {
					ensureCapacity(&cols[oi], nRows)
					setCell(&cols[oi], nRows, prev[oi])
				}
			case 2: // new value
				if s.Criteria {
					rowKeep = true
				}
				buf := scratch[:s.Size]
				if _, err := io.ReadFull(r, buf); err != nil {
					break loop
				}

				kind, ok := format.KindForSize(s.Size)
				if !ok {
					break loop
				}
				v := decodeCell(probe, kind, buf)

				if kept {
					ensureCapacity(&cols[oi], nRows)
					setCell(&cols[oi], nRows, v)
					prev[oi] = v
				}
			default: // 3: reserved, treat as corrupt
				break loop
			}
		}

		if rowKeep {
			nRows++
		}
	}

	for i := range cols {
		cols[i].Truncate(nRows)
	}

	return format.ColumnDataResult{Columns: cols, SensorInfo: info, NRecords: nRows}, nil
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}

	return b[0], nil
}

func ensureCapacity(col *format.TypedColumn, nRows int) {
	if nRows >= col.Len() {
		col.Grow(2 * col.Len())
	}
}

// cell is a single scalar value of any of the four column kinds, used for
// the per-sensor "previous value" slot.
type cell struct {
	kind format.Kind
	i8   int8
	i16  int16
	f32  float32
	f64  float64
}

func fillCell(kind format.Kind) cell {
	switch kind {
	case format.KindI8:
		return cell{kind: kind, i8: format.FillI8}
	case format.KindI16:
		return cell{kind: kind, i16: format.FillI16}
	case format.KindF32:
		return cell{kind: kind, f32: format.FillF32()}
	default:
		return cell{kind: kind, f64: format.FillF64()}
	}
}

func decodeCell(probe endian.Probe, kind format.Kind, buf []byte) cell {
	switch kind {
	case format.KindI8:
		return cell{kind: kind, i8: probe.ReadI8(buf)}
	case format.KindI16:
		return cell{kind: kind, i16: probe.ReadI16(buf)}
	case format.KindF32:
		v := probe.ReadF32(buf)
		if math.IsInf(float64(v), 0) {
			v = format.FillF32()
		}

		return cell{kind: kind, f32: v}
	default:
		v := probe.ReadF64(buf)
		if math.IsInf(v, 0) {
			v = format.FillF64()
		}

		return cell{kind: kind, f64: v}
	}
}

func setCell(col *format.TypedColumn, idx int, v cell) {
	switch v.kind {
	case format.KindI8:
		col.I8[idx] = v.i8
	case format.KindI16:
		col.I16[idx] = v.i16
	case format.KindF32:
		col.F32[idx] = v.f32
	case format.KindF64:
		col.F64[idx] = v.f64
	}
}
