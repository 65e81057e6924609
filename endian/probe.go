package endian

import (
	"fmt"
	"io"
	"math"

	"github.com/oceangliders/dbd/errs"
)

// ProbeSize is the length in bytes of the known-bytes block that every DBD
// record stream carries immediately after the sensor catalog, used to
// detect the byte order the file was written with.
const ProbeSize = 16

const (
	probeTag       = 's'
	probeLetter    = 'a'
	probeInt16     = 0x1234
	probeFloat32   = 123.456
	probeFloat64   = 123456789.12345
	floatTolerance = 0.001
)

// Probe carries the byte order resolved from a file's known-bytes block.
type Probe struct {
	Engine EndianEngine
}

// ReadProbe reads the 16-byte known-bytes block from r and resolves the
// file's byte order from it: a tag byte 's', a byte 'a', an int16 whose
// value is 0x1234 under exactly one byte order, a float32 of 123.456 and a
// float64 of 123456789.12345 under that same order. Any mismatch is
// reported as errs.ErrCorruptEndianProbe.
func ReadProbe(r io.Reader) (Probe, error) {
	buf := make([]byte, ProbeSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Probe{}, fmt.Errorf("%w: reading endian probe: %w", errs.ErrIO, err)
	}

	return DecodeProbe(buf)
}

// DecodeProbe resolves the byte order from an already-read 16-byte block.
func DecodeProbe(buf []byte) (Probe, error) {
	if len(buf) != ProbeSize {
		return Probe{}, fmt.Errorf("%w: known bytes block must be %d bytes, got %d", errs.ErrCorruptEndianProbe, ProbeSize, len(buf))
	}
	if buf[0] != probeTag {
		return Probe{}, fmt.Errorf("%w: expected tag %q, got %q", errs.ErrCorruptEndianProbe, probeTag, buf[0])
	}
	if buf[1] != probeLetter {
		return Probe{}, fmt.Errorf("%w: expected byte %q, got %q", errs.ErrCorruptEndianProbe, probeLetter, buf[1])
	}

	engine, err := resolveEngine(buf)
	if err != nil {
		return Probe{}, err
	}

	f32 := engine.Uint32(buf[4:8])
	val32 := math.Float32frombits(f32)
	if math.Abs(float64(val32)-probeFloat32) > floatTolerance {
		return Probe{}, fmt.Errorf("%w: float32 mismatch: got %v", errs.ErrCorruptEndianProbe, val32)
	}

	f64 := engine.Uint64(buf[8:16])
	val64 := math.Float64frombits(f64)
	if math.Abs(val64-probeFloat64) > floatTolerance {
		return Probe{}, fmt.Errorf("%w: float64 mismatch: got %v", errs.ErrCorruptEndianProbe, val64)
	}

	return Probe{Engine: engine}, nil
}

func resolveEngine(buf []byte) (EndianEngine, error) {
	le := GetLittleEndianEngine()
	be := GetBigEndianEngine()

	if int16(le.Uint16(buf[2:4])) == probeInt16 {
		return le, nil
	}
	if int16(be.Uint16(buf[2:4])) == probeInt16 {
		return be, nil
	}

	return nil, fmt.Errorf("%w: int16 0x%x matches neither byte order", errs.ErrCorruptEndianProbe, buf[2:4])
}

// ReadI8 reads a single signed byte. Byte order is irrelevant for one byte;
// the method exists so callers can treat all widths uniformly.
func (p Probe) ReadI8(b []byte) int8 {
	return int8(b[0])
}

// ReadI16 reads a signed 16-bit value using the probe's resolved byte order.
func (p Probe) ReadI16(b []byte) int16 {
	return int16(p.Engine.Uint16(b))
}

// ReadF32 reads a 32-bit float using the probe's resolved byte order.
func (p Probe) ReadF32(b []byte) float32 {
	return math.Float32frombits(p.Engine.Uint32(b))
}

// ReadF64 reads a 64-bit float using the probe's resolved byte order.
func (p Probe) ReadF64(b []byte) float64 {
	return math.Float64frombits(p.Engine.Uint64(b))
}
