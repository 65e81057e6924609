package endian

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildProbe(t *testing.T, engine EndianEngine) []byte {
	t.Helper()
	buf := make([]byte, ProbeSize)
	buf[0] = probeTag
	buf[1] = probeLetter
	engine.PutUint16(buf[2:4], uint16(int16(probeInt16)))
	engine.PutUint32(buf[4:8], math.Float32bits(float32(probeFloat32)))
	engine.PutUint64(buf[8:16], math.Float64bits(probeFloat64))

	return buf
}

func TestReadProbe_LittleEndian(t *testing.T) {
	buf := buildProbe(t, GetLittleEndianEngine())
	p, err := ReadProbe(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, GetLittleEndianEngine(), p.Engine)
}

func TestReadProbe_BigEndian(t *testing.T) {
	buf := buildProbe(t, GetBigEndianEngine())
	p, err := ReadProbe(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, GetBigEndianEngine(), p.Engine)
}

func TestReadProbe_BadTag(t *testing.T) {
	buf := buildProbe(t, GetLittleEndianEngine())
	buf[0] = 'x'
	_, err := ReadProbe(bytes.NewReader(buf))
	require.Error(t, err)
}

func TestReadProbe_BadLetter(t *testing.T) {
	buf := buildProbe(t, GetLittleEndianEngine())
	buf[1] = 'x'
	_, err := ReadProbe(bytes.NewReader(buf))
	require.Error(t, err)
}

func TestReadProbe_CorruptFloat(t *testing.T) {
	buf := buildProbe(t, GetLittleEndianEngine())
	GetLittleEndianEngine().PutUint32(buf[4:8], math.Float32bits(999))
	_, err := ReadProbe(bytes.NewReader(buf))
	require.Error(t, err)
}

func TestReadProbe_ShortRead(t *testing.T) {
	_, err := ReadProbe(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
}

func TestProbe_ReadHelpers(t *testing.T) {
	buf := buildProbe(t, GetLittleEndianEngine())
	p, err := ReadProbe(bytes.NewReader(buf))
	require.NoError(t, err)

	assert.Equal(t, int16(probeInt16), p.ReadI16(buf[2:4]))

	f32 := p.ReadF32(buf[4:8])
	assert.InDelta(t, probeFloat32, f32, floatTolerance)

	f64 := p.ReadF64(buf[8:16])
	assert.InDelta(t, probeFloat64, f64, floatTolerance)
}
