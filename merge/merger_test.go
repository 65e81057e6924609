package merge

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// presenceByte packs up to 4 two-bit codes into one byte, high to low.
func presenceByte(codes ...byte) byte {
	var b byte
	for i, c := range codes {
		b |= c << uint(6-2*i)
	}

	return b
}

func littleProbeBytes() []byte {
	buf := make([]byte, 16)
	buf[0] = 's'
	buf[1] = 'a'
	binary.LittleEndian.PutUint16(buf[2:4], 0x1234)
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(123.456))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(123456789.12345))

	return buf
}

func dbdHeader(mission, crc string, factored bool, totalSensors, numLabelLines int) string {
	f := "0"
	if factored {
		f = "1"
	}

	return "mission_name: " + mission + "\n" +
		"sensor_list_crc: " + crc + "\n" +
		"factored: " + f + "\n" +
		"total_num_sensors: " + itoa(totalSensors) + "\n" +
		"num_label_lines: " + itoa(numLabelLines) + "\n"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}

	return string(digits)
}

func writeFileA(t *testing.T, dir string) string {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(dbdHeader("ar-1", "crcA", false, 2, 5))
	buf.WriteString("s: T 0 0 8 m_present_time timestamp\n")
	buf.WriteString("s: T 1 1 4 m_depth m\n")
	buf.Write(littleProbeBytes())

	buf.WriteByte('d')
	buf.WriteByte(presenceByte(2, 2))
	binary.Write(&buf, binary.LittleEndian, float64(100.0))
	binary.Write(&buf, binary.LittleEndian, float32(1.0))

	buf.WriteByte('d')
	buf.WriteByte(presenceByte(2, 2))
	binary.Write(&buf, binary.LittleEndian, float64(200.0))
	binary.Write(&buf, binary.LittleEndian, float32(2.0))
	buf.WriteByte('X')

	path := filepath.Join(dir, "ar-1-a.dbd")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	return path
}

func writeFileB(t *testing.T, dir string) string {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(dbdHeader("ar-1", "crcB", false, 2, 5))
	buf.WriteString("s: T 0 0 8 m_present_time timestamp\n")
	buf.WriteString("s: T 1 1 2 m_heading rad\n")
	buf.Write(littleProbeBytes())

	buf.WriteByte('d')
	buf.WriteByte(presenceByte(2, 2))
	binary.Write(&buf, binary.LittleEndian, float64(300.0))
	binary.Write(&buf, binary.LittleEndian, int16(7))

	buf.WriteByte('d')
	buf.WriteByte(presenceByte(2, 2))
	binary.Write(&buf, binary.LittleEndian, float64(400.0))
	binary.Write(&buf, binary.LittleEndian, int16(8))
	buf.WriteByte('X')

	path := filepath.Join(dir, "ar-1-b.dbd")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	return path
}

// TestMerger_S6_DisjointSensorsUnionWithSkipFirstRecord covers scenario S6:
// two files with a shared sensor and disjoint sensors each, merged into one
// union schema, with the second file's first row dropped per
// skip_first_record.
func TestMerger_S6_DisjointSensorsUnionWithSkipFirstRecord(t *testing.T) {
	dir := t.TempDir()
	pathA := writeFileA(t, dir)
	pathB := writeFileB(t, dir)

	m := NewMerger(Options{SkipFirstRecord: true})
	result, err := m.Merge([]string{pathB, pathA}) // unsorted on purpose
	require.NoError(t, err)

	assert.Equal(t, 2, result.NFiles)
	assert.Equal(t, 3, result.NRecords) // fileA's 2 + fileB's 2-1

	names := make(map[string]int, len(result.SensorInfo))
	for i, si := range result.SensorInfo {
		names[si.Name] = i
	}

	tIdx := names["m_present_time"]
	depthIdx := names["m_depth"]
	headingIdx := names["m_heading"]

	assert.Equal(t, []float64{100.0, 200.0, 400.0}, result.Columns[tIdx].F64)
	require.Len(t, result.Columns[depthIdx].F32, 3)
	assert.Equal(t, float32(1.0), result.Columns[depthIdx].F32[0])
	assert.Equal(t, float32(2.0), result.Columns[depthIdx].F32[1])
	assert.True(t, math.IsNaN(float64(result.Columns[depthIdx].F32[2])))

	require.Len(t, result.Columns[headingIdx].I16, 3)
	assert.Equal(t, int16(math.MinInt16), result.Columns[headingIdx].I16[0])
	assert.Equal(t, int16(math.MinInt16), result.Columns[headingIdx].I16[1])
	assert.Equal(t, int16(8), result.Columns[headingIdx].I16[2])
}

func TestMerger_NoSkipFirstRecord_KeepsEveryRow(t *testing.T) {
	dir := t.TempDir()
	pathA := writeFileA(t, dir)
	pathB := writeFileB(t, dir)

	m := NewMerger(Options{SkipFirstRecord: false})
	result, err := m.Merge([]string{pathA, pathB})
	require.NoError(t, err)

	assert.Equal(t, 4, result.NRecords)
}

func TestMerger_KeepFilter_DropsUnlistedSensor(t *testing.T) {
	dir := t.TempDir()
	pathA := writeFileA(t, dir)

	m := NewMerger(Options{Keep: []string{"m_present_time"}})
	result, err := m.Merge([]string{pathA})
	require.NoError(t, err)

	require.Len(t, result.SensorInfo, 1)
	assert.Equal(t, "m_present_time", result.SensorInfo[0].Name)
}

func TestMerger_MissionFilter_SkipsNonMatchingFile(t *testing.T) {
	dir := t.TempDir()
	pathA := writeFileA(t, dir)

	m := NewMerger(Options{SkipMissions: []string{"ar-1"}})
	result, err := m.Merge([]string{pathA})
	require.NoError(t, err)

	assert.Equal(t, 0, result.NFiles)
	assert.Equal(t, 0, result.NRecords)
}

func TestMerger_DeduplicatesPaths(t *testing.T) {
	dir := t.TempDir()
	pathA := writeFileA(t, dir)

	m := NewMerger(Options{})
	result, err := m.Merge([]string{pathA, pathA})
	require.NoError(t, err)

	assert.Equal(t, 1, result.NFiles)
}
