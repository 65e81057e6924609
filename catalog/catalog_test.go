package catalog

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceangliders/dbd/header"
)

const inlineBlock = "s: T 0 0 8 m_present_time timestamp\n" +
	"s: T 1 1 4 m_depth m\n" +
	"s: T 2 2 2 m_heading rad\n" +
	"s: T 3 3 1 m_fin X\n"

func TestParseInline(t *testing.T) {
	cat, err := ParseInline(bufio.NewReader(strings.NewReader(inlineBlock)), 4)
	require.NoError(t, err)
	require.Equal(t, 4, cat.Len())

	idx, ok := cat.ByName("m_depth")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, uint8(4), cat.Sensors[idx].Size)
	assert.Equal(t, "m", cat.Sensors[idx].Units)
}

func TestParseInline_StopsAtNonSensorLine(t *testing.T) {
	block := "s: T 0 0 8 m_present_time timestamp\nnot_a_sensor_line\n"
	cat, err := ParseInline(bufio.NewReader(strings.NewReader(block)), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
}

func TestApplyKeep_NilKeepsAll(t *testing.T) {
	cat, err := ParseInline(bufio.NewReader(strings.NewReader(inlineBlock)), 4)
	require.NoError(t, err)
	cat.ApplyKeep(nil)
	assert.Equal(t, 4, cat.NKept())
}

func TestApplyKeep_Subset(t *testing.T) {
	cat, err := ParseInline(bufio.NewReader(strings.NewReader(inlineBlock)), 4)
	require.NoError(t, err)
	cat.ApplyKeep([]string{"m_depth", "m_fin"})
	assert.Equal(t, 2, cat.NKept())

	idx, _ := cat.ByName("m_heading")
	assert.False(t, cat.Sensors[idx].Keep)
}

func TestApplyCriteria_Subset(t *testing.T) {
	cat, err := ParseInline(bufio.NewReader(strings.NewReader(inlineBlock)), 4)
	require.NoError(t, err)
	cat.ApplyCriteria([]string{"m_present_time"})
	assert.Equal(t, 1, cat.NCriteria())
}

func TestAssignOutIndices_DenseAndOrdered(t *testing.T) {
	cat, err := ParseInline(bufio.NewReader(strings.NewReader(inlineBlock)), 4)
	require.NoError(t, err)
	cat.ApplyKeep([]string{"m_present_time", "m_heading"})
	cat.AssignOutIndices()

	idx, ok := cat.OutIndexOf(0) // m_present_time
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = cat.OutIndexOf(1) // m_depth, not kept
	assert.False(t, ok)

	idx, ok = cat.OutIndexOf(2) // m_heading
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestLoadDump_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cat, err := ParseInline(bufio.NewReader(strings.NewReader(inlineBlock)), 4)
	require.NoError(t, err)

	require.NoError(t, cat.Dump(dir, "crc1"))

	hdr := &header.Header{Records: map[string]string{"sensor_list_crc": "crc1"}}
	loaded, err := Load(dir, hdr)
	require.NoError(t, err)
	assert.Equal(t, cat.Len(), loaded.Len())

	idx, ok := loaded.ByName("m_fin")
	require.True(t, ok)
	assert.Equal(t, uint8(1), loaded.Sensors[idx].Size)
}
