// Package merge drives the two-pass multi-file read: a header scan that
// builds one sensor-name union across every contributing file, followed by
// a decode-and-scatter pass that projects each file's own columns into the
// union's pre-sized output columns by sensor name.
package merge

import (
	"sort"

	"github.com/oceangliders/dbd/catalog"
	"github.com/oceangliders/dbd/decoder"
	"github.com/oceangliders/dbd/endian"
	"github.com/oceangliders/dbd/format"
	"github.com/oceangliders/dbd/header"
	"github.com/oceangliders/dbd/internal/source"
)

// Options controls the mission filter, sensor projection, and decode
// behavior a Merger applies across every file it reads.
type Options struct {
	CacheDir        string
	Keep            []string
	Criteria        []string
	SkipMissions    []string
	KeepMissions    []string
	SkipFirstRecord bool
	Repair          bool
	EstBytesPerFile int
}

// Result is the merged output of every contributing file, with columns in
// union sensor order.
type Result struct {
	Columns    []format.TypedColumn
	SensorInfo []format.SensorInfo
	NRecords   int
	NFiles     int
}

// Merger reads a set of DBD files into one merged Result via a catalog
// union shared across the whole set.
type Merger struct {
	opts        Options
	union       *catalog.Union
	lastScanned []string
}

// NewMerger creates a Merger with its own empty catalog union.
func NewMerger(opts Options) *Merger {
	return &Merger{opts: opts, union: catalog.NewUnion()}
}

// Merge sorts and de-duplicates paths, then runs the header-scan pass
// (building the union schema and the set of files that pass the mission
// filter and parse cleanly) followed by the decode-and-scatter pass.
func (m *Merger) Merge(paths []string) (Result, error) {
	unionCat, nValid := m.Scan(paths)

	valid := m.lastScanned
	results := m.decodeFiles(valid)

	return m.assemble(unionCat, results, nValid), nil
}

// Scan runs pass one only: header scan, mission filter, and catalog union
// build, without decoding any record data. It returns the union sensor
// catalog (with Keep/Criteria/OutIndex already assigned) and the number of
// files that contributed to it.
func (m *Merger) Scan(paths []string) (*catalog.SensorCatalog, int) {
	valid := m.scanHeaders(sortedUnique(paths))
	m.lastScanned = valid

	m.union.SetupForData(m.opts.Keep, m.opts.Criteria)

	return m.union.AsCatalog(), len(valid)
}

// scanHeaders is pass one: open every path, parse its header, apply the
// mission filter, and feed its sensor catalog into the union. A file that
// fails any step is dropped silently; it simply never contributes.
func (m *Merger) scanHeaders(paths []string) []string {
	valid := make([]string, 0, len(paths))

	for _, p := range paths {
		r, err := source.Open(p)
		if err != nil {
			continue
		}

		hdr, err := header.Parse(r)
		if err != nil || hdr.IsEmpty() {
			continue
		}
		if !hdr.ShouldProcessMission(m.opts.SkipMissions, m.opts.KeepMissions) {
			continue
		}
		if _, err := m.union.Insert(r, hdr, m.opts.CacheDir, !hdr.IsFactored()); err != nil {
			continue
		}

		valid = append(valid, p)
	}

	return valid
}

// decodeFiles is pass two: re-open every file that survived pass one,
// advance past its (already-known) inline sensor block, and decode its
// own columns using its frozen per-file catalog.
func (m *Merger) decodeFiles(paths []string) []format.ColumnDataResult {
	results := make([]format.ColumnDataResult, 0, len(paths))

	for _, p := range paths {
		r, err := source.Open(p)
		if err != nil {
			continue
		}

		hdr, err := header.Parse(r)
		if err != nil || hdr.IsEmpty() {
			continue
		}

		cat, ok := m.union.Find(hdr)
		if !ok {
			continue
		}

		if !hdr.IsFactored() {
			if err := m.union.SkipInlineSensors(r, hdr); err != nil {
				continue
			}
		}

		cat.ApplyKeep(m.opts.Keep)
		cat.ApplyCriteria(m.opts.Criteria)
		cat.AssignOutIndices()

		probe, err := endian.ReadProbe(r)
		if err != nil {
			continue
		}

		res, err := decoder.ReadColumns(r, probe, cat, m.opts.Repair, m.opts.EstBytesPerFile)
		if err != nil {
			continue
		}

		results = append(results, res)
	}

	return results
}

// assemble computes the skip_first_record offsets, allocates the union's
// output columns at the resulting total, and scatter-copies every file's
// columns into them by sensor name.
func (m *Merger) assemble(unionCat *catalog.SensorCatalog, results []format.ColumnDataResult, nFiles int) Result {
	starts, effs, total := recordOffsets(results, m.opts.SkipFirstRecord)

	nKept := unionCat.NKept()
	cols := make([]format.TypedColumn, nKept)
	info := make([]format.SensorInfo, nKept)

	nameToIdx := make(map[string]int, len(unionCat.Sensors))
	for _, s := range unionCat.Sensors {
		if !s.Keep {
			continue
		}
		kind, ok := format.KindForSize(s.Size)
		if !ok {
			continue
		}
		cols[s.OutIndex] = format.NewTypedColumn(kind, total)
		info[s.OutIndex] = format.SensorInfo{Name: s.Name, Units: s.Units, Size: s.Size}
		nameToIdx[s.Name] = s.OutIndex
	}

	offset := 0
	for i, res := range results {
		start, eff := starts[i], effs[i]
		for ci, si := range res.SensorInfo {
			idx, ok := nameToIdx[si.Name]
			if !ok {
				continue
			}
			scatterCopy(&cols[idx], res.Columns[ci], start, eff, offset)
		}
		offset += eff
	}

	return Result{Columns: cols, SensorInfo: info, NRecords: total, NFiles: nFiles}
}

// recordOffsets computes, for every file's decoded result, the row it
// starts scattering from and how many rows it contributes. When
// skipFirstRecord is set, every file after the first one to contribute at
// least one row drops its own first row (it duplicates the previous
// file's last sample, per the glider's segment-boundary convention).
func recordOffsets(results []format.ColumnDataResult, skipFirstRecord bool) (starts, effs []int, total int) {
	starts = make([]int, len(results))
	effs = make([]int, len(results))

	firstContributed := false
	for i, res := range results {
		start := 0
		if skipFirstRecord && firstContributed && res.NRecords > 0 {
			start = 1
		}

		eff := res.NRecords - start
		if eff < 0 {
			eff = 0
		}

		starts[i] = start
		effs[i] = eff
		total += eff

		if res.NRecords > 0 {
			firstContributed = true
		}
	}

	return starts, effs, total
}

func scatterCopy(dst *format.TypedColumn, src format.TypedColumn, srcStart, n, dstOffset int) {
	if n <= 0 {
		return
	}
	switch dst.Kind {
	case format.KindI8:
		copy(dst.I8[dstOffset:dstOffset+n], src.I8[srcStart:srcStart+n])
	case format.KindI16:
		copy(dst.I16[dstOffset:dstOffset+n], src.I16[srcStart:srcStart+n])
	case format.KindF32:
		copy(dst.F32[dstOffset:dstOffset+n], src.F32[srcStart:srcStart+n])
	case format.KindF64:
		copy(dst.F64[dstOffset:dstOffset+n], src.F64[srcStart:srcStart+n])
	}
}

func sortedUnique(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)

	return out
}
