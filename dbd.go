// Package dbd decodes Dinkum Binary Data files — Slocum underwater
// glider sensor logs — into column-oriented typed arrays. A single file
// is read with ReadSingle; a set of files sharing overlapping sensors is
// read with ReadMany, which unions their schemas by sensor name before
// decoding. ScanHeaders and ScanSensors answer cheaper, header/catalog-only
// questions without walking any record data.
package dbd

import (
	"bufio"
	"fmt"

	"github.com/oceangliders/dbd/catalog"
	"github.com/oceangliders/dbd/decoder"
	"github.com/oceangliders/dbd/endian"
	"github.com/oceangliders/dbd/errs"
	"github.com/oceangliders/dbd/format"
	"github.com/oceangliders/dbd/header"
	"github.com/oceangliders/dbd/internal/options"
	"github.com/oceangliders/dbd/internal/source"
	"github.com/oceangliders/dbd/merge"
)

// config is the private target every With* option configures.
type config struct {
	cacheDir        string
	keep            []string
	criteria        []string
	skipMissions    []string
	keepMissions    []string
	skipFirstRecord bool
	repair          bool
}

func defaultConfig() config {
	return config{skipFirstRecord: true}
}

// Option configures a read. Build one or more with the With* functions and
// pass them to ReadSingle, ReadMany, or ScanSensors.
type Option = options.Option[*config]

// WithCacheDir sets the directory the on-disk sensor-catalog cache is
// read from and written to for factored files.
func WithCacheDir(dir string) Option {
	return options.NoError(func(c *config) { c.cacheDir = dir })
}

// WithKeep restricts output columns to the named sensors. Omitted or nil
// keeps every declared sensor.
func WithKeep(names []string) Option {
	return options.NoError(func(c *config) { c.keep = names })
}

// WithCriteria restricts which sensors gate row commits. Omitted or nil
// marks no sensor as criteria, so every record is kept.
func WithCriteria(names []string) Option {
	return options.NoError(func(c *config) { c.criteria = names })
}

// WithSkipMissions excludes files whose mission_name header matches one of
// names (case-insensitive) from a ReadMany/ScanHeaders call.
func WithSkipMissions(names []string) Option {
	return options.NoError(func(c *config) { c.skipMissions = names })
}

// WithKeepMissions restricts a ReadMany/ScanHeaders call to files whose
// mission_name header matches one of names (case-insensitive).
func WithKeepMissions(names []string) Option {
	return options.NoError(func(c *config) { c.keepMissions = names })
}

// WithSkipFirstRecord controls whether every file after the first one to
// contribute a row in a ReadMany call drops its own first row, and whether
// ReadSingle drops the file's first row. Defaults to true.
func WithSkipFirstRecord(v bool) Option {
	return options.NoError(func(c *config) { c.skipFirstRecord = v })
}

// WithRepair enables resynchronization past unexpected tag bytes instead
// of ending the decode at the first one.
func WithRepair(v bool) Option {
	return options.NoError(func(c *config) { c.repair = v })
}

// Result is the decoded payload of a read.
type Result struct {
	Columns     []format.TypedColumn
	SensorNames []string
	SensorUnits []string
	SensorSizes []uint8
	NRecords    int

	// Header is set by ReadSingle to the source file's parsed header.
	Header *header.Header
	// NFiles is the number of files that contributed: set by ReadMany, and
	// 1 for ReadSingle.
	NFiles int
}

// ReadSingle decodes one DBD file into column-oriented arrays. With
// WithSkipFirstRecord(true), the default, the file's first decoded row is
// dropped.
func ReadSingle(path string, opts ...Option) (Result, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return Result{}, err
	}

	r, err := source.Open(path)
	if err != nil {
		return Result{}, err
	}

	hdr, err := header.Parse(r)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", errs.ErrIO, path, err)
	}
	if hdr.IsEmpty() {
		return Result{}, fmt.Errorf("%w: %s", errs.ErrEmptyHeader, path)
	}

	cat, err := loadCatalog(r, hdr, cfg.cacheDir)
	if err != nil {
		return Result{}, err
	}
	cat.ApplyKeep(cfg.keep)
	cat.ApplyCriteria(cfg.criteria)
	cat.AssignOutIndices()

	probe, err := endian.ReadProbe(r)
	if err != nil {
		return Result{}, err
	}

	colData, err := decoder.ReadColumns(r, probe, cat, cfg.repair, 0)
	if err != nil {
		return Result{}, err
	}

	if cfg.skipFirstRecord && colData.NRecords > 0 {
		for i := range colData.Columns {
			switch c := &colData.Columns[i]; c.Kind {
			case format.KindI8:
				c.I8 = c.I8[1:]
			case format.KindI16:
				c.I16 = c.I16[1:]
			case format.KindF32:
				c.F32 = c.F32[1:]
			case format.KindF64:
				c.F64 = c.F64[1:]
			}
		}
		colData.NRecords--
	}

	result := toResult(colData)
	result.Header = hdr
	result.NFiles = 1

	return result, nil
}

// ReadMany decodes a set of DBD files into one merged result: their sensor
// catalogs are unioned by name, and each file's columns are scattered by
// name into the union's output columns.
func ReadMany(paths []string, opts ...Option) (Result, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return Result{}, err
	}

	m := merge.NewMerger(merge.Options{
		CacheDir:        cfg.cacheDir,
		Keep:            cfg.keep,
		Criteria:        cfg.criteria,
		SkipMissions:    cfg.skipMissions,
		KeepMissions:    cfg.keepMissions,
		SkipFirstRecord: cfg.skipFirstRecord,
		Repair:          cfg.repair,
	})

	merged, err := m.Merge(paths)
	if err != nil {
		return Result{}, err
	}

	names := make([]string, len(merged.SensorInfo))
	units := make([]string, len(merged.SensorInfo))
	sizes := make([]uint8, len(merged.SensorInfo))
	for i, si := range merged.SensorInfo {
		names[i] = si.Name
		units[i] = si.Units
		sizes[i] = si.Size
	}

	return Result{
		Columns:     merged.Columns,
		SensorNames: names,
		SensorUnits: units,
		SensorSizes: sizes,
		NRecords:    merged.NRecords,
		NFiles:      merged.NFiles,
	}, nil
}

// ScanSensors runs pass one of a multi-file read only — header scan,
// mission filter, catalog union build — without decoding any record data,
// and returns the union's kept sensors.
func ScanSensors(paths []string, opts ...Option) ([]format.SensorInfo, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	m := merge.NewMerger(merge.Options{
		CacheDir:     cfg.cacheDir,
		Keep:         cfg.keep,
		Criteria:     cfg.criteria,
		SkipMissions: cfg.skipMissions,
		KeepMissions: cfg.keepMissions,
	})

	cat, _ := m.Scan(paths)

	infos := make([]format.SensorInfo, 0, cat.Len())
	for _, s := range cat.Sensors {
		if !s.Keep {
			continue
		}
		infos = append(infos, format.SensorInfo{Name: s.Name, Units: s.Units, Size: s.Size})
	}

	return infos, nil
}

// HeaderInfo is one file's identity as seen by ScanHeaders: enough to tell
// which file a scanned header came from and which mission/sensor-list
// generation it belongs to, without parsing any further bytes.
type HeaderInfo struct {
	Filename      string
	MissionName   string
	SensorListCRC string
}

// ScanHeaders parses just the text header of every path, applying the
// same mission filter as ReadMany/ScanSensors, and skipping any file that
// fails to open, parses to an empty header, or is filtered out.
func ScanHeaders(paths []string, opts ...Option) ([]HeaderInfo, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	infos := make([]HeaderInfo, 0, len(paths))

	for _, p := range paths {
		r, err := source.Open(p)
		if err != nil {
			continue
		}

		hdr, err := header.Parse(r)
		if err != nil || hdr.IsEmpty() {
			continue
		}
		if !hdr.ShouldProcessMission(cfg.skipMissions, cfg.keepMissions) {
			continue
		}

		infos = append(infos, HeaderInfo{
			Filename:      p,
			MissionName:   hdr.MissionName(),
			SensorListCRC: hdr.SensorListCRC(),
		})
	}

	return infos, nil
}

func loadCatalog(r *bufio.Reader, hdr *header.Header, cacheDir string) (*catalog.SensorCatalog, error) {
	if hdr.IsFactored() {
		return catalog.Load(cacheDir, hdr)
	}

	return catalog.ParseInline(r, hdr.TotalNumSensors())
}

func toResult(cd format.ColumnDataResult) Result {
	names := make([]string, len(cd.SensorInfo))
	units := make([]string, len(cd.SensorInfo))
	sizes := make([]uint8, len(cd.SensorInfo))
	for i, si := range cd.SensorInfo {
		names[i] = si.Name
		units[i] = si.Units
		sizes[i] = si.Size
	}

	return Result{
		Columns:     cd.Columns,
		SensorNames: names,
		SensorUnits: units,
		SensorSizes: sizes,
		NRecords:    cd.NRecords,
	}
}
