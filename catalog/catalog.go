// Package catalog parses and manages DBD sensor catalogs: the per-file
// list of declared sensors (name, units, byte size) that the record
// decoder walks in lockstep with each row's presence bitmap, and the
// cross-file union schema a multi-file merge decodes into.
package catalog

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/oceangliders/dbd/cache"
	"github.com/oceangliders/dbd/errs"
	"github.com/oceangliders/dbd/header"
)

// SensorCatalog is the ordered list of sensors declared by one file (or
// loaded from the disk cache for a factored file), in on-wire order. Wire
// order is load-bearing: the record decoder's presence bitmap indexes
// sensors by this position, not by name.
type SensorCatalog struct {
	Sensors []Sensor
	byName  map[string]int
}

func newCatalog() *SensorCatalog {
	return &SensorCatalog{byName: make(map[string]int)}
}

func (c *SensorCatalog) add(s Sensor) error {
	if _, exists := c.byName[s.Name]; exists {
		return fmt.Errorf("%w: %q", errs.ErrDuplicateSensorName, s.Name)
	}
	c.byName[s.Name] = len(c.Sensors)
	c.Sensors = append(c.Sensors, s)

	return nil
}

// ByName looks up a sensor's wire-order index.
func (c *SensorCatalog) ByName(name string) (int, bool) {
	idx, ok := c.byName[name]
	return idx, ok
}

// Len returns the number of sensors in wire order (including any not
// kept for output).
func (c *SensorCatalog) Len() int { return len(c.Sensors) }

// ParseInline reads an unfactored file's inline sensor block: exactly
// `expected` lines of the form `s: <T|F> <file_index> <storage_index>
// <size> <name> [units]`, stopping early at the first line that isn't a
// sensor declaration.
func ParseInline(r *bufio.Reader, expected int) (*SensorCatalog, error) {
	cat := newCatalog()

	for i := 0; i < expected; i++ {
		line, err := r.ReadString('\n')
		if line == "" && err != nil {
			break
		}
		trimmed := strings.TrimSpace(line)

		s, ok := parseSensorLine(trimmed)
		if !ok {
			break
		}
		if addErr := cat.add(s); addErr != nil {
			return nil, addErr
		}

		if err != nil {
			break
		}
	}

	return cat, nil
}

func parseSensorLine(line string) (Sensor, bool) {
	fields := strings.Fields(line)
	if len(fields) < 6 || fields[0] != "s:" {
		return Sensor{}, false
	}

	size, err := strconv.Atoi(fields[4])
	if err != nil || (size != 1 && size != 2 && size != 4 && size != 8) {
		return Sensor{}, false
	}

	units := ""
	if len(fields) > 6 {
		units = fields[6]
	}

	return newSensor(fields[5], units, uint8(size)), true
}

// Load reconstructs a factored file's catalog from the disk cache keyed by
// the header's sensor_list_crc, returning errs.ErrNoCatalog if absent.
func Load(cacheDir string, hdr *header.Header) (*SensorCatalog, error) {
	entries, err := cache.Load(cacheDir, hdr.SensorListCRC())
	if err != nil {
		return nil, err
	}

	cat := newCatalog()
	for _, e := range entries {
		if err := cat.add(newSensor(e.Name, e.Units, e.Size)); err != nil {
			return nil, err
		}
	}

	return cat, nil
}

// Dump writes this catalog to the disk cache keyed by sensorListCRC.
func (c *SensorCatalog) Dump(cacheDir, sensorListCRC string) error {
	entries := make([]cache.Entry, len(c.Sensors))
	for i, s := range c.Sensors {
		entries[i] = cache.Entry{Name: s.Name, Units: s.Units, Size: s.Size}
	}

	return cache.Dump(cacheDir, sensorListCRC, entries)
}

// ApplyKeep marks which sensors are projected onto output columns. A nil
// slice keeps every sensor; otherwise only sensors named in toKeep are kept.
func (c *SensorCatalog) ApplyKeep(toKeep []string) {
	if toKeep == nil {
		for i := range c.Sensors {
			c.Sensors[i].Keep = true
		}

		return
	}

	keep := make(map[string]bool, len(toKeep))
	for _, n := range toKeep {
		keep[n] = true
	}
	for i := range c.Sensors {
		c.Sensors[i].Keep = keep[c.Sensors[i].Name]
	}
}

// ApplyCriteria marks which sensors gate row commits: only sensors named
// in criteria are. A nil slice marks no sensor as criteria, in which case
// the decoder commits every record.
func (c *SensorCatalog) ApplyCriteria(criteria []string) {
	if criteria == nil {
		for i := range c.Sensors {
			c.Sensors[i].Criteria = false
		}

		return
	}

	crit := make(map[string]bool, len(criteria))
	for _, n := range criteria {
		crit[n] = true
	}
	for i := range c.Sensors {
		c.Sensors[i].Criteria = crit[c.Sensors[i].Name]
	}
}

// AssignOutIndices assigns a dense 0-based OutIndex to every kept sensor,
// in wire order, and OutIndexNone to every other sensor. Call after
// ApplyKeep/ApplyCriteria and before decoding.
func (c *SensorCatalog) AssignOutIndices() {
	idx := 0
	for i := range c.Sensors {
		if c.Sensors[i].Keep {
			c.Sensors[i].OutIndex = idx
			idx++
		} else {
			c.Sensors[i].OutIndex = OutIndexNone
		}
	}
}

// NKept returns the number of sensors marked Keep.
func (c *SensorCatalog) NKept() int {
	n := 0
	for _, s := range c.Sensors {
		if s.Keep {
			n++
		}
	}

	return n
}

// NCriteria returns the number of sensors marked Criteria.
func (c *SensorCatalog) NCriteria() int {
	n := 0
	for _, s := range c.Sensors {
		if s.Criteria {
			n++
		}
	}

	return n
}

// OutIndexOf returns the output column index for the sensor at wire
// position inputIndex, or ok=false if that sensor is not kept.
func (c *SensorCatalog) OutIndexOf(inputIndex int) (int, bool) {
	if inputIndex < 0 || inputIndex >= len(c.Sensors) {
		return 0, false
	}
	s := c.Sensors[inputIndex]
	if !s.Keep {
		return 0, false
	}

	return s.OutIndex, true
}

// checkConflict validates that a candidate sensor declaration is
// compatible with an already-known sensor of the same name.
func checkConflict(existing, incoming Sensor) error {
	if existing.Size != incoming.Size || existing.Units != incoming.Units {
		return fmt.Errorf("%w: sensor %q: size/units mismatch (%d/%q vs %d/%q)",
			errs.ErrCatalogConflict, existing.Name, existing.Size, existing.Units, incoming.Size, incoming.Units)
	}

	return nil
}
