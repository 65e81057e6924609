package catalog

import (
	"bufio"

	"github.com/oceangliders/dbd/header"
	"github.com/oceangliders/dbd/internal/hash"
)

// Union accumulates sensor declarations across every file contributed to a
// multi-file read into one schema keyed by sensor name, while keeping each
// file's own catalog (in that file's own wire order) available for the
// merger's second pass.
type Union struct {
	Sensors []Sensor
	byName  map[string]int
	perFile map[uint64]*SensorCatalog
}

// NewUnion creates an empty catalog union.
func NewUnion() *Union {
	return &Union{
		byName:  make(map[string]int),
		perFile: make(map[uint64]*SensorCatalog),
	}
}

// Insert obtains one file's catalog — from the disk cache if the header
// says the sensor list is factored, otherwise, when consumeInlineSensors
// is true, by parsing (and so advancing r past) the inline sensor block;
// an unfactored file inserted with consumeInlineSensors false gets an
// empty catalog and r is not read — and merges its sensor names into the
// union schema. It returns the
// per-file catalog, also retained under the header's (mission, crc)
// identity for later retrieval via Find.
func (u *Union) Insert(r *bufio.Reader, hdr *header.Header, cacheDir string, consumeInlineSensors bool) (*SensorCatalog, error) {
	var cat *SensorCatalog
	var err error

	if hdr.IsFactored() {
		cat, err = Load(cacheDir, hdr)
		if err != nil {
			return nil, err
		}
	} else if consumeInlineSensors {
		cat, err = ParseInline(r, hdr.TotalNumSensors())
		if err != nil {
			return nil, err
		}
	} else {
		cat = newCatalog()
	}

	for _, s := range cat.Sensors {
		if err := u.merge(s); err != nil {
			return nil, err
		}
	}

	id := hash.FileIdentity(hdr.MissionName(), hdr.SensorListCRC())
	u.perFile[id] = cat

	return cat, nil
}

func (u *Union) merge(s Sensor) error {
	if idx, ok := u.byName[s.Name]; ok {
		return checkConflict(u.Sensors[idx], s)
	}

	u.byName[s.Name] = len(u.Sensors)
	u.Sensors = append(u.Sensors, newSensor(s.Name, s.Units, s.Size))

	return nil
}

// SkipInlineSensors re-reads and discards a freshly reopened unfactored
// file's inline sensor block, positioning r just past it without touching
// the union schema. Used by the merger's second pass, which already has
// the frozen per-file catalog from Find and only needs the stream advanced.
func (u *Union) SkipInlineSensors(r *bufio.Reader, hdr *header.Header) error {
	if hdr.IsFactored() {
		return nil
	}
	_, err := ParseInline(r, hdr.TotalNumSensors())

	return err
}

// Find returns the frozen per-file catalog matching a header's (mission,
// crc) identity, as recorded by an earlier Insert.
func (u *Union) Find(hdr *header.Header) (*SensorCatalog, bool) {
	id := hash.FileIdentity(hdr.MissionName(), hdr.SensorListCRC())
	cat, ok := u.perFile[id]

	return cat, ok
}

// SetupForData applies keep/criteria filters to the union schema and
// assigns output indices, mirroring SensorCatalog's per-file lifecycle.
// Call once, after every contributing file has been inserted.
func (u *Union) SetupForData(toKeep, criteria []string) {
	c := &SensorCatalog{Sensors: u.Sensors, byName: u.byName}
	c.ApplyKeep(toKeep)
	c.ApplyCriteria(criteria)
	c.AssignOutIndices()
	u.Sensors = c.Sensors
}

// AsCatalog exposes the union schema as a SensorCatalog for code that
// projects per-file columns onto it (same Keep/OutIndex semantics).
func (u *Union) AsCatalog() *SensorCatalog {
	return &SensorCatalog{Sensors: u.Sensors, byName: u.byName}
}
