package catalog

// OutIndexNone marks a sensor that is not projected onto any output column.
const OutIndexNone = -1

// Sensor is one declared field of a DBD sensor catalog: its name, unit
// string, and on-disk byte width, plus the keep/criteria/output-index
// state assigned once the catalog is filtered for a read.
type Sensor struct {
	Name     string
	Units    string
	Size     uint8
	Keep     bool
	Criteria bool
	OutIndex int
}

// newSensor builds a Sensor with the default keep-everything,
// criteria-everything state a freshly parsed or loaded catalog starts in.
func newSensor(name, units string, size uint8) Sensor {
	return Sensor{
		Name:     name,
		Units:    units,
		Size:     size,
		Keep:     true,
		Criteria: true,
		OutIndex: OutIndexNone,
	}
}
