// Package header parses the textual key/value block that opens every DBD
// file and answers the mission-filter question used to decide whether a
// file participates in a read.
package header

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// defaultNumLabelLines is the header line count assumed before
// num_label_lines itself has been seen.
const defaultNumLabelLines = 10

// maxHeaderLines bounds the scan so a file with no sentinel never spins.
const maxHeaderLines = 1000

// Header holds the parsed key/value records from a DBD file's text header.
type Header struct {
	Records map[string]string
}

// Parse reads `key: value` lines from r until a line without a colon is
// seen (that line is consumed as the sentinel) or num_label_lines records
// have been collected, whichever comes first. Inline sensor lines start
// with `s:` and so contain a colon; for an unfactored file it is
// num_label_lines that ends the scan before them. It stops silently on
// the first undecodable line, treating it as the sentinel, since headers
// are never binary.
func Parse(r *bufio.Reader) (*Header, error) {
	h := &Header{Records: make(map[string]string)}

	numLines := defaultNumLabelLines
	for i := 0; i < maxHeaderLines; i++ {
		line, err := r.ReadString('\n')
		if line == "" && err != nil {
			if err == io.EOF {
				break
			}

			return nil, err
		}

		trimmed := strings.TrimSpace(line)
		key, value, ok := splitHeaderLine(trimmed)
		if !ok {
			break
		}

		h.Records[key] = value

		if key == "num_label_lines" {
			if n, convErr := strconv.Atoi(value); convErr == nil {
				numLines = n
			}
		}

		if len(h.Records) >= numLines {
			break
		}

		if err == io.EOF {
			break
		}
	}

	return h, nil
}

func splitHeaderLine(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}

	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

// Get returns a header value, or def if the key is absent.
func (h *Header) Get(key, def string) string {
	if v, ok := h.Records[key]; ok {
		return v
	}

	return def
}

// GetInt returns a header value parsed as an integer, or def if absent or
// unparsable.
func (h *Header) GetInt(key string, def int) int {
	v, ok := h.Records[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

// MissionName returns the mission_name header value.
func (h *Header) MissionName() string { return h.Get("mission_name", "") }

// SensorListCRC returns the sensor_list_crc header value.
func (h *Header) SensorListCRC() string { return h.Get("sensor_list_crc", "") }

// TotalNumSensors returns total_num_sensors, or 0 if absent.
func (h *Header) TotalNumSensors() int { return h.GetInt("total_num_sensors", 0) }

// IsFactored reports whether the header's factored flag is non-zero: a
// factored file has no inline sensor block and relies on the disk cache.
func (h *Header) IsFactored() bool { return h.GetInt("factored", 0) != 0 }

// IsEmpty reports whether no records were parsed at all.
func (h *Header) IsEmpty() bool { return len(h.Records) == 0 }

// ShouldProcessMission reports whether this header's mission_name passes
// the skip/keep mission-name filters. Matching is case-insensitive.
// Semantics: processed iff mission is not in skipMissions AND (keepMissions
// is empty OR mission is in keepMissions).
func (h *Header) ShouldProcessMission(skipMissions, keepMissions []string) bool {
	if len(skipMissions) == 0 && len(keepMissions) == 0 {
		return true
	}

	mission := strings.ToLower(h.MissionName())

	for _, m := range skipMissions {
		if strings.ToLower(m) == mission {
			return false
		}
	}

	if len(keepMissions) == 0 {
		return true
	}

	for _, m := range keepMissions {
		if strings.ToLower(m) == mission {
			return true
		}
	}

	return false
}
