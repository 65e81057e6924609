// Package hash provides the identity hashing used to key the per-file
// sensor catalog registry inside a catalog union.
package hash

import "github.com/cespare/xxhash/v2"

// FileIdentity computes a stable 64-bit key for a file's (mission, crc)
// pair, used by catalog.Union to look up the frozen per-file catalog that
// matches a given header in the merger's second pass.
func FileIdentity(missionName, sensorListCRC string) uint64 {
	return xxhash.Sum64String(missionName + "\x00" + sensorListCRC)
}
