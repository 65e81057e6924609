// Package errs defines the sentinel errors returned by this module's
// packages. Callers should compare against these with errors.Is; wrapped
// context is added at the call site with fmt.Errorf("%w: ...").
package errs

import "errors"

var (
	// ErrIO wraps an underlying stream failure below the decoder.
	ErrIO = errors.New("dbd: io error")

	// ErrEmptyHeader indicates a header that is absent or unrecognized.
	ErrEmptyHeader = errors.New("dbd: empty or unrecognized header")

	// ErrNoCatalog indicates a factored file whose sensor_list_crc is not in the cache.
	ErrNoCatalog = errors.New("dbd: no cached sensor catalog for this crc")

	// ErrCatalogConflict indicates the catalog union rejected a name/size/units mismatch.
	ErrCatalogConflict = errors.New("dbd: sensor catalog conflict")

	// ErrCorruptEndianProbe indicates the known-bytes block did not match any byte order.
	ErrCorruptEndianProbe = errors.New("dbd: corrupt endian probe")

	// ErrBadSensorSize indicates a declared sensor size outside {1,2,4,8}.
	ErrBadSensorSize = errors.New("dbd: unsupported sensor size")

	// ErrMissingFile indicates a path that could not be opened.
	ErrMissingFile = errors.New("dbd: missing file")

	// ErrDuplicateSensorName indicates two sensors in the same catalog share a name.
	ErrDuplicateSensorName = errors.New("dbd: duplicate sensor name in catalog")
)
