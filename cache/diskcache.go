// Package cache persists a sensor catalog to a flat file per
// sensor_list_crc, so a factored file's sensor list only needs to be
// shipped once across a whole mission rather than repeated in every file.
package cache

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/oceangliders/dbd/errs"
)

// Entry is one sensor's cacheable metadata: just enough to reconstruct a
// catalog.Sensor without this package depending on the catalog package.
type Entry struct {
	Name  string
	Units string
	Size  uint8
}

// fileName builds the cache path for a given sensor_list_crc, lowercased
// as the original tooling does so case differences in the header never
// fragment the cache.
func fileName(cacheDir, sensorListCRC string) string {
	return filepath.Join(cacheDir, strings.ToLower(sensorListCRC)+".cac.zst")
}

// Load reads the cached catalog for sensorListCRC, returning
// errs.ErrNoCatalog if no cache file exists for it.
func Load(cacheDir, sensorListCRC string) ([]Entry, error) {
	path := fileName(cacheDir, sensorListCRC)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errs.ErrNoCatalog, sensorListCRC)
		}

		return nil, fmt.Errorf("%w: opening cache %s: %w", errs.ErrIO, path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrIO, err)
	}
	defer dec.Close()

	var entries []Entry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		e, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading cache %s: %w", errs.ErrIO, path, err)
	}

	return entries, nil
}

// Dump writes entries to the cache file for sensorListCRC, via a temp
// file plus os.Rename so concurrent readers never observe a partial file.
func Dump(cacheDir, sensorListCRC string, entries []Entry) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating cache dir %s: %w", errs.ErrIO, cacheDir, err)
	}

	tmp, err := os.CreateTemp(cacheDir, "dbdcache-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrIO, err)
	}
	tmpPath := tmp.Name()
	removeTmp := true
	defer func() {
		if removeTmp {
			os.Remove(tmpPath)
		}
	}()

	enc, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", errs.ErrIO, err)
	}

	w := bufio.NewWriter(enc)
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", e.Name, e.Units, e.Size); err != nil {
			enc.Close()
			tmp.Close()
			return fmt.Errorf("%w: %w", errs.ErrIO, err)
		}
	}
	if err := w.Flush(); err != nil {
		enc.Close()
		tmp.Close()
		return fmt.Errorf("%w: %w", errs.ErrIO, err)
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", errs.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrIO, err)
	}

	dest := fileName(cacheDir, sensorListCRC)
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("%w: renaming cache into place: %w", errs.ErrIO, err)
	}
	removeTmp = false

	return nil
}

func parseLine(line string) (Entry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 3 {
		return Entry{}, fmt.Errorf("%w: malformed cache line %q", errs.ErrIO, line)
	}
	size, err := strconv.Atoi(fields[2])
	if err != nil || size < 0 || size > 255 {
		return Entry{}, fmt.Errorf("%w: malformed cache size in %q", errs.ErrIO, line)
	}

	return Entry{Name: fields[0], Units: fields[1], Size: uint8(size)}, nil
}
