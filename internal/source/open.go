// Package source opens a DBD file from disk, transparently decompressing
// it first when its suffix marks it as LZ4-compressed, so every caller
// upstream of the header parser sees a plain byte stream regardless of
// compression.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oceangliders/dbd/compress"
	"github.com/oceangliders/dbd/errs"
)

// Open reads the whole file at path, decompressing it if its suffix
// matches the `.?c?` compressed-file convention, and returns a buffered
// reader over the resulting plain bytes.
func Open(path string) (*bufio.Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrMissingFile, path, err)
	}

	kind := compress.KindNone
	if compress.IsCompressedSuffix(filepath.Ext(path)) {
		kind = compress.KindLZ4
	}

	codec, err := compress.GetCodec(kind)
	if err != nil {
		return nil, err
	}

	plain, err := codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrIO, path, err)
	}

	return bufio.NewReader(bytes.NewReader(plain)), nil
}
