// Package benchio reads the benchmark input formats: .fvecs/.ivecs vector
// files, whitespace-separated attribute files, and hyphen-delimited range
// files.
package benchio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/edsrzf/mmap-go"
)

// FloatMatrix holds vectors read from an .fvecs file in a flat row-major
// buffer, ready to hand to the index build.
type FloatMatrix struct {
	Data []float32
	N    int
	Dim  int
}

// Row returns the i-th vector as a subslice of the flat buffer.
func (m *FloatMatrix) Row(i int) []float32 {
	off := i * m.Dim
	return m.Data[off : off+m.Dim]
}

// ReadFVecs reads an .fvecs file: a sequence of records
// {dim int32 little-endian, dim * float32}. Every record must share the
// same dimension. The file is mapped read-only and the floats are copied
// out, so the result is independent of the mapping.
func ReadFVecs(path string) (*FloatMatrix, error) {
	buf, closeFn, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	if len(buf) < 4 {
		return nil, fmt.Errorf("benchio: %s: file too short for an .fvecs record", path)
	}

	dim := int(int32(binary.LittleEndian.Uint32(buf)))
	if dim <= 0 {
		return nil, fmt.Errorf("benchio: %s: invalid vector dimension %d", path, dim)
	}

	recordSize := 4 + 4*dim
	if len(buf)%recordSize != 0 {
		return nil, fmt.Errorf("benchio: %s: size %d is not a multiple of record size %d", path, len(buf), recordSize)
	}
	n := len(buf) / recordSize

	out := &FloatMatrix{
		Data: make([]float32, n*dim),
		N:    n,
		Dim:  dim,
	}

	for i := 0; i < n; i++ {
		rec := buf[i*recordSize:]
		if d := int(int32(binary.LittleEndian.Uint32(rec))); d != dim {
			return nil, fmt.Errorf("benchio: %s: record %d has dimension %d, expected %d", path, i, d, dim)
		}
		row := out.Data[i*dim : (i+1)*dim]
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(rec[4+4*j:]))
		}
	}

	return out, nil
}

// ReadIVecs reads an .ivecs file (same layout as .fvecs with an int32
// payload). Records may have differing lengths; ground-truth files store
// one neighbor list per query.
func ReadIVecs(path string) ([][]int32, error) {
	buf, closeFn, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var out [][]int32
	for off := 0; off < len(buf); {
		if off+4 > len(buf) {
			return nil, fmt.Errorf("benchio: %s: short read at offset %d", path, off)
		}
		d := int(int32(binary.LittleEndian.Uint32(buf[off:])))
		if d < 0 {
			return nil, fmt.Errorf("benchio: %s: negative record length at offset %d", path, off)
		}
		off += 4
		if off+4*d > len(buf) {
			return nil, fmt.Errorf("benchio: %s: short read at offset %d", path, off)
		}
		rec := make([]int32, d)
		for j := range rec {
			rec[j] = int32(binary.LittleEndian.Uint32(buf[off+4*j:]))
		}
		off += 4 * d
		out = append(out, rec)
	}

	return out, nil
}

// mapFile memory-maps path read-only. The returned close function unmaps
// and closes the file. Empty files return an empty buffer without mapping
// (mmap of length 0 fails on most platforms).
func mapFile(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("benchio: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("benchio: %w", err)
	}
	if info.Size() == 0 {
		return nil, func() { f.Close() }, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("benchio: mmap %s: %w", path, err)
	}

	return m, func() {
		m.Unmap()
		f.Close()
	}, nil
}
