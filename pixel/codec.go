package pixel

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeTile serializes array and mask (mask may be nil) into a flat byte
// slice suitable for filecache.Cache.Write. This module does not implement
// a real raster file format (spec.md §1 Non-goals "Raster file I/O
// primitives"); cache tiles are this module's own content, not a user
// raster, so a small fixed-header binary encoding stands in for whatever
// format a real driver would persist through.
func EncodeTile(array *Array, mask *Mask) []byte {
	hasMask := byte(0)
	maskRows, maskCols := 0, 0
	if mask != nil {
		hasMask = 1
		maskRows, maskCols = mask.Rows, mask.Cols
	}

	buf := make([]byte, 0, 32+len(array.Data)*8+maskRows*maskCols)
	var hdr [32]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(array.Rows))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(array.Cols))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(array.Bands))
	hdr[12] = hasMask
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(maskRows))
	binary.LittleEndian.PutUint32(hdr[20:24], uint32(maskCols))
	buf = append(buf, hdr[:]...)

	var f [8]byte
	for _, v := range array.Data {
		binary.LittleEndian.PutUint64(f[:], math.Float64bits(v))
		buf = append(buf, f[:]...)
	}
	if mask != nil {
		for _, v := range mask.Data {
			if v {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	}
	return buf
}

// DecodeTile reverses EncodeTile.
func DecodeTile(data []byte) (*Array, *Mask, error) {
	if len(data) < 32 {
		return nil, nil, fmt.Errorf("pixel: tile data too short (%d bytes)", len(data))
	}
	rows := int(binary.LittleEndian.Uint32(data[0:4]))
	cols := int(binary.LittleEndian.Uint32(data[4:8]))
	bands := int(binary.LittleEndian.Uint32(data[8:12]))
	hasMask := data[12] != 0
	maskRows := int(binary.LittleEndian.Uint32(data[16:20]))
	maskCols := int(binary.LittleEndian.Uint32(data[20:24]))

	off := 32
	n := rows * cols * bands
	if len(data) < off+n*8 {
		return nil, nil, fmt.Errorf("pixel: tile data truncated: want %d array bytes, have %d", n*8, len(data)-off)
	}
	array := NewArray(rows, cols, bands)
	for i := 0; i < n; i++ {
		v := binary.LittleEndian.Uint64(data[off : off+8])
		array.Data[i] = math.Float64frombits(v)
		off += 8
	}

	var mask *Mask
	if hasMask {
		m := maskRows * maskCols
		if len(data) < off+m {
			return nil, nil, fmt.Errorf("pixel: tile data truncated: want %d mask bytes, have %d", m, len(data)-off)
		}
		mask = NewMask(maskRows, maskCols)
		for i := 0; i < m; i++ {
			mask.Data[i] = data[off+i] != 0
		}
		off += m
	}
	return array, mask, nil
}
