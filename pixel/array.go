// Package pixel holds the plain data buffers the remap kernel, the sampler
// and the cache operate on: a multi-band float64 array and a boolean mask.
// A single float64 representation is used regardless of the raster's
// advertised dtype; narrowing/widening to the dtype a driver actually reads
// or writes happens at the driver boundary (out of scope, spec.md §1), not
// here.
package pixel

import "fmt"

// Array is a row-major, band-last pixel buffer: Data[(row*Cols+col)*Bands+band].
type Array struct {
	Rows, Cols, Bands int
	Data              []float64
}

// NewArray allocates a zeroed Array of the given shape.
func NewArray(rows, cols, bands int) *Array {
	return &Array{Rows: rows, Cols: cols, Bands: bands, Data: make([]float64, rows*cols*bands)}
}

// Fill sets every element of a to v.
func (a *Array) Fill(v float64) {
	for i := range a.Data {
		a.Data[i] = v
	}
}

// FillBand sets every element of band to v.
func (a *Array) FillBand(band int, v float64) {
	for row := 0; row < a.Rows; row++ {
		for col := 0; col < a.Cols; col++ {
			a.Data[a.index(row, col, band)] = v
		}
	}
}

func (a *Array) index(row, col, band int) int {
	return (row*a.Cols+col)*a.Bands + band
}

// At returns the value at (row, col, band).
func (a *Array) At(row, col, band int) float64 {
	return a.Data[a.index(row, col, band)]
}

// Set stores v at (row, col, band).
func (a *Array) Set(row, col, band int, v float64) {
	a.Data[a.index(row, col, band)] = v
}

// Band returns a single band as a (Rows, Cols) slice; callers index it with
// row*Cols+col. For a one-band array it is Data itself (a view); otherwise
// it is a copy.
func (a *Array) Band(band int) []float64 {
	if a.Bands == 1 {
		return a.Data
	}
	out := make([]float64, a.Rows*a.Cols)
	for row := 0; row < a.Rows; row++ {
		for col := 0; col < a.Cols; col++ {
			out[row*a.Cols+col] = a.At(row, col, band)
		}
	}
	return out
}

func (a *Array) String() string {
	return fmt.Sprintf("Array(rows=%d cols=%d bands=%d)", a.Rows, a.Cols, a.Bands)
}

// Mask is a row-major (Rows, Cols) boolean buffer. The convention is
// true == valid data, matching a raster's combined nodata/alpha mask after
// normalization (spec.md §6 channels schema `mask`).
type Mask struct {
	Rows, Cols int
	Data       []bool
}

// NewMask allocates a Mask with every pixel valid.
func NewMask(rows, cols int) *Mask {
	m := &Mask{Rows: rows, Cols: cols, Data: make([]bool, rows*cols)}
	for i := range m.Data {
		m.Data[i] = true
	}
	return m
}

func (m *Mask) index(row, col int) int { return row*m.Cols + col }

func (m *Mask) At(row, col int) bool { return m.Data[m.index(row, col)] }

func (m *Mask) Set(row, col int, v bool) { m.Data[m.index(row, col)] = v }

func (m *Mask) Fill(v bool) {
	for i := range m.Data {
		m.Data[i] = v
	}
}
