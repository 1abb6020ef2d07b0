// srtools-go: sim racing data conversion tools
// Copyright (C) 2018  Yishen Miao
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package curve decodes the engine curve blobs stored in Automation's sandbox
// database.
//
// A blob holds one curve, for example torque or boost, as a sequence of
// doubles. It carries no axis; samples pair by position with the RPM curve
// stored beside it.
package curve

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// HeaderSize is the fixed prefix skipped before the point count.
	HeaderSize = 2
	// CountSize is the size of the point count field. Only its first word is
	// used.
	CountSize = 8
	// RecordSize is the size of one sample: a marker byte, nine reserved
	// bytes and the little endian double.
	RecordSize = 18

	valueOffset = 10
)

var (
	// ErrTruncatedBlob is returned when the point count needs more bytes than
	// the blob holds.
	ErrTruncatedBlob = errors.New("curve: blob is shorter than its point count")
	// ErrLengthMismatch is returned by Pair for curves of different lengths.
	ErrLengthMismatch = errors.New("curve: axis and values differ in length")
)

// BlobError records where a blob ran short.
type BlobError struct {
	Offset int
	Need   int
	Have   int
}

func (e *BlobError) Error() string {
	return fmt.Sprintf("%s: need %d bytes at offset %d, have %d",
		ErrTruncatedBlob, e.Need, e.Offset, e.Have)
}

func (e *BlobError) Unwrap() error {
	return ErrTruncatedBlob
}

// Decode returns the samples held in blob, in stored order.
func Decode(blob []byte) ([]float64, error) {
	if len(blob) < HeaderSize+CountSize {
		return nil, &BlobError{Offset: 0, Need: HeaderSize + CountSize, Have: len(blob)}
	}

	n := binary.LittleEndian.Uint32(blob[HeaderSize:])
	pos := HeaderSize + CountSize

	if need := uint64(n) * RecordSize; uint64(len(blob)-pos) < need {
		return nil, &BlobError{
			Offset: pos + (len(blob)-pos)/RecordSize*RecordSize,
			Need:   RecordSize,
			Have:   (len(blob) - pos) % RecordSize,
		}
	}

	out := make([]float64, n)
	for i := range out {
		bits := binary.LittleEndian.Uint64(blob[pos+valueOffset:])
		out[i] = math.Float64frombits(bits)
		pos += RecordSize
	}

	return out, nil
}

// Point is one sample paired with its axis value.
type Point struct {
	X float64
	Y float64
}

// Pair zips an axis curve, usually RPM, with a curve of the same length.
func Pair(axis, values []float64) ([]Point, error) {
	if len(axis) != len(values) {
		return nil, fmt.Errorf("%w: %d and %d", ErrLengthMismatch, len(axis), len(values))
	}

	out := make([]Point, len(axis))
	for i := range axis {
		out[i] = Point{X: axis[i], Y: values[i]}
	}

	return out, nil
}
