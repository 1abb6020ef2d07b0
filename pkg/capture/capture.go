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

// Package capture stores captured game files, such as .car and .jbeam
// exports, in a compressed and checksummed frame.
//
// A capture file holds:
//
//	magic    int32  0x63747273
//	version  int32
//	codec    int32
//	checksum uint64 xxHash64 of the raw payload
//	sizeCom  int32  stored payload size
//	sizeRaw  int32  raw payload size
//	payload
//
// All fields are little endian.
package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
)

const (
	// Magic is the magic number for capture files.
	Magic int32 = 0x63747273
	// Ver is the version number for capture files.
	Ver int32 = 0x00000001

	maxSize = 1 << 30
)

var (
	// ErrMagic is returned when a file does not start with Magic.
	ErrMagic = errors.New("capture: incorrect magic number")
	// ErrVersion is returned for a version other than Ver.
	ErrVersion = errors.New("capture: incorrect version number")
	// ErrCodec is returned for an unknown codec.
	ErrCodec = errors.New("capture: unknown codec")
	// ErrChecksum is returned when a decoded payload does not match its
	// checksum.
	ErrChecksum = errors.New("capture: checksum mismatch")
	// ErrSize is returned for negative or oversized payload sizes.
	ErrSize = errors.New("capture: invalid payload size")
	// ErrEncoded is returned when encoding a frame that is already encoded.
	ErrEncoded = errors.New("capture: frame is already encoded")
	// ErrNotEncoded is returned when decoding a frame that is not encoded.
	ErrNotEncoded = errors.New("capture: frame is not encoded")
)

// Codec selects how a frame payload is compressed.
type Codec int32

const (
	// CodecNone stores the payload as is.
	CodecNone Codec = iota
	// CodecLZ4 compresses the payload as one LZ4 block.
	CodecLZ4
	// CodecZstd compresses the payload with Zstandard.
	CodecZstd
	// CodecS2 compresses the payload with S2.
	CodecS2
)

var codecNames = map[Codec]string{
	CodecNone: "none",
	CodecLZ4:  "lz4",
	CodecZstd: "zstd",
	CodecS2:   "s2",
}

func (c Codec) String() string {
	if s, ok := codecNames[c]; ok {
		return s
	}

	return fmt.Sprintf("codec(%d)", int32(c))
}

// ParseCodec returns the codec called s.
func ParseCodec(s string) (Codec, error) {
	for c, name := range codecNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrCodec, s)
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(fmt.Sprintf("capture: unable to create zstd encoder: %v", err))
		}

		return enc
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("capture: unable to create zstd decoder: %v", err))
		}

		return dec
	},
}

// Frame holds a payload by embedding bytes.Buffer.
type Frame struct {
	Codec     Codec
	Sum       uint64
	SizeRaw   int32
	SizeCom   int32
	isEncoded bool
	bytes.Buffer
}

// Encode compresses the frame content in place with f.Codec. Encode returns an
// error when the frame is already encoded. Content LZ4 cannot shrink is stored
// as is and the codec becomes CodecNone.
func (f *Frame) Encode() error {
	if f.isEncoded {
		return ErrEncoded
	}

	if f.Len() > maxSize {
		return fmt.Errorf("%w: %d bytes", ErrSize, f.Len())
	}

	raw := f.Bytes()
	f.SizeRaw = int32(len(raw))
	f.Sum = xxhash.Sum64(raw)

	var b []byte

	switch f.Codec {
	case CodecNone:
		b = append([]byte(nil), raw...)
	case CodecLZ4:
		dst := make([]byte, len(raw))

		n, err := lz4.CompressBlock(raw, dst, make([]int, 1<<16))
		if err != nil {
			return err
		}

		// lz4.CompressBlock returns 0 if the data is not compressible.
		if n == 0 {
			f.Codec = CodecNone
			b = append([]byte(nil), raw...)
		} else {
			b = dst[:n]
		}
	case CodecZstd:
		enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(enc)

		b = enc.EncodeAll(raw, nil)
	case CodecS2:
		b = s2.Encode(nil, raw)
	default:
		return fmt.Errorf("%w: %s", ErrCodec, f.Codec)
	}

	f.SizeCom = int32(len(b))
	f.Reset()

	_, err := f.Write(b)

	f.isEncoded = true

	return err
}

// Decode decompresses the frame content in place and verifies its checksum.
// Decode returns an error when the frame is not encoded.
func (f *Frame) Decode() error {
	if !f.isEncoded {
		return ErrNotEncoded
	}

	if f.SizeRaw < 0 || f.SizeRaw > maxSize {
		return fmt.Errorf("%w: %d bytes", ErrSize, f.SizeRaw)
	}

	var (
		b   []byte
		err error
	)

	switch f.Codec {
	case CodecNone:
		b = append([]byte(nil), f.Bytes()...)
	case CodecLZ4:
		b = make([]byte, f.SizeRaw)

		var n int

		if n, err = lz4.UncompressBlock(f.Bytes(), b); err == nil {
			b = b[:n]
		}
	case CodecZstd:
		dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
		defer zstdDecoderPool.Put(dec)

		b, err = dec.DecodeAll(f.Bytes(), make([]byte, 0, f.SizeRaw))
	case CodecS2:
		b, err = s2.Decode(nil, f.Bytes())
	default:
		return fmt.Errorf("%w: %s", ErrCodec, f.Codec)
	}

	if err != nil {
		return fmt.Errorf("capture: unable to decode %s payload: %w", f.Codec, err)
	}

	if int32(len(b)) != f.SizeRaw {
		return fmt.Errorf(
			"capture: expecting %d bytes, decoded %d",
			f.SizeRaw, len(b),
		)
	}

	if xxhash.Sum64(b) != f.Sum {
		return ErrChecksum
	}

	f.Reset()

	_, err = f.Write(b)

	f.isEncoded = false

	return err
}

// ReadInt32 reads an int32 from a file.
func ReadInt32(r io.Reader) (int32, error) {
	var v int32

	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, err
	}

	return v, nil
}

// WriteInt32 writes an int32 to a file.
func WriteInt32(w io.Writer, v int32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// CheckHeader checks the magic number and version number of a capture.
func CheckHeader(r io.Reader) error {
	m, err := ReadInt32(r)
	if err != nil {
		return fmt.Errorf("capture: unable to read magic number: %w", err)
	}

	if m != Magic {
		return fmt.Errorf("%w: %#x", ErrMagic, m)
	}

	v, err := ReadInt32(r)
	if err != nil {
		return fmt.Errorf("capture: unable to read version number: %w", err)
	}

	if v != Ver {
		return fmt.Errorf("%w: %#x", ErrVersion, v)
	}

	return nil
}

// WriteHeader writes the magic number and version number of a capture.
func WriteHeader(w io.Writer) error {
	if err := WriteInt32(w, Magic); err != nil {
		return fmt.Errorf("capture: unable to write magic number: %w", err)
	}

	if err := WriteInt32(w, Ver); err != nil {
		return fmt.Errorf("capture: unable to write version number: %w", err)
	}

	return nil
}

// ReadFrame reads the frame fields and its encoded payload.
func ReadFrame(r io.Reader) (*Frame, error) {
	f := new(Frame)

	c, err := ReadInt32(r)
	if err != nil {
		return nil, fmt.Errorf("capture: unable to read codec: %w", err)
	}

	f.Codec = Codec(c)

	if err := binary.Read(r, binary.LittleEndian, &f.Sum); err != nil {
		return nil, fmt.Errorf("capture: unable to read checksum: %w", err)
	}

	if f.SizeCom, err = ReadInt32(r); err != nil {
		return nil, fmt.Errorf("capture: unable to read encoded size: %w", err)
	}

	if f.SizeRaw, err = ReadInt32(r); err != nil {
		return nil, fmt.Errorf("capture: unable to read raw size: %w", err)
	}

	if f.SizeCom < 0 || f.SizeCom > maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrSize, f.SizeCom)
	}

	if _, err := io.CopyN(f, r, int64(f.SizeCom)); err != nil {
		return nil, fmt.Errorf("capture: unable to read payload: %w", err)
	}

	f.isEncoded = true

	return f, nil
}

// WriteFrame writes the frame fields and its payload. The frame must be
// encoded.
func WriteFrame(w io.Writer, f *Frame) error {
	if !f.isEncoded {
		return ErrNotEncoded
	}

	if err := WriteInt32(w, int32(f.Codec)); err != nil {
		return fmt.Errorf("capture: unable to write codec: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, f.Sum); err != nil {
		return fmt.Errorf("capture: unable to write checksum: %w", err)
	}

	if err := WriteInt32(w, f.SizeCom); err != nil {
		return fmt.Errorf("capture: unable to write encoded size: %w", err)
	}

	if err := WriteInt32(w, f.SizeRaw); err != nil {
		return fmt.Errorf("capture: unable to write raw size: %w", err)
	}

	if _, err := w.Write(f.Bytes()); err != nil {
		return fmt.Errorf("capture: unable to write payload: %w", err)
	}

	return nil
}

// Pack writes raw to w as a capture compressed with c.
func Pack(w io.Writer, raw []byte, c Codec) error {
	f := &Frame{Codec: c}
	f.Write(raw)

	if err := f.Encode(); err != nil {
		return err
	}

	if err := WriteHeader(w); err != nil {
		return err
	}

	return WriteFrame(w, f)
}

// Unpack reads a capture from r and returns its raw payload.
func Unpack(r io.Reader) ([]byte, error) {
	if err := CheckHeader(r); err != nil {
		return nil, err
	}

	f, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}

	if err := f.Decode(); err != nil {
		return nil, err
	}

	return f.Bytes(), nil
}

// IsCapture reports whether b starts with the capture magic number.
func IsCapture(b []byte) bool {
	return len(b) >= 4 && int32(binary.LittleEndian.Uint32(b)) == Magic
}

// ReadFile reads the file called name and returns its content, unpacked when
// the file is a capture.
func ReadFile(name string) ([]byte, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	raw, err := Raw(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return raw, nil
}

// Raw returns b unpacked when it holds a capture and b itself otherwise.
func Raw(b []byte) ([]byte, error) {
	if !IsCapture(b) {
		return b, nil
	}

	return Unpack(bytes.NewReader(b))
}
