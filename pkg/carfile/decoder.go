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

package carfile

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mys721tx/srtools-go/pkg/tree"
)

const (
	headerSize = 8
	numberSize = 8
	lengthSize = 4
)

// key is an attribute name. Sections that hold lists name their entries with
// numbers instead of text.
type key struct {
	text       string
	index      uint64
	positional bool
}

func named(s string) key {
	return key{text: s}
}

func positional(i uint64) key {
	return key{index: i, positional: true}
}

// keyFromNumber turns a numeric name into a key. Whole non-negative numbers
// become positional keys, anything else keeps its decimal form.
func keyFromNumber(f float64) key {
	if f >= 0 && f < math.MaxUint64 && f == math.Trunc(f) {
		return positional(uint64(f))
	}

	return named(strconv.FormatFloat(f, 'g', -1, 64))
}

func (k key) String() string {
	if k.positional {
		return strconv.FormatUint(k.index, 10)
	}

	return k.text
}

type section struct {
	name  string
	want  uint32
	have  uint64
	attrs *tree.Map
	at    int
}

func (s *section) complete() bool {
	return s.have == uint64(s.want)
}

// decoder holds the state of one decode.
type decoder struct {
	buf      []byte
	pos      int
	stack    []*section
	trailing *tree.Map
	opts     options
}

func (d *decoder) fail(at int, err error, format string, args ...any) error {
	return &DecodeError{Offset: at, Err: err, Detail: fmt.Sprintf(format, args...)}
}

func (d *decoder) need(n uint64, what string) error {
	have := uint64(0)
	if d.pos < len(d.buf) {
		have = uint64(len(d.buf) - d.pos)
	}

	if have < n {
		return d.fail(d.pos, ErrTruncated, "reading %s: need %d bytes, have %d", what, n, have)
	}

	return nil
}

func (d *decoder) readByte(what string) (byte, error) {
	if err := d.need(1, what); err != nil {
		return 0, err
	}

	b := d.buf[d.pos]
	d.pos++

	return b, nil
}

func (d *decoder) length() (uint32, error) {
	if err := d.need(lengthSize, "length"); err != nil {
		return 0, err
	}

	n := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += lengthSize

	return n, nil
}

func (d *decoder) number() (float64, error) {
	if err := d.need(numberSize, "number"); err != nil {
		return 0, err
	}

	f := math.Float64frombits(binary.LittleEndian.Uint64(d.buf[d.pos:]))
	d.pos += numberSize

	return f, nil
}

func (d *decoder) text(n uint32) (string, error) {
	if err := d.need(uint64(n), "text"); err != nil {
		return "", err
	}

	b := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)

	if utf8.Valid(b) {
		return string(b), nil
	}

	return hexString(b), nil
}

func (d *decoder) skip(n uint64, what string) error {
	if err := d.need(n, what); err != nil {
		return err
	}

	d.pos += int(n)

	return nil
}

// header reads a section header. The child count is the first little endian
// word unless that is zero, in which case it is the second.
func (d *decoder) header() (uint32, error) {
	if err := d.need(headerSize, "section header"); err != nil {
		return 0, err
	}

	want := binary.LittleEndian.Uint32(d.buf[d.pos:])
	if want == 0 {
		want = binary.LittleEndian.Uint32(d.buf[d.pos+4:])
	}

	d.pos += headerSize

	return want, nil
}

// atBlob reports whether the next byte opens a nested blob.
func (d *decoder) atBlob() bool {
	return d.pos < len(d.buf) && d.buf[d.pos] == BlobMark
}

func (d *decoder) open() (*tree.Map, error) {
	if len(d.buf) == 0 || d.buf[0] != BlobMark {
		return nil, d.fail(0, ErrFormat, "")
	}

	d.pos = 2

	want, err := d.header()
	if err != nil {
		return nil, err
	}

	root := &section{name: RootName, want: want, attrs: tree.NewMap(), at: 2}
	d.stack = append(d.stack, root)

	return root.attrs, nil
}

func (d *decoder) run() error {
	for d.pos < len(d.buf) {
		at := d.pos
		tag := d.buf[d.pos]
		d.pos++

		var (
			k   key
			ok  bool
			err error
		)

		switch tag {
		case TagText:
			k, ok, err = d.textName()
		case TagNumber:
			var f float64
			f, err = d.number()
			k, ok = keyFromNumber(f), true
		case BlobMark, TagFalse, TagTrue, TagSection:
			d.opts.log.Debug("skipped tag in name position", "offset", at, "tag", tag)
		default:
			if !d.opts.lenient {
				return d.fail(at, ErrUnknownTag, "tag 0x%02X in name position", tag)
			}

			d.opts.log.Debug("skipped unknown tag", "offset", at, "tag", tag)
		}

		if err != nil {
			return err
		}

		if !ok {
			continue
		}

		if err := d.value(k.String()); err != nil {
			return err
		}

		d.settle()
	}

	// The root is only settled here when it declared no children.
	d.settle()

	if n := len(d.stack); n > 0 && !d.opts.lenient {
		top := d.stack[n-1]

		return d.fail(d.pos, ErrTruncated, "section %q opened at offset %d holds %d of %d children",
			top.name, top.at, top.have, top.want)
	}

	return nil
}

// textName reads the name that follows a text tag. Nested blobs in name
// position are skipped and another length follows them. ok is false when the
// input ends after a skipped blob.
func (d *decoder) textName() (key, bool, error) {
	for {
		n, err := d.length()
		if err != nil {
			return key{}, false, err
		}

		if !d.atBlob() {
			s, err := d.text(n)
			if err != nil {
				return key{}, false, err
			}

			return named(s), true, nil
		}

		d.opts.log.Debug("skipped blob in name position", "offset", d.pos, "length", n)

		if err := d.skip(uint64(n), "blob"); err != nil {
			return key{}, false, err
		}

		if d.pos >= len(d.buf) {
			return key{}, false, nil
		}
	}
}

func (d *decoder) value(name string) error {
	at := d.pos

	tag, err := d.readByte("value tag")
	if err != nil {
		return err
	}

	switch tag {
	case TagSection:
		return d.section(name)
	case TagFalse:
		d.attach(name, false)
	case TagTrue:
		d.attach(name, true)
	case TagNumber:
		f, err := d.number()
		if err != nil {
			return err
		}

		d.attach(name, f)
	case TagText:
		return d.textValue(name)
	default:
		if !d.opts.lenient {
			return d.fail(at, ErrUnknownTag, "tag 0x%02X for %q", tag, name)
		}

		return d.textValue(name)
	}

	return nil
}

// textValue reads a length prefixed string, or a section when the bytes after
// the length open a nested blob.
func (d *decoder) textValue(name string) error {
	n, err := d.length()
	if err != nil {
		return err
	}

	if d.atBlob() {
		if err := d.skip(2, "blob mark"); err != nil {
			return err
		}

		return d.section(name)
	}

	s, err := d.text(n)
	if err != nil {
		return err
	}

	d.attach(name, s)

	return nil
}

func (d *decoder) section(name string) error {
	at := d.pos

	want, err := d.header()
	if err != nil {
		return err
	}

	s := &section{name: name, want: want, attrs: tree.NewMap(), at: at}
	d.attach(name, s.attrs)
	d.stack = append(d.stack, s)

	return nil
}

// attach adds an entry to the innermost open section, or to the trailing
// entries once the root is complete.
func (d *decoder) attach(name string, v any) {
	n := len(d.stack)
	if n == 0 {
		d.trailing.Set(name, v)
		return
	}

	top := d.stack[n-1]
	top.attrs.Set(name, v)
	top.have++
}

// settle pops every complete section off the top of the stack. Closing a
// section counts toward its parent, which may complete in turn.
func (d *decoder) settle() {
	for n := len(d.stack); n > 0 && d.stack[n-1].complete(); n = len(d.stack) {
		d.stack = d.stack[:n-1]
	}
}

func hexString(b []byte) string {
	var sb strings.Builder

	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}

		fmt.Fprintf(&sb, "%02X", c)
	}

	return sb.String()
}
