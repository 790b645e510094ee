// Package decoder reads and writes the RU binary log format.
//
// A file is a 36-byte ASCII header followed by variable-length records until
// the byte source is exhausted. Header fields are right-padded with '-':
// work shift (8), train number (8), driver id (8), vehicle id (6), and a
// YYMMDD date (6). Each record is a one-byte type discriminant, a uint32
// timestamp in Unix seconds, the fixed measurement words the family defines
// for its periodic type (int32 location in cm, int32 speed in cm/s), then a
// one-byte payload length and the payload. All words are little-endian.
//
// The decoder verifies structural well-formedness only. Semantic checks
// (timestamp order, value ranges, type membership) belong to the validator,
// so a malformed-but-decodable file still decodes and gets a precise
// diagnosis there.
package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
)

// HeaderSize is the fixed byte length of the file header.
const HeaderSize = 36

// StructuralError reports malformed bytes: a truncated header or a record
// whose declared fields extend past the end of the source. Offset is the
// position of the first byte of the field that could not be read. Always
// fatal to the file's run, never retried.
type StructuralError struct {
	Offset int64
	Field  string
	Err    error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural decode error at offset %d: %s: %v", e.Offset, e.Field, e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// Reader decodes one RU byte stream lazily. Records come back in file
// order; Next returns io.EOF at a clean end of stream. A Reader is not
// restartable; decode from the start by opening a new Reader over a fresh
// source.
type Reader struct {
	r          io.Reader
	family     *model.Family
	header     model.Header
	headerRead bool
	offset     int64
}

// NewReader returns a Reader decoding r with the given family's record
// layout.
func NewReader(r io.Reader, family *model.Family) *Reader {
	return &Reader{r: r, family: family}
}

// Header decodes and returns the file header. It is read at most once;
// subsequent calls return the cached value.
func (d *Reader) Header() (model.Header, error) {
	if d.headerRead {
		return d.header, nil
	}
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return model.Header{}, d.structural("header", 0, err)
	}
	d.offset = HeaderSize
	d.header = model.Header{
		WorkShift: trimField(buf[0:8]),
		TrainNo:   trimField(buf[8:16]),
		DriverID:  trimField(buf[16:24]),
		VehicleID: trimField(buf[24:30]),
		Date:      parseDate(buf[30:36]),
	}
	d.headerRead = true
	return d.header, nil
}

// Next decodes the next record. io.EOF signals a clean end of stream; any
// truncation mid-record is a *StructuralError.
func (d *Reader) Next() (model.Record, error) {
	if !d.headerRead {
		if _, err := d.Header(); err != nil {
			return model.Record{}, err
		}
	}

	var tbuf [1]byte
	if _, err := io.ReadFull(d.r, tbuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return model.Record{}, io.EOF
		}
		return model.Record{}, d.structural("record type", d.offset, err)
	}
	d.offset++
	rec := model.Record{Type: model.RecordType(tbuf[0])}

	ts, err := d.readWord("timestamp")
	if err != nil {
		return model.Record{}, err
	}
	rec.Timestamp = time.Unix(int64(ts), 0).UTC()

	if d.family.IsPeriodic(rec.Type) {
		if d.family.HasLocation {
			loc, err := d.readWord("location")
			if err != nil {
				return model.Record{}, err
			}
			rec.Location = int32(loc)
		}
		speed, err := d.readWord("speed")
		if err != nil {
			return model.Record{}, err
		}
		rec.Speed = int32(speed)
	}

	var lbuf [1]byte
	if _, err := io.ReadFull(d.r, lbuf[:]); err != nil {
		return model.Record{}, d.structural("payload length", d.offset, err)
	}
	d.offset++
	if n := int(lbuf[0]); n > 0 {
		payload := make([]byte, n)
		start := d.offset
		if _, err := io.ReadFull(d.r, payload); err != nil {
			return model.Record{}, d.structural("payload", start, err)
		}
		d.offset += int64(n)
		rec.Payload = payload
	}

	return rec, nil
}

func (d *Reader) readWord(field string) (uint32, error) {
	var buf [4]byte
	start := d.offset
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, d.structural(field, start, err)
	}
	d.offset += 4
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (d *Reader) structural(field string, offset int64, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &StructuralError{Offset: offset, Field: field, Err: err}
}

// Decode reads the whole stream. On a structural error no records are
// returned, never a partial list.
func Decode(r io.Reader, family *model.Family) (model.Header, []model.Record, error) {
	d := NewReader(r, family)
	header, err := d.Header()
	if err != nil {
		return model.Header{}, nil, err
	}
	var records []model.Record
	for {
		rec, err := d.Next()
		if errors.Is(err, io.EOF) {
			return header, records, nil
		}
		if err != nil {
			return header, nil, err
		}
		records = append(records, rec)
	}
}

func trimField(b []byte) string {
	return strings.Trim(string(b), "- ")
}

func parseDate(b []byte) time.Time {
	t, err := time.Parse("060102", string(b))
	if err != nil {
		return time.Time{}
	}
	return t
}
