// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture records decoded frames to a file and reads them back.
//
// A capture file is a CBOR sequence: one record per frame, no header, so
// files can be appended to and concatenated.
package capture

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Thermoquad/serialfactory/pkg/serialfactory"
	"github.com/fxamacker/cbor/v2"
)

// Record is one captured frame
type Record struct {
	UnixNano int64  `cbor:"0,keyasint"`
	ID       uint8  `cbor:"1,keyasint"`
	Payload  []byte `cbor:"2,keyasint"`
	Checksum uint8  `cbor:"3,keyasint"`
}

// NewRecord captures a decoded message
func NewRecord(m *serialfactory.GenericMessage) Record {
	return Record{
		UnixNano: m.Timestamp().UnixNano(),
		ID:       m.ID(),
		Payload:  append([]byte(nil), m.Payload()...),
		Checksum: m.Checksum(),
	}
}

// Time returns the capture time
func (r Record) Time() time.Time {
	return time.Unix(0, r.UnixNano)
}

// Frame rebuilds the wire frame of the record
func (r Record) Frame() ([]byte, error) {
	frame, err := serialfactory.AppendRawFrame(nil, r.ID, r.Payload)
	if err != nil {
		return nil, err
	}
	if frame[len(frame)-1] != r.Checksum {
		return nil, fmt.Errorf("capture: record checksum 0x%02X does not match payload (0x%02X)",
			r.Checksum, frame[len(frame)-1])
	}
	return frame, nil
}

// Writer appends records to a capture stream
type Writer struct {
	enc   *cbor.Encoder
	count int
}

// NewWriter creates a capture writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: cbor.NewEncoder(w)}
}

// Write appends one message
func (w *Writer) Write(m *serialfactory.GenericMessage) error {
	return w.WriteRecord(NewRecord(m))
}

// WriteRecord appends one record
func (w *Writer) WriteRecord(r Record) error {
	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("capture: failed to write record %d: %w", w.count, err)
	}
	w.count++
	return nil
}

// Count returns the number of records written
func (w *Writer) Count() int {
	return w.count
}

// Reader reads records from a capture stream
type Reader struct {
	dec   *cbor.Decoder
	count int
}

// NewReader creates a capture reader
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the stream
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("capture: failed to read record %d: %w", r.count, err)
	}
	r.count++
	return rec, nil
}

// ReadAll returns every remaining record
func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}
