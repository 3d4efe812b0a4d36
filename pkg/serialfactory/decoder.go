// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialfactory

// Counters tracks what a Parser did with the bytes it was fed.
// Malformed frames are never reported by Feed; they only show up here.
type Counters struct {
	Frames         uint64 // checksum-valid frames emitted
	ChecksumErrors uint64 // frames dropped on checksum mismatch
	UnknownIDs     uint64 // attempts abandoned on an id outside the registry
	OversizeFrames uint64 // attempts abandoned on a length above the registry max
	DiscardedBytes uint64 // bytes seen while idle that were not a start marker
}

// Dropped returns the number of frame attempts that produced no message
func (c Counters) Dropped() uint64 {
	return c.ChecksumErrors + c.UnknownIDs + c.OversizeFrames
}

// Parser reassembles frames from a byte stream, one byte per call.
//
// Bytes after the start marker are interpreted by position only: a 0xBD in
// the id, length, payload or checksum position never restarts a frame. A
// malformed frame is dropped silently and the parser goes back to scanning
// for the next start marker.
//
// A Parser is not safe for concurrent use; give each stream its own.
type Parser struct {
	registry *Registry
	state    State
	id       uint8
	length   uint8
	payload  []byte
	received int
	crc      byte
	raw      []byte // Raw bytes consumed since the last frame boundary
	counters Counters
}

// NewParser creates a parser bounded by r's id range and max payload size
func NewParser(r *Registry) *Parser {
	return &Parser{
		registry: r,
		state:    StateIdle,
		payload:  make([]byte, r.MaxPayloadSize()),
		raw:      make([]byte, 0, r.FrameCapacity()),
	}
}

// Reset abandons any partial frame and returns to idle.
// Counters are kept.
func (p *Parser) Reset() {
	p.state = StateIdle
	p.id = 0
	p.length = 0
	p.received = 0
	p.crc = crcInitial
	p.raw = p.raw[:0]
}

// State returns the current parser state
func (p *Parser) State() State {
	return p.state
}

// RawBytes returns the bytes consumed since the last frame boundary
func (p *Parser) RawBytes() []byte {
	return p.raw
}

// Counters returns a snapshot of the parser counters
func (p *Parser) Counters() Counters {
	return p.counters
}

// Feed processes a single byte through the parser state machine.
// Returns a completed, checksum-validated message, or nil.
func (p *Parser) Feed(b byte) *GenericMessage {
	switch p.state {
	case StateIdle:
		if b != StartByte {
			p.counters.DiscardedBytes++
			return nil
		}
		p.Reset()
		p.raw = append(p.raw, b)
		p.crc = UpdateChecksum(crcInitial, b)
		p.state = StateGotStart
		return nil

	case StateGotStart:
		p.raw = append(p.raw, b)
		if int(b) >= p.registry.Len() {
			p.counters.UnknownIDs++
			p.Reset()
			return nil
		}
		p.id = b
		p.crc = UpdateChecksum(p.crc, b)
		p.state = StateGotID
		return nil

	case StateGotID:
		p.raw = append(p.raw, b)
		if int(b) > p.registry.MaxPayloadSize() {
			p.counters.OversizeFrames++
			p.Reset()
			return nil
		}
		p.length = b
		p.received = 0
		p.crc = UpdateChecksum(p.crc, b)
		if b == 0 {
			p.state = StateGotPayload
		} else {
			p.state = StateGotLength
		}
		return nil

	case StateGotLength:
		p.raw = append(p.raw, b)
		p.payload[p.received] = b
		p.received++
		p.crc = UpdateChecksum(p.crc, b)
		if p.received >= int(p.length) {
			p.state = StateGotPayload
		}
		return nil

	case StateGotPayload:
		p.raw = append(p.raw, b)
		var msg *GenericMessage
		if b == p.crc {
			msg = NewGenericMessage(p.id, p.payload[:p.length], b)
			p.counters.Frames++
		} else {
			p.counters.ChecksumErrors++
		}
		p.Reset()
		return msg
	}

	p.Reset()
	return nil
}

// FeedBytes feeds a chunk of the stream and returns every message it
// completed, in order.
func (p *Parser) FeedBytes(chunk []byte) []*GenericMessage {
	var msgs []*GenericMessage
	for _, b := range chunk {
		if msg := p.Feed(b); msg != nil {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}
