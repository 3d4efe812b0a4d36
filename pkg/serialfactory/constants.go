// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package serialfactory frames small fixed-layout binary messages for
// transmission over an unreliable byte channel such as a UART or a socket.
//
// A Registry assigns each message type a one-byte id (its position in the
// registry) and bounds the payload size. Encoding writes a self-delimiting
// frame; a Parser fed one byte at a time reassembles frames from any chunking
// of the stream and only yields frames whose CRC-8 trailer validates.
//
// Wire frame:
//
//	offset 0     : start marker (0xBD)
//	offset 1     : type id
//	offset 2     : payload length n
//	offset 3     : payload (n bytes)
//	offset 3+n   : CRC-8 over bytes 0..2+n
package serialfactory

import "errors"

// Protocol framing
const (
	StartByte     = 0xBD
	FrameOverhead = 4 // start + id + length + checksum
	headerSize    = 3
)

// Field width limits
const (
	MaxMessageTypes = 256 // ids are one byte
	MaxPayloadSize  = 255 // lengths are one byte
)

// CRC-8 configuration
const (
	crcPolynomial = 0x07
	crcInitial    = 0x00
)

// State is a streaming parser state.
type State int

// Parser states
const (
	StateIdle State = iota
	StateGotStart
	StateGotID
	StateGotLength
	StateGotPayload
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateGotStart:
		return "GOT_START"
	case StateGotID:
		return "GOT_ID"
	case StateGotLength:
		return "GOT_LENGTH"
	case StateGotPayload:
		return "GOT_PAYLOAD"
	}
	return "UNKNOWN"
}

// Registry construction errors
var (
	ErrTooManyTypes    = errors.New("serialfactory: too many message types for a one-byte id")
	ErrPayloadTooLarge = errors.New("serialfactory: message type exceeds the one-byte length field")
	ErrVariableSize    = errors.New("serialfactory: message type has no fixed size")
	ErrDuplicateType   = errors.New("serialfactory: message type registered twice")
)

// Encode/decode errors
var (
	ErrUnregisteredType = errors.New("serialfactory: type is not in the registry")
	ErrUnknownID        = errors.New("serialfactory: id is not in the registry")
	ErrBufferTooSmall   = errors.New("serialfactory: destination buffer too small")
	ErrTypeMismatch     = errors.New("serialfactory: message id does not match requested type")
	ErrLengthMismatch   = errors.New("serialfactory: payload length does not match type size")
)
