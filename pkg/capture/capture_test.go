// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/Thermoquad/serialfactory/pkg/serialfactory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Seq   uint16
	Value float32
}

type marker struct{}

var registry = serialfactory.MustRegistry(binary.LittleEndian, sample{}, marker{})

func decodeFrames(t *testing.T, values ...any) []*serialfactory.GenericMessage {
	t.Helper()
	var stream []byte
	for _, v := range values {
		frame, err := registry.EncodeFrame(v)
		require.NoError(t, err)
		stream = append(stream, frame...)
	}
	msgs := serialfactory.NewParser(registry).FeedBytes(stream)
	require.Len(t, msgs, len(values))
	return msgs
}

func TestWriterReader_RoundTrip(t *testing.T) {
	msgs := decodeFrames(t, sample{Seq: 1, Value: 0.5}, marker{}, sample{Seq: 2, Value: -3})

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, m := range msgs {
		require.NoError(t, w.Write(m))
	}
	assert.Equal(t, 3, w.Count())

	records, err := NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	for i, rec := range records {
		assert.Equal(t, msgs[i].ID(), rec.ID)
		assert.Equal(t, msgs[i].Checksum(), rec.Checksum)
		assert.Equal(t, msgs[i].Timestamp().UnixNano(), rec.Time().UnixNano())

		frame, err := rec.Frame()
		require.NoError(t, err)
		assert.Equal(t, msgs[i].Frame(), frame)
	}
}

func TestRecord_ReplaysThroughParser(t *testing.T) {
	msgs := decodeFrames(t, sample{Seq: 7, Value: 1.25})
	frame, err := NewRecord(msgs[0]).Frame()
	require.NoError(t, err)

	replayed := serialfactory.NewParser(registry).FeedBytes(frame)
	require.Len(t, replayed, 1)

	got, err := serialfactory.Unpack[sample](registry, replayed[0])
	require.NoError(t, err)
	assert.Equal(t, sample{Seq: 7, Value: 1.25}, got)
}

func TestRecord_FrameRejectsBadChecksum(t *testing.T) {
	rec := NewRecord(decodeFrames(t, sample{Seq: 1})[0])
	rec.Checksum ^= 0xFF

	_, err := rec.Frame()
	assert.Error(t, err)
}

func TestRecord_EmptyPayload(t *testing.T) {
	rec := NewRecord(decodeFrames(t, marker{})[0])

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteRecord(rec))

	got, err := NewReader(&buf).Next()
	require.NoError(t, err)
	frame, err := got.Frame()
	require.NoError(t, err)
	assert.Len(t, frame, serialfactory.FrameOverhead)
}

func TestReader_EOF(t *testing.T) {
	_, err := NewReader(bytes.NewReader(nil)).Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_Concatenated(t *testing.T) {
	msgs := decodeFrames(t, sample{Seq: 1}, sample{Seq: 2})

	var first, second bytes.Buffer
	require.NoError(t, NewWriter(&first).Write(msgs[0]))
	require.NoError(t, NewWriter(&second).Write(msgs[1]))

	records, err := NewReader(io.MultiReader(&first, &second)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReader_Corrupt(t *testing.T) {
	records, err := NewReader(bytes.NewReader([]byte{0xFF, 0x00, 0x01})).ReadAll()
	assert.Error(t, err)
	assert.Empty(t, records)
}
