// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialfactory

import (
	"strings"
	"testing"
)

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_Update(t *testing.T) {
	s := NewStatistics()
	msg := NewGenericMessage(0, []byte{1, 2, 3}, 0)

	s.Update(msg, nil)
	s.Update(msg, []ValidationError{{Type: AnomalyLengthMismatch}})
	s.Update(msg, []ValidationError{{Type: AnomalyNonFinite}, {Type: AnomalyNonFinite}})
	s.Update(msg, []ValidationError{{Type: AnomalyDecodeError}})
	s.Update(msg, []ValidationError{{Type: AnomalyUnknownID}})
	s.Update(nil, nil)

	if s.TotalFrames != 5 {
		t.Errorf("Expected 5 frames, got %d", s.TotalFrames)
	}
	if s.ValidFrames != 1 {
		t.Errorf("Expected 1 valid frame, got %d", s.ValidFrames)
	}
	if s.LengthMismatch != 1 || s.NonFiniteValues != 2 || s.DecodeErrors != 1 || s.UnknownIDs != 1 {
		t.Errorf("Unexpected anomaly counts %+v", s)
	}
	if s.ErrorCount() != 5 {
		t.Errorf("Expected 5 errors, got %d", s.ErrorCount())
	}
}

func TestStatistics_Observe(t *testing.T) {
	s := NewStatistics()
	s.Observe(Counters{Frames: 10, ChecksumErrors: 2, UnknownIDs: 1, OversizeFrames: 1, DiscardedBytes: 7})

	if s.TotalFrames != 4 {
		t.Errorf("Expected 4 dropped frames counted, got %d", s.TotalFrames)
	}
	if s.ChecksumErrors != 2 || s.DroppedFrames != 2 || s.DiscardedBytes != 7 {
		t.Errorf("Unexpected counts %+v", s)
	}
}

func TestCounters_Sub(t *testing.T) {
	prev := Counters{Frames: 1, ChecksumErrors: 1, DiscardedBytes: 4}
	cur := Counters{Frames: 3, ChecksumErrors: 2, UnknownIDs: 1, DiscardedBytes: 9}

	d := cur.Sub(prev)
	want := Counters{Frames: 2, ChecksumErrors: 1, UnknownIDs: 1, DiscardedBytes: 5}
	if d != want {
		t.Errorf("Expected %+v, got %+v", want, d)
	}
	if d.Dropped() != 2 {
		t.Errorf("Expected 2 dropped, got %d", d.Dropped())
	}
}

func TestStatistics_StringAndReset(t *testing.T) {
	s := NewStatistics()
	s.Observe(Counters{ChecksumErrors: 3})

	out := s.String()
	for _, want := range []string{"Total Frames:", "Checksum Errors:", "Frame Rate:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Dropped Frames:") {
		t.Errorf("Summary should omit zero counters:\n%s", out)
	}

	s.Reset()
	if s.TotalFrames != 0 || s.ChecksumErrors != 0 {
		t.Errorf("Reset left counts %+v", s)
	}
}
