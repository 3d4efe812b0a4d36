// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialfactory

import (
	"fmt"
	"time"
)

// Statistics tracks frame statistics and error rates for a stream
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames     uint64
	ValidFrames     uint64
	ChecksumErrors  uint64
	DroppedFrames   uint64 // unknown id or oversize length
	DiscardedBytes  uint64
	LengthMismatch  uint64
	DecodeErrors    uint64
	NonFiniteValues uint64
	UnknownIDs      uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records a decoded message and its validation errors
func (s *Statistics) Update(m *GenericMessage, validationErrors []ValidationError) {
	if m == nil {
		return
	}
	s.TotalFrames++

	if len(validationErrors) == 0 {
		s.ValidFrames++
	}
	for _, err := range validationErrors {
		switch err.Type {
		case AnomalyUnknownID:
			s.UnknownIDs++
		case AnomalyLengthMismatch:
			s.LengthMismatch++
		case AnomalyDecodeError:
			s.DecodeErrors++
		case AnomalyNonFinite:
			s.NonFiniteValues++
		}
	}

	s.LastUpdateTime = time.Now()
}

// Observe folds the parser's silent-drop counters into the statistics.
// Pass the counter delta since the previous call.
func (s *Statistics) Observe(delta Counters) {
	s.TotalFrames += delta.ChecksumErrors + delta.UnknownIDs + delta.OversizeFrames
	s.ChecksumErrors += delta.ChecksumErrors
	s.DroppedFrames += delta.UnknownIDs + delta.OversizeFrames
	s.DiscardedBytes += delta.DiscardedBytes
	if delta.Dropped() > 0 {
		s.LastUpdateTime = time.Now()
	}
}

// Sub returns the counter delta c - prev
func (c Counters) Sub(prev Counters) Counters {
	return Counters{
		Frames:         c.Frames - prev.Frames,
		ChecksumErrors: c.ChecksumErrors - prev.ChecksumErrors,
		UnknownIDs:     c.UnknownIDs - prev.UnknownIDs,
		OversizeFrames: c.OversizeFrames - prev.OversizeFrames,
		DiscardedBytes: c.DiscardedBytes - prev.DiscardedBytes,
	}
}

// ErrorCount returns the number of frames counted as errors
func (s *Statistics) ErrorCount() uint64 {
	return s.ChecksumErrors + s.DroppedFrames + s.LengthMismatch + s.DecodeErrors + s.NonFiniteValues + s.UnknownIDs
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.ErrorCount()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, checksumPercent, droppedPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		checksumPercent = float64(s.ChecksumErrors) * 100.0 / float64(s.TotalFrames)
		droppedPercent = float64(s.DroppedFrames) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)

	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d (%.1f%%)\n", s.ChecksumErrors, checksumPercent)
	}
	if s.DroppedFrames > 0 {
		result += fmt.Sprintf("Dropped Frames:  %8d (%.1f%%)\n", s.DroppedFrames, droppedPercent)
	}
	if s.LengthMismatch > 0 {
		result += fmt.Sprintf("Length Mismatch: %8d\n", s.LengthMismatch)
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d\n", s.DecodeErrors)
	}
	if s.UnknownIDs > 0 {
		result += fmt.Sprintf("Unknown IDs:     %8d\n", s.UnknownIDs)
	}
	if s.NonFiniteValues > 0 {
		result += fmt.Sprintf("Non-finite:      %8d\n", s.NonFiniteValues)
	}
	if s.DiscardedBytes > 0 {
		result += fmt.Sprintf("Discarded Bytes: %8d\n", s.DiscardedBytes)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
