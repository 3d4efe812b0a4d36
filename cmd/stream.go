// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/Thermoquad/serialfactory/pkg/serialfactory"
	"go.uber.org/zap"
)

// readChunkSize is the read buffer size; any chunking works
const readChunkSize = 256

// frameBatch is what one read produced
type frameBatch struct {
	messages []*serialfactory.GenericMessage
	delta    serialfactory.Counters // parser counter change during the read
}

// readFrames feeds everything read from r through a fresh parser and hands
// each non-empty batch to handle. It returns when ctx is done (nil), when
// handle returns false (nil), or when a read fails.
//
// Blocking readers are not interrupted by ctx; close the connection to
// unblock them.
func readFrames(ctx context.Context, r io.Reader, reg *serialfactory.Registry, handle func(frameBatch) bool) error {
	parser := serialfactory.NewParser(reg)
	buf := make([]byte, readChunkSize)
	prev := parser.Counters()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			batch := frameBatch{messages: parser.FeedBytes(buf[:n])}
			now := parser.Counters()
			batch.delta = now.Sub(prev)
			prev = now

			if d := batch.delta; d.Dropped() > 0 {
				logger.Debug("dropped malformed frames",
					zap.Uint64("checksum_errors", d.ChecksumErrors),
					zap.Uint64("unknown_ids", d.UnknownIDs),
					zap.Uint64("oversize", d.OversizeFrames))
			}

			if len(batch.messages) > 0 || batch.delta.Dropped() > 0 || batch.delta.DiscardedBytes > 0 {
				if !handle(batch) {
					return nil
				}
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return ErrConnectionClosed
			}
			return err
		}
	}
}
