// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/serialfactory/pkg/capture"
	"github.com/Thermoquad/serialfactory/pkg/messages"
	"github.com/Thermoquad/serialfactory/pkg/serialfactory"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	replayFile   string
	replayDryRun bool
	replayDelay  int
	replayTiming bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Send frames from a capture file",
	Long: `Read a capture file written by raw_log --record and send each frame again.

Records whose stored checksum does not match their payload are skipped.
With --timing, the original spacing between frames is reproduced; otherwise
--delay milliseconds separate frames. With --dry-run, frames are decoded and
printed instead of sent.`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayFile, "file", "f", "", "Capture file to replay")
	replayCmd.Flags().BoolVar(&replayDryRun, "dry-run", false, "Print frames instead of sending them")
	replayCmd.Flags().IntVar(&replayDelay, "delay", 0, "Delay between frames in milliseconds")
	replayCmd.Flags().BoolVar(&replayTiming, "timing", false, "Reproduce the captured frame spacing")
	_ = replayCmd.MarkFlagRequired("file")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(replayFile)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	var out io.Writer
	if !replayDryRun {
		conn, connInfo, err := OpenConnection()
		if err != nil {
			return err
		}
		defer conn.Close()
		fmt.Printf("Connection: %s\n", connInfo)
		out = conn
	}

	reg := messages.Registry
	reader := capture.NewReader(f)
	sent, skipped := 0, 0
	var last time.Time

	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		frame, err := rec.Frame()
		if err != nil {
			logger.Warn("skipping capture record", zap.Error(err))
			skipped++
			continue
		}

		if !last.IsZero() {
			if replayTiming {
				time.Sleep(rec.Time().Sub(last))
			} else if replayDelay > 0 {
				time.Sleep(time.Duration(replayDelay) * time.Millisecond)
			}
		}
		last = rec.Time()

		if replayDryRun {
			msg := serialfactory.NewGenericMessage(rec.ID, rec.Payload, rec.Checksum)
			fmt.Print(serialfactory.FormatMessage(reg, msg))
		} else if err := writeFrame(out, frame); err != nil {
			return fmt.Errorf("replay write failed after %d frames: %w", sent, err)
		}
		sent++
	}

	fmt.Printf("\nReplayed %d frames (%d skipped)\n", sent, skipped)
	return nil
}
