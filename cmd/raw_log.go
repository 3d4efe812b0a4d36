// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/Thermoquad/serialfactory/pkg/capture"
	"github.com/Thermoquad/serialfactory/pkg/messages"
	"github.com/Thermoquad/serialfactory/pkg/serialfactory"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rawLogRecord string
	rawLogHex    bool
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display decoded frames in human-readable format",
	Long: `Continuously decode and display frames as they arrive.

Each checksum-valid frame is printed with timestamp, message type and decoded
fields. Malformed frames are dropped silently; run with --log-level debug to
see drop counters.

With --record, every decoded frame is also appended to a CBOR capture file
that the replay command can send again.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().StringVar(&rawLogRecord, "record", "", "Append decoded frames to this capture file")
	rawLogCmd.Flags().BoolVar(&rawLogHex, "hex", false, "Also print the raw frame bytes")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	var recorder *capture.Writer
	if rawLogRecord != "" {
		f, err := os.OpenFile(rawLogRecord, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open capture file: %w", err)
		}
		defer f.Close()
		recorder = capture.NewWriter(f)
	}

	fmt.Printf("serialfactory - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	reg := messages.Registry
	err = readFrames(ctx, conn, reg, func(batch frameBatch) bool {
		for _, msg := range batch.messages {
			fmt.Print(serialfactory.FormatMessage(reg, msg))
			if rawLogHex {
				fmt.Printf("  Frame: %s\n", serialfactory.FormatHex(msg.Frame()))
			}
			if recorder != nil {
				if err := recorder.Write(msg); err != nil {
					logger.Error("capture write failed", zap.Error(err))
				}
			}
		}
		return true
	})

	if recorder != nil {
		logger.Info("capture closed", zap.String("file", rawLogRecord), zap.Int("records", recorder.Count()))
	}
	if errors.Is(err, ErrConnectionClosed) {
		logger.Info("connection closed")
		return nil
	}
	return err
}
