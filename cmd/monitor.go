// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Thermoquad/serialfactory/pkg/messages"
	"github.com/Thermoquad/serialfactory/pkg/serialfactory"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Detect and analyze malformed frames and errors",
	Long: `Track frame errors, malformed payloads and anomalous values with statistics.

This command validates each frame and detects:
  - Checksum failures and frames dropped for an unknown id or oversize length
  - Payload length mismatches against the registered type size
  - Non-finite floating point fields (NaN, Inf)
  - Statistics and trends (frame rate, error rate, success rate)

Dropped frames never reach the decoder output; they are counted from the
parser. Errors before the first valid frame are ignored while the stream
synchronizes.

By default, only errors are displayed. Use --show-all to display valid frames too.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if statsInterval <= 0 {
		return fmt.Errorf("--stats-interval must be positive, got %d", statsInterval)
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if useTUI {
		return runMonitorTUI(conn, connInfo)
	}
	return runMonitorText(conn, connInfo)
}

// monitorBatch is a frameBatch with validation results attached
type monitorBatch struct {
	messages         []*serialfactory.GenericMessage
	validationErrors [][]serialfactory.ValidationError
	delta            serialfactory.Counters
}

// syncTracker ignores drops until the first valid frame
type syncTracker struct {
	synchronized bool
	skipped      uint64
}

// validate attaches validation results and strips pre-sync drops.
// Returns whether this batch synchronized the stream.
func (s *syncTracker) validate(reg *serialfactory.Registry, batch frameBatch) (monitorBatch, bool) {
	out := monitorBatch{messages: batch.messages, delta: batch.delta}
	for _, msg := range batch.messages {
		out.validationErrors = append(out.validationErrors, reg.Validate(msg))
	}

	justSynced := false
	if !s.synchronized {
		s.skipped += batch.delta.DiscardedBytes + batch.delta.Dropped()
		out.delta = serialfactory.Counters{}
		if len(batch.messages) > 0 {
			s.synchronized = true
			justSynced = true
		}
	}
	return out, justSynced
}

// runMonitorTUI runs the monitor in TUI mode
func runMonitorTUI(conn Connection, connInfo string) error {
	reg := messages.Registry
	p := tea.NewProgram(initialMonitorModel(reg, connInfo, statsInterval, showAll))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		tracker := &syncTracker{}
		err := readFrames(ctx, conn, reg, func(batch frameBatch) bool {
			mb, justSynced := tracker.validate(reg, batch)
			if justSynced {
				p.Send(syncMsg{skipped: tracker.skipped})
			}
			p.Send(frameDataMsg(mb))
			return true
		})
		if err != nil {
			p.Send(connErrMsg{err: err})
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	cancel()
	conn.Close()
	return nil
}

// runMonitorText runs the monitor in text mode
func runMonitorText(conn Connection, connInfo string) error {
	fmt.Printf("serialfactory - Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	reg := messages.Registry
	stats := serialfactory.NewStatistics()
	tracker := &syncTracker{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	batches := make(chan frameBatch, 16)
	readErr := make(chan error, 1)
	go func() {
		readErr <- readFrames(ctx, conn, reg, func(batch frameBatch) bool {
			batches <- batch
			return true
		})
	}()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close()
			fmt.Println()
			fmt.Print(stats.String())
			return nil

		case err := <-readErr:
			fmt.Println()
			fmt.Print(stats.String())
			if errors.Is(err, ErrConnectionClosed) {
				logger.Info("connection closed")
				return nil
			}
			return err

		case batch := <-batches:
			mb, justSynced := tracker.validate(reg, batch)
			if justSynced && tracker.skipped > 0 {
				fmt.Printf("(synchronized after skipping %d bytes and frames)\n\n", tracker.skipped)
			}
			stats.Observe(mb.delta)
			if mb.delta.Dropped() > 0 {
				printDrops(mb.delta)
			}

			for i, msg := range mb.messages {
				stats.Update(msg, mb.validationErrors[i])
				if len(mb.validationErrors[i]) > 0 {
					printValidationErrors(reg, msg, mb.validationErrors[i])
				} else if showAll {
					fmt.Print(serialfactory.FormatMessage(reg, msg))
				}
			}

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}

// printDrops prints frames the parser dropped in highlighted format
func printDrops(delta serialfactory.Counters) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDROPPED:\033[0m checksum=%d unknown_id=%d oversize=%d\n\n",
		timestamp, delta.ChecksumErrors, delta.UnknownIDs, delta.OversizeFrames)
	logger.Debug("frames dropped", zap.Uint64("total", delta.Dropped()))
}

// printValidationErrors prints validation errors for a frame
func printValidationErrors(reg *serialfactory.Registry, msg *serialfactory.GenericMessage, errs []serialfactory.ValidationError) {
	timestamp := msg.Timestamp().Format("15:04:05.000")

	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %s (0x%02X)\n", timestamp, reg.Name(msg.ID()), msg.ID())
	fmt.Printf("  CRC: \033[1;32mOK\033[0m (0x%02X)\n", msg.Checksum())

	for i, err := range errs {
		fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)
		if err.Type == serialfactory.AnomalyLengthMismatch {
			if received, ok := err.Details["received"].(int); ok {
				if expected, ok := err.Details["expected"].(int); ok {
					fmt.Printf("    Length: received=%d, expected=%d\n", received, expected)
				}
			}
		}
	}

	fmt.Printf("  Payload: %s\n", serialfactory.FormatHex(msg.Payload()))
	fmt.Printf("  >>> FRAME REJECTED <<<\n\n")
}
