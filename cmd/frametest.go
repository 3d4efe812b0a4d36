// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/serialfactory/pkg/messages"
	"github.com/Thermoquad/serialfactory/pkg/serialfactory"
	"github.com/spf13/cobra"
)

var (
	frameTestTimeout int
)

var frameTestCmd = &cobra.Command{
	Use:   "frame_test",
	Short: "Test connection by waiting for a valid frame",
	Long: `Wait for a valid frame on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any frame
that passes the CRC-8 check and names a registered message type. Bytes before
the first frame are skipped and counted.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error`,
	RunE: runFrameTest,
}

func init() {
	rootCmd.AddCommand(frameTestCmd)
	frameTestCmd.Flags().IntVar(&frameTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runFrameTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("serialfactory - Frame Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", frameTestTimeout)
	fmt.Printf("Waiting for valid frame...\n\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := messages.Registry
	frameChan := make(chan *serialfactory.GenericMessage, 1)
	errChan := make(chan error, 1)

	go func() {
		var skipped, dropped uint64
		err := readFrames(ctx, conn, reg, func(batch frameBatch) bool {
			skipped += batch.delta.DiscardedBytes
			dropped += batch.delta.Dropped()
			if len(batch.messages) == 0 {
				return true
			}
			if skipped > 0 || dropped > 0 {
				fmt.Printf("(skipped %d bytes and %d malformed frames before sync)\n", skipped, dropped)
			}
			frameChan <- batch.messages[0]
			return false
		})
		if err != nil {
			errChan <- err
		}
	}()

	select {
	case msg := <-frameChan:
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Type: %s (0x%02X)\n", reg.Name(msg.ID()), msg.ID())
		fmt.Printf("  Length: %d bytes\n", msg.Length())
		fmt.Printf("  CRC: 0x%02X\n", msg.Checksum())
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(frameTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", frameTestTimeout)
		os.Exit(1)
	}

	return nil
}
