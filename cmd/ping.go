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
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send Ping frames and wait for the device to echo them",
	Long: `Send Ping frames (empty payload) and wait for a Ping frame back.

This is useful for verifying:
  - the connection is established (and authenticated, for WebSocket)
  - the device is running and framing is in sync
  - frames flow in both directions

Other frames received while waiting are ignored.

Exit codes:
  0 - All pings answered
  1 - One or more pings timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("serialfactory - Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	reg := messages.Registry
	pingID := serialfactory.MustID[messages.Ping](reg)
	pingFrame := reg.MustEncodeFrame(messages.Ping{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pongs := make(chan *serialfactory.GenericMessage, pingCount)
	errChan := make(chan error, 1)
	go func() {
		err := readFrames(ctx, conn, reg, func(batch frameBatch) bool {
			for _, msg := range batch.messages {
				if msg.ID() == pingID {
					select {
					case pongs <- msg:
					default:
					}
				}
			}
			return true
		})
		if err != nil {
			errChan <- err
		}
	}()

	successCount := 0
	failCount := 0
	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		startTime := time.Now()
		if err := writeFrame(conn, pingFrame); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		select {
		case <-pongs:
			fmt.Printf("PONG rtt=%v\n", time.Since(startTime).Round(time.Millisecond))
			successCount++

		case err := <-errChan:
			fmt.Printf("READ FAILED: %v\n", err)
			fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
			os.Exit(2)

		case <-time.After(time.Duration(pingTimeout) * time.Second):
			fmt.Printf("TIMEOUT (no response in %ds)\n", pingTimeout)
			failCount++
		}

		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d responses received, %.0f%% loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
