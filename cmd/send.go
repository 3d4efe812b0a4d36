// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/serialfactory/pkg/messages"
	"github.com/Thermoquad/serialfactory/pkg/serialfactory"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	sendCount    int
	sendInterval int
	sendDryRun   bool
)

var sendCmd = &cobra.Command{
	Use:   "send TYPE [Field=Value ...]",
	Short: "Encode a message and write it to the connection",
	Long: `Encode one message of a registered type and write the frame.

Fields not assigned keep their zero value. Nested struct fields use dotted
paths, arrays take comma-separated values, integers accept 0x prefixes.

Examples:
  serialfactory send SecondMessage ID=42 Data1=245.62 Data2=63.367 --port /dev/ttyUSB0
  serialfactory send FirstMessage Flag=true Data=0x1234 --dry-run
  serialfactory send Ping --url ws://bridge.local/frames --count 5 --interval 500`,
	Args: cobra.MinimumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return messages.Names(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntVar(&sendCount, "count", 1, "Number of times to send the frame")
	sendCmd.Flags().IntVar(&sendInterval, "interval", 1000, "Delay between frames in milliseconds")
	sendCmd.Flags().BoolVar(&sendDryRun, "dry-run", false, "Print the frame instead of sending it")
}

// buildMessage resolves a type name and field assignments into a frame
func buildMessage(reg *serialfactory.Registry, typeName string, assignments []string) (any, []byte, error) {
	proto, ok := messages.Lookup(typeName)
	if !ok {
		return nil, nil, fmt.Errorf("unknown message type %q (known: %s)", typeName, strings.Join(messages.Names(), ", "))
	}
	value, err := setFields(proto, assignments)
	if err != nil {
		return nil, nil, err
	}
	frame, err := reg.EncodeFrame(value)
	if err != nil {
		return nil, nil, err
	}
	return value, frame, nil
}

func runSend(cmd *cobra.Command, args []string) error {
	reg := messages.Registry
	value, frame, err := buildMessage(reg, args[0], args[1:])
	if err != nil {
		return err
	}

	if sendDryRun {
		id, _ := reg.IDOf(value)
		fmt.Printf("%s (0x%02X) frame=%d bytes\n", reg.Name(id), id, len(frame))
		fmt.Print(serialfactory.FormatValue(value))
		fmt.Printf("  Frame: %s\n", serialfactory.FormatHex(frame))
		return nil
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Connection: %s\n", connInfo)
	for i := 1; i <= sendCount; i++ {
		if err := writeFrame(conn, frame); err != nil {
			return fmt.Errorf("send %d/%d failed: %w", i, sendCount, err)
		}
		logger.Debug("frame sent", zap.String("type", args[0]), zap.Int("seq", i), zap.Int("bytes", len(frame)))
		fmt.Printf("Sent %s %d/%d: %s\n", args[0], i, sendCount, serialfactory.FormatHex(frame))
		if i < sendCount {
			time.Sleep(time.Duration(sendInterval) * time.Millisecond)
		}
	}
	return nil
}
