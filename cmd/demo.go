// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"

	"github.com/Thermoquad/serialfactory/pkg/messages"
	"github.com/Thermoquad/serialfactory/pkg/serialfactory"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Encode and decode a SecondMessage without any connection",
	Long: `Walk through one frame offline.

Encodes SecondMessage{ID: 42, Data1: 245.62, Data2: 63.367} into a buffer of
the registry's frame capacity, prints the wire bytes, feeds them one at a time
into a fresh parser and unpacks the resulting message by its id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(out io.Writer) error {
	reg := messages.Registry
	buffer := make([]byte, reg.FrameCapacity())

	msg := messages.SecondMessage{ID: 42, Data1: 245.62, Data2: 63.367}
	n, err := reg.Encode(buffer, msg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Registry: %d types, max payload %d bytes, frame capacity %d bytes\n",
		reg.Len(), reg.MaxPayloadSize(), reg.FrameCapacity())
	fmt.Fprintf(out, "Encoded %d bytes: %s\n\n", n, serialfactory.FormatHex(buffer[:n]))

	parser := serialfactory.NewParser(reg)
	for i := 0; i < n; i++ {
		generic := parser.Feed(buffer[i])
		if generic == nil {
			continue
		}

		fmt.Fprintln(out, "Got a message!")
		switch generic.ID() {
		case serialfactory.MustID[messages.FirstMessage](reg):
			fm, err := serialfactory.Unpack[messages.FirstMessage](reg, generic)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Type is FirstMessage\nflag: %v, data: %d\n", fm.Flag, fm.Data)
		case serialfactory.MustID[messages.SecondMessage](reg):
			sm, err := serialfactory.Unpack[messages.SecondMessage](reg, generic)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Type is SecondMessage\nid: %d, data1: %g, data2: %g\n", sm.ID, sm.Data1, sm.Data2)
		case serialfactory.MustID[messages.ThirdMessage](reg):
			tm, err := serialfactory.Unpack[messages.ThirdMessage](reg, generic)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Type is ThirdMessage\nid: %d, data: %d\n", tm.ID, tm.Data)
		default:
			fmt.Fprintf(out, "Type is %s\n", reg.Name(generic.ID()))
		}
	}

	return nil
}
