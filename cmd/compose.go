// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"

	"github.com/Thermoquad/serialfactory/pkg/messages"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Interactive TUI for composing and sending messages",
	Long: `Compose messages of any registered type and send them interactively.

The left panel lists the registered message types. Selecting one (Enter)
opens a form with one input per payload field. Tab moves between the type
list, the fields and the Send button. Frames received on the connection are
decoded and shown in the event log while you work.

Supports both serial and WebSocket connections.`,
	RunE: runCompose,
}

func init() {
	rootCmd.AddCommand(composeCmd)
}

func runCompose(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	reg := messages.Registry
	p := tea.NewProgram(initialComposeModel(reg, conn, connInfo), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := readFrames(ctx, conn, reg, func(batch frameBatch) bool {
			p.Send(composeFramesMsg(batch))
			return true
		})
		if err != nil {
			logger.Debug("compose reader stopped", zap.Error(err))
			p.Send(connErrMsg{err: err})
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
