// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// serialfactory - typed message framing over serial and WebSocket links
//
// A CLI tool for sending, monitoring and recording frames built from a
// registry of fixed-layout message types.

package main

import (
	"os"

	"github.com/Thermoquad/serialfactory/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
