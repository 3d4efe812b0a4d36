// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDemo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDemo(&out))

	s := out.String()
	assert.Contains(t, s, "Registry: 4 types, max payload 20 bytes, frame capacity 24 bytes")
	assert.Contains(t, s, "Encoded 24 bytes: BD 01 14 2A 00 00 00")
	assert.Contains(t, s, "Got a message!\nType is SecondMessage\nid: 42, data1: 245.62, data2: 63.367\n")
}
