// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package messages defines the demonstration message set shared by the
// serialfactory CLI and the device firmware it talks to.
package messages

import (
	"encoding/binary"
	"sort"

	"github.com/Thermoquad/serialfactory/pkg/serialfactory"
)

// FirstMessage carries a flag and a 16-bit value (3 bytes)
type FirstMessage struct {
	Flag bool
	Data uint16
}

// SecondMessage carries an id and two doubles (20 bytes)
type SecondMessage struct {
	ID    uint32
	Data1 float64
	Data2 float64
}

// ThirdMessage carries an id and a 32-bit value (8 bytes)
type ThirdMessage struct {
	ID   uint32
	Data uint32
}

// Ping has an empty payload. Devices echo it back.
type Ping struct{}

// Registry is the message registry. Ids follow declaration order and must
// match the firmware, so only append.
var Registry = serialfactory.MustRegistry(binary.LittleEndian,
	FirstMessage{},
	SecondMessage{},
	ThirdMessage{},
	Ping{},
)

// Lookup returns the zero value of the message type with the given name
func Lookup(name string) (any, bool) {
	for id := 0; id < Registry.Len(); id++ {
		if Registry.Name(uint8(id)) == name {
			v, err := Registry.New(uint8(id))
			return v, err == nil
		}
	}
	return nil, false
}

// Names returns the registered type names, sorted
func Names() []string {
	names := make([]string, 0, Registry.Len())
	for id := 0; id < Registry.Len(); id++ {
		names = append(names, Registry.Name(uint8(id)))
	}
	sort.Strings(names)
	return names
}
