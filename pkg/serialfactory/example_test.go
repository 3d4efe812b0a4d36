// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialfactory_test

import (
	"encoding/binary"
	"fmt"

	"github.com/Thermoquad/serialfactory/pkg/serialfactory"
)

type Heartbeat struct {
	Uptime uint32
}

type Reading struct {
	Channel uint8
	Value   float32
}

var registry = serialfactory.MustRegistry(binary.LittleEndian, Heartbeat{}, Reading{})

func Example() {
	buf := make([]byte, registry.FrameCapacity())
	n, err := registry.Encode(buf, Reading{Channel: 2, Value: 21.5})
	if err != nil {
		panic(err)
	}
	fmt.Println(serialfactory.FormatHex(buf[:n]))

	parser := serialfactory.NewParser(registry)
	for _, b := range buf[:n] {
		msg := parser.Feed(b)
		if msg == nil {
			continue
		}
		switch msg.ID() {
		case serialfactory.MustID[Heartbeat](registry):
			hb, _ := serialfactory.Unpack[Heartbeat](registry, msg)
			fmt.Println("uptime", hb.Uptime)
		case serialfactory.MustID[Reading](registry):
			rd, _ := serialfactory.Unpack[Reading](registry, msg)
			fmt.Println("channel", rd.Channel, "value", rd.Value)
		}
	}
	// Output:
	// BD 01 05 02 00 00 AC 41 93
	// channel 2 value 21.5
}
