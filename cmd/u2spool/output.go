package main

import (
	"encoding/json"
	"io"

	"github.com/seedtray/unified2"
)

type eventLine struct {
	*unified2.Event
	PacketLayers [][]string `json:"packet-layers,omitempty"`
}

type recordLine struct {
	Kind   string          `json:"kind"`
	Type   uint32          `json:"type"`
	Record unified2.Record `json:"record"`
}

type printer struct {
	enc     *json.Encoder
	packets bool
}

func newPrinter(w io.Writer, packets bool) *printer {
	return &printer{enc: json.NewEncoder(w), packets: packets}
}

func (p *printer) event(e *unified2.Event) error {
	line := eventLine{Event: e}
	if p.packets {
		for _, pkt := range e.Packets {
			line.PacketLayers = append(line.PacketLayers, pkt.LayerTypes())
		}
	}
	return p.enc.Encode(line)
}

func (p *printer) record(rec unified2.Record) error {
	return p.enc.Encode(recordLine{
		Kind:   rec.Kind().String(),
		Type:   rec.RecordType(),
		Record: rec,
	})
}
