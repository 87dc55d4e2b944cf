package unified2

import (
	"fmt"
	"net"
)

func eventFields(addrLen int) []field[Event] {
	return []field[Event]{
		u32("sensor-id", func(e *Event, v uint32) { e.SensorID = v }),
		u32("event-id", func(e *Event, v uint32) { e.EventID = v }),
		u32("event-second", func(e *Event, v uint32) { e.EventSecond = v }),
		u32("event-microsecond", func(e *Event, v uint32) { e.EventMicrosecond = v }),
		u32("signature-id", func(e *Event, v uint32) { e.SignatureID = v }),
		u32("generator-id", func(e *Event, v uint32) { e.GeneratorID = v }),
		u32("signature-revision", func(e *Event, v uint32) { e.SignatureRevision = v }),
		u32("classification-id", func(e *Event, v uint32) { e.ClassificationID = v }),
		u32("priority", func(e *Event, v uint32) { e.Priority = v }),
		fixedBytes("ip-source", addrLen, func(e *Event, b []byte) { e.IPSource = net.IP(b) }),
		fixedBytes("ip-destination", addrLen, func(e *Event, b []byte) { e.IPDestination = net.IP(b) }),
		u16("sport-itype", func(e *Event, v uint16) { e.SportItype = v }),
		u16("dport-icode", func(e *Event, v uint16) { e.DportIcode = v }),
		u8("protocol", func(e *Event, v uint8) { e.Protocol = v }),
		u8("impact-flag", func(e *Event, v uint8) { e.ImpactFlag = v }),
		u8("impact", func(e *Event, v uint8) { e.Impact = v }),
		u8("blocked", func(e *Event, v uint8) { e.Blocked = v }),
	}
}

func eventV2Fields(addrLen int) []field[Event] {
	return append(eventFields(addrLen),
		u32("mpls-label", func(e *Event, v uint32) { e.MplsLabel = &v }),
		u16("vlan-id", func(e *Event, v uint16) { e.VlanID = &v }),
		padding[Event]("pad2", 2),
	)
}

var packetFields = []field[Packet]{
	u32("sensor-id", func(p *Packet, v uint32) { p.SensorID = v }),
	u32("event-id", func(p *Packet, v uint32) { p.EventID = v }),
	u32("event-second", func(p *Packet, v uint32) { p.EventSecond = v }),
	u32("packet-second", func(p *Packet, v uint32) { p.PacketSecond = v }),
	u32("packet-microsecond", func(p *Packet, v uint32) { p.PacketMicrosecond = v }),
	u32("linktype", func(p *Packet, v uint32) { p.LinkType = v }),
	u32("length", func(p *Packet, v uint32) { p.Length = v }),
	trailing("data", func(p *Packet, b []byte) { p.Data = b }),
}

var extraDataFields = []field[ExtraData]{
	u32("event-type", func(x *ExtraData, v uint32) { x.EventType = v }),
	u32("event-length", func(x *ExtraData, v uint32) { x.EventLength = v }),
	u32("sensor-id", func(x *ExtraData, v uint32) { x.SensorID = v }),
	u32("event-id", func(x *ExtraData, v uint32) { x.EventID = v }),
	u32("event-second", func(x *ExtraData, v uint32) { x.EventSecond = v }),
	u32("type", func(x *ExtraData, v uint32) { x.Type = v }),
	u32("data-type", func(x *ExtraData, v uint32) { x.DataType = v }),
	u32("data-length", func(x *ExtraData, v uint32) { x.DataLength = v }),
	trailing("data", func(x *ExtraData, b []byte) { x.Data = b }),
}

type decoder func(buf []byte) (Record, error)

// decoders is keyed by record type. Layouts are built once here.
var decoders = map[uint32]decoder{
	TypeEvent:      eventDecoder(TypeEvent, newLayout(eventFields(net.IPv4len))),
	TypeEventIP6:   eventDecoder(TypeEventIP6, newLayout(eventFields(net.IPv6len))),
	TypeEventV2:    eventDecoder(TypeEventV2, newLayout(eventV2Fields(net.IPv4len))),
	TypeEventIP6V2: eventDecoder(TypeEventIP6V2, newLayout(eventV2Fields(net.IPv6len))),
	TypePacket:     packetDecoder(newLayout(packetFields)),
	TypeExtraData:  extraDataDecoder(newLayout(extraDataFields)),
}

func eventDecoder(recordType uint32, l *layout[Event]) decoder {
	return func(buf []byte) (Record, error) {
		e := &Event{Type: recordType, Packets: []*Packet{}, ExtraData: []*ExtraData{}}
		if err := l.unpack(buf, e); err != nil {
			return nil, err
		}
		return e, nil
	}
}

func packetDecoder(l *layout[Packet]) decoder {
	return func(buf []byte) (Record, error) {
		p := &Packet{}
		if err := l.unpack(buf, p); err != nil {
			return nil, err
		}
		return p, nil
	}
}

func extraDataDecoder(l *layout[ExtraData]) decoder {
	return func(buf []byte) (Record, error) {
		x := &ExtraData{}
		if err := l.unpack(buf, x); err != nil {
			return nil, err
		}
		return x, nil
	}
}

// Decode turns a record payload into a typed Record. Unrecognised types
// come back as *Unknown, never as an error. The returned record references
// buf, so buf must not be reused by the caller.
func Decode(recordType uint32, buf []byte) (Record, error) {
	dec, found := decoders[recordType]
	if !found {
		return &Unknown{Type: recordType, Data: buf}, nil
	}
	rec, err := dec(buf)
	if err != nil {
		return nil, fmt.Errorf("record type %d: %w", recordType, err)
	}
	return rec, nil
}
