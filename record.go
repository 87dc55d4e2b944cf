// Package unified2 reads unified2 log files written by Snort and Suricata.
//
// It decodes the length-prefixed binary records, folds them into events
// (an event record followed by its packet and extra data records) and
// follows a spool directory of rotating log files with a resumable cursor.
package unified2

import "net"

// Record type codes.
const (
	TypePacket     uint32 = 2
	TypeEvent      uint32 = 7
	TypeEventIP6   uint32 = 72
	TypeEventV2    uint32 = 104
	TypeEventIP6V2 uint32 = 105
	TypeExtraData  uint32 = 110
)

// HeaderLen is the size of the header preceding every record.
const HeaderLen = 8

// RecordHeader precedes every record payload.
type RecordHeader struct {
	Type   uint32
	Length uint32
}

// Kind tags the variant held by a Record.
type Kind int

const (
	KindUnknown Kind = iota
	KindEvent
	KindPacket
	KindExtraData
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindPacket:
		return "packet"
	case KindExtraData:
		return "extra-data"
	default:
		return "unknown"
	}
}

// Record is one decoded unified2 record: *Event, *Packet, *ExtraData or
// *Unknown. Switch on Kind to tell them apart.
type Record interface {
	Kind() Kind
	RecordType() uint32
}

// Event is an alert. The address width depends on the record type, and
// MplsLabel/VlanID are only set for v2 records.
type Event struct {
	Type              uint32  `json:"type"`
	SensorID          uint32  `json:"sensor-id"`
	EventID           uint32  `json:"event-id"`
	EventSecond       uint32  `json:"event-second"`
	EventMicrosecond  uint32  `json:"event-microsecond"`
	SignatureID       uint32  `json:"signature-id"`
	GeneratorID       uint32  `json:"generator-id"`
	SignatureRevision uint32  `json:"signature-revision"`
	ClassificationID  uint32  `json:"classification-id"`
	Priority          uint32  `json:"priority"`
	IPSource          net.IP  `json:"source-ip"`
	IPDestination     net.IP  `json:"destination-ip"`
	SportItype        uint16  `json:"sport-itype"`
	DportIcode        uint16  `json:"dport-icode"`
	Protocol          uint8   `json:"protocol"`
	ImpactFlag        uint8   `json:"impact-flag"`
	Impact            uint8   `json:"impact"`
	Blocked           uint8   `json:"blocked"`
	MplsLabel         *uint32 `json:"mpls-label"`
	VlanID            *uint16 `json:"vlan-id"`

	Packets   []*Packet    `json:"packets"`
	ExtraData []*ExtraData `json:"extra-data"`
}

func (e *Event) Kind() Kind         { return KindEvent }
func (e *Event) RecordType() uint32 { return e.Type }

// Packet is a captured packet belonging to the event with the same
// sensor id, event id and event second.
type Packet struct {
	SensorID          uint32 `json:"sensor-id"`
	EventID           uint32 `json:"event-id"`
	EventSecond       uint32 `json:"event-second"`
	PacketSecond      uint32 `json:"packet-second"`
	PacketMicrosecond uint32 `json:"packet-microsecond"`
	LinkType          uint32 `json:"linktype"`
	Length            uint32 `json:"length"`
	Data              []byte `json:"data"`
}

func (p *Packet) Kind() Kind         { return KindPacket }
func (p *Packet) RecordType() uint32 { return TypePacket }

// ExtraData carries supplementary data for an event, such as the
// original client IP of a proxied connection.
type ExtraData struct {
	EventType   uint32 `json:"event-type"`
	EventLength uint32 `json:"event-length"`
	SensorID    uint32 `json:"sensor-id"`
	EventID     uint32 `json:"event-id"`
	EventSecond uint32 `json:"event-second"`
	Type        uint32 `json:"type"`
	DataType    uint32 `json:"data-type"`
	DataLength  uint32 `json:"data-length"`
	Data        []byte `json:"data"`
}

func (x *ExtraData) Kind() Kind         { return KindExtraData }
func (x *ExtraData) RecordType() uint32 { return TypeExtraData }

// Unknown holds a record of an unrecognised type verbatim.
type Unknown struct {
	Type uint32 `json:"type"`
	Data []byte `json:"data"`
}

func (u *Unknown) Kind() Kind         { return KindUnknown }
func (u *Unknown) RecordType() uint32 { return u.Type }
