package unified2

import (
	"bytes"
	"encoding/binary"
	"net"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

func put(b *bytes.Buffer, values ...interface{}) {
	for _, v := range values {
		if err := binary.Write(b, binary.BigEndian, v); err != nil {
			panic(err)
		}
	}
}

func frame(recordType uint32, payload []byte) []byte {
	var b bytes.Buffer
	put(&b, recordType, uint32(len(payload)))
	b.Write(payload)
	return b.Bytes()
}

func encodeEvent(e *Event) []byte {
	var b bytes.Buffer
	put(&b, e.SensorID, e.EventID, e.EventSecond, e.EventMicrosecond, e.SignatureID,
		e.GeneratorID, e.SignatureRevision, e.ClassificationID, e.Priority)
	b.Write(e.IPSource)
	b.Write(e.IPDestination)
	put(&b, e.SportItype, e.DportIcode, e.Protocol, e.ImpactFlag, e.Impact, e.Blocked)
	if e.Type == TypeEventV2 || e.Type == TypeEventIP6V2 {
		put(&b, *e.MplsLabel, *e.VlanID, uint16(0))
	}
	return frame(e.Type, b.Bytes())
}

func encodePacket(p *Packet) []byte {
	var b bytes.Buffer
	put(&b, p.SensorID, p.EventID, p.EventSecond, p.PacketSecond, p.PacketMicrosecond, p.LinkType, p.Length)
	b.Write(p.Data)
	return frame(TypePacket, b.Bytes())
}

func encodeExtraData(x *ExtraData) []byte {
	var b bytes.Buffer
	put(&b, x.EventType, x.EventLength, x.SensorID, x.EventID, x.EventSecond, x.Type, x.DataType, x.DataLength)
	b.Write(x.Data)
	return frame(TypeExtraData, b.Bytes())
}

func encode(records ...Record) []byte {
	var b bytes.Buffer
	for _, rec := range records {
		switch rec.Kind() {
		case KindEvent:
			b.Write(encodeEvent(rec.(*Event)))
		case KindPacket:
			b.Write(encodePacket(rec.(*Packet)))
		case KindExtraData:
			b.Write(encodeExtraData(rec.(*ExtraData)))
		default:
			u := rec.(*Unknown)
			b.Write(frame(u.Type, u.Data))
		}
	}
	return b.Bytes()
}

func newEvent(eventID uint32) *Event {
	return &Event{
		Type:              TypeEvent,
		SensorID:          1,
		EventID:           eventID,
		EventSecond:       1500000000 + eventID,
		EventMicrosecond:  250000,
		SignatureID:       2100498,
		GeneratorID:       1,
		SignatureRevision: 7,
		ClassificationID:  3,
		Priority:          2,
		IPSource:          net.IP{10, 0, 0, 1},
		IPDestination:     net.IP{192, 168, 1, 20},
		SportItype:        41000,
		DportIcode:        80,
		Protocol:          6,
		ImpactFlag:        0,
		Impact:            0,
		Blocked:           0,
		Packets:           []*Packet{},
		ExtraData:         []*ExtraData{},
	}
}

func newPacket(eventID uint32, data string) *Packet {
	return &Packet{
		SensorID:          1,
		EventID:           eventID,
		EventSecond:       1500000000 + eventID,
		PacketSecond:      1500000000 + eventID,
		PacketMicrosecond: 250001,
		LinkType:          1,
		Length:            uint32(len(data)),
		Data:              []byte(data),
	}
}

func newExtraData(eventID uint32, data string) *ExtraData {
	return &ExtraData{
		EventType:   4,
		EventLength: uint32(32 + len(data)),
		SensorID:    1,
		EventID:     eventID,
		EventSecond: 1500000000 + eventID,
		Type:        1,
		DataType:    1,
		DataLength:  uint32(len(data)),
		Data:        []byte(data),
	}
}

func writeFile(fs afero.Fs, name string, data []byte) {
	if err := afero.WriteFile(fs, name, data, 0o644); err != nil {
		panic(err)
	}
}

func appendFile(fs afero.Fs, name string, data []byte) {
	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		panic(err)
	}
}

func newSpoolFs(files map[string][]byte) afero.Fs {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/spool", 0o755); err != nil {
		panic(err)
	}
	for name, data := range files {
		writeFile(fs, filepath.Join("/spool", name), data)
	}
	return fs
}
