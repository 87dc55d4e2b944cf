package unified2

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Decode parses the captured bytes according to the packet's link type.
// Layers are decoded lazily and Data is not copied. Link types gopacket
// cannot represent are decoded as plain payload.
func (p *Packet) Decode() gopacket.Packet {
	var dec gopacket.Decoder = gopacket.DecodePayload
	if p.LinkType <= 0xff {
		dec = layers.LinkType(p.LinkType)
	}
	return gopacket.NewPacket(p.Data, dec, gopacket.DecodeOptions{
		Lazy:   true,
		NoCopy: true,
	})
}

// LayerTypes lists the layers found in the captured bytes, outermost first.
func (p *Packet) LayerTypes() []string {
	var names []string
	for _, layer := range p.Decode().Layers() {
		names = append(names, layer.LayerType().String())
	}
	return names
}
