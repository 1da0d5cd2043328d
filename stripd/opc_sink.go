package main

import (
	opc "github.com/kellydunn/go-opc"
)

// ---------- Open Pixel Control Sink -------------

// OPCSink drives the actual LEDs through a fadecandy or any other Open
// Pixel Control server. It satisfies pixelstrip.FrameSink.
type OPCSink struct {
	client  *opc.Client
	channel uint8
}

func NewOPCSink(server string) (*OPCSink, error) {
	oc := opc.NewClient()
	if err := oc.Connect("tcp", server); err != nil {
		return nil, err
	}
	return &OPCSink{client: oc, channel: 0}, nil
}

func (s *OPCSink) Show(pixels []uint32) error {
	m := opc.NewMessage(s.channel)
	m.SetLength(uint16(len(pixels) * 3))
	for i, c := range pixels {
		m.SetPixelColor(i, uint8(c>>16&0xFF), uint8(c>>8&0xFF), uint8(c&0xFF))
	}
	return s.client.Send(m)
}
