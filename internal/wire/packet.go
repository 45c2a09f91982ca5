package wire

import "netdoom/internal/protocol"

// WriteProtocolTag writes the single protocol name string this
// implementation understands.
func (b *Buffer) WriteProtocolTag() {
	b.WriteString(protocol.ProtocolName)
}

// ReadProtocolTag reads a protocol name and maps it to a Protocol
// value; anything other than the one known tag decodes as Unknown and
// must be rejected by the caller.
func (b *Buffer) ReadProtocolTag() (protocol.Protocol, error) {
	name, err := b.ReadString()
	if err != nil {
		return protocol.ProtocolUnknown, err
	}
	if name == protocol.ProtocolName {
		return protocol.ProtocolChocolateDoom0, nil
	}
	return protocol.ProtocolUnknown, nil
}

// WriteProtocolList writes the Syn handshake's protocol-count-plus-names
// list. This implementation only ever offers the one protocol it speaks.
func (b *Buffer) WriteProtocolList() {
	b.WriteU8(1)
	b.WriteProtocolTag()
}

// NegotiateProtocol reads a protocol-count-plus-names list (as sent by
// a Syn reply) and reports whether the common protocol was found.
func (b *Buffer) NegotiateProtocol() (protocol.Protocol, bool) {
	count, err := b.ReadU8()
	if err != nil {
		return protocol.ProtocolUnknown, false
	}
	for i := uint8(0); i < count; i++ {
		p, err := b.ReadProtocolTag()
		if err != nil {
			return protocol.ProtocolUnknown, false
		}
		if p == protocol.ProtocolChocolateDoom0 {
			return p, true
		}
	}
	return protocol.ProtocolUnknown, false
}

// Header is a decoded packet frame header: the type code and, for
// reliable frames, the sequence number carried in the byte immediately
// following the type.
type Header struct {
	Type      protocol.PacketType
	Reliable  bool
	ReliableSeq uint8
}

// WriteHeader writes a packet type, optionally tagging it reliable
// with the given sequence number.
func (b *Buffer) WriteHeader(t protocol.PacketType, reliable bool, seq uint8) {
	code := uint16(t)
	if reliable {
		code |= protocol.NetReliablePacket
	}
	b.WriteU16(code)
	if reliable {
		b.WriteU8(seq)
	}
}

// ReadHeader reads a packet frame header. It returns ok=false (with no
// error) for an unrecognized type code: unknown types are logged and
// dropped by the caller, not treated as a decode error.
func (b *Buffer) ReadHeader() (Header, bool, error) {
	raw, err := b.ReadU16()
	if err != nil {
		return Header{}, false, err
	}
	reliable := raw&protocol.NetReliablePacket != 0
	code := raw &^ protocol.NetReliablePacket
	t, ok := protocol.ValidPacketType(code)
	if !ok {
		return Header{Type: t, Reliable: reliable}, false, nil
	}
	h := Header{Type: t, Reliable: reliable}
	if reliable {
		seq, err := b.ReadU8()
		if err != nil {
			return Header{}, false, err
		}
		h.ReliableSeq = seq
	}
	return h, true, nil
}
