// Package ledserial implements the serial protocol between the host daemon and
// the strip bridge device.
//
// Every packet is a type byte, a payload and a little-endian CRC-32 (IEEE) of
// the type byte and payload. Incoming packets flow from the host to the
// device; outgoing packets flow from the device to the host.
package ledserial

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// Endianness defines the endianness of the protocol.
var Endianness = binary.LittleEndian

// IncomingPacketType is a type of packet.
type IncomingPacketType uint8

const (
	TypeInitializePacket IncomingPacketType = iota
	TypeClearPacket
	TypeSetPacket
	TypeFeedPacket
)

// String returns a string representation of the packet type.
func (t IncomingPacketType) String() string {
	switch t {
	case TypeInitializePacket:
		return "initialize"
	case TypeClearPacket:
		return "clear"
	case TypeSetPacket:
		return "set"
	case TypeFeedPacket:
		return "feed"
	default:
		return fmt.Sprintf("IncomingPacketType(%d)", t)
	}
}

// IncomingPacket is a packet sent from the host to the device.
type IncomingPacket interface {
	// Type returns the type of packet.
	Type() IncomingPacketType
}

// InitializePacket is a packet that initializes the LED strip.
type InitializePacket struct {
	NumLEDs uint16
}

// ClearPacket is a packet that clears the LED strip.
type ClearPacket struct{}

// SetPacket is a packet that sets the LED strip to the given colors.
type SetPacket struct {
	Pix []uint8
}

// FeedPacket is a packet that feeds the device's hardware watchdog.
type FeedPacket struct{}

func (p InitializePacket) Type() IncomingPacketType { return TypeInitializePacket }
func (p ClearPacket) Type() IncomingPacketType      { return TypeClearPacket }
func (p SetPacket) Type() IncomingPacketType        { return TypeSetPacket }
func (p FeedPacket) Type() IncomingPacketType       { return TypeFeedPacket }

// OutgoingPacketType is a type of packet.
type OutgoingPacketType uint8

const (
	TypeErrorPacket OutgoingPacketType = iota
	TypePanicPacket
	TypeLogPacket
	TypeAckPacket
	TypeIRPacket
	TypeTemperaturePacket
)

// String returns a string representation of the packet type.
func (t OutgoingPacketType) String() string {
	switch t {
	case TypeErrorPacket:
		return "error"
	case TypePanicPacket:
		return "panic"
	case TypeLogPacket:
		return "log"
	case TypeAckPacket:
		return "ack"
	case TypeIRPacket:
		return "ir"
	case TypeTemperaturePacket:
		return "temperature"
	default:
		return fmt.Sprintf("OutgoingPacketType(%d)", t)
	}
}

// OutgoingPacket is a packet sent from the device to the host.
type OutgoingPacket interface {
	// Type returns the type of packet.
	Type() OutgoingPacketType
}

// ErrorPacket is a packet that indicates an error occurred.
type ErrorPacket struct {
	Message string
}

// PanicPacket is a packet that indicates the program cannot recover.
type PanicPacket struct {
	Message string
}

// LogPacket is a packet that contains a log message.
type LogPacket struct {
	Message string
}

// AckPacket acknowledges that an incoming packet was handled.
type AckPacket struct {
	IncomingPacketType IncomingPacketType
}

// IRPacket carries a fully decoded IR remote frame.
type IRPacket struct {
	Address uint16
	Command uint8
	Repeat  bool
}

// TemperaturePacket carries a raw temperature sample.
type TemperaturePacket struct {
	Raw uint16
}

func (p ErrorPacket) Type() OutgoingPacketType       { return TypeErrorPacket }
func (p PanicPacket) Type() OutgoingPacketType       { return TypePanicPacket }
func (p LogPacket) Type() OutgoingPacketType         { return TypeLogPacket }
func (p AckPacket) Type() OutgoingPacketType         { return TypeAckPacket }
func (p IRPacket) Type() OutgoingPacketType          { return TypeIRPacket }
func (p TemperaturePacket) Type() OutgoingPacketType { return TypeTemperaturePacket }

// ReadContext is the state of the LED strip. Data in this structure are
// required for the device to read incoming packets.
type ReadContext struct {
	// NumLEDs is the number of LEDs in the strip.
	NumLEDs uint16
	// LEDBuffer, if large enough, is reused for the pixels of a SetPacket.
	LEDBuffer []byte
}

// ReadIncomingPacket reads an incoming packet from the given reader.
func ReadIncomingPacket(r io.Reader, context ReadContext) (IncomingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet IncomingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read incoming packet type: %w", err)
	}

	switch ptype := IncomingPacketType(ptypeBuf[0]); ptype {
	case TypeInitializePacket:
		var p InitializePacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read number of LEDs: %w", err)
		}
		packet = p

	case TypeClearPacket:
		packet = ClearPacket{}

	case TypeSetPacket:
		var p SetPacket
		n := 3 * int(context.NumLEDs)
		if len(context.LEDBuffer) >= n {
			p.Pix = context.LEDBuffer[:n]
		} else {
			p.Pix = make([]uint8, n)
		}
		if _, err := io.ReadFull(r, p.Pix); err != nil {
			return nil, fmt.Errorf("failed to read pixel data: %w", err)
		}
		packet = p

	case TypeFeedPacket:
		packet = FeedPacket{}

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := readChecksum(r, hash.Sum32()); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteIncomingPacket writes an incoming packet to the given writer.
func WriteIncomingPacket(w io.Writer, p IncomingPacket) error {
	hash := crc32.NewIEEE()
	mw := io.MultiWriter(w, hash)

	if err := binary.Write(mw, Endianness, p.Type()); err != nil {
		return fmt.Errorf("failed to write packet type: %w", err)
	}

	switch p := p.(type) {
	case InitializePacket:
		if err := binary.Write(mw, Endianness, p); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	case ClearPacket, FeedPacket:
		// no payload
	case SetPacket:
		if _, err := mw.Write(p.Pix); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	return writeChecksum(w, hash.Sum32())
}

// ReadOutgoingPacket reads an outgoing packet from the given reader.
func ReadOutgoingPacket(r io.Reader) (OutgoingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet OutgoingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read outgoing packet type: %w", err)
	}

	switch ptype := OutgoingPacketType(ptypeBuf[0]); ptype {
	case TypeErrorPacket:
		msg, err := readMessage(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read error message: %w", err)
		}
		packet = ErrorPacket{Message: msg}

	case TypePanicPacket:
		msg, err := readMessage(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read panic message: %w", err)
		}
		packet = PanicPacket{Message: msg}

	case TypeLogPacket:
		msg, err := readMessage(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read log message: %w", err)
		}
		packet = LogPacket{Message: msg}

	case TypeAckPacket:
		var buf [1]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("failed to read acked packet type: %w", err)
		}
		packet = AckPacket{IncomingPacketType: IncomingPacketType(buf[0])}

	case TypeIRPacket:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("failed to read IR frame: %w", err)
		}
		packet = IRPacket{
			Address: Endianness.Uint16(buf[0:2]),
			Command: buf[2],
			Repeat:  buf[3] != 0,
		}

	case TypeTemperaturePacket:
		var p TemperaturePacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read temperature: %w", err)
		}
		packet = p

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := readChecksum(r, hash.Sum32()); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteOutgoingPacket writes an outgoing packet to the given writer.
func WriteOutgoingPacket(w io.Writer, p OutgoingPacket) error {
	hash := crc32.NewIEEE()
	mw := io.MultiWriter(w, hash)

	if err := binary.Write(mw, Endianness, p.Type()); err != nil {
		return fmt.Errorf("failed to write packet type: %w", err)
	}

	switch p := p.(type) {
	case ErrorPacket:
		if err := writeMessage(mw, p.Message); err != nil {
			return fmt.Errorf("failed to write error message: %w", err)
		}
	case PanicPacket:
		if err := writeMessage(mw, p.Message); err != nil {
			return fmt.Errorf("failed to write panic message: %w", err)
		}
	case LogPacket:
		if err := writeMessage(mw, p.Message); err != nil {
			return fmt.Errorf("failed to write log message: %w", err)
		}
	case AckPacket:
		if err := binary.Write(mw, Endianness, p.IncomingPacketType); err != nil {
			return fmt.Errorf("failed to write acked packet type: %w", err)
		}
	case IRPacket:
		var buf [4]byte
		Endianness.PutUint16(buf[0:2], p.Address)
		buf[2] = p.Command
		if p.Repeat {
			buf[3] = 1
		}
		if _, err := mw.Write(buf[:]); err != nil {
			return fmt.Errorf("failed to write IR frame: %w", err)
		}
	case TemperaturePacket:
		if err := binary.Write(mw, Endianness, p); err != nil {
			return fmt.Errorf("failed to write temperature: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	return writeChecksum(w, hash.Sum32())
}

func readMessage(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, Endianness, &length); err != nil {
		return "", fmt.Errorf("failed to read length: %w", err)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeMessage(w io.Writer, msg string) error {
	if len(msg) > 0xFFFF {
		msg = msg[:0xFFFF]
	}
	if err := binary.Write(w, Endianness, uint16(len(msg))); err != nil {
		return err
	}
	_, err := io.WriteString(w, msg)
	return err
}

// readChecksum reads the trailing checksum from r and compares it to sum, the
// hash of everything read before it.
func readChecksum(r io.Reader, sum uint32) error {
	var checksum uint32
	if err := binary.Read(r, Endianness, &checksum); err != nil {
		return fmt.Errorf("failed to read packet checksum: %w", err)
	}
	if checksum != sum {
		return fmt.Errorf("packet checksum mismatch")
	}
	return nil
}

func writeChecksum(w io.Writer, sum uint32) error {
	if err := binary.Write(w, Endianness, sum); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}
	return nil
}
