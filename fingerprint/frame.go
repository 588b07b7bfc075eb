// Package fingerprint drives an AS608-family fingerprint sensor over a
// serial port: framed command/response packets, the password handshake, and
// streaming reconstruction of the captured image.
package fingerprint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame layout, offsets in bytes:
//
//	0  2-byte header magic 0xEF01
//	2  4-byte device address
//	6  1-byte packet identifier
//	7  2-byte big-endian length (payload plus the 2 checksum bytes)
//	9  payload (command code plus parameters, or a raw data chunk)
//	9+len(payload)  2-byte big-endian checksum

// PacketID distinguishes the packet kinds the sensor exchanges.
type PacketID byte

const (
	PacketCommand   PacketID = 0x01
	PacketData      PacketID = 0x02
	PacketAck       PacketID = 0x07
	PacketEndOfData PacketID = 0x08
)

// Address identifies a sensor on the shared UART.
type Address [4]byte

// BroadcastAddress is the factory-default device address.
var BroadcastAddress = Address{0xFF, 0xFF, 0xFF, 0xFF}

var headerMagic = [2]byte{0xEF, 0x01}

var (
	ErrBadHeader   = errors.New("fingerprint: response header mismatch")
	ErrBadLength   = errors.New("fingerprint: invalid frame length")
	ErrBadChecksum = errors.New("fingerprint: response checksum mismatch")
	ErrReadTimeout = errors.New("fingerprint: serial read timed out")
)

// Frame is a single framed packet exchanged with the sensor.
type Frame struct {
	Addr    Address
	ID      PacketID
	Payload []byte
}

// NewCommand builds a command frame for the broadcast address. The payload
// is the command code followed by its parameters.
func NewCommand(cmd Command, params ...byte) Frame {
	payload := make([]byte, 0, len(params)+1)
	payload = append(payload, byte(cmd))
	payload = append(payload, params...)
	return Frame{Addr: BroadcastAddress, ID: PacketCommand, Payload: payload}
}

func (f Frame) length() uint16 {
	return uint16(len(f.Payload) + 2)
}

// Checksum sums the packet identifier, the two length bytes and every
// payload byte, truncated to 16 bits.
func (f Frame) Checksum() uint16 {
	length := f.length()
	sum := uint16(f.ID) + length>>8 + length&0xFF
	for _, b := range f.Payload {
		sum += uint16(b)
	}
	return sum
}

// Confirmation returns the confirmation code of an acknowledge frame, or
// false if the frame is not an acknowledge.
func (f Frame) Confirmation() (ConfirmationCode, bool) {
	if f.ID != PacketAck || len(f.Payload) == 0 {
		return 0, false
	}
	return ConfirmationCode(f.Payload[0]), true
}

// WriteTo writes the encoded frame to the port.
func (f Frame) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 0, 11+len(f.Payload))
	buf = append(buf, headerMagic[:]...)
	buf = append(buf, f.Addr[:]...)
	buf = append(buf, byte(f.ID))
	buf = binary.BigEndian.AppendUint16(buf, f.length())
	buf = append(buf, f.Payload...)
	buf = binary.BigEndian.AppendUint16(buf, f.Checksum())
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrame reads one frame from the port and validates its header and
// checksum.
func ReadFrame(r io.Reader) (Frame, error) {
	var prelude [9]byte
	if err := readFull(r, prelude[:]); err != nil {
		return Frame{}, err
	}
	if [2]byte(prelude[0:2]) != headerMagic {
		return Frame{}, fmt.Errorf("%w: % X", ErrBadHeader, prelude[0:2])
	}

	f := Frame{ID: PacketID(prelude[6])}
	copy(f.Addr[:], prelude[2:6])

	length := binary.BigEndian.Uint16(prelude[7:9])
	if length < 2 {
		return Frame{}, fmt.Errorf("%w: declared %d", ErrBadLength, length)
	}

	body := make([]byte, length)
	if err := readFull(r, body); err != nil {
		return Frame{}, err
	}
	f.Payload = body[:length-2]

	received := binary.BigEndian.Uint16(body[length-2:])
	if computed := f.Checksum(); computed != received {
		return Frame{}, fmt.Errorf("%w: computed 0x%04X, received 0x%04X", ErrBadChecksum, computed, received)
	}
	return f, nil
}

// readFull fills buf from the port. go.bug.st/serial reports an elapsed read
// timeout as a zero-length read with a nil error, which io.ReadFull would
// spin on, so it is translated to ErrReadTimeout here.
func readFull(r io.Reader, buf []byte) error {
	for read := 0; read < len(buf); {
		n, err := r.Read(buf[read:])
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrReadTimeout
		}
		read += n
	}
	return nil
}
