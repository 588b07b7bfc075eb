package fingerprint

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"

	kioskerrors "github.com/Burrun/Arduino/internal/errors"
	"github.com/Burrun/Arduino/internal/poll"
)

const (
	// DefaultWidth and DefaultHeight are the raster dimensions of the AS608
	// family image buffer.
	DefaultWidth  = 256
	DefaultHeight = 288

	defaultHandshakeTimeout = 2 * time.Second

	// fingerPollInterval paces the finger-present poll, roughly five
	// attempts per second.
	fingerPollInterval = 200 * time.Millisecond

	// transferReadTimeout replaces the regular read timeout while the image
	// streams; a full raster at 57600 baud takes several seconds.
	transferReadTimeout = 15 * time.Second
)

// Sensor drives the fingerprint reader. A single mutex serializes captures:
// there is one physical sensor and the serial port is exclusively owned for
// the duration of a capture call.
type Sensor struct {
	defaultPort string
	baud        int
	width       int
	height      int

	open Opener
	list Lister

	mu sync.Mutex
}

// Option configures a Sensor.
type Option func(*Sensor)

// WithOpener replaces the serial port opener (tests).
func WithOpener(open Opener) Option {
	return func(s *Sensor) { s.open = open }
}

// WithLister replaces the host port enumerator (tests).
func WithLister(list Lister) Option {
	return func(s *Sensor) { s.list = list }
}

// WithImageSize overrides the sensor raster dimensions.
func WithImageSize(width, height int) Option {
	return func(s *Sensor) {
		s.width = width
		s.height = height
	}
}

// New returns a Sensor that connects to defaultPort at baud unless a capture
// call overrides them.
func New(defaultPort string, baud int, opts ...Option) *Sensor {
	s := &Sensor{
		defaultPort: defaultPort,
		baud:        baud,
		width:       DefaultWidth,
		height:      DefaultHeight,
		open:        openSerialPort,
		list:        serial.GetPortsList,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Conn is an open, handshaken link to the sensor. It owns the serial port
// until Close.
type Conn struct {
	port        Port
	name        string
	readTimeout time.Duration
	width       int
	height      int
}

// Connect opens the first candidate serial port that opens successfully and
// performs the password handshake on it. port, baud and timeout override the
// configured defaults when non-zero.
func (s *Sensor) Connect(port string, baud int, timeout time.Duration) (*Conn, error) {
	if baud == 0 {
		baud = s.baud
	}
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}

	detected, err := s.list()
	if err != nil {
		log.Warn().Err(err).Msg("could not enumerate serial ports")
	}

	opened, name, err := firstOpen(candidatePorts(port, s.defaultPort, detected), baud, s.open)
	if err != nil {
		return nil, err
	}
	if port != "" && name != port {
		log.Info().Str("requested", port).Str("using", name).Msg("fingerprint port fallback")
	}

	conn := &Conn{port: opened, name: name, readTimeout: timeout, width: s.width, height: s.height}
	if err := conn.handshake(); err != nil {
		_ = opened.Close()
		return nil, err
	}
	return conn, nil
}

// Scan runs one whole capture: connect, wait for a finger, download the
// image, normalize it. The mutex is held throughout so the port handle has
// exactly one owner, and the port is released on every exit path.
func (s *Sensor) Scan(port string, timeout time.Duration) (*Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.Connect(port, 0, 0)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Msg("could not close fingerprint port")
		}
	}()

	return conn.CaptureImage(timeout)
}

// Available reports whether a sensor currently answers the handshake.
func (s *Sensor) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.Connect("", 0, 0)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// PortName is the device path the connection ended up on.
func (c *Conn) PortName() string {
	return c.name
}

// Close releases the serial port.
func (c *Conn) Close() error {
	return c.port.Close()
}

func (c *Conn) handshake() error {
	if err := c.port.SetReadTimeout(c.readTimeout); err != nil {
		return errors.Wrap(err, "[handshake] set read timeout")
	}
	resp, err := c.roundTrip(VerifyPasswordFrame())
	if err != nil {
		return errors.Wrapf(kioskerrors.ErrHandshakeFailed, "%s: %v", c.name, err)
	}
	code, ok := resp.Confirmation()
	if !ok {
		return errors.Wrapf(kioskerrors.ErrHandshakeFailed, "%s: unexpected packet id 0x%02X", c.name, byte(resp.ID))
	}
	if code != ConfirmOK {
		return errors.Wrapf(kioskerrors.ErrHandshakeFailed, "%s: confirmation 0x%02X", c.name, byte(code))
	}
	return nil
}

// roundTrip writes a command frame and reads the sensor's reply.
func (c *Conn) roundTrip(f Frame) (Frame, error) {
	if _, err := f.WriteTo(c.port); err != nil {
		return Frame{}, err
	}
	return ReadFrame(c.port)
}

// CaptureImage polls the sensor until a finger is captured or timeout
// elapses, then downloads and normalizes the image. "No finger" and "image
// fail" confirmations keep the poll going; any other non-OK confirmation is
// terminal. The poll deliberately ignores caller cancellation: hardware
// operations run to their own deadline.
func (c *Conn) CaptureImage(timeout time.Duration) (*Image, error) {
	err := poll.Until(context.Background(), fingerPollInterval, timeout, func() (bool, error) {
		resp, err := c.roundTrip(NewCommand(CmdGenImg))
		if err != nil {
			return false, errors.Wrapf(kioskerrors.ErrCaptureFailed, "GenImg: %v", err)
		}
		code, ok := resp.Confirmation()
		if !ok {
			return false, errors.Wrapf(kioskerrors.ErrCaptureFailed, "GenImg: unexpected packet id 0x%02X", byte(resp.ID))
		}
		switch code {
		case ConfirmOK:
			return true, nil
		case ConfirmNoFinger, ConfirmImageFail:
			return false, nil
		default:
			return false, errors.Wrapf(kioskerrors.ErrCaptureFailed, "GenImg: confirmation 0x%02X", byte(code))
		}
	})
	if kioskerrors.Is(err, poll.ErrDeadlineExceeded) {
		return nil, errors.Wrapf(kioskerrors.ErrCaptureTimeout, "no finger within %s", timeout)
	}
	if err != nil {
		return nil, err
	}

	raw, err := c.downloadImage()
	if err != nil {
		return nil, err
	}
	return NewImage(c.width, c.height, raw), nil
}

// downloadImage requests the image buffer and concatenates the data packets
// until the end-of-data packet. The read timeout is raised for the duration
// of the transfer and restored on every path.
func (c *Conn) downloadImage() ([]byte, error) {
	if err := c.port.SetReadTimeout(transferReadTimeout); err != nil {
		return nil, errors.Wrap(err, "[downloadImage] raise read timeout")
	}
	defer func() {
		if err := c.port.SetReadTimeout(c.readTimeout); err != nil {
			log.Warn().Err(err).Msg("could not restore serial read timeout")
		}
	}()

	resp, err := c.roundTrip(NewCommand(CmdUpImage))
	if err != nil {
		return nil, errors.Wrapf(kioskerrors.ErrTransferFailed, "UpImage: %v", err)
	}
	code, ok := resp.Confirmation()
	if !ok {
		return nil, errors.Wrapf(kioskerrors.ErrTransferFailed, "UpImage: unexpected packet id 0x%02X", byte(resp.ID))
	}
	if code != ConfirmOK {
		return nil, errors.Wrapf(kioskerrors.ErrTransferFailed, "UpImage: confirmation 0x%02X", byte(code))
	}

	var raw []byte
	for {
		frame, err := ReadFrame(c.port)
		if err != nil {
			return nil, errors.Wrapf(kioskerrors.ErrTransferFailed, "data stream: %v", err)
		}
		switch frame.ID {
		case PacketData:
			raw = append(raw, frame.Payload...)
		case PacketEndOfData:
			raw = append(raw, frame.Payload...)
			if len(raw) == 0 {
				return nil, errors.Wrap(kioskerrors.ErrTransferFailed, "sensor returned no image data")
			}
			return raw, nil
		default:
			return nil, errors.Wrapf(kioskerrors.ErrTransferFailed, "unexpected packet id 0x%02X in data stream", byte(frame.ID))
		}
	}
}
