package fingerprint

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"go.bug.st/serial"

	kioskerrors "github.com/Burrun/Arduino/internal/errors"
)

// Port is the slice of go.bug.st/serial.Port the adapter needs. Keeping it
// narrow lets tests substitute a scripted port.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Opener opens a serial port at the given baud rate.
type Opener func(name string, baud int) (Port, error)

// Lister reports the serial ports currently present on the host.
type Lister func() ([]string, error)

func openSerialPort(name string, baud int) (Port, error) {
	return serial.Open(name, &serial.Mode{BaudRate: baud})
}

// fallbackPorts are the device paths the sensor commonly shows up on,
// Raspberry Pi UART aliases first.
var fallbackPorts = []string{"/dev/ttyAMA0", "/dev/ttyS0", "/dev/serial0"}

// candidatePorts orders the ports to try: the requested port, the configured
// default, the fixed fallbacks, then whatever the host reports, de-duplicated
// in that order.
func candidatePorts(requested, defaultPort string, detected []string) []string {
	candidates := make([]string, 0, len(fallbackPorts)+len(detected)+2)
	candidates = append(candidates, requested, defaultPort)
	candidates = append(candidates, fallbackPorts...)
	candidates = append(candidates, detected...)
	return lo.Uniq(lo.Compact(candidates))
}

// firstOpen tries each candidate in order and keeps the first port that
// opens. Failures are recorded but do not abort the scan; exhausting the
// list reports every attempted port.
func firstOpen(candidates []string, baud int, open Opener) (Port, string, error) {
	for _, name := range candidates {
		port, err := open(name, baud)
		if err != nil {
			log.Debug().Str("port", name).Err(err).Msg("serial port did not open")
			continue
		}
		return port, name, nil
	}
	return nil, "", errors.Wrapf(kioskerrors.ErrPortUnavailable, "tried %s", strings.Join(candidates, ", "))
}
