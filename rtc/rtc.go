// Package rtc reads and sets a DS3231 real-time clock over I2C, with a
// system-clock fallback when the module is absent.
package rtc

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Reading sources.
const (
	SourceDS3231 = "DS3231"
	SourceSystem = "SYSTEM"
)

// DefaultAddr is the DS3231's fixed I2C address.
const DefaultAddr = 0x68

// Bus is the slice of an I2C bus the clock needs; satisfied by
// periph.io's i2c.BusCloser and by test fakes.
type Bus interface {
	Tx(addr uint16, w, r []byte) error
	Close() error
}

// Opener opens the named I2C bus.
type Opener func(name string) (Bus, error)

func openI2CBus(name string) (Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initialize host drivers")
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, err
	}
	return bus, nil
}

// Reading is a timestamp and the clock it came from.
type Reading struct {
	Time   time.Time `json:"timestamp"`
	Source string    `json:"source"`
}

// Clock is a DS3231 on an I2C bus. The bus is opened per operation and
// closed before returning, mirroring how the kiosk shares the bus with
// other peripherals.
type Clock struct {
	busName string
	addr    uint16
	open    Opener

	mu sync.Mutex
}

// Option configures a Clock.
type Option func(*Clock)

// WithOpener replaces the I2C bus opener (tests).
func WithOpener(open Opener) Option {
	return func(c *Clock) { c.open = open }
}

// New returns a Clock on the named bus at addr.
func New(busName string, addr uint16, opts ...Option) *Clock {
	c := &Clock{
		busName: busName,
		addr:    addr,
		open:    openI2CBus,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now reads the hardware clock, falling back to the system clock when the
// module is absent or unreadable.
func (c *Clock) Now() Reading {
	t, err := c.ReadTime()
	if err != nil {
		log.Debug().Err(err).Msg("rtc unreadable, using system clock")
		return Reading{Time: time.Now(), Source: SourceSystem}
	}
	return Reading{Time: t, Source: SourceDS3231}
}

// ReadTime reads registers 0x00-0x06 and decodes them into a local time.
func (c *Clock) ReadTime() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bus, err := c.open(c.busName)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "[ReadTime] open i2c bus")
	}
	defer bus.Close()

	regs := make([]byte, 7)
	if err := bus.Tx(c.addr, []byte{0x00}, regs); err != nil {
		return time.Time{}, errors.Wrap(err, "[ReadTime] read registers")
	}
	return decodeRegisters(regs), nil
}

// SetTime writes t into the clock registers.
func (c *Clock) SetTime(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	bus, err := c.open(c.busName)
	if err != nil {
		return errors.Wrap(err, "[SetTime] open i2c bus")
	}
	defer bus.Close()

	if err := bus.Tx(c.addr, append([]byte{0x00}, encodeRegisters(t)...), nil); err != nil {
		return errors.Wrap(err, "[SetTime] write registers")
	}
	return nil
}

// Available reports whether the module answers on the bus, by reading the
// seconds register.
func (c *Clock) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	bus, err := c.open(c.busName)
	if err != nil {
		return false
	}
	defer bus.Close()

	var probe [1]byte
	return bus.Tx(c.addr, []byte{0x00}, probe[:]) == nil
}

// decodeRegisters turns the seven DS3231 timekeeping registers into a time.
// Register 3 (day of week) is ignored; the date determines it.
func decodeRegisters(regs []byte) time.Time {
	sec := bcdToDec(regs[0] & 0x7F)
	min := bcdToDec(regs[1] & 0x7F)
	hour := bcdToDec(regs[2] & 0x3F) // 24h mode
	day := bcdToDec(regs[4] & 0x3F)
	month := time.Month(bcdToDec(regs[5] & 0x1F))
	year := 2000 + bcdToDec(regs[6])
	return time.Date(year, month, day, hour, min, sec, 0, time.Local)
}

// encodeRegisters renders t as the seven DS3231 timekeeping registers,
// day-of-week in ISO numbering (Monday = 1).
func encodeRegisters(t time.Time) []byte {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return []byte{
		decToBCD(t.Second()),
		decToBCD(t.Minute()),
		decToBCD(t.Hour()),
		decToBCD(weekday),
		decToBCD(t.Day()),
		decToBCD(int(t.Month())),
		decToBCD(t.Year() - 2000),
	}
}

func bcdToDec(b byte) int {
	return int(b/16)*10 + int(b%16)
}

func decToBCD(v int) byte {
	return byte(v/10*16 + v%10)
}
