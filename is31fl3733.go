// Package is31fl3733 controls an IS31FL3733 LED matrix driver via I²C.
//
// The IS31FL3733 drives a matrix of 12x16 = 192 LEDs with an on/off bit and
// an 8-bit PWM level per LED.
//
// See the examples for how to use this package.
package is31fl3733

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/is31fl3733/image1bit"
)

// I2CAddr is the default I²C address, with ADDR1 and ADDR2 tied to GND.
//
// The ADDR pins strap the address anywhere between 0x50 and 0x5F.
const I2CAddr uint16 = 0x50

// Validation and lookup failures. They are returned before any bus traffic,
// so a failed call leaves both the device and the tracked state untouched.
var (
	// ErrInvalidRegister is returned when a start register falls outside the
	// window an operation may touch.
	ErrInvalidRegister = errors.New("is31fl3733: register out of range")

	// ErrTooMuchData is returned when a payload would run past the end of a
	// register window.
	ErrTooMuchData = errors.New("is31fl3733: payload exceeds register range")

	// ErrInvalidResistor is returned when a pull resistor value is not one of
	// the eight the device supports.
	ErrInvalidResistor = errors.New("is31fl3733: unsupported pull resistor")

	// ErrInvalidSyncMode is returned for sync modes other than SyncSingle,
	// SyncPrimary and SyncSecondary.
	ErrInvalidSyncMode = errors.New("is31fl3733: invalid sync mode")
)

// SyncMode selects how a chip derives its matrix scan clock when several
// devices are chained on the SYNC line.
type SyncMode uint8

const (
	// SyncSingle runs the chip on its own internal clock.
	SyncSingle SyncMode = 0
	// SyncPrimary drives the shared clock onto the SYNC line.
	SyncPrimary SyncMode = 1
	// SyncSecondary follows the clock of a primary on the SYNC line.
	SyncSecondary SyncMode = 2
)

// Opts is the device configuration.
type Opts struct {
	// Addr is the I²C address set by the ADDR1/ADDR2 pins, 0x50 to 0x5F.
	Addr uint16

	// SDB is the hardware shutdown pin. When provided it is driven high
	// during NewI2C so the chip leaves hardware shutdown. Optional, nil if
	// SDB is strapped high on the board.
	SDB gpio.PinIO
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{Addr: I2CAddr}

// Dev is a handle to an IS31FL3733 LED matrix driver.
//
// A Dev tracks the register page the device has selected and the content of
// its configuration register, so operations only touch the bus for writes
// that change something the chip needs to see. All methods are safe for
// concurrent use; each operation runs to completion before the next starts,
// since a page switch is a multi-write sequence that must not interleave.
type Dev struct {
	c   conn.Conn
	sdb gpio.PinIO

	rect image.Rectangle // 16 CS columns by 12 SW rows

	mu        sync.Mutex
	page      page
	pageValid bool // false forces the next page selection onto the bus
	config    config
	frame     *image.Gray // PWM levels the device accepted, one byte per LED
	next      *image.Gray // staging frame for Draw
}

// NewI2C returns a Dev controlling an IS31FL3733 on the given bus.
//
// opts can be nil to use DefaultOpts. Opening the device resets it, so the
// matrix always starts from its power-on register state with all LEDs off
// and software shutdown engaged.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Addr < I2CAddr || opts.Addr > i2cAddrMax {
		return nil, errors.New("is31fl3733: address must be between 0x50 and 0x5F")
	}

	rect := image.Rect(0, 0, ledColumns, ledRows)
	d := &Dev{
		c:     &i2c.Dev{Bus: b, Addr: opts.Addr},
		sdb:   opts.SDB,
		rect:  rect,
		frame: image.NewGray(rect),
		next:  image.NewGray(rect),
	}

	// SDB held low keeps the chip in hardware shutdown where it ignores
	// everything but its address, so release it before the first register
	// access.
	if d.sdb != nil {
		if err := d.sdb.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("is31fl3733: failed to release hardware shutdown: %w", err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.reset(); err != nil {
		return nil, err
	}
	return d, nil
}

// String implements conn.Resource.
func (d *Dev) String() string {
	return fmt.Sprintf("is31fl3733.Dev{%s}", d.c)
}

// Halt puts the device in software shutdown, turning every LED off.
//
// Halt implements conn.Resource. Register contents survive shutdown, so
// SetSoftwareShutdown(false) lights the matrix up again as it was.
func (d *Dev) Halt() error {
	return d.SetSoftwareShutdown(true)
}

// ColorModel returns the native color model, 8-bit grayscale.
//
// ColorModel implements display.Drawer. Each LED has a 256-level PWM
// register behind it.
func (d *Dev) ColorModel() color.Model {
	return color.GrayModel
}

// Bounds returns the matrix dimensions, 16 columns by 12 rows.
//
// Bounds implements display.Drawer. Pixel (x, y) is the LED at current
// source CS(x+1), switch row SW(y+1).
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw renders src onto the PWM page.
//
// Draw implements display.Drawer. The rows covered by dst are rewritten in a
// single transaction. PWM levels only show on LEDs whose on/off bit is set;
// see SetLEDOnOff.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// PWM registers are row-major, 16 per switch row, so the dirty window is
	// one contiguous run of registers.
	first := dst.Min.Y * ledColumns
	n := dst.Dy() * ledColumns

	// Render into the staging frame; d.frame keeps the levels the device
	// last accepted until the write below succeeds.
	copy(d.next.Pix[first:first+n], d.frame.Pix[first:first+n])
	draw.Draw(d.next, dst, src, sp, draw.Src)

	if err := d.ensurePage(pageLEDPWM); err != nil {
		return err
	}
	if err := d.writeRegs(uint8(first), d.next.Pix[first:first+n]); err != nil {
		return err
	}
	copy(d.frame.Pix[first:first+n], d.next.Pix[first:first+n])
	return nil
}

// Write replaces the whole PWM frame in one transaction.
//
// pixels holds one byte per LED, 192 bytes row by row. This is the fast path
// for full-frame animation; use Draw for partial updates.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels) != ledCount {
		return 0, errors.New("is31fl3733: invalid frame size")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensurePage(pageLEDPWM); err != nil {
		return 0, err
	}
	if err := d.writeRegs(0x00, pixels); err != nil {
		return 0, err
	}
	copy(d.frame.Pix, pixels)
	return len(pixels), nil
}

// SetLEDOnOff writes LED on/off bits starting at register start on the LED
// control page.
//
// Each register bit switches one LED, least significant bit leftmost:
// register 2n covers CS1-CS8 of row SWn+1, register 2n+1 covers CS9-CS16.
// The window is 24 registers, 0x00 to 0x17. image1bit.HorizontalLSB produces
// frames in exactly this layout.
func (d *Dev) SetLEDOnOff(start uint8, bits []byte) error {
	if err := onOffRange.check(start, len(bits)); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensurePage(pageLEDOnOff); err != nil {
		return err
	}
	return d.writeRegs(start, bits)
}

// DrawOnOff writes a whole on/off frame from a 1-bit image in one
// transaction.
//
// The image must cover the exact matrix bounds; its Pix slice already has
// the register layout of the on/off window.
func (d *Dev) DrawOnOff(img *image1bit.HorizontalLSB) error {
	if img.Bounds() != d.rect {
		return errors.New("is31fl3733: image must cover the whole matrix")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensurePage(pageLEDOnOff); err != nil {
		return err
	}
	return d.writeRegs(onOffRange.first, img.Pix)
}

// SetLEDPWM writes 8-bit PWM levels starting at register start on the PWM
// page, one register per LED. The window is 192 registers, 0x00 to 0xBF.
func (d *Dev) SetLEDPWM(start uint8, levels []byte) error {
	if err := pwmRange.check(start, len(levels)); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensurePage(pageLEDPWM); err != nil {
		return err
	}
	if err := d.writeRegs(start, levels); err != nil {
		return err
	}
	copy(d.frame.Pix[start:], levels)
	return nil
}

// SetSyncMode sets how the chip clocks its matrix scan. Chained devices
// share one SYNC line with a single primary.
func (d *Dev) SetSyncMode(m SyncMode) error {
	if m > SyncSecondary {
		return ErrInvalidSyncMode
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.config
	c.sync = m
	return d.setConfig(c)
}

// SetBreathing switches every LED between manual PWM control and the auto
// breath engine. The breath timing registers themselves are not driven by
// this package.
func (d *Dev) SetBreathing(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.config
	c.breathing = on
	return d.setConfig(c)
}

// SetSoftwareShutdown stops driving the matrix when on is true. Register
// contents are kept, so leaving shutdown restores the previous picture.
func (d *Dev) SetSoftwareShutdown(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.config
	c.shutdown = on
	return d.setConfig(c)
}

// SetGlobalCurrent scales the output current of every LED, 0 to 255. The
// per-LED PWM levels ride on top of this.
func (d *Dev) SetGlobalCurrent(level uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensurePage(pageFunction); err != nil {
		return err
	}
	return d.writeRegs(regGlobalCurrent, []byte{level})
}

// SetSWPullUp sets the pull-up resistor on the SWy row lines, used to fight
// ghosting. Valid values are 0 (no pull-up), 500Ω, 1kΩ, 2kΩ, 4kΩ, 8kΩ, 16kΩ
// and 32kΩ; anything else fails with ErrInvalidResistor.
func (d *Dev) SetSWPullUp(r physic.ElectricResistance) error {
	code, err := pullResistorCode(r)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensurePage(pageFunction); err != nil {
		return err
	}
	return d.writeRegs(regSWPullUp, []byte{code})
}

// SetCSPullDown sets the pull-down resistor on the CSx column lines. It
// accepts the same eight values as SetSWPullUp.
func (d *Dev) SetCSPullDown(r physic.ElectricResistance) error {
	code, err := pullResistorCode(r)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensurePage(pageFunction); err != nil {
		return err
	}
	return d.writeRegs(regCSPullDown, []byte{code})
}

// TriggerOpenShortDetection starts one open/short scan of the matrix.
//
// The trigger bit self-clears in hardware as soon as the scan starts, so the
// tracked configuration drops it right after the write; no read-back is
// needed. Results land in the open and short windows of the LED control page
// once the scan completes; ReportOpenLEDs and ReportShortLEDs bundle the
// trigger, the settle time and the read.
func (d *Dev) TriggerOpenShortDetection() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.triggerDetection()
}

// ReportOpenLEDs scans the matrix and returns the open-circuit results, one
// bit per LED in the same layout SetLEDOnOff uses: On marks an open LED.
//
// The scan needs 10ms to sweep all rows before the result registers are
// stable; that wait is part of the call and always elapses in full. The
// device must be out of software shutdown for the scan to run.
func (d *Dev) ReportOpenLEDs() (*image1bit.HorizontalLSB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.reportLEDs(openRange)
}

// ReportShortLEDs scans the matrix and returns the short-circuit results in
// the same form as ReportOpenLEDs.
func (d *Dev) ReportShortLEDs() (*image1bit.HorizontalLSB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.reportLEDs(shortRange)
}

// Reset restores every device register to its power-on default.
//
// The chip resets itself when the reset register is read, covering all four
// pages at once. The tracked state follows suit and rebases on the power-on
// defaults with the LED control page selected.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.reset()
}

// reset reads the reset register and rebases the tracked state on the
// device's power-on defaults. Callers must hold d.mu.
func (d *Dev) reset() error {
	if err := d.ensurePage(pageFunction); err != nil {
		return err
	}
	var buf [1]byte
	if err := d.readRegs(regReset, buf[:]); err != nil {
		return err
	}

	d.page = pageLEDOnOff
	d.pageValid = true
	d.config = defaultConfig
	for i := range d.frame.Pix {
		d.frame.Pix[i] = 0
	}
	return nil
}

// triggerDetection writes the configuration with the detection trigger bit
// set and clears the tracked copy again, matching the self-clearing hardware
// bit. Callers must hold d.mu.
func (d *Dev) triggerDetection() error {
	c := d.config
	c.detect = true
	if err := d.setConfig(c); err != nil {
		return err
	}
	d.config.detect = false
	return nil
}

// reportLEDs runs a detection scan and reads one 24-byte result window from
// the LED control page. Callers must hold d.mu.
func (d *Dev) reportLEDs(r regRange) (*image1bit.HorizontalLSB, error) {
	if err := d.triggerDetection(); err != nil {
		return nil, err
	}

	// Hardware settle time: the sweep walks all 12 rows before the result
	// registers hold valid data.
	time.Sleep(detectSettle)

	if err := d.ensurePage(pageLEDOnOff); err != nil {
		return nil, err
	}
	img := image1bit.NewHorizontalLSB(d.rect)
	if err := d.readRegs(r.first, img.Pix); err != nil {
		return nil, err
	}
	return img, nil
}

// setConfig rewrites the whole configuration register from c. The tracked
// copy is updated only after the write succeeds, never speculatively.
// Callers must hold d.mu.
func (d *Dev) setConfig(c config) error {
	if err := d.ensurePage(pageFunction); err != nil {
		return err
	}
	if err := d.writeRegs(regConfiguration, []byte{c.encode()}); err != nil {
		return err
	}
	d.config = c
	return nil
}

// ensurePage makes the target register page active.
//
// Selecting a page takes two writes: the write lock accepts the one-shot
// 0xC5 key, then the command register takes the page number. The lock
// re-arms after every command register write, so the pair is never split.
// When the cached page already matches, no bus traffic happens at all.
// Callers must hold d.mu.
func (d *Dev) ensurePage(p page) error {
	if d.pageValid && d.page == p {
		return nil
	}
	if err := d.writeRegs(regCommandLock, []byte{unlockKey}); err != nil {
		// The unlock never took effect; the previously selected page still
		// holds on the device.
		return err
	}
	if err := d.writeRegs(regCommand, []byte{byte(p)}); err != nil {
		// The lock is open but the active page is unknown. Force the full
		// unlock+select pair on the next operation.
		d.pageValid = false
		return err
	}
	d.page = p
	d.pageValid = true
	return nil
}

// writeRegs writes data to consecutive registers starting at reg on the
// currently selected page.
func (d *Dev) writeRegs(reg uint8, data []byte) error {
	w := make([]byte, 0, len(data)+1)
	w = append(w, reg)
	w = append(w, data...)
	return d.c.Tx(w, nil)
}

// readRegs fills buf from consecutive registers starting at reg on the
// currently selected page.
func (d *Dev) readRegs(reg uint8, buf []byte) error {
	return d.c.Tx([]byte{reg}, buf)
}

// config mirrors the function page configuration register.
type config struct {
	sync      SyncMode
	breathing bool
	shutdown  bool
	detect    bool
}

// defaultConfig is the register's power-on state and encodes to 0x00: the
// chip runs on its own clock with breathing off and stays in software
// shutdown until SetSoftwareShutdown(false).
var defaultConfig = config{shutdown: true}

// encode packs the configuration into its register byte:
//
//	bit 7-6  SYNC      clock mode
//	bit 5-3  reserved  always 0
//	bit 2    OSD       open/short detection trigger, self-clearing
//	bit 1    B_EN      auto breath enable
//	bit 0    SSD       software shutdown, active low: 1 means running
func (c config) encode() byte {
	b := byte(c.sync) << 6
	if c.detect {
		b |= 1 << 2
	}
	if c.breathing {
		b |= 1 << 1
	}
	if !c.shutdown {
		b |= 1 << 0
	}
	return b
}

// decodeConfig is the exact inverse of encode.
func decodeConfig(b byte) config {
	return config{
		sync:      SyncMode(b >> 6),
		detect:    b&(1<<2) != 0,
		breathing: b&(1<<1) != 0,
		shutdown:  b&(1<<0) == 0,
	}
}

// regRange is an inclusive register window on one page.
type regRange struct {
	first, last uint8
}

// check validates that n bytes starting at reg stay inside the window. It
// runs before any page switch or bus transaction, so an invalid call never
// touches the device.
func (r regRange) check(reg uint8, n int) error {
	if reg < r.first || reg > r.last {
		return ErrInvalidRegister
	}
	if n > int(r.last-reg)+1 {
		return ErrTooMuchData
	}
	return nil
}

// pullResistorCodes maps the register codes 0x00-0x07 to the resistances
// the device offers; 0 means the line floats.
var pullResistorCodes = [8]physic.ElectricResistance{
	0,
	500 * physic.Ohm,
	1 * physic.KiloOhm,
	2 * physic.KiloOhm,
	4 * physic.KiloOhm,
	8 * physic.KiloOhm,
	16 * physic.KiloOhm,
	32 * physic.KiloOhm,
}

// pullResistorCode resolves a resistance to its register code. Only the
// eight table values are valid; there is no rounding to the nearest step.
func pullResistorCode(r physic.ElectricResistance) (uint8, error) {
	for code, v := range pullResistorCodes {
		if v == r {
			return uint8(code), nil
		}
	}
	return 0, ErrInvalidResistor
}

// The matrix is 12 switch rows by 16 current source columns.
const (
	ledRows    = 12
	ledColumns = 16
	ledCount   = ledRows * ledColumns
)

// i2cAddrMax is the highest address the ADDR1/ADDR2 strapping can produce.
const i2cAddrMax uint16 = 0x5F

// detectSettle is the time an open/short sweep needs before the result
// registers are readable.
const detectSettle = 10 * time.Millisecond

// page selects one of the four register banks reachable through the command
// register.
type page uint8

const (
	pageLEDOnOff      page = 0x00 // LED on/off bits plus open/short results
	pageLEDPWM        page = 0x01 // one 8-bit PWM level per LED
	pageLEDAutoBreath page = 0x02 // auto breath timing per LED, not driven here
	pageFunction      page = 0x03 // configuration and control registers
)

// Registers reachable regardless of the selected page.
const (
	regCommand     = 0xFD // active page selector, write-locked
	regCommandLock = 0xFE // lock register; unlockKey opens it for one write
	unlockKey      = 0xC5
)

// Function page registers.
const (
	regConfiguration = 0x00
	regGlobalCurrent = 0x01
	regSWPullUp      = 0x0F
	regCSPullDown    = 0x10
	regReset         = 0x11
)

// Register windows on the LED control and PWM pages.
var (
	onOffRange = regRange{0x00, 0x17}
	openRange  = regRange{0x18, 0x2F}
	shortRange = regRange{0x30, 0x47}
	pwmRange   = regRange{0x00, 0xBF}
)

var _ conn.Resource = &Dev{}
var _ display.Drawer = &Dev{}
