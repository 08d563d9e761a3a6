// Package is31fl3733 controls an IS31FL3733 LED matrix driver via I²C.
//
// The IS31FL3733 drives a matrix of 12×16 = 192 LEDs with individual 8-bit
// PWM control per LED. This driver implements the display.Drawer interface
// from periph.io.
//
// # Device Characteristics
//
// - 192 LEDs arranged as 12 switch rows (SW) × 16 current sources (CS)
// - Individual on/off bit and 8-bit PWM level per LED
// - Global current control (0-255) on top of per-LED PWM
// - Open and short circuit detection for every LED
// - Auto breath engine (enable bit exposed, timing registers not driven)
// - Configurable pull resistors on SW and CS lines for de-ghosting
// - Clock sync across multiple chips sharing one SYNC line
// - 16 I²C addresses (0x50-0x5F) selectable via ADDR1/ADDR2 pins
//
// # Hardware Connection
//
// Connect the IS31FL3733 to your system via I²C:
//
//	Device Pin → System Pin
//	GND        → GND
//	VCC        → 3.3V or 5V
//	SCL        → I²C Clock (SCL)
//	SDA        → I²C Data (SDA)
//	SDB        → 3.3V (or GPIO for hardware shutdown control)
//	ADDR1/2    → GND/VCC/SCL/SDA to select the address
//
// # Basic Usage
//
// Example of lighting the matrix:
//
//	package main
//
//	import (
//		"image"
//		"image/color"
//		"periph.io/x/conn/v3/i2c/i2creg"
//		"periph.io/x/devices/v3/is31fl3733"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		// Initialize periph.io
//		host.Init()
//
//		// Open I²C bus
//		bus, _ := i2creg.Open("")
//		defer bus.Close()
//
//		// Create device
//		dev, _ := is31fl3733.NewI2C(bus, &is31fl3733.Opts{
//			Addr: 0x50,
//		})
//		defer dev.Halt()
//
//		// Leave software shutdown and set a safe global current
//		dev.SetSoftwareShutdown(false)
//		dev.SetGlobalCurrent(64)
//
//		// Switch every LED on
//		on := make([]byte, 24)
//		for i := range on {
//			on[i] = 0xFF
//		}
//		dev.SetLEDOnOff(0x00, on)
//
//		// Draw a horizontal brightness gradient
//		img := image.NewGray(dev.Bounds())
//		for y := 0; y < 12; y++ {
//			for x := 0; x < 16; x++ {
//				img.SetGray(x, y, color.Gray{Y: byte(x * 17)})
//			}
//		}
//		dev.Draw(dev.Bounds(), img, image.Point{})
//	}
//
// # Using the Hardware Shutdown Pin (Optional)
//
// If the SDB pin is wired to a GPIO, provide it in the Opts struct and the
// driver releases hardware shutdown during initialization:
//
//	sdbPin := gpioreg.ByName("GPIO22")
//
//	dev, _ := is31fl3733.NewI2C(bus, &is31fl3733.Opts{
//		Addr: 0x50,
//		SDB:  sdbPin, // Optional shutdown pin
//	})
//
// The driver drives SDB high before touching any register. If SDB is nil the
// driver assumes the pin is strapped high on the board.
//
// # Register Pages
//
// The device multiplexes four register pages behind one address window. The
// command register (0xFD) selects the active page, and every write to it
// must be preceded by writing the key 0xC5 to the write lock (0xFE); the
// lock re-arms after each page switch. The driver handles this protocol
// internally and caches the active page, so consecutive operations on the
// same page cost no extra bus traffic.
//
//	Page 0  LED control: on/off bits, open and short detection results
//	Page 1  PWM: one 8-bit level per LED
//	Page 2  Auto breath mode selection (not driven by this package)
//	Page 3  Function: configuration, global current, pulls, reset
//
// # On/Off Bits and PWM Levels
//
// An LED lights only when its on/off bit is set and its PWM level is above
// zero. SetLEDOnOff covers the bits, 8 LEDs per byte with the layout of
// image1bit.HorizontalLSB:
//
//	// All 192 LEDs on
//	on := make([]byte, 24)
//	for i := range on {
//		on[i] = 0xFF
//	}
//	dev.SetLEDOnOff(0x00, on)
//
// Arbitrary patterns are easier through the image type:
//
//	img := image1bit.NewHorizontalLSB(dev.Bounds())
//	img.SetBit(3, 2, image1bit.On)
//	dev.DrawOnOff(img)
//
// PWM levels can be written three ways:
//
//	// Registers directly, e.g. first row at half brightness
//	dev.SetLEDPWM(0x00, bytes.Repeat([]byte{0x80}, 16))
//
//	// Full frame, one byte per LED
//	dev.Write(pixels)
//
//	// Through the image pipeline with automatic color conversion
//	dev.Draw(dev.Bounds(), img, image.Point{})
//
// Draw rewrites only the rows covered by the destination rectangle, which is
// cheaper on the bus for partial updates. Write always pushes all 192 bytes.
//
// # Open and Short Detection
//
// The device can test every LED position for open and short circuits:
//
//	open, _ := dev.ReportOpenLEDs()
//	if open.BitAt(4, 2) == image1bit.On {
//		// LED at CS5/SW3 is open
//	}
//
// A scan takes one full matrix sweep; the report methods trigger it, wait
// 10ms and read the result registers. The device must be out of software
// shutdown for the scan to run.
//
// # Multiple Devices
//
// Up to 16 devices share one bus, and their matrix scans can be phase-locked
// through the SYNC line to avoid beat flicker:
//
//	primary.SetSyncMode(is31fl3733.SyncPrimary)
//	secondary.SetSyncMode(is31fl3733.SyncSecondary)
//
// # Datasheet
//
// For detailed register descriptions and timing information, see:
// https://www.lumissil.com/assets/pdf/core/IS31FL3733_DS.pdf
//
// # Compatibility with periph.io
//
// This driver implements the display.Drawer interface from periph.io:
// https://pkg.go.dev/periph.io/x/conn/v3/display
//
// It can be used with any periph.io tool or library expecting a display.Drawer.
package is31fl3733
