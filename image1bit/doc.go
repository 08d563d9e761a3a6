// Package image1bit provides a 1-bit LED bitmap format for the IS31FL3733 matrix driver.
//
// An IS31FL3733 drives a 12×16 matrix whose LED on/off state, open-circuit result and
// short-circuit result registers all share one layout: each register byte covers 8
// horizontally adjacent LEDs of one switch row, least significant bit leftmost, two
// bytes per row.
//
// Memory layout example for the first row:
//
//	Columns: CS1 CS2 CS3 ... CS8   CS9 ... CS16
//	Bits:    b0  b1  b2  ... b7    b0  ... b7
//	Bytes:   [byte 0]              [byte 1]
//
// So a frame for the whole matrix is 12 rows × 2 bytes = 24 bytes, exactly the
// content of one LED control window on the chip.
//
// This package provides:
//
// - Bit: a binary color type representing a single LED state (On/Off)
// - BitModel: a color model converting standard Go colors to Bit
// - HorizontalLSB: an image.Image implementation in the chip's register layout
//
// Example usage:
//
//	// Create a 16x12 frame (columns × rows)
//	img := image1bit.NewHorizontalLSB(image.Rect(0, 0, 16, 12))
//
//	// Switch on the LED at column 10, row 2
//	img.SetBit(10, 2, image1bit.On)
//
//	// Query a pixel
//	if img.BitAt(10, 2) {
//		// LED is on
//	}
//
//	// Use with standard Go image operations
//	draw.Draw(img, img.Bounds(), image.NewUniform(image1bit.On), image.Point{}, draw.Src)
//
// The raw frame bytes are exposed as Pix, ready to hand to the driver's register
// writes or as returned by its open/short diagnostics.
package image1bit
