// Package serialport adapts serial wave sensors to the acquisition source
// contract. Sensors emit fixed-size packets of little-endian float32 values,
// one per channel, terminated by a stop sequence; the reader resynchronizes
// on the stop sequence after framing errors.
package serialport
