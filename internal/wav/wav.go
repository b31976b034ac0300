// Package wav frames linear PCM audio into the canonical RIFF/WAVE
// container used across the bus and by the synthesis adapters.
package wav

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderSize is the fixed size of a PCM WAVE header in bytes.
const HeaderSize = 44

// Format describes the PCM layout of a payload. Zero values for Channels
// and BitsPerSample fall back to mono 16-bit.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

func (f Format) withDefaults() Format {
	if f.Channels == 0 {
		f.Channels = 1
	}
	if f.BitsPerSample == 0 {
		f.BitsPerSample = 16
	}
	return f
}

// EncodeHeader builds the 44-byte RIFF/WAVE header for a PCM payload of
// payloadLen bytes. Dimensions must be positive once defaults are applied.
func EncodeHeader(payloadLen int, f Format) ([]byte, error) {
	f = f.withDefaults()
	if payloadLen < 0 {
		return nil, fmt.Errorf("wav: negative payload length %d", payloadLen)
	}
	if f.SampleRate <= 0 {
		return nil, fmt.Errorf("wav: invalid sample rate %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return nil, fmt.Errorf("wav: invalid channel count %d", f.Channels)
	}
	if f.BitsPerSample <= 0 {
		return nil, fmt.Errorf("wav: invalid bit depth %d", f.BitsPerSample)
	}

	blockAlign := f.Channels * f.BitsPerSample / 8
	byteRate := f.SampleRate * blockAlign

	h := make([]byte, HeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+payloadLen))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM format tag
	binary.LittleEndian.PutUint16(h[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(h[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(h[34:36], uint16(f.BitsPerSample))
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(payloadLen))
	return h, nil
}

// ParseHeader reads back the payload length and format from a header
// produced by EncodeHeader.
func ParseHeader(h []byte) (int, Format, error) {
	if len(h) < HeaderSize {
		return 0, Format{}, fmt.Errorf("wav: header too short: %d bytes", len(h))
	}
	if string(h[0:4]) != "RIFF" || string(h[8:12]) != "WAVE" {
		return 0, Format{}, fmt.Errorf("wav: missing RIFF/WAVE markers")
	}
	if string(h[12:16]) != "fmt " || string(h[36:40]) != "data" {
		return 0, Format{}, fmt.Errorf("wav: missing fmt/data chunks")
	}
	f := Format{
		SampleRate:    int(binary.LittleEndian.Uint32(h[24:28])),
		Channels:      int(binary.LittleEndian.Uint16(h[22:24])),
		BitsPerSample: int(binary.LittleEndian.Uint16(h[34:36])),
	}
	payloadLen := int(binary.LittleEndian.Uint32(h[40:44]))
	return payloadLen, f, nil
}

// PCM16FromFloat32 converts normalized float samples to little-endian
// signed 16-bit PCM. Inputs outside [-1, 1] are clamped so overdriven
// samples saturate instead of wrapping.
func PCM16FromFloat32(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		v := math.Floor(float64(s) * 32767.5)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}
