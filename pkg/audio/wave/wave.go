// Package wave handles audio ingestion: decoding WAV/PCM input, downmixing
// to mono, resampling to the analysis rate, validating the recording and
// splitting it into overlapping analysis segments.
//
// The pipeline is:
//
//	Decode → Resample(16kHz) → Validate → Normalize → Segment
//
// A decoded Buffer keeps samples as float64 in nominal full scale [-1, 1]
// (values outside that range indicate clipping and are caught by Validate).
package wave

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	resampling "github.com/tphakala/go-audio-resampling"
)

// TargetSampleRate is the analysis sample rate all recordings are
// resampled to before feature extraction.
const TargetSampleRate = 16000

// ErrBadFormat is returned when the input cannot be decoded as audio.
var ErrBadFormat = errors.New("wave: unsupported or corrupt audio")

// Buffer is a decoded mono waveform. Samples are float64 with nominal
// full scale [-1, 1]. Downstream stages treat it as read-only.
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the buffer duration in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Peak returns the maximum absolute sample value.
func (b *Buffer) Peak() float64 {
	var peak float64
	for _, s := range b.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// Normalize returns a copy of the buffer with peak amplitude scaled to 1.0.
// A silent buffer is returned unchanged.
func (b *Buffer) Normalize() *Buffer {
	out := &Buffer{Samples: make([]float64, len(b.Samples)), SampleRate: b.SampleRate}
	peak := b.Peak()
	if peak == 0 {
		copy(out.Samples, b.Samples)
		return out
	}
	for i, s := range b.Samples {
		out.Samples[i] = s / peak
	}
	return out
}

// FromPCM16 wraps raw 16-bit signed little-endian mono PCM as a Buffer.
func FromPCM16(data []byte, sampleRate int) *Buffer {
	n := len(data) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		s := int16(data[2*i]) | int16(data[2*i+1])<<8
		samples[i] = float64(s) / 32768.0
	}
	return &Buffer{Samples: samples, SampleRate: sampleRate}
}

// DecodeFile decodes a WAV file from disk.
func DecodeFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wave: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a RIFF/WAV container and returns a mono Buffer at the
// file's native sample rate. Supported encodings are 16-bit PCM and
// 32-bit IEEE float; multi-channel audio is downmixed by averaging.
func Decode(r io.Reader) (*Buffer, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrBadFormat, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrBadFormat)
	}

	var (
		format     uint16
		channels   int
		sampleRate int
		bitDepth   int
		haveFmt    bool
	)

	// Walk chunks until the data chunk.
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, fmt.Errorf("%w: no data chunk", ErrBadFormat)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("%w: truncated fmt chunk", ErrBadFormat)
			}
			if size < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too small", ErrBadFormat)
			}
			format = binary.LittleEndian.Uint16(body[0:2])
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitDepth = int(binary.LittleEndian.Uint16(body[14:16]))
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("%w: data chunk before fmt", ErrBadFormat)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("%w: truncated data chunk", ErrBadFormat)
			}
			return decodeSamples(body, format, channels, sampleRate, bitDepth)

		default:
			// Skip unknown chunks (LIST, fact, ...). Chunks are word aligned.
			skip := int64(size)
			if skip%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, fmt.Errorf("%w: truncated %q chunk", ErrBadFormat, id)
			}
		}
	}
}

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

func decodeSamples(data []byte, format uint16, channels, sampleRate, bitDepth int) (*Buffer, error) {
	if channels < 1 || sampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid format (channels=%d rate=%d)", ErrBadFormat, channels, sampleRate)
	}

	var read func(frame int, ch int) float64
	var bytesPerSample int

	switch {
	case format == wavFormatPCM && bitDepth == 16:
		bytesPerSample = 2
		read = func(frame, ch int) float64 {
			off := (frame*channels + ch) * 2
			s := int16(data[off]) | int16(data[off+1])<<8
			return float64(s) / 32768.0
		}
	case format == wavFormatFloat && bitDepth == 32:
		bytesPerSample = 4
		read = func(frame, ch int) float64 {
			off := (frame*channels + ch) * 4
			bits := binary.LittleEndian.Uint32(data[off:])
			return float64(math.Float32frombits(bits))
		}
	default:
		return nil, fmt.Errorf("%w: encoding format=%d bits=%d", ErrBadFormat, format, bitDepth)
	}

	numFrames := len(data) / (bytesPerSample * channels)
	samples := make([]float64, numFrames)
	for f := 0; f < numFrames; f++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += read(f, c)
		}
		samples[f] = sum / float64(channels)
	}
	return &Buffer{Samples: samples, SampleRate: sampleRate}, nil
}

// Resample converts the buffer to the target sample rate using a
// high-quality polyphase resampler. Returns the input unchanged when the
// rates already match.
func Resample(buf *Buffer, targetRate int) (*Buffer, error) {
	if buf.SampleRate == targetRate {
		return buf, nil
	}
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(buf.SampleRate),
		OutputRate: float64(targetRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("wave: create resampler: %w", err)
	}
	out, err := rs.Process(buf.Samples)
	if err != nil {
		return nil, fmt.Errorf("wave: resample %d→%d Hz: %w", buf.SampleRate, targetRate, err)
	}
	return &Buffer{Samples: out, SampleRate: targetRate}, nil
}
