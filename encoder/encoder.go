package encoder

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	SampleRate    = 44100
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder turns 16-bit mono PCM blocks into a single voice blob.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	MIMEType() string
	TotalFrames() uint64
	EncodeTime() time.Duration
}

// EncodePCM splits little-endian 16-bit PCM into BlockSize blocks and feeds them to enc.
// A trailing partial block is encoded as-is.
func EncodePCM(enc Encoder, pcm []byte) error {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	for off := 0; off < len(samples); off += BlockSize {
		end := min(off+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[off:end]); err != nil {
			return fmt.Errorf("encoding block at sample %d: %w", off, err)
		}
	}
	return nil
}
