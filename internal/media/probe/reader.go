package probe

import (
	"errors"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"multitrack/internal/services"
)

// Reader streams interleaved integer frames out of a PCM WAV file.
type Reader struct {
	path  string
	file  *os.File
	dec   *wav.Decoder
	stats Stats
	buf   *audio.IntBuffer
	done  bool
}

// Open prepares path for streaming. The caller must Close the reader.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrUnreadableFile, "probe", "open", path, err)
	}
	dec := wav.NewDecoder(file)
	stats, err := readStats(dec)
	if err != nil {
		_ = file.Close()
		return nil, services.Wrap(services.ErrUnreadableFile, "probe", "header", path, err)
	}
	return &Reader{
		path:  path,
		file:  file,
		dec:   dec,
		stats: stats,
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: stats.Channels, SampleRate: stats.SampleRate},
			SourceBitDepth: stats.BitDepth,
		},
	}, nil
}

// Stats returns the header statistics of the open file.
func (r *Reader) Stats() Stats {
	return r.stats
}

// FullScale returns the magnitude of a full-scale sample at the file's bit depth.
func (r *Reader) FullScale() float64 {
	return float64(int64(1) << (r.stats.BitDepth - 1))
}

// Read decodes up to maxFrames frames and returns them interleaved as signed
// integers on the file's native scale. The slice is reused by the next call.
// A zero-length result means end of data.
func (r *Reader) Read(maxFrames int) ([]int, error) {
	if r.done || maxFrames <= 0 {
		return nil, nil
	}
	want := maxFrames * r.stats.Channels
	if cap(r.buf.Data) < want {
		r.buf.Data = make([]int, want)
	}
	r.buf.Data = r.buf.Data[:want]

	n, err := r.dec.PCMBuffer(r.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, services.Wrap(services.ErrUnreadableFile, "probe", "decode", r.path, err)
	}
	n -= n % r.stats.Channels
	if n <= 0 {
		r.done = true
		return nil, nil
	}
	samples := r.buf.Data[:n]
	if r.stats.BitDepth == 8 {
		for i := range samples {
			samples[i] -= 128
		}
	}
	return samples, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// to16 rescales a signed sample of the given bit depth onto the 16-bit scale.
func to16(v, bitDepth int) int {
	switch {
	case bitDepth < 16:
		return v << (16 - bitDepth)
	case bitDepth > 16:
		return v >> (bitDepth - 16)
	default:
		return v
	}
}
