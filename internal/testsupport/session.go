package testsupport

import (
	"math/rand"
	"path/filepath"
	"testing"

	"multitrack/internal/session"
)

// StemLayout names a stem and the raws that sum into it.
type StemLayout struct {
	Stem string
	Raws []string
}

// DefaultLayout is four stems fed by six raws.
func DefaultLayout() []StemLayout {
	return []StemLayout{
		{Stem: "Stem1.wav", Raws: []string{"Raw1.wav"}},
		{Stem: "Stem2.wav", Raws: []string{"Raw2.wav"}},
		{Stem: "Stem3.wav", Raws: []string{"Raw3_1.wav", "Raw3_2.wav"}},
		{Stem: "Stem4.wav", Raws: []string{"Raw4_1.wav", "Raw4_2.wav"}},
	}
}

const (
	fixtureRate      = 44100
	fixtureBlock     = 882 // 20 ms
	fixtureAmplitude = 3000
)

// SessionFixture is a generated session on disk. Every raw is active in its
// own randomly assigned 20 ms blocks, so raws never overlap in time: each stem
// is exactly the sum of its raws and the mix is exactly the sum of the stems.
type SessionFixture struct {
	Root    string
	RawDir  string
	StemDir string
	MixPath string
	RawInfo session.RawInfo
	Layout  []StemLayout
	Frames  int

	raws  map[string][]float64
	stems map[string][]float64
	mix   []float64
}

// SessionOption mutates the generated signals before they are written.
type SessionOption func(*SessionFixture)

// BuildSession generates and writes a consistent session of the given length.
func BuildSession(t testing.TB, seconds float64, seed int64, layout []StemLayout, opts ...SessionOption) *SessionFixture {
	t.Helper()

	root := t.TempDir()
	fx := &SessionFixture{
		Root:    root,
		RawDir:  filepath.Join(root, "RAW"),
		StemDir: filepath.Join(root, "STEMS"),
		MixPath: filepath.Join(root, "Song_MIX.wav"),
		RawInfo: session.RawInfo{},
		Layout:  layout,
		Frames:  int(seconds * fixtureRate),
		raws:    map[string][]float64{},
		stems:   map[string][]float64{},
	}

	var rawNames []string
	for _, stem := range layout {
		for _, raw := range stem.Raws {
			rawNames = append(rawNames, raw)
			fx.RawInfo[raw] = session.RawEntry{
				Stem: stem.Stem,
				Inst: "instrument",
				Path: filepath.Join(fx.RawDir, raw),
			}
		}
	}

	rng := rand.New(rand.NewSource(seed))
	noise := Noise(seed+1, fx.Frames, fixtureAmplitude)
	for _, raw := range rawNames {
		fx.raws[raw] = make([]float64, fx.Frames)
	}
	for start := 0; start < fx.Frames; start += fixtureBlock {
		owner := fx.raws[rawNames[rng.Intn(len(rawNames))]]
		end := min(start+fixtureBlock, fx.Frames)
		copy(owner[start:end], noise[start:end])
	}

	var stemSignals [][]float64
	for _, stem := range layout {
		parts := make([][]float64, 0, len(stem.Raws))
		for _, raw := range stem.Raws {
			parts = append(parts, fx.raws[raw])
		}
		fx.stems[stem.Stem] = Sum(parts...)
		stemSignals = append(stemSignals, fx.stems[stem.Stem])
	}
	fx.mix = Sum(stemSignals...)

	for _, opt := range opts {
		opt(fx)
	}
	fx.write(t)
	return fx
}

// WithShiftedStem replaces stem (and, consistently, its raws) with a version
// rotated by shiftFrames. The stem is scaled by stemGain and its raws by
// rawGain. The mix keeps the original content, so only the stem sum is out of
// sync when stemGain dominates.
func WithShiftedStem(stem string, shiftFrames int, stemGain, rawGain float64) SessionOption {
	return func(fx *SessionFixture) {
		fx.stems[stem] = Scale(Rotate(fx.stems[stem], shiftFrames), stemGain)
		for _, layout := range fx.Layout {
			if layout.Stem != stem {
				continue
			}
			for _, raw := range layout.Raws {
				fx.raws[raw] = Scale(Rotate(fx.raws[raw], shiftFrames), rawGain)
			}
		}
	}
}

// WithSilentRaw replaces raw with digital silence.
func WithSilentRaw(raw string) SessionOption {
	return func(fx *SessionFixture) {
		fx.raws[raw] = Silence(fx.Frames)
	}
}

// WithTruncatedRaw shortens raw by frames.
func WithTruncatedRaw(raw string, frames int) SessionOption {
	return func(fx *SessionFixture) {
		fx.raws[raw] = fx.raws[raw][:len(fx.raws[raw])-frames]
	}
}

// RawPath returns the on-disk path of raw.
func (fx *SessionFixture) RawPath(raw string) string {
	return filepath.Join(fx.RawDir, raw)
}

// StemPath returns the on-disk path of stem.
func (fx *SessionFixture) StemPath(stem string) string {
	return filepath.Join(fx.StemDir, stem)
}

// Session discovers the written fixture.
func (fx *SessionFixture) Session(t testing.TB) *session.Session {
	t.Helper()
	s, err := session.Discover(fx.RawDir, fx.StemDir, fx.MixPath)
	if err != nil {
		t.Fatalf("discover fixture session: %v", err)
	}
	return s
}

func (fx *SessionFixture) write(t testing.TB) {
	t.Helper()
	for name, signal := range fx.raws {
		WriteSignal(t, fx.RawPath(name), CD(1), signal)
	}
	for name, signal := range fx.stems {
		WriteSignal(t, fx.StemPath(name), CD(2), signal, signal)
	}
	WriteSignal(t, fx.MixPath, CD(2), fx.mix, fx.mix)
}
