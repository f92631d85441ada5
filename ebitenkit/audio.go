package ebitenkit

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"

	"github.com/m2c2kit/m2c2"
)

// DefaultSampleRate is the audio context rate used by Run.
const DefaultSampleRate = 48000

// Sounds is an m2c2.SoundManager that decodes WAV and MP3 files into
// memory and plays them through an audio.Context.
type Sounds struct {
	*m2c2.MemorySounds
	ctx  *audio.Context
	fsys fs.FS
}

// NewSounds returns a sound manager reading files from fsys.
func NewSounds(ctx *audio.Context, fsys fs.FS) *Sounds {
	return &Sounds{MemorySounds: m2c2.NewMemorySounds(), ctx: ctx, fsys: fsys}
}

// Load decodes the file at p and registers it as name. A failed load is
// stored as an AssetError resource and returned.
func (s *Sounds) Load(name, p string) error {
	s.Set(m2c2.SoundResource{Name: name, Status: m2c2.AssetLoading})
	data, err := s.decode(p)
	if err != nil {
		err = fmt.Errorf("ebitenkit: load sound %q: %w", name, err)
		s.Set(m2c2.SoundResource{Name: name, Status: m2c2.AssetError, Err: err})
		return err
	}
	s.Set(m2c2.SoundResource{
		Name:   name,
		Status: m2c2.AssetReady,
		Buffer: &soundBuffer{ctx: s.ctx, data: data},
	})
	return nil
}

func (s *Sounds) decode(p string) ([]byte, error) {
	f, err := s.fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var stream io.Reader
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".wav":
		stream, err = wav.DecodeWithSampleRate(s.ctx.SampleRate(), f)
	case ".mp3":
		stream, err = mp3.DecodeWithSampleRate(s.ctx.SampleRate(), f)
	default:
		return nil, fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	return io.ReadAll(stream)
}

// soundBuffer holds decoded PCM; each Play creates a new player.
type soundBuffer struct {
	ctx  *audio.Context
	data []byte
}

func (b *soundBuffer) Play() (m2c2.AudioSource, error) {
	p := b.ctx.NewPlayerFromBytes(b.data)
	p.Play()
	return &audioSource{player: p}, nil
}

type audioSource struct {
	player  *audio.Player
	stopped bool
}

func (a *audioSource) Done() bool { return a.stopped || !a.player.IsPlaying() }

func (a *audioSource) Stop() {
	if a.stopped {
		return
	}
	a.stopped = true
	a.player.Pause()
	a.player.Close()
}
