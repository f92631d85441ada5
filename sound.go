package m2c2

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// SoundPlayerOptions configure a SoundPlayer.
type SoundPlayerOptions struct {
	NodeOptions `mapstructure:",squash"`
	SoundName   string `json:"soundName,omitempty" mapstructure:"soundName"`
}

type soundPlayerState struct {
	soundName string
}

// NewSoundPlayer creates a node that plays the sound registered as
// SoundName when it runs a Play action.
func NewSoundPlayer(opts SoundPlayerOptions) *Node {
	return newSoundPlayer(opts, "")
}

func newSoundPlayer(opts SoundPlayerOptions, id string) *Node {
	n := newNodeBase(NodeTypeSoundPlayer, opts.NodeOptions, id)
	n.sound = &soundPlayerState{soundName: opts.SoundName}
	n.recordNew(opts)
	return n
}

// SoundName returns the sound a SoundPlayer plays.
func (n *Node) SoundName() string {
	n.mustBe("soundName", NodeTypeSoundPlayer)
	return n.sound.soundName
}

// SetSoundName changes the sound a SoundPlayer plays.
func (n *Node) SetSoundName(name string) {
	n.mustBe("soundName", NodeTypeSoundPlayer)
	setProperty(n, "soundName", &n.sound.soundName, name, false)
}

// evaluatePlay starts playback once the sound is ready and completes the
// action when playback ends, back-filling the action's duration with the
// time measured from its scheduled start.
func (n *Node) evaluatePlay(a *PlayAction, start, now float64) {
	if n.nodeType != NodeTypeSoundPlayer {
		panic(fmt.Sprintf("m2c2: Play action can only run on a SoundPlayer, not %s", n))
	}
	b := a.base()
	if a.source == nil {
		g := n.Game()
		if g == nil || g.sounds == nil {
			return
		}
		res := g.sounds.Sound(n.sound.soundName)
		switch res.Status {
		case AssetReady:
		case AssetError:
			panic(&AssetLoadError{Kind: "sound", Name: res.Name, Err: res.Err})
		default:
			warnAssetNotReady("sound", n.sound.soundName, res.Status, n)
			return
		}
		src, err := res.Buffer.Play()
		if err != nil {
			panic(&AssetLoadError{Kind: "sound", Name: res.Name, Err: err})
		}
		a.source = src
		b.started = true
		logger().Debug("sound started", zap.String("sound", res.Name), zap.Float64("at", now))
	}
	if a.source.Done() {
		a.source = nil
		b.duration.Assign(now - start)
		finish(b)
	}
}

// --- SoundRecorder ---

// SoundRecorderOptions configure a SoundRecorder. A positive
// MaximumDuration, in milliseconds, stops recording automatically.
type SoundRecorderOptions struct {
	NodeOptions     `mapstructure:",squash"`
	MaximumDuration *float64 `json:"maximumDuration,omitempty" mapstructure:"maximumDuration"`
}

// Recording is captured audio.
type Recording struct {
	Data     []byte
	MimeType string
	// Duration in milliseconds.
	Duration float64
}

// Recorder captures microphone audio for a SoundRecorder.
type Recorder interface {
	Start() error
	Stop() (Recording, error)
}

// ErrNoRecorder is returned when a SoundRecorder starts in a game without
// a Recorder.
var ErrNoRecorder = errors.New("m2c2: no recorder available")

type soundRecorderState struct {
	maximumDuration float64
	recording       bool
	startedAt       float64
	last            *Recording
	onComplete      []func(Recording)
}

// NewSoundRecorder creates a node that records audio through the game's
// Recorder.
func NewSoundRecorder(opts SoundRecorderOptions) *Node {
	return newSoundRecorder(opts, "")
}

func newSoundRecorder(opts SoundRecorderOptions, id string) *Node {
	n := newNodeBase(NodeTypeSoundRecorder, opts.NodeOptions, id)
	n.recorder = &soundRecorderState{}
	if opts.MaximumDuration != nil {
		n.recorder.maximumDuration = *opts.MaximumDuration
	}
	n.recordNew(opts)
	return n
}

// SetMaximumDuration sets the automatic stop time of a SoundRecorder.
func (n *Node) SetMaximumDuration(ms float64) {
	n.mustBe("maximumDuration", NodeTypeSoundRecorder)
	setProperty(n, "maximumDuration", &n.recorder.maximumDuration, ms, false)
}

// IsRecording reports whether a SoundRecorder is capturing audio.
func (n *Node) IsRecording() bool {
	n.mustBe("isRecording", NodeTypeSoundRecorder)
	return n.recorder.recording
}

// StartRecording begins capturing audio.
func (n *Node) StartRecording() error {
	n.mustBe("startRecording", NodeTypeSoundRecorder)
	if n.recorder.recording {
		return nil
	}
	g := n.Game()
	if g == nil || g.recorder == nil {
		return ErrNoRecorder
	}
	if err := g.recorder.Start(); err != nil {
		return fmt.Errorf("m2c2: start recording: %w", err)
	}
	n.recorder.recording = true
	n.recorder.startedAt = n.frameNow()
	return nil
}

// StopRecording ends capturing and returns the recording. Callbacks given
// to OnRecordingComplete run with the result.
func (n *Node) StopRecording() (Recording, error) {
	n.mustBe("stopRecording", NodeTypeSoundRecorder)
	if !n.recorder.recording {
		return Recording{}, errors.New("m2c2: sound recorder is not recording")
	}
	n.recorder.recording = false
	g := n.Game()
	if g == nil || g.recorder == nil {
		return Recording{}, ErrNoRecorder
	}
	rec, err := g.recorder.Stop()
	if err != nil {
		return Recording{}, fmt.Errorf("m2c2: stop recording: %w", err)
	}
	n.recorder.last = &rec
	for _, fn := range n.recorder.onComplete {
		fn(rec)
	}
	return rec, nil
}

// LastRecording returns the most recent recording, if any.
func (n *Node) LastRecording() (Recording, bool) {
	n.mustBe("lastRecording", NodeTypeSoundRecorder)
	if n.recorder.last == nil {
		return Recording{}, false
	}
	return *n.recorder.last, true
}

// OnRecordingComplete registers fn to receive each finished recording.
func (n *Node) OnRecordingComplete(fn func(Recording)) {
	n.mustBe("onRecordingComplete", NodeTypeSoundRecorder)
	n.recorder.onComplete = append(n.recorder.onComplete, fn)
}

func (n *Node) checkRecordingLimit(now float64) {
	r := n.recorder
	if !r.recording || r.maximumDuration <= 0 || now-r.startedAt < r.maximumDuration {
		return
	}
	if _, err := n.StopRecording(); err != nil {
		logger().Error("stop recording at maximum duration", zap.Stringer("node", n), zap.Error(err))
	}
}
