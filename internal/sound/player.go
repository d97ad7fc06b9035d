package sound

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/sadopc/focusflow/internal/domain"
	"github.com/sadopc/focusflow/internal/logger"
)

// Player plays the chime through the system audio device via oto.
type Player struct {
	ctx *oto.Context
	log *logger.Logger
	pcm []byte

	mu     sync.Mutex
	active *oto.Player // currently playing, nil when idle
}

// NewPlayer initializes the audio context. Only one may exist per process.
// Returns an error wrapping domain.ErrNoAudio if the device is unavailable.
func NewPlayer(log *logger.Logger) (*Player, error) {
	if log == nil {
		log = logger.Discard()
	}
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio context: %w: %v", domain.ErrNoAudio, err)
	}
	<-readyChan

	log.Debug("audio player initialized (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return &Player{ctx: ctx, log: log, pcm: PCM(SampleRate)}, nil
}

// PlayChime starts the chime and returns immediately. A chime that is
// still ringing is cut off.
func (p *Player) PlayChime(ctx context.Context) error {
	p.Stop()

	player := p.ctx.NewPlayer(bytes.NewReader(p.pcm))
	p.mu.Lock()
	p.active = player
	p.mu.Unlock()

	player.Play()
	p.log.Debug("audio player: playing %d bytes of PCM", len(p.pcm))

	go p.wait(ctx, player)
	return nil
}

func (p *Player) wait(ctx context.Context, player *oto.Player) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
		case <-ticker.C:
		}
	}

	p.mu.Lock()
	if p.active == player {
		p.active = nil
	}
	p.mu.Unlock()

	if err := player.Close(); err != nil {
		p.log.Warn("audio player: close: %v", err)
	}
}

// Stop interrupts the chime, if any. Safe to call when nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	if active != nil {
		active.Pause()
		p.log.Debug("audio player: interrupted")
	}
}

// Nop is the silent fallback used when no audio device is available.
type Nop struct{}

// PlayChime does nothing.
func (Nop) PlayChime(context.Context) error { return nil }

// Bell rings the terminal bell instead of playing audio.
type Bell struct {
	Out io.Writer
}

// PlayChime writes BEL to Out.
func (b Bell) PlayChime(context.Context) error {
	if b.Out == nil {
		return nil
	}
	_, err := b.Out.Write([]byte{'\a'})
	return err
}

var (
	_ domain.Sound = (*Player)(nil)
	_ domain.Sound = Nop{}
	_ domain.Sound = Bell{}
)
