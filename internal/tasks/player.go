package tasks

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotConnected   = errors.New("not in a voice channel")
	ErrNothingPlaying = errors.New("nothing playing")
)

// Player is the playback collaborator that receives resolved references.
//
// Volume is a gain where 1.0 is unchanged.
type Player interface {
	// Enqueue appends refs to the guild's queue and returns the resulting queue length.
	Enqueue(ctx context.Context, guildID int64, refs []string) (int, error)
	// Stop clears the guild's queue.
	Stop(ctx context.Context, guildID int64) error
	Volume(ctx context.Context, guildID int64) (float32, error)
	SetVolume(ctx context.Context, guildID int64, volume float32) error
}

type guildQueue struct {
	refs   []string
	volume float32
}

// MemoryPlayer keeps per-guild queues in memory. A guild must be joined before it accepts tracks.
type MemoryPlayer struct {
	mu     sync.Mutex
	guilds map[int64]*guildQueue
}

func NewMemoryPlayer() *MemoryPlayer {
	return &MemoryPlayer{guilds: make(map[int64]*guildQueue)}
}

// Join connects the player to a guild at full volume. Joining twice keeps the existing queue.
func (p *MemoryPlayer) Join(guildID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.guilds[guildID]; !ok {
		p.guilds[guildID] = &guildQueue{volume: 1}
	}
}

// Leave disconnects from a guild and drops its queue.
func (p *MemoryPlayer) Leave(guildID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.guilds, guildID)
}

// Queue returns a copy of the guild's queue; the first entry is the one playing.
func (p *MemoryPlayer) Queue(guildID int64) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.guilds[guildID]
	if !ok {
		return nil
	}
	return append([]string(nil), q.refs...)
}

func (p *MemoryPlayer) Enqueue(_ context.Context, guildID int64, refs []string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.guilds[guildID]
	if !ok {
		return 0, ErrNotConnected
	}
	q.refs = append(q.refs, refs...)
	return len(q.refs), nil
}

func (p *MemoryPlayer) Stop(_ context.Context, guildID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.guilds[guildID]
	if !ok {
		return ErrNotConnected
	}
	q.refs = nil
	return nil
}

func (p *MemoryPlayer) Volume(_ context.Context, guildID int64) (float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, err := p.current(guildID)
	if err != nil {
		return 0, err
	}
	return q.volume, nil
}

func (p *MemoryPlayer) SetVolume(_ context.Context, guildID int64, volume float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, err := p.current(guildID)
	if err != nil {
		return err
	}
	q.volume = volume
	return nil
}

// current returns the guild's queue when something is playing. Callers hold mu.
func (p *MemoryPlayer) current(guildID int64) (*guildQueue, error) {
	q, ok := p.guilds[guildID]
	if !ok {
		return nil, ErrNotConnected
	}
	if len(q.refs) == 0 {
		return nil, ErrNothingPlaying
	}
	return q, nil
}
