package bot

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Proton-105/fish-shop-bot/internal/conversation"
	"github.com/Proton-105/fish-shop-bot/pkg/logger"
)

// ErrSequencerClosed is returned when an event is submitted after Close.
var ErrSequencerClosed = errors.New("sequencer: closed")

// EventHandler processes a single conversation event.
type EventHandler func(ctx context.Context, ev conversation.Event) error

// SequencerOptions tunes the worker pool.
type SequencerOptions struct {
	Workers   int
	QueueSize int
	// Timeout bounds the processing of one event.
	Timeout time.Duration
}

type task struct {
	ctx context.Context
	ev  conversation.Event
}

// Sequencer runs events on a fixed pool of workers. Events are sharded by
// chat id, so events of one chat are handled one at a time and in arrival
// order while different chats proceed in parallel.
type Sequencer struct {
	opts   SequencerOptions
	handle EventHandler
	log    *slog.Logger
	shards []chan task
	stop   chan struct{}
	mu     sync.RWMutex
	closed bool
	once   sync.Once
	wg     sync.WaitGroup
}

func NewSequencer(handle EventHandler, opts SequencerOptions, log *slog.Logger) *Sequencer {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Sequencer{
		opts:   opts,
		handle: handle,
		log:    log,
		shards: make([]chan task, opts.Workers),
		stop:   make(chan struct{}),
	}

	s.wg.Add(opts.Workers)
	for i := range s.shards {
		s.shards[i] = make(chan task, opts.QueueSize)
		go s.worker(s.shards[i])
	}

	return s
}

// Submit enqueues ev on the shard of its chat. It blocks while the shard is
// full, which pushes back on the update poller.
func (s *Sequencer) Submit(ctx context.Context, ev conversation.Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSequencerClosed
	}

	shard := s.shards[shardIndex(ev.ChatID, len(s.shards))]
	select {
	case shard <- task{ctx: context.WithoutCancel(ctx), ev: ev}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stop:
		return ErrSequencerClosed
	}
}

// Close stops accepting events and waits until queued events are processed.
func (s *Sequencer) Close() {
	s.once.Do(func() {
		close(s.stop)

		s.mu.Lock()
		s.closed = true
		for _, shard := range s.shards {
			close(shard)
		}
		s.mu.Unlock()

		s.wg.Wait()
	})
}

func (s *Sequencer) worker(tasks <-chan task) {
	defer s.wg.Done()
	for t := range tasks {
		s.run(t)
	}
}

func (s *Sequencer) run(t task) {
	ctx, cancel := context.WithTimeout(t.ctx, s.opts.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, "panic recovered while handling event",
				slog.Int64("chat_id", t.ev.ChatID),
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	// the engine has already logged and reported the failure
	_ = s.handle(ctx, t.ev)
}

func shardIndex(chatID int64, n int) int {
	idx := chatID % int64(n)
	if idx < 0 {
		idx = -idx
	}
	return int(idx)
}
