package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HammerMeetNail/birthdaysurprise/internal/logging"
	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
)

// MessageSink durably stores a letter.
type MessageSink interface {
	Submit(ctx context.Context, content, sender string) (*models.Message, error)
}

// Composer hands the letter to the visitor's email client.
type Composer interface {
	Compose(ctx context.Context, to, subject, body string) error
}

// ElapsedStore persists the countdown-elapsed flag across visits.
type ElapsedStore interface {
	CountdownElapsed(ctx context.Context) (bool, error)
	MarkCountdownElapsed(ctx context.Context) error
}

// Snapshot is published after every processed event.
type Snapshot struct {
	Session      Session
	View         View
	TickerActive bool
}

type Option func(*Engine)

func WithSink(sink MessageSink) Option {
	return func(e *Engine) { e.sink = sink }
}

func WithComposer(c Composer) Option {
	return func(e *Engine) { e.composer = c }
}

func WithElapsedStore(store ElapsedStore) Option {
	return func(e *Engine) { e.store = store }
}

func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces time.Now, the tick interval and the celebration timer.
func WithClock(now func() time.Time, tickInterval time.Duration, after func(time.Duration) <-chan time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
		if tickInterval > 0 {
			e.tickInterval = tickInterval
		}
		if after != nil {
			e.after = after
		}
	}
}

// Engine hosts one Session. A single goroutine (Run) processes events one at
// a time; timers and the sink call feed their results back as events.
type Engine struct {
	cfg      models.SurpriseConfig
	sink     MessageSink
	composer Composer
	store    ElapsedStore
	logger   *logging.Logger

	now          func() time.Time
	tickInterval time.Duration
	after        func(time.Duration) <-chan time.Time

	events chan Input

	mu      sync.Mutex
	current Snapshot
	subs    []chan Snapshot
	started bool
	stopped bool

	// owned by the Run goroutine
	session    Session
	stopTicker context.CancelFunc
	wg         sync.WaitGroup
}

func NewEngine(cfg models.SurpriseConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:          cfg,
		logger:       logging.Default,
		now:          time.Now,
		tickInterval: time.Second,
		after:        time.After,
		events:       make(chan Input, 16),
		session:      NewSession(false),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.current = e.snapshot()
	return e
}

func (e *Engine) env() Env {
	return Env{Now: e.now(), Target: e.cfg.Target(), Gifts: e.cfg.Gifts}
}

func (e *Engine) snapshot() Snapshot {
	return Snapshot{
		Session:      e.session,
		View:         BuildView(e.session, e.cfg, e.now()),
		TickerActive: e.stopTicker != nil,
	}
}

// Snapshot returns the most recently published state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Subscribe returns a channel of snapshots. Slow readers only miss
// intermediate snapshots; the newest is always delivered. The channel is
// closed when Run returns, so a late subscriber gets the final snapshot and
// then a closed channel.
func (e *Engine) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	e.mu.Lock()
	defer e.mu.Unlock()
	ch <- e.current
	if e.stopped {
		close(ch)
		return ch
	}
	e.subs = append(e.subs, ch)
	return ch
}

func (e *Engine) publish() {
	snap := e.snapshot()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = snap
	for _, ch := range e.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Send queues an input. It returns false once ctx is done.
func (e *Engine) Send(ctx context.Context, in Input) bool {
	select {
	case e.events <- in:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run processes events until ctx is cancelled. It may only be called once.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("flow: engine already running")
	}
	e.started = true
	e.mu.Unlock()

	if e.store != nil {
		elapsed, err := e.store.CountdownElapsed(ctx)
		if err != nil {
			e.logger.Warn("Could not restore countdown state", map[string]interface{}{"error": err.Error()})
		}
		e.session.CountdownElapsed = elapsed
	}

	e.apply(ctx, Begin(e.session))
	e.publish()

	defer func() {
		e.haltTicker()
		e.wg.Wait()
		e.mu.Lock()
		e.stopped = true
		for _, ch := range e.subs {
			close(ch)
		}
		e.subs = nil
		e.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case in := <-e.events:
			next, effects := Step(e.session, in, e.env())
			e.session = next
			e.apply(ctx, effects)
			e.publish()
		}
	}
}

func (e *Engine) apply(ctx context.Context, effects []Effect) {
	for _, eff := range effects {
		switch eff := eff.(type) {
		case StartTicker:
			e.startTicker(ctx)
		case StopTicker:
			e.haltTicker()
		case PersistElapsed:
			e.persistElapsed(ctx)
		case ScheduleCelebration:
			e.scheduleCelebration(ctx, eff.Delay)
		case SubmitMessage:
			e.submit(ctx, eff)
		}
	}
}

func (e *Engine) startTicker(ctx context.Context) {
	if e.stopTicker != nil {
		return
	}
	tickCtx, cancel := context.WithCancel(ctx)
	e.stopTicker = cancel
	interval := e.tickInterval
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				if !e.Send(tickCtx, Tick{}) {
					return
				}
			}
		}
	}()
}

func (e *Engine) haltTicker() {
	if e.stopTicker != nil {
		e.stopTicker()
		e.stopTicker = nil
	}
}

func (e *Engine) persistElapsed(ctx context.Context) {
	if e.store == nil {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.store.MarkCountdownElapsed(ctx); err != nil {
			e.logger.Warn("Could not persist countdown state", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func (e *Engine) scheduleCelebration(ctx context.Context, delay time.Duration) {
	timer := e.after(delay)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		select {
		case <-ctx.Done():
		case <-timer:
			e.Send(ctx, CelebrationElapsed{})
		}
	}()
}

func (e *Engine) submit(ctx context.Context, msg SubmitMessage) {
	sink, composer, cfg := e.sink, e.composer, e.cfg
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		result := SubmitResult{}
		if sink == nil {
			result.Err = fmt.Errorf("flow: no message sink configured")
		} else {
			result.Message, result.Err = sink.Submit(ctx, msg.Content, msg.Sender)
		}
		if result.Err != nil {
			e.logger.Warn("Message submission failed", map[string]interface{}{"error": result.Err.Error()})
		}
		if composer != nil {
			subject := fmt.Sprintf("A birthday letter from %s", cfg.RecipientName)
			if err := composer.Compose(ctx, cfg.SenderEmail, subject, msg.Content); err != nil {
				e.logger.Warn("Could not open email composer", map[string]interface{}{"error": err.Error()})
			} else {
				result.ComposerOpened = true
			}
		}
		e.Send(ctx, result)
	}()
}
