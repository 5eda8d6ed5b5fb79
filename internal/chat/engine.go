// Package chat holds the message reconciliation engine: it merges a
// bulk-fetched message history with an open live feed into a single
// ordered, de-duplicated, append-only sequence, enriching each message
// with sender display data from the profile cache.
package chat

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ZorinDanil/vestnik/internal/apperr"
	"github.com/ZorinDanil/vestnik/internal/models"
)

// State is the engine lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLive:
		return "live"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Resolver resolves sender display data. *profiles.Cache satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (*models.Profile, error)
}

// HistoryFetcher fetches the bulk message history. *api.ChatClient
// satisfies it.
type HistoryFetcher interface {
	GetMessageHistory(ctx context.Context, chatID, token string) ([]models.Message, error)
}

// Channel is the live feed the engine consumes and transmits on.
type Channel interface {
	Incoming() <-chan models.Message
	Send(msg models.OutboundMessage) error
	Close() error
}

// OpenChannelFunc opens the live channel for a chat.
type OpenChannelFunc func(ctx context.Context, chatID, token string) (Channel, error)

// Engine reconciles one chat session. Lifecycle: Idle -> Loading ->
// Live -> Closed; re-entry requires a fresh Engine.
type Engine struct {
	chatID string
	selfID string
	token  string

	history HistoryFetcher
	resolve Resolver
	open    OpenChannelFunc
	logger  zerolog.Logger

	mu            sync.Mutex
	state         State
	seq           []models.EnrichedMessage
	seen          map[string]struct{}
	historyLoaded bool
	channel       Channel

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
	updates   chan struct{}
}

// NewEngine builds an idle engine for one chat session.
func NewEngine(chatID, selfID, token string, history HistoryFetcher, resolve Resolver, open OpenChannelFunc, logger zerolog.Logger) *Engine {
	return &Engine{
		chatID:  chatID,
		selfID:  selfID,
		token:   token,
		history: history,
		resolve: resolve,
		open:    open,
		logger: logger.With().
			Str("component", "chat_engine").
			Str("engine_id", uuid.NewString()).
			Str("chat_id", chatID).
			Logger(),
		seen:    make(map[string]struct{}),
		updates: make(chan struct{}, 1),
	}
}

// Start opens the live channel and kicks off the history load. The two
// run concurrently: live events arriving before history completes are
// kept and merged, never overwritten. A live-channel dial failure is
// not fatal; the view degrades to history only.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return apperr.Internal("engine already started")
	}
	e.state = StateLoading
	e.mu.Unlock()

	e.ctx, e.cancel = context.WithCancel(ctx)

	ch, err := e.open(e.ctx, e.chatID, e.token)
	if err != nil {
		e.logger.Warn().Err(err).Msg("live channel unavailable, history only")
	}

	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		if ch != nil {
			_ = ch.Close()
		}
		close(e.updates)
		return nil
	}
	e.channel = ch
	e.state = StateLive
	e.mu.Unlock()

	if ch != nil {
		e.wg.Add(1)
		go e.consumeLive(ch)
	}

	e.wg.Add(1)
	go e.loadHistory()

	go func() {
		e.wg.Wait()
		close(e.updates)
	}()
	return nil
}

// Messages returns a snapshot of the display sequence: history sorted
// by timestamp ascending, live entries appended after in arrival order.
func (e *Engine) Messages() []models.EnrichedMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.EnrichedMessage, len(e.seq))
	copy(out, e.seq)
	return out
}

// HistoryLoaded reports whether the initial history load has settled.
func (e *Engine) HistoryLoaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.historyLoaded
}

// State returns the engine lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Updates signals that the display sequence changed. Signals coalesce;
// consumers read Messages for the current snapshot. The channel closes
// after Close once all engine goroutines have drained.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

// Send transmits a user-composed message over the live channel. The
// engine never appends the message locally: the server echoes sent
// messages back to their sender, and the echo path is the only append
// path. That echo is an explicit contract on the chat service.
func (e *Engine) Send(content string) error {
	e.mu.Lock()
	ch := e.channel
	state := e.state
	e.mu.Unlock()

	if state != StateLive {
		return apperr.Internal("engine is " + state.String())
	}
	if ch == nil {
		return apperr.Unavailable("live channel not open", nil)
	}
	return ch.Send(models.OutboundMessage{
		Content:  content,
		SenderID: e.selfID,
		ChatID:   e.chatID,
	})
}

// Close tears the session down: the live channel is closed exactly
// once and no further enrichment or append happens afterwards.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		prev := e.state
		e.state = StateClosed
		ch := e.channel
		e.mu.Unlock()

		if e.cancel != nil {
			e.cancel()
		}
		if ch != nil {
			err = ch.Close()
		}
		// Never started: no goroutines hold the updates channel.
		if prev == StateIdle {
			close(e.updates)
		}
	})
	return err
}

func (e *Engine) closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateClosed
}

// loadHistory fetches the history, resolves every distinct sender
// through the cache (fan-out, joined before proceeding) and merges the
// enriched, time-ordered result ahead of any live entries that arrived
// in the meantime.
func (e *Engine) loadHistory() {
	defer e.wg.Done()

	msgs, err := e.history.GetMessageHistory(e.ctx, e.chatID, e.token)
	if err != nil {
		// Degrade to an empty view rather than crashing the session.
		e.logger.Warn().Err(err).Msg("history fetch failed")
		e.mu.Lock()
		e.historyLoaded = true
		e.mu.Unlock()
		e.notify()
		return
	}

	profilesBySender := e.resolveSenders(msgs)
	if e.closed() {
		return
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})

	enriched := make([]models.EnrichedMessage, 0, len(msgs))
	histIDs := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		id := m.Identity()
		if _, dup := histIDs[id]; dup {
			continue
		}
		histIDs[id] = struct{}{}
		enriched = append(enriched, enrich(m, profilesBySender[m.SenderID]))
	}

	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	// Merge, never replace: keep the live tail that arrived while the
	// history was loading, minus anything the history already covers.
	merged := enriched
	for _, live := range e.seq {
		if _, dup := histIDs[live.Identity()]; dup {
			continue
		}
		merged = append(merged, live)
	}
	e.seq = merged
	for id := range histIDs {
		e.seen[id] = struct{}{}
	}
	e.historyLoaded = true
	e.mu.Unlock()

	e.logger.Debug().Int("messages", len(merged)).Msg("history reconciled")
	e.notify()
}

// resolveSenders fans out one Resolve per distinct sender and waits
// for all of them. Failed lookups are tolerated; those messages render
// with fallback display data.
func (e *Engine) resolveSenders(msgs []models.Message) map[string]*models.Profile {
	distinct := make(map[string]struct{})
	for _, m := range msgs {
		distinct[m.SenderID] = struct{}{}
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	out := make(map[string]*models.Profile, len(distinct))
	for senderID := range distinct {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			p, err := e.resolve.Resolve(e.ctx, id)
			if err != nil {
				return
			}
			mu.Lock()
			out[id] = p
			mu.Unlock()
		}(senderID)
	}
	wg.Wait()
	return out
}

// consumeLive appends each inbound live event: filter on chat id,
// resolve the sender, append to the tail. Runs until the channel
// closes or the engine does.
func (e *Engine) consumeLive(ch Channel) {
	defer e.wg.Done()

	for msg := range ch.Incoming() {
		if e.closed() {
			return
		}
		// The live channel is not guaranteed to be scoped server-side.
		if msg.ChatID != e.chatID {
			e.logger.Debug().Str("got_chat_id", msg.ChatID).Msg("dropping stray live message")
			continue
		}

		profile, err := e.resolve.Resolve(e.ctx, msg.SenderID)
		if err != nil {
			e.logger.Warn().Err(err).Str("sender_id", msg.SenderID).Msg("sender lookup failed")
		}

		e.mu.Lock()
		if e.state == StateClosed {
			e.mu.Unlock()
			return
		}
		id := msg.Identity()
		if _, dup := e.seen[id]; dup {
			e.mu.Unlock()
			continue
		}
		e.seen[id] = struct{}{}
		e.seq = append(e.seq, enrich(msg, profile))
		e.mu.Unlock()

		e.notify()
	}
}

func (e *Engine) notify() {
	select {
	case e.updates <- struct{}{}:
	default:
	}
}

func enrich(m models.Message, p *models.Profile) models.EnrichedMessage {
	em := models.EnrichedMessage{Message: m, SenderName: m.SenderID}
	if p != nil {
		em.SenderName = p.DisplayName()
		em.SenderProfilePicture = p.ProfilePictureURL
	}
	return em
}
