// Package session hosts a single table: it serializes every state change,
// drives bot turns through a decision provider and runs post-hand analysis.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/sanity-io/litter"
	"golang.org/x/sync/singleflight"

	"github.com/lox/llmholdem/internal/agent"
	"github.com/lox/llmholdem/internal/game"
	"github.com/lox/llmholdem/internal/history"
)

const (
	// DecisionLogLines is how much of the hand log a bot sees.
	DecisionLogLines  = 12
	analysisQueueSize = 16
)

var (
	// ErrDecisionTimeout is recorded as the reason for a timed-out bot fallback.
	ErrDecisionTimeout = errors.New("decision timeout")
	ErrInvalidEmote    = errors.New("invalid emote")
)

// Personality is one entry of the bot roster.
type Personality struct {
	Name     string
	Strategy string
	Avatar   string
}

// Options configure a Session.
type Options struct {
	Rules     game.Rules
	HumanName string
	Roster    []Personality
	Bots      int

	Decider agent.DecisionProvider
	Analyst agent.AnalysisProvider

	DecisionTimeout time.Duration
	AnalysisTimeout time.Duration
	ThinkDelay      time.Duration

	Archive      *history.Archive
	Clock        quartz.Clock
	Logger       *log.Logger
	TableOptions []game.Option
}

// Thought is the most recent bot reasoning.
type Thought struct {
	Name      string `json:"name"`
	Reasoning string `json:"reasoning"`
}

// Emote is a message thrown from the human seat at another seat.
type Emote struct {
	ID   int       `json:"id"`
	From string    `json:"from"`
	To   string    `json:"to"`
	Item string    `json:"item"`
	At   time.Time `json:"at"`
}

// Snapshot is the full host-facing state.
type Snapshot struct {
	game.TableView
	Human       string  `json:"human"`
	GameOver    bool    `json:"game_over"`
	Thinking    string  `json:"thinking,omitempty"`
	LastThought Thought `json:"last_thought"`
	LastEmote   *Emote  `json:"last_emote,omitempty"`
	Version     uint64  `json:"version"`
}

type analysisJob struct {
	result  game.HandEndEvent
	analyze bool
}

// Session is the single writer for one table.
type Session struct {
	mu          sync.Mutex
	table       *game.Table
	opts        Options
	logger      *log.Logger
	clock       quartz.Clock
	thinking    string
	lastThought Thought
	lastEmote   *Emote
	emotes      int
	version     uint64

	jobs      chan analysisJob
	botFlight singleflight.Group
	// life bounds shared bot runs, which outlive any single caller.
	life context.Context
	stop context.CancelFunc

	subsMu sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

// New seats the human and opts.Bots bots from the roster.
func New(opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Decider == nil {
		opts.Decider = agent.CheckFold{}
	}
	if opts.Analyst == nil {
		opts.Analyst = agent.NoAnalysis{}
	}
	if opts.HumanName == "" {
		opts.HumanName = "Human"
	}
	if len(opts.Roster) == 0 {
		return nil, errors.New("bot roster is empty")
	}

	life, stop := context.WithCancel(context.Background())
	s := &Session{
		life:        life,
		stop:        stop,
		opts:        opts,
		logger:      opts.Logger.WithPrefix("session"),
		clock:       opts.Clock,
		lastThought: Thought{Name: "System", Reasoning: "Waiting for game start..."},
		jobs:        make(chan analysisJob, analysisQueueSize),
		subs:        make(map[int]chan Snapshot),
	}

	players, err := s.seats(nil, opts.Bots)
	if err != nil {
		return nil, err
	}
	tableOpts := append([]game.Option{game.WithLogger(opts.Logger)}, opts.TableOptions...)
	table, err := game.NewTable(opts.Rules, players, tableOpts...)
	if err != nil {
		return nil, err
	}
	table.Events().Subscribe(game.EventSubscriberFunc(s.onEvent))
	s.table = table
	return s, nil
}

// seats builds the seat list for n bots, reusing current players so stacks
// survive a resize.
func (s *Session) seats(current []*game.Player, n int) ([]*game.Player, error) {
	if n < game.MinSeats-1 || n > game.MaxSeats-1 {
		return nil, fmt.Errorf("%d bots requested, want %d-%d: %w", n, game.MinSeats-1, game.MaxSeats-1, game.ErrSeatLimit)
	}
	stack := s.opts.Rules.StartingStack
	var human *game.Player
	var bots []*game.Player
	for _, p := range current {
		if p.IsBot {
			bots = append(bots, p)
		} else {
			human = p
		}
	}
	if human == nil {
		human = game.NewPlayer(s.opts.HumanName, false, stack)
	}
	for i := len(bots); i < n; i++ {
		bots = append(bots, s.newBot(i, stack))
	}
	return append([]*game.Player{human}, bots[:n]...), nil
}

// newBot creates the i-th bot; names repeat with a seat suffix once the
// roster is exhausted.
func (s *Session) newBot(i, stack int) *game.Player {
	p := s.opts.Roster[i%len(s.opts.Roster)]
	name := p.Name
	if i >= len(s.opts.Roster) {
		name = fmt.Sprintf("%s %d", p.Name, i+1)
	}
	bot := game.NewBot(name, p.Strategy, stack)
	bot.Avatar = p.Avatar
	return bot
}

// StartHand deals a new hand.
func (s *Session) StartHand() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.table.StartNewHand()
	s.notifyLocked()
	if err != nil {
		return fmt.Errorf("start hand: %w", err)
	}
	return nil
}

// SubmitAction applies the human's move.
func (s *Session) SubmitAction(move game.Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat := s.table.HumanIdx()
	applied, err := s.table.ExecuteMove(seat, move, "")
	if err != nil {
		return fmt.Errorf("submit action: %w", err)
	}
	s.logger.Debug("Human action", "requested", move, "applied", applied)
	s.notifyLocked()
	return nil
}

// BotStep plays at most one bot turn. It reports whether a move was applied.
// The table is unlocked while the provider runs; the result is discarded if
// the turn moved on in the meantime.
func (s *Session) BotStep(ctx context.Context) (bool, error) {
	s.mu.Lock()
	cur := s.table.Current()
	if !s.table.HandActive || cur == nil || !cur.IsBot {
		s.mu.Unlock()
		return false, nil
	}
	seat := s.table.CurrentIdx
	token := s.table.Turn()
	obs := s.observe(seat)
	s.thinking = cur.Name
	s.notifyLocked()
	s.mu.Unlock()

	d, err := s.decide(ctx, obs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.thinking == obs.Name {
		s.thinking = ""
	}
	if err != nil {
		s.notifyLocked()
		return false, err
	}
	if s.table.Turn() != token {
		s.logger.Warn("Discarding stale decision", "player", obs.Name, "hand", token.HandID)
		s.notifyLocked()
		return false, nil
	}
	if _, err := s.table.ExecuteMove(seat, d.Move, d.Reasoning); err != nil {
		return false, fmt.Errorf("apply bot move: %w", err)
	}
	s.lastThought = Thought{Name: obs.Name, Reasoning: d.Reasoning}
	s.notifyLocked()
	return true, nil
}

// RunBots plays bot turns until a human decision or the end of the hand.
// Concurrent calls share one run, bounded by the session rather than by any
// caller; a caller whose ctx ends stops waiting without stopping the run.
func (s *Session) RunBots(ctx context.Context) error {
	run := s.botFlight.DoChan("bots", func() (any, error) {
		for range game.MaxSeats * 64 {
			acted, err := s.BotStep(s.life)
			if err != nil || !acted {
				return nil, err
			}
		}
		return nil, errors.New("bot loop did not settle")
	})
	select {
	case res := <-run:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any bot run in flight. The session must not be used after.
func (s *Session) Close() {
	s.stop()
}

// decide waits the think delay then asks the provider, falling back when it
// fails or runs past the decision timeout. Only a cancelled ctx is an error.
func (s *Session) decide(ctx context.Context, obs agent.Observation) (agent.Decision, error) {
	if s.opts.ThinkDelay > 0 {
		paced := make(chan struct{})
		timer := s.clock.AfterFunc(s.opts.ThinkDelay, func() { close(paced) })
		select {
		case <-paced:
		case <-ctx.Done():
			timer.Stop()
			return agent.Decision{}, ctx.Err()
		}
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		d   agent.Decision
		err error
	}
	done := make(chan result, 1)
	go func() {
		d, err := agent.Decide(callCtx, s.opts.Decider, obs)
		done <- result{d, err}
	}()

	timeoutFired := make(chan struct{})
	if s.opts.DecisionTimeout > 0 {
		timer := s.clock.AfterFunc(s.opts.DecisionTimeout, func() { close(timeoutFired) })
		defer timer.Stop()
	}

	select {
	case r := <-done:
		if err := ctx.Err(); err != nil {
			return agent.Decision{}, err
		}
		if r.err != nil {
			s.logger.Warn("Decision provider failed, using fallback", "player", obs.Name, "error", r.err, "move", r.d.Move)
		}
		return r.d, nil
	case <-timeoutFired:
		d := agent.Fallback(obs, ErrDecisionTimeout)
		s.logger.Warn("Decision timeout, using fallback", "player", obs.Name, "timeout", s.opts.DecisionTimeout, "move", d.Move)
		return d, nil
	case <-ctx.Done():
		return agent.Decision{}, ctx.Err()
	}
}

func (s *Session) observe(seat int) agent.Observation {
	t := s.table
	p := t.Players[seat]
	return agent.Observation{
		Name:      p.Name,
		Role:      p.Role,
		Stage:     t.Stage,
		HoleCards: append(p.HoleCards[:0:0], p.HoleCards...),
		Board:     append(t.Board[:0:0], t.Board...),
		Pot:       t.Pot,
		Stack:     p.Stack,
		ToCall:    t.ToCall(seat),
		MinRaise:  t.MinRaiseIncrement(),
		Strategy:  p.Strategy,
		RecentLog: t.RecentLog(DecisionLogLines),
		Memory:    t.Memory.String(),
	}
}

// AdvanceStage deals the next street of a stalled all-in runout.
func (s *Session) AdvanceStage() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.table.AdvanceStage(); err != nil {
		return fmt.Errorf("advance stage: %w", err)
	}
	s.notifyLocked()
	return nil
}

// SetBotCount resizes the table between hands. Bots are added from the
// roster and removed from the last seat.
func (s *Session) SetBotCount(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table.HandActive {
		return fmt.Errorf("set bot count: %w", game.ErrHandInProgress)
	}
	players, err := s.seats(s.table.Players, n)
	if err != nil {
		return err
	}
	if err := s.table.SetPlayers(players); err != nil {
		return err
	}
	s.table.Note("Table resized to %d bots", n)
	s.logger.Info("Bot count changed", "bots", n)
	s.notifyLocked()
	return nil
}

// Rebuy adds a standard rebuy to the human's stack between hands.
func (s *Session) Rebuy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.table.Rebuy(s.opts.HumanName, s.opts.Rules.RebuyAmount); err != nil {
		return fmt.Errorf("rebuy: %w", err)
	}
	s.notifyLocked()
	return nil
}

var emoteText = map[string]string{
	"tomato": "%s threw a tomato at %s!",
	"tea":    "%s served tea to %s.",
	"bomb":   "%s dropped a bomb on %s!",
}

// Interact sends an emote from the human seat to target.
func (s *Session) Interact(target, item string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, p := s.table.PlayerByName(target); p == nil {
		return fmt.Errorf("no player named %q: %w", target, ErrInvalidEmote)
	}
	if item == "" {
		return fmt.Errorf("empty item: %w", ErrInvalidEmote)
	}
	format, ok := emoteText[item]
	if !ok {
		format = "%s sent " + item + " to %s"
	}
	s.emotes++
	s.lastEmote = &Emote{ID: s.emotes, From: s.opts.HumanName, To: target, Item: item, At: s.clock.Now()}
	s.table.Note(format, s.opts.HumanName, target)
	s.notifyLocked()
	return nil
}

// Snapshot returns the current state. It never mutates the table.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		TableView:   s.table.View(s.opts.HumanName),
		Human:       s.opts.HumanName,
		GameOver:    s.table.Stage == game.StageGameOver,
		Thinking:    s.thinking,
		LastThought: s.lastThought,
		Version:     s.version,
	}
	if s.lastEmote != nil {
		e := *s.lastEmote
		snap.LastEmote = &e
	}
	return snap
}

// Subscribe delivers a snapshot after every change. Slow subscribers only
// see the latest snapshot. Call the returned func to unsubscribe.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	ch <- s.snapshotLocked()
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()
	s.mu.Unlock()

	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

func (s *Session) notifyLocked() {
	s.version++
	snap := s.snapshotLocked()
	if s.logger.GetLevel() <= log.DebugLevel {
		s.logger.Debug("State changed", "version", snap.Version, "snapshot", litter.Sdump(snap))
	}

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// onEvent runs under s.mu because the table only publishes from inside
// session methods.
func (s *Session) onEvent(e game.Event) {
	end, ok := e.(game.HandEndEvent)
	if !ok {
		return
	}
	job := analysisJob{
		result:  end,
		analyze: !end.HumanFoldedPreflop && end.HumanCards != "",
	}
	select {
	case s.jobs <- job:
	default:
		s.logger.Warn("Analysis queue full, dropping hand", "hand", end.HandID)
	}
}

// Run archives finished hands and feeds analysis into table memory until
// ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-s.jobs:
			s.process(ctx, job)
		}
	}
}

func (s *Session) process(ctx context.Context, job analysisJob) {
	r := job.result
	if s.opts.Archive != nil {
		if err := s.opts.Archive.Write(r); err != nil {
			s.logger.Error("Failed to archive hand", "hand", r.HandID, "error", err)
		}
	}
	if !job.analyze {
		s.logger.Debug("Skipping analysis", "hand", r.HandID)
		return
	}

	actx, cancel := context.WithCancel(ctx)
	defer cancel()
	if s.opts.AnalysisTimeout > 0 {
		timer := s.clock.AfterFunc(s.opts.AnalysisTimeout, cancel)
		defer timer.Stop()
	}
	summary, err := s.opts.Analyst.Analyze(actx, agent.HandSummary{
		HandNumber: r.HandNumber,
		Log:        r.Log,
		Winners:    r.WinnerNames(),
		HumanCards: r.HumanCards,
	})
	if err != nil {
		s.logger.Warn("Hand analysis failed", "hand", r.HandID, "error", err)
		return
	}
	if summary == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.table.Memory.Add(r.HandNumber, summary)
	s.logger.Info("Memory updated", "hand", r.HandNumber, "entries", s.table.Memory.Len())
	s.notifyLocked()
}
