package session

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/llmholdem/internal/agent"
	"github.com/lox/llmholdem/internal/game"
	"github.com/lox/llmholdem/internal/history"
	"github.com/lox/llmholdem/internal/randutil"
)

var testRoster = []Personality{
	{Name: "Jack", Strategy: "Aggressive."},
	{Name: "Emma", Strategy: "Tight."},
	{Name: "Bob", Strategy: "Loose."},
}

type sessionConfig struct {
	opts Options
}

type SessionOption func(*sessionConfig)

func WithBots(n int) SessionOption {
	return func(c *sessionConfig) { c.opts.Bots = n }
}

func WithDecider(d agent.DecisionProvider) SessionOption {
	return func(c *sessionConfig) { c.opts.Decider = d }
}

func WithAnalyst(a agent.AnalysisProvider) SessionOption {
	return func(c *sessionConfig) { c.opts.Analyst = a }
}

func WithDecisionTimeout(d time.Duration) SessionOption {
	return func(c *sessionConfig) { c.opts.DecisionTimeout = d }
}

func WithThinkDelay(d time.Duration) SessionOption {
	return func(c *sessionConfig) { c.opts.ThinkDelay = d }
}

func WithArchive(a *history.Archive) SessionOption {
	return func(c *sessionConfig) { c.opts.Archive = a }
}

func WithClock(clock quartz.Clock) SessionOption {
	return func(c *sessionConfig) { c.opts.Clock = clock }
}

func NewTestSession(t *testing.T, opts ...SessionOption) *Session {
	t.Helper()
	cfg := &sessionConfig{opts: Options{
		Rules:        game.DefaultRules(),
		Roster:       testRoster,
		Bots:         3,
		Decider:      agent.CheckFold{},
		Clock:        quartz.NewMock(t),
		Logger:       log.New(io.Discard),
		TableOptions: []game.Option{game.WithRNG(randutil.New(7))},
	}}
	for _, opt := range opts {
		opt(cfg)
	}
	s, err := New(cfg.opts)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// playToEnd calls every human decision and lets bots act until the hand ends.
func playToEnd(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		require.NoError(t, s.RunBots(ctx))
		snap := s.Snapshot()
		if !snap.HandActive {
			return
		}
		require.Equal(t, snap.Human, snap.Turn)
		require.NoError(t, s.SubmitAction(game.CallMove()))
	}
	t.Fatal("hand did not finish")
}

// stepWithClock runs BotStep while advancing the mock clock by step until
// it returns.
func stepWithClock(t *testing.T, s *Session, clock *quartz.Mock, step time.Duration) bool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		acted bool
		err   error
	}
	done := make(chan result, 1)
	go func() {
		acted, err := s.BotStep(ctx)
		done <- result{acted, err}
	}()
	for {
		select {
		case r := <-done:
			require.NoError(t, r.err)
			return r.acted
		case <-ctx.Done():
			t.Fatal("bot step did not finish")
		default:
			clock.Advance(step).MustWait(ctx)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestNewSeatsHumanAndRoster(t *testing.T) {
	s := NewTestSession(t)
	snap := s.Snapshot()

	require.Len(t, snap.Seats, 4)
	assert.Equal(t, "Human", snap.Seats[0].Name)
	assert.False(t, snap.Seats[0].IsBot)
	for i, want := range []string{"Jack", "Emma", "Bob"} {
		assert.Equal(t, want, snap.Seats[i+1].Name)
		assert.True(t, snap.Seats[i+1].IsBot)
	}
	assert.Equal(t, "WAITING", snap.Stage)
	assert.Equal(t, "System", snap.LastThought.Name)
}

func TestNewRejectsBadBotCount(t *testing.T) {
	_, err := New(Options{Rules: game.DefaultRules(), Roster: testRoster, Bots: 6})
	assert.ErrorIs(t, err, game.ErrSeatLimit)

	_, err = New(Options{Rules: game.DefaultRules(), Roster: testRoster, Bots: 0})
	assert.ErrorIs(t, err, game.ErrSeatLimit)

	_, err = New(Options{Rules: game.DefaultRules(), Bots: 2})
	assert.Error(t, err)
}

func TestRunBotsStopsAtHuman(t *testing.T) {
	s := NewTestSession(t)
	require.NoError(t, s.StartHand())

	// Dealer is the human in seat 0, so Bob under the gun acts first and
	// folds to the big blind.
	require.NoError(t, s.RunBots(context.Background()))
	snap := s.Snapshot()
	assert.True(t, snap.HandActive)
	assert.Equal(t, "Human", snap.Turn)
	assert.Equal(t, "Bob", snap.LastThought.Name)
	assert.Equal(t, "Not worth the chips.", snap.LastThought.Reasoning)
	assert.True(t, snap.Seats[3].Folded)
	assert.Empty(t, snap.Thinking)
}

func TestSubmitActionOutOfTurn(t *testing.T) {
	s := NewTestSession(t)
	err := s.SubmitAction(game.CallMove())
	assert.ErrorIs(t, err, game.ErrNoHandInProgress)

	require.NoError(t, s.StartHand())
	err = s.SubmitAction(game.CallMove())
	assert.ErrorIs(t, err, game.ErrNotYourTurn)
}

func TestBotStepIgnoresHumanTurn(t *testing.T) {
	s := NewTestSession(t)
	acted, err := s.BotStep(context.Background())
	require.NoError(t, err)
	assert.False(t, acted, "no hand")

	require.NoError(t, s.StartHand())
	require.NoError(t, s.RunBots(context.Background()))
	acted, err = s.BotStep(context.Background())
	require.NoError(t, err)
	assert.False(t, acted, "human to act")
}

func TestHumanFoldEndsHandForBlinds(t *testing.T) {
	s := NewTestSession(t)
	require.NoError(t, s.StartHand())
	require.NoError(t, s.RunBots(context.Background()))
	require.NoError(t, s.SubmitAction(game.FoldMove()))
	require.NoError(t, s.RunBots(context.Background()))

	snap := s.Snapshot()
	assert.False(t, snap.HandActive)
	assert.Equal(t, []string{"Emma"}, snap.Winners)
	assert.ErrorIs(t, s.SubmitAction(game.CallMove()), game.ErrNoHandInProgress)
}

type blockingDecider struct{}

func (blockingDecider) Decide(ctx context.Context, _ agent.Observation) (agent.Decision, error) {
	<-ctx.Done()
	return agent.Decision{}, ctx.Err()
}

func TestDecisionTimeoutFallsBack(t *testing.T) {
	clock := quartz.NewMock(t)
	s := NewTestSession(t,
		WithClock(clock),
		WithDecider(blockingDecider{}),
		WithDecisionTimeout(20*time.Second),
	)
	require.NoError(t, s.StartHand())

	require.True(t, stepWithClock(t, s, clock, 20*time.Second))
	snap := s.Snapshot()
	assert.True(t, snap.Seats[3].Folded, "owing bot folds on timeout")
	assert.Equal(t, "Error: decision timeout", snap.LastThought.Reasoning)
}

func TestThinkDelayPacesBots(t *testing.T) {
	clock := quartz.NewMock(t)
	s := NewTestSession(t, WithClock(clock), WithThinkDelay(time.Second))
	require.NoError(t, s.StartHand())

	require.True(t, stepWithClock(t, s, clock, time.Second))
	assert.Equal(t, "Bob", s.Snapshot().LastThought.Name)
}

type failingDecider struct{}

func (failingDecider) Decide(context.Context, agent.Observation) (agent.Decision, error) {
	return agent.Decision{}, errors.New("rate limited")
}

func TestProviderErrorFallsBack(t *testing.T) {
	s := NewTestSession(t, WithDecider(failingDecider{}))
	require.NoError(t, s.StartHand())
	acted, err := s.BotStep(context.Background())
	require.NoError(t, err)
	require.True(t, acted)
	assert.Equal(t, "Error: rate limited", s.Snapshot().LastThought.Reasoning)
}

func TestBotStepCancelled(t *testing.T) {
	s := NewTestSession(t, WithDecider(blockingDecider{}))
	require.NoError(t, s.StartHand())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	acted, err := s.BotStep(ctx)
	assert.False(t, acted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Snapshot().Thinking)
}

type gatedDecider struct {
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedDecider) Decide(_ context.Context, obs agent.Observation) (agent.Decision, error) {
	g.entered <- struct{}{}
	<-g.gate
	return agent.Decision{Move: game.FoldMove(), Reasoning: "gated"}, nil
}

func TestRunBotsSurvivesCallerCancel(t *testing.T) {
	d := &gatedDecider{entered: make(chan struct{}, 2), gate: make(chan struct{})}
	s := NewTestSession(t, WithDecider(d))
	require.NoError(t, s.StartHand())

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- s.RunBots(ctx) }()
	<-d.entered

	second := make(chan error, 1)
	go func() { second <- s.RunBots(context.Background()) }()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(d.gate)
	require.NoError(t, <-second)
	snap := s.Snapshot()
	assert.Equal(t, "Human", snap.Turn)
	assert.True(t, snap.Seats[3].Folded, "shared run applied the decision")
}

func TestCloseStopsBotRun(t *testing.T) {
	s := NewTestSession(t, WithDecider(blockingDecider{}))
	require.NoError(t, s.StartHand())

	done := make(chan error, 1)
	go func() { done <- s.RunBots(context.Background()) }()
	s.Close()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestStaleDecisionDiscarded(t *testing.T) {
	d := &gatedDecider{entered: make(chan struct{}, 2), gate: make(chan struct{})}
	s := NewTestSession(t, WithDecider(d))
	require.NoError(t, s.StartHand())

	results := make(chan bool, 2)
	for range 2 {
		go func() {
			acted, err := s.BotStep(context.Background())
			assert.NoError(t, err)
			results <- acted
		}()
	}
	<-d.entered
	<-d.entered
	assert.Equal(t, "Bob", s.Snapshot().Thinking)
	close(d.gate)

	first, second := <-results, <-results
	assert.True(t, first != second, "exactly one decision applies")
	snap := s.Snapshot()
	assert.Equal(t, "Human", snap.Turn)
	assert.True(t, snap.Seats[3].Folded)
	assert.False(t, snap.Seats[0].Folded)
}

type recordingAnalyst struct {
	mu        sync.Mutex
	summaries []agent.HandSummary
}

func (a *recordingAnalyst) Analyze(_ context.Context, s agent.HandSummary) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summaries = append(a.summaries, s)
	return "Human calls everything.", nil
}

func (a *recordingAnalyst) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.summaries)
}

func TestAnalysisFeedsMemoryAndArchive(t *testing.T) {
	archive, err := history.NewArchive(t.TempDir())
	require.NoError(t, err)
	analyst := &recordingAnalyst{}
	s := NewTestSession(t,
		WithBots(2),
		WithDecider(agent.CallingStation{}),
		WithAnalyst(analyst),
		WithArchive(archive),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	require.NoError(t, s.StartHand())
	handID := s.Snapshot().HandID
	playToEnd(t, s)

	require.Eventually(t, func() bool {
		return len(s.Snapshot().Memory) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"Hand #1: Human calls everything."}, s.Snapshot().Memory)
	require.Equal(t, 1, analyst.count())
	assert.Equal(t, 1, analyst.summaries[0].HandNumber)
	assert.NotEmpty(t, analyst.summaries[0].Log)
	assert.FileExists(t, archive.Path(handID))
}

func TestAnalysisSkippedWhenHumanFoldsPreflop(t *testing.T) {
	archive, err := history.NewArchive(t.TempDir())
	require.NoError(t, err)
	analyst := &recordingAnalyst{}
	s := NewTestSession(t, WithAnalyst(analyst), WithArchive(archive))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	require.NoError(t, s.StartHand())
	handID := s.Snapshot().HandID
	require.NoError(t, s.RunBots(ctx))
	require.NoError(t, s.SubmitAction(game.FoldMove()))
	require.NoError(t, s.RunBots(ctx))

	require.Eventually(t, func() bool {
		_, err := os.Stat(archive.Path(handID))
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, analyst.count())
	assert.Empty(t, s.Snapshot().Memory)
}

func TestSetBotCount(t *testing.T) {
	s := NewTestSession(t, WithBots(2))
	require.NoError(t, s.SetBotCount(4))
	snap := s.Snapshot()
	require.Len(t, snap.Seats, 5)
	assert.Equal(t, "Jack 4", snap.Seats[4].Name)
	assert.Equal(t, 0, snap.Dealer)

	require.NoError(t, s.SetBotCount(1))
	snap = s.Snapshot()
	require.Len(t, snap.Seats, 2)
	assert.Equal(t, "Jack", snap.Seats[1].Name)

	assert.ErrorIs(t, s.SetBotCount(0), game.ErrSeatLimit)
	assert.ErrorIs(t, s.SetBotCount(6), game.ErrSeatLimit)

	require.NoError(t, s.StartHand())
	assert.ErrorIs(t, s.SetBotCount(3), game.ErrHandInProgress)
}

func TestSetBotCountKeepsStacks(t *testing.T) {
	s := NewTestSession(t)
	require.NoError(t, s.StartHand())
	require.NoError(t, s.RunBots(context.Background()))
	require.NoError(t, s.SubmitAction(game.FoldMove()))
	require.NoError(t, s.RunBots(context.Background()))
	before := s.Snapshot().Seats[2].Stack

	require.NoError(t, s.SetBotCount(2))
	snap := s.Snapshot()
	assert.Equal(t, "Emma", snap.Seats[2].Name)
	assert.Equal(t, before, snap.Seats[2].Stack)
	assert.NoError(t, s.table.ValidateChipConservation(), "a removed bot takes its chips with it")

	require.NoError(t, s.SetBotCount(4))
	assert.NoError(t, s.table.ValidateChipConservation())
}

func TestInteract(t *testing.T) {
	s := NewTestSession(t)
	require.NoError(t, s.Interact("Jack", "tomato"))
	first := s.Snapshot().LastEmote
	require.NotNil(t, first)
	assert.Equal(t, Emote{ID: 1, From: "Human", To: "Jack", Item: "tomato", At: first.At}, *first)

	require.NoError(t, s.Interact("Emma", "tea"))
	assert.Equal(t, 2, s.Snapshot().LastEmote.ID)
	assert.Contains(t, s.Snapshot().Log, "Human served tea to Emma.")

	assert.ErrorIs(t, s.Interact("Nobody", "tea"), ErrInvalidEmote)
	assert.ErrorIs(t, s.Interact("Jack", ""), ErrInvalidEmote)
}

func TestRebuyRecoversGameOver(t *testing.T) {
	s := NewTestSession(t, WithBots(1))
	s.mu.Lock()
	human := s.table.Human()
	human.Stack = 0
	human.BuyInTotal = 0
	s.mu.Unlock()

	assert.ErrorIs(t, s.StartHand(), game.ErrGameOver)
	assert.True(t, s.Snapshot().GameOver)

	require.NoError(t, s.Rebuy())
	snap := s.Snapshot()
	assert.False(t, snap.GameOver)
	assert.Equal(t, 1000, snap.Seats[0].Stack)
	require.NoError(t, s.StartHand())
}

func TestAdvanceStageRequiresRunout(t *testing.T) {
	s := NewTestSession(t)
	assert.ErrorIs(t, s.AdvanceStage(), game.ErrNoHandInProgress)
	require.NoError(t, s.StartHand())
	assert.ErrorIs(t, s.AdvanceStage(), game.ErrRoundInProgress)
}

func TestSubscribeReceivesLatest(t *testing.T) {
	s := NewTestSession(t)
	updates, cancel := s.Subscribe()

	initial := <-updates
	assert.Equal(t, "WAITING", initial.Stage)

	require.NoError(t, s.StartHand())
	require.NoError(t, s.Interact("Jack", "bomb"))
	latest := <-updates
	assert.Equal(t, 1, latest.LastEmote.ID)
	assert.Greater(t, latest.Version, initial.Version)

	cancel()
	_, open := <-updates
	assert.False(t, open)
	cancel()
}

func TestSnapshotIsReadOnly(t *testing.T) {
	s := NewTestSession(t)
	require.NoError(t, s.Interact("Jack", "tomato"))
	a := s.Snapshot()
	b := s.Snapshot()
	assert.Equal(t, a, b)
}
