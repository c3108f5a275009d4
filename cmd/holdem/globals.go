package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/lox/llmholdem/internal/agent"
	"github.com/lox/llmholdem/internal/config"
	"github.com/lox/llmholdem/internal/game"
	"github.com/lox/llmholdem/internal/history"
	"github.com/lox/llmholdem/internal/randutil"
	"github.com/lox/llmholdem/internal/session"
)

// Globals are flags shared by every command. Flags override the config file.
type Globals struct {
	Config  string `short:"c" default:"holdem.hcl" type:"path" help:"HCL config file (defaults are used if missing)"`
	EnvFile string `default:".env" type:"path" help:"dotenv file with API keys (ignored if missing)"`
	Debug   bool   `help:"Enable debug logging"`
	Offline bool   `help:"Use rule-based bots instead of the LLM"`
	Style   string `default:"heuristic" enum:"heuristic,checkfold,calling,maniac" help:"Rule-based bot style when offline (${enum})"`
	Seed    *int64 `help:"Deterministic shuffle seed"`
	Bots    *int   `help:"Number of bots at the table (1-5)"`
}

func (g *Globals) loadConfig() (*config.Config, error) {
	if g.EnvFile != "" {
		if err := godotenv.Load(g.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", g.EnvFile, err)
		}
	}

	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Seed != nil {
		cfg.Table.Seed = *g.Seed
	}
	if g.Bots != nil {
		cfg.Table.Bots = *g.Bots
	}
	if g.Debug {
		cfg.Server.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", g.Config, err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           lvl,
	}), nil
}

// newSession wires the configured providers, archive and rules into a
// session.
func (g *Globals) newSession(cfg *config.Config, logger *log.Logger) (*session.Session, error) {
	seed := cfg.Table.Seed
	if seed == 0 {
		seed = randutil.NewSeed()
	}
	logger.Info("Shuffle seed", "seed", seed)

	decider, err := agent.RuleProvider(g.Style, randutil.New(seed+1))
	if err != nil {
		return nil, err
	}
	var analyst agent.AnalysisProvider = agent.NoAnalysis{}
	switch key := cfg.APIKey(); {
	case g.Offline:
		logger.Info("Offline mode, using rule-based bots", "style", g.Style)
	case key == "":
		logger.Warn("No API key found, using rule-based bots", "env", cfg.LLM.APIKeyEnv, "style", g.Style)
	default:
		client := agent.NewLLMClient(agent.LLMConfig{
			BaseURL:             cfg.LLM.BaseURL,
			APIKey:              key,
			Model:               cfg.LLM.Model,
			DecisionTemperature: float32(cfg.LLM.DecisionTemperature),
			AnalysisTemperature: float32(cfg.LLM.AnalysisTemperature),
			AnalysisMaxTokens:   cfg.LLM.AnalysisMaxTokens,
		}, logger)
		decider, analyst = client, client
		logger.Info("Using LLM bots", "model", cfg.LLM.Model, "base_url", cfg.LLM.BaseURL)
	}

	var archive *history.Archive
	if dir := cfg.Server.HistoryDir; dir != "" {
		a, err := history.NewArchive(dir)
		if err != nil {
			return nil, err
		}
		archive = a
		logger.Info("Archiving hands", "dir", dir)
	}

	roster := make([]session.Personality, len(cfg.Bots))
	for i, b := range cfg.Bots {
		roster[i] = session.Personality{Name: b.Name, Strategy: b.Strategy, Avatar: b.Avatar}
	}

	return session.New(session.Options{
		Rules:           cfg.Rules(),
		HumanName:       cfg.Table.HumanName,
		Roster:          roster,
		Bots:            cfg.Table.Bots,
		Decider:         decider,
		Analyst:         analyst,
		DecisionTimeout: cfg.DecisionTimeout(),
		AnalysisTimeout: cfg.AnalysisTimeout(),
		ThinkDelay:      cfg.ThinkDelay(),
		Archive:         archive,
		Logger:          logger,
		TableOptions:    []game.Option{game.WithRNG(randutil.New(seed))},
	})
}
