// Package config loads the table configuration from an HCL file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/llmholdem/internal/game"
)

// Config is the complete configuration.
type Config struct {
	Table  TableSettings
	LLM    LLMSettings
	Server ServerSettings
	Bots   []BotSettings
}

// TableSettings are the game rules and the starting seats.
type TableSettings struct {
	SmallBlind     int    `hcl:"small_blind,optional"`
	BigBlind       int    `hcl:"big_blind,optional"`
	StartingStack  int    `hcl:"starting_stack,optional"`
	RebuyAmount    int    `hcl:"rebuy_amount,optional"`
	AutoRebuyHuman bool   `hcl:"auto_rebuy_human,optional"`
	Runout         string `hcl:"runout,optional"` // "auto" or "manual"
	MemoryCapacity int    `hcl:"memory_capacity,optional"`
	Bots           int    `hcl:"bots,optional"`
	HumanName      string `hcl:"human_name,optional"`
	Seed           int64  `hcl:"seed,optional"` // 0 picks a random seed
}

// LLMSettings configure the OpenAI-compatible endpoint. The API key is read
// from the environment variable named by APIKeyEnv.
type LLMSettings struct {
	BaseURL             string  `hcl:"base_url,optional"`
	Model               string  `hcl:"model,optional"`
	APIKeyEnv           string  `hcl:"api_key_env,optional"`
	DecisionTemperature float64 `hcl:"decision_temperature,optional"`
	AnalysisTemperature float64 `hcl:"analysis_temperature,optional"`
	AnalysisMaxTokens   int     `hcl:"analysis_max_tokens,optional"`
	DecisionTimeout     string  `hcl:"decision_timeout,optional"`
	AnalysisTimeout     string  `hcl:"analysis_timeout,optional"`
	ThinkDelay          string  `hcl:"think_delay,optional"`
}

// ServerSettings configure the HTTP surface and logging.
type ServerSettings struct {
	Address    string `hcl:"address,optional"`
	LogLevel   string `hcl:"log_level,optional"`
	HistoryDir string `hcl:"history_dir,optional"`
}

// BotSettings describe one personality in the bot roster.
type BotSettings struct {
	Name     string `hcl:"name,label"`
	Strategy string `hcl:"strategy"`
	Avatar   string `hcl:"avatar,optional"`
}

// fileConfig mirrors Config with optional blocks.
type fileConfig struct {
	Table  *TableSettings  `hcl:"table,block"`
	LLM    *LLMSettings    `hcl:"llm,block"`
	Server *ServerSettings `hcl:"server,block"`
	Bots   []BotSettings   `hcl:"bot,block"`
}

// Default returns the built-in configuration: 10/20 blinds, 1000 chip
// stacks, three bots from the default roster.
func Default() *Config {
	rules := game.DefaultRules()
	return &Config{
		Table: TableSettings{
			SmallBlind:     rules.SmallBlind,
			BigBlind:       rules.BigBlind,
			StartingStack:  rules.StartingStack,
			RebuyAmount:    rules.RebuyAmount,
			Runout:         "auto",
			MemoryCapacity: rules.MemoryCapacity,
			Bots:           3,
			HumanName:      "Human",
		},
		LLM: LLMSettings{
			BaseURL:             "https://api.openai.com/v1",
			Model:               "gpt-4o-mini",
			APIKeyEnv:           "OPENAI_API_KEY",
			DecisionTemperature: 0.7,
			AnalysisTemperature: 0.5,
			AnalysisMaxTokens:   100,
			DecisionTimeout:     "20s",
			AnalysisTimeout:     "30s",
			ThinkDelay:          "0s",
		},
		Server: ServerSettings{
			Address:  "localhost:8080",
			LogLevel: "info",
		},
		Bots: DefaultRoster(),
	}
}

// DefaultRoster is the built-in set of bot personalities.
func DefaultRoster() []BotSettings {
	return []BotSettings{
		{
			Name:     "Jack",
			Avatar:   "https://api.dicebear.com/7.x/avataaars/svg?seed=Jack&clothing=blazerAndShirt&accessories=sunglasses",
			Strategy: "You are Jack, a poker shark. You play extremely aggressive, bully others with big raises and bluff frequently.",
		},
		{
			Name:     "Emma",
			Avatar:   "https://api.dicebear.com/7.x/avataaars/svg?seed=Emma&clothing=collarAndSweater&top=bob",
			Strategy: "You are Emma, a math nerd. You only play on pot odds and expected value. You are emotionless and never bluff.",
		},
		{
			Name:     "Bob",
			Avatar:   "https://api.dicebear.com/7.x/avataaars/svg?seed=Bob&facialHair=beardMajestic",
			Strategy: "You are Bob, a drunk gambler. You play almost randomly and sometimes shove 7-2 offsuit for fun.",
		},
	}
}

// Load reads filename over the defaults. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	cfg.merge(&fc)
	return cfg, nil
}

func (c *Config) merge(fc *fileConfig) {
	if t := fc.Table; t != nil {
		setInt(&c.Table.SmallBlind, t.SmallBlind)
		setInt(&c.Table.BigBlind, t.BigBlind)
		setInt(&c.Table.StartingStack, t.StartingStack)
		setInt(&c.Table.RebuyAmount, t.RebuyAmount)
		setInt(&c.Table.MemoryCapacity, t.MemoryCapacity)
		setInt(&c.Table.Bots, t.Bots)
		setString(&c.Table.Runout, t.Runout)
		setString(&c.Table.HumanName, t.HumanName)
		c.Table.AutoRebuyHuman = t.AutoRebuyHuman
		if t.Seed != 0 {
			c.Table.Seed = t.Seed
		}
	}
	if l := fc.LLM; l != nil {
		setString(&c.LLM.BaseURL, l.BaseURL)
		setString(&c.LLM.Model, l.Model)
		setString(&c.LLM.APIKeyEnv, l.APIKeyEnv)
		setString(&c.LLM.DecisionTimeout, l.DecisionTimeout)
		setString(&c.LLM.AnalysisTimeout, l.AnalysisTimeout)
		setString(&c.LLM.ThinkDelay, l.ThinkDelay)
		setInt(&c.LLM.AnalysisMaxTokens, l.AnalysisMaxTokens)
		if l.DecisionTemperature != 0 {
			c.LLM.DecisionTemperature = l.DecisionTemperature
		}
		if l.AnalysisTemperature != 0 {
			c.LLM.AnalysisTemperature = l.AnalysisTemperature
		}
	}
	if s := fc.Server; s != nil {
		setString(&c.Server.Address, s.Address)
		setString(&c.Server.LogLevel, s.LogLevel)
		setString(&c.Server.HistoryDir, s.HistoryDir)
	}
	if len(fc.Bots) > 0 {
		c.Bots = fc.Bots
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate checks ranges and parses durations.
func (c *Config) Validate() error {
	if err := c.Rules().Validate(); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if c.Table.Runout != "auto" && c.Table.Runout != "manual" {
		return fmt.Errorf("table: runout must be \"auto\" or \"manual\", got %q", c.Table.Runout)
	}
	if c.Table.Bots < game.MinSeats-1 || c.Table.Bots > game.MaxSeats-1 {
		return fmt.Errorf("table: bots must be between %d and %d, got %d", game.MinSeats-1, game.MaxSeats-1, c.Table.Bots)
	}
	if c.Table.HumanName == "" {
		return errors.New("table: human_name must not be empty")
	}
	if len(c.Bots) == 0 {
		return errors.New("at least one bot block is required")
	}
	seen := make(map[string]bool, len(c.Bots))
	for _, b := range c.Bots {
		if b.Name == "" || b.Name == c.Table.HumanName {
			return fmt.Errorf("bot %q: invalid name", b.Name)
		}
		if seen[b.Name] {
			return fmt.Errorf("bot %q: defined twice", b.Name)
		}
		seen[b.Name] = true
	}
	for name, d := range map[string]string{
		"decision_timeout": c.LLM.DecisionTimeout,
		"analysis_timeout": c.LLM.AnalysisTimeout,
		"think_delay":      c.LLM.ThinkDelay,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("llm: %s: %w", name, err)
		}
	}
	if c.LLM.AnalysisMaxTokens < 1 {
		return fmt.Errorf("llm: analysis_max_tokens must be positive, got %d", c.LLM.AnalysisMaxTokens)
	}
	return nil
}

// Rules converts the table block into engine rules.
func (c *Config) Rules() game.Rules {
	return game.Rules{
		SmallBlind:     c.Table.SmallBlind,
		BigBlind:       c.Table.BigBlind,
		StartingStack:  c.Table.StartingStack,
		RebuyAmount:    c.Table.RebuyAmount,
		AutoRebuyHuman: c.Table.AutoRebuyHuman,
		ManualRunout:   c.Table.Runout == "manual",
		MemoryCapacity: c.Table.MemoryCapacity,
	}
}

// APIKey returns the key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}

// DecisionTimeout returns the parsed decision timeout. Call Validate first.
func (c *Config) DecisionTimeout() time.Duration { return durationOrZero(c.LLM.DecisionTimeout) }

// AnalysisTimeout returns the parsed analysis timeout. Call Validate first.
func (c *Config) AnalysisTimeout() time.Duration { return durationOrZero(c.LLM.AnalysisTimeout) }

// ThinkDelay returns the pause before each bot move. Call Validate first.
func (c *Config) ThinkDelay() time.Duration { return durationOrZero(c.LLM.ThinkDelay) }

func durationOrZero(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
