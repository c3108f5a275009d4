package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lox/llmholdem/internal/game"
)

// DefaultAnalysis is recorded when the analyst returns nothing usable.
const DefaultAnalysis = "Human played a standard hand."

// LLMConfig configures an OpenAI-compatible chat completion endpoint.
type LLMConfig struct {
	BaseURL             string
	APIKey              string
	Model               string
	DecisionTemperature float32
	AnalysisTemperature float32
	AnalysisMaxTokens   int
}

// LLMClient asks a chat model for bot decisions and hand analysis.
type LLMClient struct {
	client *openai.Client
	cfg    LLMConfig
	logger *log.Logger
}

// NewLLMClient creates a client for cfg.
func NewLLMClient(cfg LLMConfig, logger *log.Logger) *LLMClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &LLMClient{
		client: openai.NewClientWithConfig(oc),
		cfg:    cfg,
		logger: logger.WithPrefix("llm").With("model", cfg.Model),
	}
}

// Decide implements DecisionProvider.
func (c *LLMClient) Decide(ctx context.Context, obs Observation) (Decision, error) {
	system, user := decisionPrompts(obs)
	c.logger.Debug("Requesting decision", "player", obs.Name, "stage", obs.Stage, "to_call", obs.ToCall)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.cfg.DecisionTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Decision{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Decision{}, errors.New("chat completion returned no choices")
	}
	content := resp.Choices[0].Message.Content
	c.logger.Debug("Decision response", "player", obs.Name, "content", content)

	d, err := ParseDecision(content)
	if err != nil {
		return Decision{}, err
	}
	return d, nil
}

// Analyze implements AnalysisProvider.
func (c *LLMClient) Analyze(ctx context.Context, summary HandSummary) (string, error) {
	system, user := analysisPrompts(summary)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.cfg.AnalysisTemperature,
		MaxTokens:   c.cfg.AnalysisMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	analysis := firstSentence(resp.Choices[0].Message.Content)
	if analysis == "" {
		analysis = DefaultAnalysis
	}
	c.logger.Debug("Analysis", "hand", summary.HandNumber, "text", analysis)
	return analysis, nil
}

// ParseDecision reads a model reply of the form
// {"action": "RAISE", "amount": 60, "reasoning": "..."}. Code fences and
// surrounding prose are ignored and amounts may be strings.
func ParseDecision(content string) (Decision, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return Decision{}, fmt.Errorf("no JSON object in reply %q", truncate(content, 80))
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Decision{}, fmt.Errorf("decode reply: %w", err)
	}

	actionText, _ := fields["action"].(string)
	kind, err := game.ParseActionKind(actionText)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Move: game.Move{Kind: kind}}
	if kind == game.Raise {
		d.Move.Amount = coerceAmount(fields["amount"])
	}
	if r, ok := fields["reasoning"].(string); ok {
		d.Reasoning = strings.TrimSpace(r)
	}
	if d.Reasoning == "" {
		d.Reasoning = "No logic."
	}
	return d, nil
}

func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(s, "```")
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func coerceAmount(v any) int {
	switch a := v.(type) {
	case json.Number:
		if n, err := a.Int64(); err == nil {
			return int(n)
		}
		if f, err := a.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(a)
	case string:
		s := strings.TrimLeft(strings.TrimSpace(a), "$")
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return 0
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return strings.Trim(s, "\"")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
