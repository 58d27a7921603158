package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Analyzer turns a free-text dilemma into the scores consumed by the vector mapper.
type Analyzer interface {
	Enabled() bool
	Analyze(ctx context.Context, dilemma string) (Assessment, error)
}

// Extractor reads scenario signals from free text.
type Extractor interface {
	Extract(ctx context.Context, scenario string) (Signals, error)
}

// Config holds OpenAI configuration parameters.
type Config struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Client implements Analyzer and Extractor against an OpenAI-compatible chat API.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

var ErrDisabled = errors.New("ai analyzer disabled")

const (
	DefaultModel   = "gpt-4.1-mini"
	DefaultBaseURL = "https://api.openai.com/v1"
)

const analyzePrompt = "You are NERVA, an integrity layer for decisions. Analyze the dilemma dialectically: weigh the thesis (the case for acting) against the antithesis (the risks), then synthesize. Reply with a strict JSON object with exactly these keys: thesis_strength (number 0-100), antithesis_risk (number 0-100), integrity_score (number 0-100), synthesis (one or two short sentences). Emit nothing outside the JSON object."

const extractPrompt = `You are the NERVA 6D Extractor. Read a natural-language scenario and extract numerical parameters, each between 0.00 and 1.00.
Primary parameters: urgency (0 = no rush, 1 = act now), strategy (0 = no plan, 1 = detailed protocol), risk (0 = no downside, 1 = catastrophic), support (0 = guessing, 1 = confirmed by multiple reliable sources), stability (0 = everything falling apart, 1 = calm and predictable).
Secondary signals: irreversibility (0 = fully reversible, 1 = permanent), stakes (0 = trivial, 1 = existential), time_pressure (0 = can wait, 1 = seconds matter).
Be conservative: if the scenario is ambiguous, default toward 0.50. Never invent details not in the scenario. Include a brief "reasoning" string (1-2 sentences).
Respond with only a JSON object with keys urgency, strategy, risk, support, stability, irreversibility, stakes, time_pressure, reasoning.`

// NewClient constructs a Client if the supplied configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	temp := cfg.Temperature
	if temp <= 0 {
		temp = 0.2
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 600
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		temperature: temp,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Enabled reports whether the client can make outbound calls.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Analyze requests a dialectic assessment of the dilemma.
func (c *Client) Analyze(ctx context.Context, dilemma string) (Assessment, error) {
	if c == nil || !c.Enabled() {
		return Assessment{}, ErrDisabled
	}
	content, err := c.complete(ctx, analyzePrompt, strings.TrimSpace(dilemma))
	if err != nil {
		return Assessment{}, err
	}
	return DecodeAssessment(content)
}

// Extract requests scenario signals for the given text.
func (c *Client) Extract(ctx context.Context, scenario string) (Signals, error) {
	if c == nil || !c.Enabled() {
		return Signals{}, ErrDisabled
	}
	content, err := c.complete(ctx, extractPrompt, strings.TrimSpace(scenario))
	if err != nil {
		return Signals{}, err
	}
	return DecodeSignals(content)
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": c.temperature,
	}
	if c.maxTokens > 0 {
		payload["max_tokens"] = c.maxTokens
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return "", &StatusError{StatusCode: resp.StatusCode, Body: apiErr}
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &MalformedResponseError{Reason: fmt.Sprintf("decode completion: %v", err)}
	}
	if len(decoded.Choices) == 0 {
		return "", &MalformedResponseError{Reason: "no choices in completion"}
	}
	return decoded.Choices[0].Message.Content, nil
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Retryable reports whether err is a transient upstream failure worth retrying.
func Retryable(err error) bool {
	var status *StatusError
	if !errors.As(err, &status) {
		return false
	}
	switch status.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return true
	}
	return false
}
