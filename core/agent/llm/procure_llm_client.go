// Package llm wraps the OpenAI API for subject-line intent analysis.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"procure_server/core/domain"
	"procure_server/core/port/out"
	"procure_server/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

const DefaultModel = "gpt-4o-mini"

const defaultMaxTokens = 512

const subjectSystemPrompt = `You are an AI that analyzes email subject lines and classifies them as either "rfx" (Request for Quotation/Proposal/Information) or "negotiation" (price negotiation, contract negotiation). Only respond with a JSON object with fields: "type" (either "rfx" or "negotiation"), "confidence" (number between 0-1), and "reasoning" (brief explanation).`

// Client calls the OpenAI chat completion API behind a circuit breaker so a
// degraded model endpoint stops costing webhook latency quickly.
type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	cb          *gobreaker.CircuitBreaker
	log         *logger.Logger
}

// ClientConfig holds OpenAI client configuration.
type ClientConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

// NewClient creates an OpenAI-backed classifier client.
func NewClient(cfg ClientConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	log := logger.WithField("component", "llm")

	cbSettings := gobreaker.Settings{
		Name:        "openai-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Client{
		client:      openai.NewClient(cfg.APIKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		cb:          gobreaker.NewCircuitBreaker(cbSettings),
		log:         log,
	}
}

type subjectResponse struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// AnalyzeSubject asks the model to classify a subject line. Any
// non-conforming response is returned as an error; the caller decides how to
// degrade.
func (c *Client) AnalyzeSubject(ctx context.Context, subject string) (*out.SubjectAnalysis, error) {
	raw, err := c.cb.Execute(func() (any, error) {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: subjectSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Analyze this email subject line and classify it: %q", subject)},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("empty completion response")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return nil, err
	}

	return parseSubjectAnalysis(raw.(string))
}

// parseSubjectAnalysis validates a raw completion into a SubjectAnalysis.
// Models occasionally wrap JSON in markdown fences even in JSON mode.
func parseSubjectAnalysis(content string) (*out.SubjectAnalysis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var parsed subjectResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse subject analysis: %w", err)
	}

	kind := domain.Kind(parsed.Type)
	if !kind.IsValid() {
		return nil, fmt.Errorf("unknown classification type %q", parsed.Type)
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range", parsed.Confidence)
	}

	return &out.SubjectAnalysis{
		Kind:       kind,
		Confidence: parsed.Confidence,
		Reasoning:  parsed.Reasoning,
	}, nil
}
