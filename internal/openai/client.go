// Package openai implements the roundtable Generator against the OpenAI
// Responses API, including the optional tie-break capability used for
// speaker selection.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"roundtable/internal/roundtable"
)

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

type Client struct {
	apiKey     string
	endpoint   string
	model      string
	timeout    time.Duration
	maxRetries int
	httpClient httpDoer
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("model is required")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("timeout must be > 0")
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		endpoint:   normalizeEndpoint(cfg.BaseURL),
		model:      strings.TrimSpace(cfg.Model),
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		httpClient: newDefaultHTTPClient(),
	}, nil
}

// Generate produces one mentor utterance.
func (c *Client) Generate(ctx context.Context, input roundtable.GenerateInput) (roundtable.GenerateOutput, error) {
	text, usage, err := c.generatePlainText(
		ctx,
		buildMentorSystemPrompt(input),
		buildMentorUserPrompt(input),
		"empty mentor output",
	)
	if err != nil {
		return roundtable.GenerateOutput{}, err
	}

	return roundtable.GenerateOutput{
		Text:  text,
		Usage: usage,
	}, nil
}

// Choose implements the tie-break oracle. The raw model reply is returned as
// is; the selection pipeline maps it onto a candidate by containment.
func (c *Client) Choose(ctx context.Context, candidates []string, recentContext string, humanMessage string) (string, error) {
	text, _, err := c.generatePlainText(
		ctx,
		buildTieBreakSystemPrompt(),
		buildTieBreakUserPrompt(candidates, recentContext, humanMessage),
		"empty tie-break output",
	)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) callResponses(ctx context.Context, input []inputMsg) (responseBody, error) {
	reqBody := responseRequest{
		Model: c.model,
		Input: input,
	}

	payload, err := marshalRequest(reqBody)
	if err != nil {
		return responseBody{}, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		apiCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.doRequest(apiCtx, payload)
		cancel()

		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}
		if !isRetriableError(err) {
			break
		}
		if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
			return responseBody{}, err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown openai error")
	}
	return responseBody{}, lastErr
}

func (c *Client) generatePlainText(ctx context.Context, systemPrompt string, userPrompt string, emptyOutputError string) (string, roundtable.Usage, error) {
	resp, err := c.callResponses(ctx, []inputMsg{
		makeMessage("system", systemPrompt),
		makeMessage("user", userPrompt),
	})
	if err != nil {
		return "", roundtable.Usage{}, err
	}

	text := strings.TrimSpace(extractOutputText(resp))
	if text == "" {
		return "", roundtable.Usage{}, errors.New(emptyOutputError)
	}
	return text, toUsage(resp.Usage), nil
}
