package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultGroqURL   = "https://api.groq.com/openai/v1/chat/completions"
	DefaultGroqModel = "llama-3.3-70b-versatile"
)

var ErrNoChoices = errors.New("no choices returned")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// LLM scores text by asking an OpenAI-compatible chat completion endpoint.
type LLM struct {
	apiKey     string
	model      string
	url        string
	client     *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

type LLMOption func(*LLM)

func WithURL(url string) LLMOption {
	return func(l *LLM) { l.url = url }
}

func WithHTTPClient(client *http.Client) LLMOption {
	return func(l *LLM) { l.client = client }
}

func WithBackoff(maxRetries int, baseDelay, maxDelay time.Duration) LLMOption {
	return func(l *LLM) {
		l.maxRetries = maxRetries
		l.baseDelay = baseDelay
		l.maxDelay = maxDelay
	}
}

func NewLLM(apiKey, model string, opts ...LLMOption) *LLM {
	if model == "" {
		model = DefaultGroqModel
	}
	l := &LLM{
		apiKey:     apiKey,
		model:      model,
		url:        DefaultGroqURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		baseDelay:  time.Second,
		maxDelay:   8 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

const systemPrompt = `You grade prompts written by people learning prompt engineering.
Score the prompt against the challenge on four dimensions from 0 to 100:
clarity, specificity, creativity and structure.
Reply ONLY with JSON: {"clarity": <int>, "specificity": <int>, "creativity": <int>, "structure": <int>, "suggestion": "<one sentence on how to improve>"}`

type llmScore struct {
	Clarity     int    `json:"clarity"`
	Specificity int    `json:"specificity"`
	Creativity  int    `json:"creativity"`
	Structure   int    `json:"structure"`
	Suggestion  string `json:"suggestion"`
}

func (l *LLM) Evaluate(ctx context.Context, text, challenge string, levelID *int) (Score, error) {
	user := fmt.Sprintf("Challenge: %q\n\nPrompt: %q", challenge, text)
	if levelID != nil {
		user = fmt.Sprintf("Level %d. %s", *levelID, user)
	}

	raw, err := l.callChat(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user},
	})
	if err != nil {
		return Score{}, err
	}

	cleaned := cleanJSONResponse(raw)
	var parsed llmScore
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return Score{}, fmt.Errorf("parse evaluation: %w (raw=%s)", err, cleaned)
	}

	return Score{
		Clarity:     parsed.Clarity,
		Specificity: parsed.Specificity,
		Creativity:  parsed.Creativity,
		Structure:   parsed.Structure,
		Suggestion:  strings.TrimSpace(parsed.Suggestion),
	}.finish(), nil
}

// callChat retries transport errors, 429 and 5xx with exponential backoff.
func (l *LLM) callChat(ctx context.Context, messages []chatMessage) (string, error) {
	buf, err := json.Marshal(chatRequest{Model: l.model, Messages: messages, Temperature: 0.2})
	if err != nil {
		return "", err
	}

	var lastErr error
	delay := l.baseDelay

	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay = min(delay*2, l.maxDelay)
		}

		content, retry, err := l.doChat(ctx, buf)
		if err == nil {
			return content, nil
		}
		if !retry {
			return "", err
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt+1).Msg("retrying chat completion")
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (l *LLM) doChat(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Authorization", "Bearer "+l.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return "", true, fmt.Errorf("chat completion status: %s", resp.Status)
	case resp.StatusCode >= 300:
		return "", false, fmt.Errorf("chat completion status: %s", resp.Status)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", false, err
	}
	if len(cr.Choices) == 0 {
		return "", false, ErrNoChoices
	}
	return cr.Choices[0].Message.Content, false, nil
}

// cleanJSONResponse strips the markdown code fence models like to add.
func cleanJSONResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
