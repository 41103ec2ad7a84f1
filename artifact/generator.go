package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://api.stability.ai"
	DefaultEngine  = "stable-diffusion-v1-6"
)

var placeholderColors = []string{"FF6B6B", "4ECDC4", "45B7D1", "FFA07A", "98D8C8", "F7DC6F"}

var (
	ErrNoAPIKey    = errors.New("no api key configured")
	ErrNoArtifacts = errors.New("no artifacts returned")
)

type textPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type textToImageRequest struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CfgScale    int          `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Samples     int          `json:"samples"`
	Steps       int          `json:"steps"`
}

type textToImageResponse struct {
	Artifacts []struct {
		Base64 string `json:"base64"`
	} `json:"artifacts"`
}

// Stability turns a subject and an instruction into an image. Generate never
// fails; any upstream problem yields the subject's placeholder.
type Stability struct {
	apiKey  string
	engine  string
	baseURL string
	client  *http.Client
}

func NewStability(apiKey, engine, baseURL string) *Stability {
	if engine == "" {
		engine = DefaultEngine
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Stability{
		apiKey:  apiKey,
		engine:  engine,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *Stability) Generate(ctx context.Context, subjectWord, instruction string) string {
	image, err := s.textToImage(ctx, EnhancePrompt(subjectWord, instruction))
	if err != nil {
		log.Warn().Err(err).Str("subject", subjectWord).Msg("image generation failed, using placeholder")
		return Placeholder(subjectWord)
	}
	return image
}

func (s *Stability) Fallback(subjectWord string) string {
	return Placeholder(subjectWord)
}

func (s *Stability) textToImage(ctx context.Context, prompt string) (string, error) {
	if s.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(textToImageRequest{
		TextPrompts: []textPrompt{{Text: prompt, Weight: 1}},
		CfgScale:    7,
		Height:      512,
		Width:       512,
		Samples:     1,
		Steps:       30,
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1/generation/%s/text-to-image", s.baseURL, s.engine)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("stability status: %s", resp.Status)
	}

	var decoded textToImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode stability response: %w", err)
	}
	if len(decoded.Artifacts) == 0 || decoded.Artifacts[0].Base64 == "" {
		return "", ErrNoArtifacts
	}
	return "data:image/png;base64," + decoded.Artifacts[0].Base64, nil
}

// EnhancePrompt wraps the player's instruction so the image stays on subject.
func EnhancePrompt(subjectWord, instruction string) string {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = "A creative illustration of " + subjectWord
	}
	return fmt.Sprintf("A clear, recognizable image of: %s. Style and details: %s. Make it appropriate for all ages and visually distinct.", subjectWord, instruction)
}

// Placeholder is the deterministic stand-in image for a subject.
func Placeholder(subjectWord string) string {
	color := placeholderColors[hashString(subjectWord)%int64(len(placeholderColors))]
	text := strings.ReplaceAll(url.QueryEscape(subjectWord), "+", "%20")
	return fmt.Sprintf("https://via.placeholder.com/512/%s/ffffff?text=%s", color, text)
}

// hashString is the classic 31-multiplier string hash over UTF-16 code units,
// wrapped to 32 bits, returned as an absolute value.
func hashString(s string) int64 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(unit)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}
