// Package captioner generates TikTok captions and hashtags from a context
// hint, using OpenAI with a deterministic fallback so caption generation
// never fails the pipeline.
package captioner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"repost/internal/domain"
	"repost/internal/pipeline"
)

const (
	maxAttempts = 3
	maxHashtags = 8

	systemPrompt = "You write short, engaging TikTok captions with relevant hashtags. " +
		"Respond only as valid JSON with keys: caption (string), hashtags (array of strings). " +
		"Limit caption to <=150 chars. Return 4-8 hashtags, each starting with #."
)

// Options configures a Generator.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
	// Sleep overrides the inter-attempt delay, for tests.
	Sleep func(time.Duration)
}

// Generator calls the chat completions API up to three times with
// exponential backoff, then falls back to deterministic output.
type Generator struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
	sleep  func(time.Duration)
}

// New creates a caption generator. With an empty API key every call takes
// the fallback path.
func New(opts Options) *Generator {
	var client *openai.Client
	if strings.TrimSpace(opts.APIKey) != "" {
		cfg := openai.DefaultConfig(strings.TrimSpace(opts.APIKey))
		if opts.BaseURL != "" {
			cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
		}
		if opts.HTTPClient != nil {
			cfg.HTTPClient = opts.HTTPClient
		}
		client = openai.NewClientWithConfig(cfg)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Generator{client: client, model: model, logger: opts.Logger, sleep: sleep}
}

// Generate returns a caption of at most 150 characters and 1-8 normalized
// hashtags. It never fails: exhausting the primary strategy yields the
// deterministic fallback.
func (g *Generator) Generate(ctx context.Context, contextHint string) (string, []string) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		content, err := g.complete(ctx, contextHint)
		if err == nil {
			caption, hashtags, parseErr := parseResponse(content)
			if parseErr == nil {
				return caption, hashtags
			}
			err = parseErr
		}
		g.logger.Warn().Err(err).Int("attempt", attempt).Msg("captioner: generation attempt failed")
		if attempt < maxAttempts {
			g.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
	}
	g.logger.Info().Msg("captioner: using fallback caption")
	return Fallback(contextHint)
}

func (g *Generator) complete(ctx context.Context, contextHint string) (string, error) {
	if g.client == nil {
		return "", errors.New("openai api key is not configured")
	}
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Generate a caption and hashtags for this Instagram reel context: %s", contextHint)},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

type captionPayload struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// parseResponse extracts (caption, hashtags) from model output. Direct
// JSON parsing is attempted first; surrounding prose is tolerated by
// re-parsing the first brace-delimited object.
func parseResponse(content string) (string, []string, error) {
	cleaned := strings.TrimSpace(content)
	if cleaned == "" {
		return "", nil, errors.New("empty response")
	}

	var payload captionPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return "", nil, fmt.Errorf("parse response: %w", err)
		}
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &payload); err != nil {
			return "", nil, fmt.Errorf("parse response: %w", err)
		}
	}

	caption := strings.TrimSpace(payload.Caption)
	if caption == "" {
		return "", nil, errors.New("caption is empty")
	}

	hashtags := NormalizeHashtags(payload.Hashtags)
	if len(hashtags) == 0 {
		return "", nil, errors.New("hashtags are empty")
	}

	return truncate(caption, domain.MaxCaptionLength), hashtags, nil
}

// NormalizeHashtags trims, prefixes each tag with exactly one '#',
// deduplicates, and caps the result at eight entries.
func NormalizeHashtags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		tag = strings.TrimLeft(tag, "#")
		if tag == "" {
			continue
		}
		tag = "#" + tag
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
		if len(normalized) == maxHashtags {
			break
		}
	}
	return normalized
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

var _ pipeline.CaptionGenerator = (*Generator)(nil)
