// Package instagram resolves and downloads reel media from instagram.com.
package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"repost/internal/domain"
	"repost/internal/pipeline"
)

const (
	maxAttempts    = 3
	defaultTimeout = 45 * time.Second
)

// Options configures a Fetcher.
type Options struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Logger     zerolog.Logger
	// Sleep overrides the inter-attempt delay, for tests.
	Sleep func(time.Duration)
}

// Fetcher downloads reel media with bounded retries. Invalid URLs fail
// immediately without entering the retry loop.
type Fetcher struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    zerolog.Logger
	sleep     func(time.Duration)
}

// NewFetcher creates an instagram media fetcher.
func NewFetcher(opts Options) *Fetcher {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://www.instagram.com"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Fetcher{
		baseURL:   baseURL,
		userAgent: opts.UserAgent,
		client:    client,
		logger:    opts.Logger,
		sleep:     sleep,
	}
}

// ExtractShortcode validates a reel/post/tv URL and returns its shortcode.
func ExtractShortcode(sourceURL string) (string, error) {
	parsed, err := url.Parse(sourceURL)
	if err != nil || !strings.HasSuffix(parsed.Hostname(), "instagram.com") {
		return "", fmt.Errorf("%w: only instagram.com URLs are supported", domain.ErrInvalidSource)
	}
	var parts []string
	for _, part := range strings.Split(parsed.Path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: use URLs like https://www.instagram.com/reel/<shortcode>/", domain.ErrInvalidSource)
	}
	switch parts[0] {
	case "reel", "p", "tv":
	default:
		return "", fmt.Errorf("%w: use URLs like https://www.instagram.com/reel/<shortcode>/", domain.ErrInvalidSource)
	}
	shortcode := strings.TrimSpace(parts[1])
	if shortcode == "" {
		return "", fmt.Errorf("%w: missing shortcode", domain.ErrInvalidSource)
	}
	return shortcode, nil
}

type mediaInfo struct {
	Graphql struct {
		ShortcodeMedia struct {
			ID       string `json:"id"`
			IsVideo  bool   `json:"is_video"`
			VideoURL string `json:"video_url"`
		} `json:"shortcode_media"`
	} `json:"graphql"`
}

// Fetch downloads the reel referenced by sourceURL into the workspace and
// returns the local path plus source metadata. Transient failures are
// retried up to three times with exponential backoff.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL, workspace string) (*pipeline.FetchResult, error) {
	shortcode, err := ExtractShortcode(sourceURL)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	outputPath := filepath.Join(workspace, shortcode+".mp4")

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		media, err := f.resolveMedia(ctx, shortcode)
		if err == nil {
			err = f.downloadFile(ctx, media.VideoURL, outputPath)
		}
		if err == nil {
			return &pipeline.FetchResult{
				LocalPath: outputPath,
				Shortcode: shortcode,
				MediaID:   media.ID,
			}, nil
		}
		lastErr = err
		f.logger.Warn().Err(err).Str("shortcode", shortcode).Int("attempt", attempt).Msg("instagram: download attempt failed")
		if attempt < maxAttempts {
			f.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
	}
	return nil, fmt.Errorf("download instagram video: %w", lastErr)
}

type resolvedMedia struct {
	ID       string
	VideoURL string
}

func (f *Fetcher) resolveMedia(ctx context.Context, shortcode string) (*resolvedMedia, error) {
	endpoint := fmt.Sprintf("%s/p/%s/?__a=1&__d=dis", f.baseURL, url.PathEscape(shortcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("instagram media lookup returned status %d", resp.StatusCode)
	}
	var info mediaInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode media info: %w", err)
	}
	media := info.Graphql.ShortcodeMedia
	if !media.IsVideo {
		return nil, errors.New("instagram url does not point to a video")
	}
	if media.VideoURL == "" {
		return nil, errors.New("instagram video url could not be resolved")
	}
	return &resolvedMedia{ID: media.ID, VideoURL: media.VideoURL}, nil
}

func (f *Fetcher) downloadFile(ctx context.Context, videoURL, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("video download returned status %d", resp.StatusCode)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	written, err := io.Copy(file, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if written == 0 {
		return errors.New("downloaded file is empty")
	}
	return nil
}

var _ pipeline.SourceFetcher = (*Fetcher)(nil)
