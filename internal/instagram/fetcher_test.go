package instagram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"repost/internal/domain"
)

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

const mediaInfoBody = `{"graphql":{"shortcode_media":{"id":"18000001","is_video":true,"video_url":"https://cdn.example.com/v/ABC123.mp4"}}}`

func TestExtractShortcode(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "reel url", url: "https://www.instagram.com/reel/ABC123/", want: "ABC123"},
		{name: "post url", url: "https://instagram.com/p/XYZ789", want: "XYZ789"},
		{name: "tv url", url: "https://www.instagram.com/tv/Q1W2E3/", want: "Q1W2E3"},
		{name: "wrong host", url: "https://www.example.com/reel/ABC123/", wantErr: true},
		{name: "profile url", url: "https://www.instagram.com/someuser/", wantErr: true},
		{name: "unsupported section", url: "https://www.instagram.com/stories/ABC123/", wantErr: true},
		{name: "not a url", url: "::::", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractShortcode(tc.url)
			if tc.wantErr {
				if !errors.Is(err, domain.ErrInvalidSource) {
					t.Fatalf("ExtractShortcode(%q) err = %v, want ErrInvalidSource", tc.url, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractShortcode(%q) returned error: %v", tc.url, err)
			}
			if got != tc.want {
				t.Fatalf("ExtractShortcode(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}

func TestFetchInvalidURLSkipsRetryLoop(t *testing.T) {
	var calls atomic.Int32
	f := NewFetcher(Options{
		Logger: zerolog.Nop(),
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls.Add(1)
			return jsonResponse(http.StatusOK, mediaInfoBody), nil
		})},
		Sleep: func(time.Duration) { t.Fatal("invalid source must not back off") },
	})

	_, err := f.Fetch(context.Background(), "https://www.example.com/reel/ABC123/", t.TempDir())
	if !errors.Is(err, domain.ErrInvalidSource) {
		t.Fatalf("err = %v, want ErrInvalidSource", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("network calls = %d, want 0", calls.Load())
	}
}

func TestFetchRetriesTransientFailure(t *testing.T) {
	var lookups int
	var sleeps []time.Duration
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if strings.HasPrefix(r.URL.Path, "/p/") {
			lookups++
			if lookups == 1 {
				return jsonResponse(http.StatusTooManyRequests, `{}`), nil
			}
			return jsonResponse(http.StatusOK, mediaInfoBody), nil
		}
		return jsonResponse(http.StatusOK, "fake video bytes"), nil
	})

	workspace := t.TempDir()
	f := NewFetcher(Options{
		UserAgent:  "test-agent",
		Logger:     zerolog.Nop(),
		HTTPClient: &http.Client{Transport: transport},
		Sleep:      func(d time.Duration) { sleeps = append(sleeps, d) },
	})

	res, err := f.Fetch(context.Background(), "https://www.instagram.com/reel/ABC123/", workspace)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if res.Shortcode != "ABC123" || res.MediaID != "18000001" {
		t.Fatalf("result = %+v", res)
	}
	if res.LocalPath != filepath.Join(workspace, "ABC123.mp4") {
		t.Fatalf("LocalPath = %q", res.LocalPath)
	}
	data, err := os.ReadFile(res.LocalPath)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "fake video bytes" {
		t.Fatalf("downloaded content = %q", data)
	}
	if len(sleeps) != 1 || sleeps[0] != time.Second {
		t.Fatalf("sleeps = %v, want [1s]", sleeps)
	}
}

func TestFetchGivesUpAfterThreeAttempts(t *testing.T) {
	var lookups int
	var sleeps []time.Duration
	f := NewFetcher(Options{
		Logger: zerolog.Nop(),
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			lookups++
			return jsonResponse(http.StatusInternalServerError, `{}`), nil
		})},
		Sleep: func(d time.Duration) { sleeps = append(sleeps, d) },
	})

	_, err := f.Fetch(context.Background(), "https://www.instagram.com/reel/ABC123/", t.TempDir())
	if err == nil {
		t.Fatal("Fetch should fail once retries are exhausted")
	}
	if lookups != 3 {
		t.Fatalf("lookup attempts = %d, want 3", lookups)
	}
	if len(sleeps) != 2 || sleeps[0] != time.Second || sleeps[1] != 2*time.Second {
		t.Fatalf("sleeps = %v, want [1s 2s]", sleeps)
	}
}

func TestFetchRejectsNonVideoMedia(t *testing.T) {
	f := NewFetcher(Options{
		Logger: zerolog.Nop(),
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"graphql":{"shortcode_media":{"id":"1","is_video":false}}}`), nil
		})},
		Sleep: func(time.Duration) {},
	})

	_, err := f.Fetch(context.Background(), "https://www.instagram.com/p/IMG111/", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "does not point to a video") {
		t.Fatalf("err = %v, want non-video rejection", err)
	}
}
