package tiktok

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
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

type memTokenRepo struct {
	token   *domain.TikTokToken
	updates int
}

func (r *memTokenRepo) Latest(ctx context.Context) (*domain.TikTokToken, error) {
	if r.token == nil {
		return nil, domain.ErrNoToken
	}
	copy := *r.token
	return &copy, nil
}

func (r *memTokenRepo) Save(ctx context.Context, token *domain.TikTokToken) (*domain.TikTokToken, error) {
	token.ID = 1
	r.token = token
	return token, nil
}

func (r *memTokenRepo) Update(ctx context.Context, token *domain.TikTokToken) error {
	r.updates++
	r.token = token
	return nil
}

func TestAuthorizationURL(t *testing.T) {
	s := NewService(Options{
		ClientKey:   "ck",
		RedirectURI: "http://localhost:8080/api/tiktok/callback",
		AuthBaseURL: "https://www.tiktok.com/v2/auth/authorize/",
		Scopes:      "user.info.basic,video.publish",
		Logger:      zerolog.Nop(),
	})

	raw := s.AuthorizationURL("state-1")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse authorization url: %v", err)
	}
	q := parsed.Query()
	if q.Get("client_key") != "ck" {
		t.Fatalf("client_key = %q", q.Get("client_key"))
	}
	if q.Get("response_type") != "code" {
		t.Fatalf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("scope") != "user.info.basic,video.publish" {
		t.Fatalf("scope = %q", q.Get("scope"))
	}
	if q.Get("state") != "state-1" {
		t.Fatalf("state = %q", q.Get("state"))
	}
}

func TestExchangeCodeRequiresOAuthConfig(t *testing.T) {
	s := NewService(Options{Logger: zerolog.Nop(), Tokens: &memTokenRepo{}})
	_, err := s.ExchangeCode(context.Background(), "code-1")
	if !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("err = %v, want ErrConfigMissing", err)
	}
}

func TestExchangeCodePersistsToken(t *testing.T) {
	tokens := &memTokenRepo{}
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	s := NewService(Options{
		ClientKey:    "ck",
		ClientSecret: "cs",
		RedirectURI:  "http://localhost:8080/api/tiktok/callback",
		Tokens:       tokens,
		Logger:       zerolog.Nop(),
		Now:          func() time.Time { return now },
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/v2/oauth/token/" {
				t.Fatalf("unexpected path %q", r.URL.Path)
			}
			return jsonResponse(http.StatusOK, `{"data":{"access_token":"at","refresh_token":"rt","open_id":"open-1","scope":"video.publish","expires_in":7200}}`), nil
		})},
	})

	token, err := s.ExchangeCode(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("ExchangeCode returned error: %v", err)
	}
	if token.AccessToken != "at" || token.OpenID != "open-1" {
		t.Fatalf("token = %+v", token)
	}
	want := now.Add(7200*time.Second - expirySlack)
	if token.ExpiresAt == nil || !token.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", token.ExpiresAt, want)
	}
	if tokens.token == nil {
		t.Fatal("token should be persisted")
	}
}

func TestValidAccessTokenRefreshesExpired(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Minute)
	tokens := &memTokenRepo{token: &domain.TikTokToken{
		ID:           1,
		AccessToken:  "stale",
		RefreshToken: "rt",
		ExpiresAt:    &expired,
	}}

	var refreshCalls int
	s := NewService(Options{
		ClientKey:    "ck",
		ClientSecret: "cs",
		Tokens:       tokens,
		Logger:       zerolog.Nop(),
		Now:          func() time.Time { return now },
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			refreshCalls++
			return jsonResponse(http.StatusOK, `{"data":{"access_token":"fresh","refresh_token":"rt2","expires_in":3600}}`), nil
		})},
	})

	accessToken, err := s.ValidAccessToken(context.Background())
	if err != nil {
		t.Fatalf("ValidAccessToken returned error: %v", err)
	}
	if accessToken != "fresh" {
		t.Fatalf("access token = %q, want the refreshed one", accessToken)
	}
	if refreshCalls != 1 {
		t.Fatalf("refresh calls = %d, want 1", refreshCalls)
	}
	if tokens.updates != 1 || tokens.token.RefreshToken != "rt2" {
		t.Fatalf("refreshed token was not persisted: %+v", tokens.token)
	}
}

func TestValidAccessTokenSkipsRefreshWhenFresh(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(time.Hour)
	tokens := &memTokenRepo{token: &domain.TikTokToken{AccessToken: "good", ExpiresAt: &fresh}}
	s := NewService(Options{
		Tokens: tokens,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return now },
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			t.Fatal("fresh token must not trigger a network call")
			return nil, nil
		})},
	})

	accessToken, err := s.ValidAccessToken(context.Background())
	if err != nil {
		t.Fatalf("ValidAccessToken returned error: %v", err)
	}
	if accessToken != "good" {
		t.Fatalf("access token = %q", accessToken)
	}
}

func TestPublishMockMode(t *testing.T) {
	s := NewService(Options{MockMode: true, Logger: zerolog.Nop()})
	url, id, err := s.Publish(context.Background(), "/nonexistent.mp4", "caption")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if id != "mock_tiktok_video_id" {
		t.Fatalf("id = %q", id)
	}
	if url != "https://www.tiktok.com/@demo/video/mock_tiktok_video_id" {
		t.Fatalf("url = %q", url)
	}
}

func TestPublishUploadsVideo(t *testing.T) {
	localPath := filepath.Join(t.TempDir(), "processed.mp4")
	if err := os.WriteFile(localPath, []byte("video bytes"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	fresh := time.Now().Add(time.Hour)
	tokens := &memTokenRepo{token: &domain.TikTokToken{AccessToken: "at", ExpiresAt: &fresh}}

	var uploadedBody string
	s := NewService(Options{
		ClientKey:    "ck",
		ClientSecret: "cs",
		Tokens:       tokens,
		Logger:       zerolog.Nop(),
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/v2/post/publish/video/init/":
				if got := r.Header.Get("Authorization"); got != "Bearer at" {
					t.Fatalf("Authorization = %q", got)
				}
				return jsonResponse(http.StatusOK, `{"data":{"upload_url":"https://upload.example.com/slot-1","publish_id":"pub-1"}}`), nil
			case r.Method == http.MethodPut:
				body, _ := io.ReadAll(r.Body)
				uploadedBody = string(body)
				return jsonResponse(http.StatusOK, `{}`), nil
			default:
				t.Fatalf("unexpected request %s %s", r.Method, r.URL)
				return nil, nil
			}
		})},
	})

	url, id, err := s.Publish(context.Background(), localPath, "caption")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if id != "pub-1" || url != "https://www.tiktok.com/@me/video/pub-1" {
		t.Fatalf("url=%q id=%q", url, id)
	}
	if uploadedBody != "video bytes" {
		t.Fatalf("uploaded body = %q", uploadedBody)
	}
}

func TestStatusWithoutToken(t *testing.T) {
	s := NewService(Options{Tokens: &memTokenRepo{}, Logger: zerolog.Nop()})
	status, err := s.Status(context.Background())
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.Connected {
		t.Fatal("status should report not connected without a stored token")
	}
}
