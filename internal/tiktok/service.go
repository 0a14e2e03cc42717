// Package tiktok handles TikTok OAuth and content posting.
package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"repost/internal/domain"
	"repost/internal/pipeline"
)

const (
	defaultTimeout = 45 * time.Second
	uploadTimeout  = 120 * time.Second

	// Tokens are refreshed a minute before their reported expiry.
	expirySlack = 60 * time.Second
)

// Options configures a Service.
type Options struct {
	ClientKey    string
	ClientSecret string
	RedirectURI  string
	APIBaseURL   string
	AuthBaseURL  string
	Scopes       string
	MockMode     bool
	Tokens       domain.TokenRepository
	HTTPClient   *http.Client
	Logger       zerolog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service implements the publisher and credential provider against the
// TikTok open API. In mock mode Publish returns a deterministic URL and id
// without any network traffic.
type Service struct {
	clientKey    string
	clientSecret string
	redirectURI  string
	apiBaseURL   string
	authBaseURL  string
	scopes       string
	mockMode     bool
	tokens       domain.TokenRepository
	client       *http.Client
	logger       zerolog.Logger
	now          func() time.Time
}

// NewService creates a TikTok service.
func NewService(opts Options) *Service {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	apiBase := strings.TrimRight(opts.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = "https://open.tiktokapis.com"
	}
	return &Service{
		clientKey:    opts.ClientKey,
		clientSecret: opts.ClientSecret,
		redirectURI:  opts.RedirectURI,
		apiBaseURL:   apiBase,
		authBaseURL:  opts.AuthBaseURL,
		scopes:       opts.Scopes,
		mockMode:     opts.MockMode,
		tokens:       opts.Tokens,
		client:       client,
		logger:       opts.Logger,
		now:          now,
	}
}

// AuthorizationURL returns the OAuth authorization URL for the frontend
// redirect.
func (s *Service) AuthorizationURL(state string) string {
	params := url.Values{}
	params.Set("client_key", s.clientKey)
	params.Set("response_type", "code")
	params.Set("scope", s.scopes)
	params.Set("redirect_uri", s.redirectURI)
	params.Set("state", state)
	return s.authBaseURL + "?" + params.Encode()
}

func (s *Service) assertOAuthConfig() error {
	if s.clientKey == "" || s.clientSecret == "" || s.redirectURI == "" {
		return fmt.Errorf("%w: TIKTOK_CLIENT_KEY, TIKTOK_CLIENT_SECRET, TIKTOK_REDIRECT_URI", domain.ErrConfigMissing)
	}
	return nil
}

type tokenResponse struct {
	Data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		OpenID       string `json:"open_id"`
		Scope        string `json:"scope"`
		ExpiresIn    int64  `json:"expires_in"`
	} `json:"data"`
}

// ExchangeCode exchanges an OAuth code for tokens and persists them.
func (s *Service) ExchangeCode(ctx context.Context, code string) (*domain.TikTokToken, error) {
	if err := s.assertOAuthConfig(); err != nil {
		return nil, err
	}
	var resp tokenResponse
	err := s.postJSON(ctx, "/v2/oauth/token/", map[string]string{
		"client_key":    s.clientKey,
		"client_secret": s.clientSecret,
		"code":          code,
		"grant_type":    "authorization_code",
		"redirect_uri":  s.redirectURI,
	}, "", &resp)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	if resp.Data.AccessToken == "" {
		return nil, fmt.Errorf("token exchange did not return access_token")
	}
	token := &domain.TikTokToken{
		OpenID:       resp.Data.OpenID,
		AccessToken:  resp.Data.AccessToken,
		RefreshToken: resp.Data.RefreshToken,
		Scope:        resp.Data.Scope,
		ExpiresAt:    s.expiryFrom(resp.Data.ExpiresIn),
	}
	return s.tokens.Save(ctx, token)
}

func (s *Service) refreshToken(ctx context.Context, token *domain.TikTokToken) (*domain.TikTokToken, error) {
	if token.RefreshToken == "" {
		return nil, fmt.Errorf("refresh token is missing; re-authorize the account")
	}
	var resp tokenResponse
	err := s.postJSON(ctx, "/v2/oauth/token/", map[string]string{
		"client_key":    s.clientKey,
		"client_secret": s.clientSecret,
		"grant_type":    "refresh_token",
		"refresh_token": token.RefreshToken,
	}, "", &resp)
	if err != nil {
		return nil, fmt.Errorf("token refresh: %w", err)
	}
	if resp.Data.AccessToken == "" {
		return nil, fmt.Errorf("token refresh did not return access_token")
	}
	token.AccessToken = resp.Data.AccessToken
	if resp.Data.RefreshToken != "" {
		token.RefreshToken = resp.Data.RefreshToken
	}
	if resp.Data.Scope != "" {
		token.Scope = resp.Data.Scope
	}
	if resp.Data.OpenID != "" {
		token.OpenID = resp.Data.OpenID
	}
	token.ExpiresAt = s.expiryFrom(resp.Data.ExpiresIn)
	if err := s.tokens.Update(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *Service) expiryFrom(expiresIn int64) *time.Time {
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	at := s.now().Add(time.Duration(expiresIn)*time.Second - expirySlack)
	return &at
}

// ValidAccessToken returns a usable access token, refreshing the stored
// one when it has expired.
func (s *Service) ValidAccessToken(ctx context.Context) (string, error) {
	token, err := s.tokens.Latest(ctx)
	if err != nil {
		return "", err
	}
	if token.Expired(s.now()) {
		token, err = s.refreshToken(ctx, token)
		if err != nil {
			return "", err
		}
	}
	return token.AccessToken, nil
}

type publishInitResponse struct {
	Data struct {
		UploadURL string `json:"upload_url"`
		PublishID string `json:"publish_id"`
		VideoID   string `json:"video_id"`
	} `json:"data"`
}

// Publish uploads the processed video with its caption and returns the
// public URL and remote id.
func (s *Service) Publish(ctx context.Context, localPath, caption string) (string, string, error) {
	if s.mockMode {
		videoID := "mock_tiktok_video_id"
		return "https://www.tiktok.com/@demo/video/" + videoID, videoID, nil
	}

	videoBytes, err := os.ReadFile(localPath)
	if err != nil {
		return "", "", fmt.Errorf("read video file: %w", err)
	}

	accessToken, err := s.ValidAccessToken(ctx)
	if err != nil {
		return "", "", err
	}

	var initResp publishInitResponse
	err = s.postJSON(ctx, "/v2/post/publish/video/init/", map[string]any{
		"post_info": map[string]any{
			"title":         truncateCaption(caption),
			"privacy_level": "SELF_ONLY",
		},
		"source_info": map[string]any{
			"source":            "FILE_UPLOAD",
			"video_size":        len(videoBytes),
			"chunk_size":        len(videoBytes),
			"total_chunk_count": 1,
		},
	}, accessToken, &initResp)
	if err != nil {
		return "", "", fmt.Errorf("publish init: %w", err)
	}
	if initResp.Data.UploadURL == "" {
		return "", "", fmt.Errorf("publish init did not return upload_url")
	}

	if err := s.putBytes(ctx, initResp.Data.UploadURL, videoBytes); err != nil {
		return "", "", fmt.Errorf("upload video bytes: %w", err)
	}

	publishID := initResp.Data.PublishID
	if publishID == "" {
		publishID = initResp.Data.VideoID
	}
	if publishID == "" {
		publishID = "unknown_publish_id"
	}

	// Publish completion is asynchronous on TikTok's side; the returned
	// URL is derived from the publish id.
	return "https://www.tiktok.com/@me/video/" + publishID, publishID, nil
}

// AccountStatus summarizes the stored token for dashboard checks.
type AccountStatus struct {
	Connected bool       `json:"connected"`
	OpenID    string     `json:"open_id,omitempty"`
	Scope     string     `json:"scope,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Status reports whether an account is connected and with which scope.
func (s *Service) Status(ctx context.Context) (*AccountStatus, error) {
	token, err := s.tokens.Latest(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoToken) {
			return &AccountStatus{Connected: false}, nil
		}
		return nil, err
	}
	return &AccountStatus{
		Connected: true,
		OpenID:    token.OpenID,
		Scope:     token.Scope,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

func (s *Service) postJSON(ctx context.Context, path string, payload any, accessToken string, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("tiktok api status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *Service) putBytes(ctx context.Context, uploadURL string, videoBytes []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(videoBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "video/mp4")
	client := s.client
	if client.Timeout < uploadTimeout {
		upload := *client
		upload.Timeout = uploadTimeout
		client = &upload
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("upload status %d", resp.StatusCode)
	}
	return nil
}

func truncateCaption(caption string) string {
	runes := []rune(caption)
	if len(runes) <= domain.MaxCaptionLength {
		return caption
	}
	return string(runes[:domain.MaxCaptionLength])
}

var _ pipeline.Publisher = (*Service)(nil)
