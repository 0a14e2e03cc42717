package storage

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"repost/internal/domain"
)

func TestNewS3StoreRejectsMissingConfig(t *testing.T) {
	_, err := NewS3Store(S3Options{
		AccessKeyID: "key",
		Bucket:      "media",
		Logger:      zerolog.Nop(),
	})
	if !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("err = %v, want ErrConfigMissing", err)
	}
}

func TestFileURL(t *testing.T) {
	tests := []struct {
		name          string
		publicBaseURL string
		key           string
		want          string
	}{
		{
			name:          "public base url",
			publicBaseURL: "https://media.example.com",
			key:           "videos/7/processed.mp4",
			want:          "https://media.example.com/videos/7/processed.mp4",
		},
		{
			name: "endpoint fallback",
			key:  "videos/7/processed.mp4",
			want: "https://acc.r2.cloudflarestorage.com/media/videos/7/processed.mp4",
		},
		{
			name:          "escapes key segments",
			publicBaseURL: "https://media.example.com",
			key:           "videos/my clip.mp4",
			want:          "https://media.example.com/videos/my%20clip.mp4",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewS3Store(S3Options{
				AccessKeyID:     "key",
				SecretAccessKey: "secret",
				Bucket:          "media",
				Endpoint:        "https://acc.r2.cloudflarestorage.com",
				PublicBaseURL:   tc.publicBaseURL,
				Logger:          zerolog.Nop(),
			})
			if err != nil {
				t.Fatalf("NewS3Store returned error: %v", err)
			}
			if got := store.FileURL(tc.key); got != tc.want {
				t.Fatalf("FileURL(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}
