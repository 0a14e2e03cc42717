package captioner

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantCaption  string
		wantHashtags []string
		wantErr      bool
	}{
		{
			name:         "plain json",
			content:      `{"caption":"Nice clip","hashtags":["#fun","#reels"]}`,
			wantCaption:  "Nice clip",
			wantHashtags: []string{"#fun", "#reels"},
		},
		{
			name:         "json wrapped in prose",
			content:      "Sure! Here you go:\n{\"caption\":\"Nice clip\",\"hashtags\":[\"#fun\"]}\nHope that helps.",
			wantCaption:  "Nice clip",
			wantHashtags: []string{"#fun"},
		},
		{
			name:         "hashtags missing hash prefix",
			content:      `{"caption":"Nice clip","hashtags":["fun","##reels"]}`,
			wantCaption:  "Nice clip",
			wantHashtags: []string{"#fun", "#reels"},
		},
		{
			name:    "empty content",
			content: "   ",
			wantErr: true,
		},
		{
			name:    "no json object",
			content: "I cannot help with that.",
			wantErr: true,
		},
		{
			name:    "empty caption",
			content: `{"caption":"","hashtags":["#fun"]}`,
			wantErr: true,
		},
		{
			name:    "no usable hashtags",
			content: `{"caption":"Nice clip","hashtags":["", "#"]}`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			caption, hashtags, err := parseResponse(tc.content)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseResponse(%q) should fail", tc.content)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseResponse returned error: %v", err)
			}
			if caption != tc.wantCaption {
				t.Fatalf("caption = %q, want %q", caption, tc.wantCaption)
			}
			if len(hashtags) != len(tc.wantHashtags) {
				t.Fatalf("hashtags = %v, want %v", hashtags, tc.wantHashtags)
			}
			for i := range hashtags {
				if hashtags[i] != tc.wantHashtags[i] {
					t.Fatalf("hashtags[%d] = %q, want %q", i, hashtags[i], tc.wantHashtags[i])
				}
			}
		})
	}
}

func TestParseResponseTruncatesLongCaption(t *testing.T) {
	long := strings.Repeat("a", 200)
	caption, _, err := parseResponse(`{"caption":"` + long + `","hashtags":["#fun"]}`)
	if err != nil {
		t.Fatalf("parseResponse returned error: %v", err)
	}
	if got := len([]rune(caption)); got != 150 {
		t.Fatalf("caption length = %d, want 150", got)
	}
}

func TestNormalizeHashtags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "dedupes and prefixes",
			in:   []string{"fun", "#fun", "  #reels ", "##tiktok"},
			want: []string{"#fun", "#reels", "#tiktok"},
		},
		{
			name: "drops empties",
			in:   []string{"", "  ", "#", "###"},
			want: []string{},
		},
		{
			name: "caps at eight",
			in:   []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
			want: []string{"#a", "#b", "#c", "#d", "#e", "#f", "#g", "#h"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeHashtags(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("NormalizeHashtags(%v) = %v, want %v", tc.in, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("NormalizeHashtags(%v)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestGenerateFallsBackWithoutAPIKey(t *testing.T) {
	var sleeps []time.Duration
	g := New(Options{
		Logger: zerolog.Nop(),
		Sleep:  func(d time.Duration) { sleeps = append(sleeps, d) },
	})

	caption, hashtags := g.Generate(context.Background(), "my-cool-clip")
	if !strings.HasPrefix(caption, "Fresh cross-platform clip drop.") {
		t.Fatalf("caption = %q, want the fallback caption", caption)
	}
	if len(hashtags) != 5 {
		t.Fatalf("hashtags = %v, want the fixed fallback set", hashtags)
	}
	if len(sleeps) != 2 {
		t.Fatalf("sleeps = %v, want backoff between three attempts", sleeps)
	}
	if sleeps[0] != time.Second || sleeps[1] != 2*time.Second {
		t.Fatalf("backoff = %v, want [1s 2s]", sleeps)
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name string
		hint string
		want string
	}{
		{
			name: "empty hint",
			hint: "",
			want: "Fresh cross-platform clip drop.",
		},
		{
			name: "slug hint is humanized",
			hint: "my-cool_clip",
			want: "Fresh cross-platform clip drop. My Cool Clip",
		},
		{
			name: "url passes through",
			hint: "https://www.instagram.com/reel/ABC123/",
			want: "Fresh cross-platform clip drop. https://www.instagram.com/reel/ABC123/",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			caption, hashtags := Fallback(tc.hint)
			if caption != tc.want {
				t.Fatalf("Fallback(%q) caption = %q, want %q", tc.hint, caption, tc.want)
			}
			if len(hashtags) != 5 || hashtags[0] != "#reels" {
				t.Fatalf("Fallback hashtags = %v", hashtags)
			}
		})
	}
}

func TestFallbackIsDeterministic(t *testing.T) {
	c1, h1 := Fallback("same-hint")
	c2, h2 := Fallback("same-hint")
	if c1 != c2 {
		t.Fatalf("captions differ: %q vs %q", c1, c2)
	}
	if len(h1) != len(h2) {
		t.Fatalf("hashtag sets differ: %v vs %v", h1, h2)
	}

	// Returned slices must not alias the shared fallback set.
	h1[0] = "#mutated"
	_, h3 := Fallback("same-hint")
	if h3[0] != "#reels" {
		t.Fatalf("fallback hashtags were mutated: %v", h3)
	}
}
