package pipeline

import (
	"context"
	"fmt"
)

// FetchResult is the outcome of downloading source media into a workspace.
type FetchResult struct {
	LocalPath string
	Shortcode string
	MediaID   string
}

// SourceFetcher downloads the source media referenced by a video's URL.
// Implementations return domain.ErrInvalidSource (wrapped) for unsupported
// URL shapes and plain errors for transient fetch failures.
type SourceFetcher interface {
	Fetch(ctx context.Context, sourceURL, workspace string) (*FetchResult, error)
}

// MediaTransformer converts downloaded media into the publishable format
// and returns the processed file path inside the workspace.
type MediaTransformer interface {
	Transform(ctx context.Context, localPath, workspace string) (string, error)
}

// ArtifactStore persists processed media durably under a deterministic key.
type ArtifactStore interface {
	Put(ctx context.Context, localPath, key string) (string, error)
	Get(ctx context.Context, key, destPath string) (string, error)
}

// CaptionGenerator produces a caption and hashtags for the given context
// hint. It never fails: implementations fall back to deterministic output
// when their primary strategy is exhausted.
type CaptionGenerator interface {
	Generate(ctx context.Context, contextHint string) (string, []string)
}

// Publisher uploads the processed media with its caption to the
// destination platform and returns the public URL and remote id.
type Publisher interface {
	Publish(ctx context.Context, localPath, caption string) (string, string, error)
}

// StorageKey returns the durable object key for a video's processed media.
// The key is deterministic per video so a re-run overwrites prior output.
func StorageKey(videoID int64) string {
	return fmt.Sprintf("videos/%d/processed.mp4", videoID)
}
