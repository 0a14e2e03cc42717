// Package mediaproc prepares downloaded media for publishing.
package mediaproc

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"repost/internal/pipeline"
)

const processedName = "processed.mp4"

// Processor implements the media transform step. When an ffmpeg binary is
// configured the input is remuxed through it; otherwise the input is
// copied verbatim, which keeps the pipeline usable on hosts without
// ffmpeg installed.
type Processor struct {
	ffmpegPath string
	logger     zerolog.Logger
}

// NewProcessor creates a processor. ffmpegPath may be empty.
func NewProcessor(ffmpegPath string, logger zerolog.Logger) *Processor {
	return &Processor{ffmpegPath: ffmpegPath, logger: logger}
}

// Transform produces the publishable file inside the workspace and returns
// its path. The output name is fixed so repeated runs overwrite prior
// partial output.
func (p *Processor) Transform(ctx context.Context, localPath, workspace string) (string, error) {
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	outputPath := filepath.Join(workspace, processedName)

	if p.ffmpegPath != "" {
		if err := p.remux(ctx, localPath, outputPath); err != nil {
			return "", fmt.Errorf("process video: %w", err)
		}
		return outputPath, nil
	}

	if err := copyFile(localPath, outputPath); err != nil {
		return "", fmt.Errorf("process video: %w", err)
	}
	return outputPath, nil
}

func (p *Processor) remux(ctx context.Context, inputPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-y",
		"-i", inputPath,
		"-c", "copy",
		"-movflags", "+faststart",
		outputPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		p.logger.Error().Err(err).Str("output", string(out)).Msg("mediaproc: ffmpeg failed")
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}

var _ pipeline.MediaTransformer = (*Processor)(nil)
