package mediaproc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestTransformCopiesWithoutFFmpeg(t *testing.T) {
	src := filepath.Join(t.TempDir(), "source.mp4")
	if err := os.WriteFile(src, []byte("raw video"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	workspace := t.TempDir()

	p := NewProcessor("", zerolog.Nop())
	out, err := p.Transform(context.Background(), src, workspace)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	if out != filepath.Join(workspace, "processed.mp4") {
		t.Fatalf("output path = %q", out)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "raw video" {
		t.Fatalf("output content = %q", data)
	}
}

func TestTransformMissingInput(t *testing.T) {
	p := NewProcessor("", zerolog.Nop())
	if _, err := p.Transform(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), t.TempDir()); err == nil {
		t.Fatal("Transform should fail for a missing input file")
	}
}
