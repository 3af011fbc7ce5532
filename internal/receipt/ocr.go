package receipt

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// TextExtractor is the OCR boundary. Implementations never fail: any error is
// reported as empty text so the caller's fallback path runs.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) string
}

// StaticText returns the same text for every image.
type StaticText string

func (s StaticText) ExtractText(context.Context, []byte) string { return string(s) }

// Tesseract shells out to the tesseract command line tool.
type Tesseract struct {
	Path    string
	Lang    string
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewTesseract returns a Tesseract using binary path (or "tesseract" from PATH).
func NewTesseract(path string, timeout time.Duration) *Tesseract {
	if path == "" {
		path = "tesseract"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Tesseract{Path: path, Lang: "eng", Timeout: timeout, Logger: slog.Default()}
}

func (t *Tesseract) ExtractText(ctx context.Context, image []byte) string {
	if len(image) == 0 {
		return ""
	}
	f, err := os.CreateTemp("", "receipt-*")
	if err != nil {
		t.Logger.WarnContext(ctx, "OCR temp file failed", "error", err)
		return ""
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(image); err != nil {
		f.Close()
		t.Logger.WarnContext(ctx, "OCR temp write failed", "error", err)
		return ""
	}
	if err := f.Close(); err != nil {
		t.Logger.WarnContext(ctx, "OCR temp close failed", "error", err)
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Path, f.Name(), "stdout", "-l", t.Lang)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	start := time.Now()
	if err := cmd.Run(); err != nil {
		t.Logger.WarnContext(ctx, "OCR failed",
			"error", err,
			"stderr", strings.TrimSpace(stderr.String()),
			"duration", time.Since(start))
		return ""
	}
	t.Logger.DebugContext(ctx, "OCR completed", "bytes", len(image), "duration", time.Since(start))
	return stdout.String()
}
