package playback

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"selfcinema/internal/metrics"
)

// FFmpegTranscoder remuxes a source into an MP4 the media element can play.
// Video is copied as-is and only audio is re-encoded, so for the usual MKV
// case this is container rewriting, not a full transcode. Outputs are cached
// in BlobDir keyed by source URL.
type FFmpegTranscoder struct {
	FFMPEGPath  string
	FFProbePath string
	BlobDir     string
	Timeout     time.Duration
	Logger      *slog.Logger
}

func (t *FFmpegTranscoder) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

func (t *FFmpegTranscoder) outputPath(src string) string {
	sum := sha1.Sum([]byte(src))
	return filepath.Join(t.BlobDir, hex.EncodeToString(sum[:])+".mp4")
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, src string) (string, error) {
	out := t.outputPath(src)
	if info, err := os.Stat(out); err == nil && info.Size() > 0 {
		t.logger().Debug("transcode cache hit", slog.String("src", src), slog.String("output", out))
		return out, nil
	}

	if err := os.MkdirAll(t.BlobDir, 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	metrics.TranscodeJobsActive.Inc()
	defer metrics.TranscodeJobsActive.Dec()
	started := time.Now()

	// Write to a temp name and rename so a killed job never leaves a
	// half-written file that later reads as a cache hit.
	tmp := out + ".part"
	args := []string{
		"-y",
		"-i", src,
		"-c:v", "copy",
		"-c:a", "aac",
		"-movflags", "+faststart",
		"-f", "mp4",
		tmp,
	}
	cmd := exec.CommandContext(ctx, t.FFMPEGPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	t.logger().Info("transcode started", slog.String("src", src), slog.String("output", out))
	if err := cmd.Run(); err != nil {
		os.Remove(tmp)
		t.logger().Error("transcode failed",
			slog.String("src", src),
			slog.Any("error", err),
			slog.String("stderr", tail(stderr.String(), 2048)),
		)
		return "", fmt.Errorf("ffmpeg: %w", err)
	}
	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalize transcode output: %w", err)
	}

	metrics.TranscodeDuration.Observe(time.Since(started).Seconds())
	t.logger().Info("transcode finished",
		slog.String("src", src),
		slog.Duration("elapsed", time.Since(started)),
	)
	return out, nil
}

// ProbeDuration reads the container duration in seconds via ffprobe. It is
// advisory; a zero return with nil error means the duration is unknown.
func (t *FFmpegTranscoder) ProbeDuration(ctx context.Context, src string) (float64, error) {
	if t.FFProbePath == "" {
		return 0, nil
	}
	cmd := exec.CommandContext(ctx, t.FFProbePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		src,
	)
	raw, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	var seconds float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(raw)), "%f", &seconds); err != nil {
		return 0, nil
	}
	return seconds, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
