package provider

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// YtDlp searches by driving the yt-dlp binary with its ytsearch pseudo-URL.
// One invocation per search, no retries; a failed run surfaces as an error
// and the caller degrades to zero results.
type YtDlp struct {
	Path    string
	Timeout time.Duration
}

// NewYtDlp returns a searcher backed by the yt-dlp binary at path.
func NewYtDlp(path string, timeout time.Duration) *YtDlp {
	return &YtDlp{Path: path, Timeout: timeout}
}

func (y *YtDlp) Name() string { return "yt-dlp" }

// Available reports whether the yt-dlp binary can be resolved.
func (y *YtDlp) Available() bool {
	_, err := exec.LookPath(y.Path)
	return err == nil
}

// Search runs yt-dlp in flat-playlist mode and parses one JSON object per
// output line.
func (y *YtDlp) Search(ctx context.Context, query string, maxResults int) ([]Video, error) {
	ctx, cancel := context.WithTimeout(ctx, y.Timeout)
	defer cancel()

	target := fmt.Sprintf("ytsearch%d:%s", maxResults, query)
	cmd := exec.CommandContext(ctx, y.Path,
		"--dump-json",
		"--flat-playlist",
		"--no-warnings",
		"--quiet",
		target,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	slog.Debug("yt-dlp run finished", "target", target, "duration", time.Since(start), "error", err)

	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("yt-dlp search timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseEntries(stdout.Bytes(), maxResults), nil
}

// parseEntries converts yt-dlp's line-delimited JSON into Videos. Lines that
// are not valid JSON objects or lack a video ID are skipped.
func parseEntries(output []byte, maxResults int) []Video {
	var videos []Video
	for _, line := range bytes.Split(output, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || !gjson.ValidBytes(line) {
			continue
		}
		entry := gjson.ParseBytes(line)
		id := entry.Get("id").String()
		if id == "" {
			continue
		}

		v := Video{
			ID:              id,
			Title:           entry.Get("title").String(),
			URL:             entry.Get("url").String(),
			Channel:         entry.Get("channel").String(),
			DurationSeconds: int(entry.Get("duration").Int()),
			ViewCount:       entry.Get("view_count").Int(),
			UploadDate:      entry.Get("upload_date").String(),
			Description:     entry.Get("description").String(),
		}
		if v.Channel == "" {
			v.Channel = entry.Get("uploader").String()
		}
		v.normalize()

		videos = append(videos, v)
		if len(videos) >= maxResults {
			break
		}
	}
	return videos
}
