package youtube

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlokans/videoanalyzer/internal/config"
)

const (
	defaultYtDlpBinary = "yt-dlp"
	defaultTimeout     = 60 * time.Second
	defaultLanguage    = "en"
)

var subtitleLanguage = regexp.MustCompile(`\.([a-z]{2}(?:-[A-Z]{2})?)\.json3$`)

// Transcript is the plain text of a video's automatic subtitles.
type Transcript struct {
	Content  string
	Language string
}

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// TranscriptExtractor downloads auto-generated subtitles with yt-dlp and
// flattens them to text.
type TranscriptExtractor struct {
	binary        string
	tempDir       string
	timeout       time.Duration
	commandRunner CommandRunner
	now           func() time.Time
	logger        zerolog.Logger
}

// NewTranscriptExtractor creates an extractor from the YouTube configuration.
func NewTranscriptExtractor(cfg config.YouTube, logger zerolog.Logger) *TranscriptExtractor {
	e := &TranscriptExtractor{
		binary:  cfg.YtDlpPath,
		tempDir: cfg.TempDir,
		timeout: cfg.Timeout,
		now:     time.Now,
		logger:  logger.With().Str("component", "transcripts").Logger(),
	}
	if e.binary == "" {
		e.binary = defaultYtDlpBinary
	}
	if e.tempDir == "" {
		e.tempDir = os.TempDir()
	}
	if e.timeout <= 0 {
		e.timeout = defaultTimeout
	}
	return e
}

// WithCommandRunner overrides how yt-dlp is executed.
func (e *TranscriptExtractor) WithCommandRunner(runner CommandRunner) {
	e.commandRunner = runner
}

// Extract fetches the transcript of a video. It returns nil without an error
// when the video has no automatic subtitles.
func (e *TranscriptExtractor) Extract(ctx context.Context, videoURL, videoID string) (*Transcript, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	base := fmt.Sprintf("yva_%s_%d", videoID, e.now().UnixMilli())
	output := filepath.Join(e.tempDir, base)

	args := []string{
		"--write-auto-subs",
		"--skip-download",
		"--sub-format", "json3",
		"--output", output,
		"--", videoURL,
	}
	if _, err := e.run(ctx, e.binary, args...); err != nil {
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(e.tempDir, base+"*.json3"))
	if err != nil {
		return nil, fmt.Errorf("find subtitle file: %w", err)
	}
	defer e.cleanup(matches)

	if len(matches) == 0 {
		e.logger.Info().Str("video_id", videoID).Msg("no automatic subtitles available")
		return nil, nil
	}

	path := matches[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitle file: %w", err)
	}

	content := ParseJSON3(data)
	if content == "" {
		return nil, nil
	}

	return &Transcript{
		Content:  content,
		Language: languageFromFilename(path),
	}, nil
}

func (e *TranscriptExtractor) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

func (e *TranscriptExtractor) cleanup(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.logger.Warn().Err(err).Str("path", path).Msg("failed to remove subtitle file")
		}
	}
}

func languageFromFilename(path string) string {
	if m := subtitleLanguage.FindStringSubmatch(filepath.Base(path)); m != nil {
		return m[1]
	}
	return defaultLanguage
}

type json3Event struct {
	Segs []struct {
		UTF8 string `json:"utf8"`
	} `json:"segs"`
}

type json3Document struct {
	WireMagic string       `json:"wireMagic"`
	Events    []json3Event `json:"events"`
}

// ParseJSON3 flattens a YouTube json3 subtitle document into space separated
// text. Documents that fail to decode as a whole are read line by line,
// keeping every line that decodes as an event.
func ParseJSON3(data []byte) string {
	var doc json3Document
	if err := json.Unmarshal(data, &doc); err == nil {
		if doc.WireMagic == "" && len(doc.Events) == 0 {
			return ""
		}
		return joinEvents(doc.Events)
	}

	var events []json3Event
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		line = bytes.TrimSuffix(line, []byte(","))
		if len(line) == 0 {
			continue
		}
		var event json3Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return joinEvents(events)
}

func joinEvents(events []json3Event) string {
	var b strings.Builder
	for _, event := range events {
		var text strings.Builder
		for _, seg := range event.Segs {
			text.WriteString(seg.UTF8)
		}
		t := strings.TrimSpace(text.String())
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t)
	}
	return b.String()
}
