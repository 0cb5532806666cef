package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog"

	"github.com/mrlokans/videoanalyzer/internal/youtube"
)

// FetchTranscriptTask retries transcript extraction for a stored analysis.
type FetchTranscriptTask struct {
	AnalysisID uint   `json:"analysis_id"`
	URL        string `json:"url"`
	VideoID    string `json:"video_id"`
}

// Config returns the queue configuration for transcript fetch tasks.
func (t FetchTranscriptTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "fetch_transcript",
		MaxAttempts: 3,
		Backoff:     2 * time.Minute,
		Timeout:     3 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// TranscriptExtractor fetches the transcript of a video.
type TranscriptExtractor interface {
	Extract(ctx context.Context, videoURL, videoID string) (*youtube.Transcript, error)
}

// TranscriptSaver persists a transcript for an analysis.
type TranscriptSaver interface {
	SaveTranscript(ctx context.Context, analysisID uint, content, language string) error
}

// FetchTranscriptProcessor creates a processor function for FetchTranscriptTask.
func FetchTranscriptProcessor(extractor TranscriptExtractor, saver TranscriptSaver, logger zerolog.Logger) backlite.QueueProcessor[FetchTranscriptTask] {
	return func(ctx context.Context, task FetchTranscriptTask) error {
		if extractor == nil || saver == nil {
			return fmt.Errorf("transcript fetching not configured")
		}

		transcript, err := extractor.Extract(ctx, task.URL, task.VideoID)
		if err != nil {
			return fmt.Errorf("extract transcript for %s: %w", task.VideoID, err)
		}
		if transcript == nil {
			logger.Info().
				Uint("analysis_id", task.AnalysisID).
				Str("video_id", task.VideoID).
				Msg("no transcript available")
			return nil
		}

		if err := saver.SaveTranscript(ctx, task.AnalysisID, transcript.Content, transcript.Language); err != nil {
			return fmt.Errorf("save transcript for analysis %d: %w", task.AnalysisID, err)
		}

		logger.Info().
			Uint("analysis_id", task.AnalysisID).
			Str("video_id", task.VideoID).
			Str("language", transcript.Language).
			Int("length", len(transcript.Content)).
			Msg("transcript stored")
		return nil
	}
}

// NewFetchTranscriptQueue creates a backlite queue for transcript retries.
func NewFetchTranscriptQueue(extractor TranscriptExtractor, saver TranscriptSaver, logger zerolog.Logger) backlite.Queue {
	return backlite.NewQueue(FetchTranscriptProcessor(extractor, saver, logger))
}
