package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrlokans/videoanalyzer/internal/database"
	"github.com/mrlokans/videoanalyzer/internal/entities"
	"github.com/mrlokans/videoanalyzer/internal/tasks"
	"github.com/mrlokans/videoanalyzer/internal/youtube"
)

var (
	// ErrURLRequired is returned when Analyze is called without a URL.
	ErrURLRequired = errors.New("URL is required")
	// ErrAnalysisNotFound is returned when no analysis has the requested id.
	ErrAnalysisNotFound = errors.New("analysis not found")
)

// AnalysisService handles analyzing YouTube videos and managing the stored
// analyses.
type AnalysisService struct {
	videos     VideoStore
	metadata   MetadataFetcher
	transcript TranscriptExtractor
	queue      TranscriptQueue
	logger     zerolog.Logger
}

// NewAnalysisService creates a new AnalysisService. queue may be nil, in which
// case failed transcript extractions are not retried.
func NewAnalysisService(videos VideoStore, metadata MetadataFetcher, transcript TranscriptExtractor, queue TranscriptQueue, logger zerolog.Logger) *AnalysisService {
	return &AnalysisService{
		videos:     videos,
		metadata:   metadata,
		transcript: transcript,
		queue:      queue,
		logger:     logger.With().Str("component", "analysis").Logger(),
	}
}

// Analyze returns the analysis of the video behind rawURL, creating it when
// the video has not been analyzed before. The boolean reports whether a new
// analysis was created.
func (s *AnalysisService) Analyze(ctx context.Context, rawURL string) (*entities.VideoAnalysis, bool, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, false, ErrURLRequired
	}

	videoID, err := youtube.ExtractVideoID(rawURL)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.videos.GetByVideoID(ctx, videoID)
	switch {
	case err == nil:
		analysis, err := s.Get(ctx, existing.ID)
		return analysis, false, err
	case !errors.Is(err, database.ErrNotFound):
		return nil, false, fmt.Errorf("look up video %s: %w", videoID, err)
	}

	meta, err := s.metadata.GetVideo(ctx, videoID)
	if err != nil {
		return nil, false, fmt.Errorf("fetch metadata for %s: %w", videoID, err)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, false, fmt.Errorf("encode metadata: %w", err)
	}

	analysis := &entities.VideoAnalysis{
		URL:      rawURL,
		VideoID:  videoID,
		Title:    meta.Title,
		Channel:  meta.Channel,
		Metadata: metaJSON,
	}

	transcript, transcriptErr := s.transcript.Extract(ctx, rawURL, videoID)
	if transcriptErr != nil {
		s.logger.Warn().Err(transcriptErr).Str("video_id", videoID).Msg("transcript extraction failed")
	} else if transcript != nil {
		analysis.Transcript = &entities.Transcript{
			Content:  transcript.Content,
			Language: transcript.Language,
		}
	}

	if err := s.videos.Create(ctx, analysis); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			// A concurrent request stored the same video first.
			existing, getErr := s.videos.GetByVideoID(ctx, videoID)
			if getErr != nil {
				return nil, false, fmt.Errorf("load concurrently created video %s: %w", videoID, getErr)
			}
			analysis, getErr := s.Get(ctx, existing.ID)
			return analysis, false, getErr
		}
		return nil, false, fmt.Errorf("save analysis for %s: %w", videoID, err)
	}

	s.logger.Info().
		Uint("analysis_id", analysis.ID).
		Str("video_id", videoID).
		Bool("has_transcript", analysis.Transcript != nil).
		Msg("video analyzed")

	if transcriptErr != nil {
		s.scheduleTranscriptRetry(ctx, analysis)
	}

	created, err := s.Get(ctx, analysis.ID)
	return created, true, err
}

func (s *AnalysisService) scheduleTranscriptRetry(ctx context.Context, analysis *entities.VideoAnalysis) {
	if s.queue == nil {
		return
	}
	err := s.queue.EnqueueTranscriptFetch(ctx, tasks.FetchTranscriptTask{
		AnalysisID: analysis.ID,
		URL:        analysis.URL,
		VideoID:    analysis.VideoID,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("video_id", analysis.VideoID).Msg("failed to schedule transcript retry")
	}
}

// Get returns an analysis with its transcript and tags.
func (s *AnalysisService) Get(ctx context.Context, id uint) (*entities.VideoAnalysis, error) {
	analysis, err := s.videos.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis %d: %w", id, err)
	}
	return analysis, nil
}

// List returns one page of analyses, newest first.
func (s *AnalysisService) List(ctx context.Context, page, limit int) ([]entities.VideoAnalysis, error) {
	analyses, err := s.videos.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return analyses, nil
}

// Delete removes an analysis together with its transcript and tag links.
func (s *AnalysisService) Delete(ctx context.Context, id uint) error {
	err := s.videos.Delete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrAnalysisNotFound
	}
	if err != nil {
		return fmt.Errorf("delete analysis %d: %w", id, err)
	}
	return nil
}
