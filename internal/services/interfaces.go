package services

import (
	"context"

	"github.com/mrlokans/videoanalyzer/internal/entities"
	"github.com/mrlokans/videoanalyzer/internal/tasks"
	"github.com/mrlokans/videoanalyzer/internal/youtube"
)

// VideoStore provides persistence for video analyses.
type VideoStore interface {
	Create(ctx context.Context, analysis *entities.VideoAnalysis) error
	GetByID(ctx context.Context, id uint) (*entities.VideoAnalysis, error)
	GetByVideoID(ctx context.Context, videoID string) (*entities.VideoAnalysis, error)
	List(ctx context.Context, page, limit int) ([]entities.VideoAnalysis, error)
	Delete(ctx context.Context, id uint) error
}

// MetadataFetcher looks up video metadata.
type MetadataFetcher interface {
	GetVideo(ctx context.Context, videoID string) (*youtube.Metadata, error)
}

// TranscriptExtractor fetches the transcript of a video. A nil transcript
// with a nil error means the video has none.
type TranscriptExtractor interface {
	Extract(ctx context.Context, videoURL, videoID string) (*youtube.Transcript, error)
}

// TranscriptQueue schedules transcript retries in the background.
type TranscriptQueue interface {
	EnqueueTranscriptFetch(ctx context.Context, task tasks.FetchTranscriptTask) error
}
