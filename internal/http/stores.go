package http

import (
	"context"

	"github.com/mrlokans/videoanalyzer/internal/database/tags"
	"github.com/mrlokans/videoanalyzer/internal/entities"
)

// Each controller depends on the narrow interface it needs.

// AnalysisService analyzes videos and manages stored analyses.
type AnalysisService interface {
	Analyze(ctx context.Context, url string) (*entities.VideoAnalysis, bool, error)
	Get(ctx context.Context, id uint) (*entities.VideoAnalysis, error)
	List(ctx context.Context, page, limit int) ([]entities.VideoAnalysis, error)
	Delete(ctx context.Context, id uint) error
}

// TagStore defines database operations for tag management.
type TagStore interface {
	List(ctx context.Context) ([]entities.TagWithCount, error)
	Create(ctx context.Context, name string, color *string) (*entities.Tag, error)
	Update(ctx context.Context, id uint, update tags.Update) (*entities.Tag, error)
	Delete(ctx context.Context, id uint) error
	AssignToVideo(ctx context.Context, videoID uint, tagIDs []uint) error
	RemoveFromVideo(ctx context.Context, videoID, tagID uint) error
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping() error
}
