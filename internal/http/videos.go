package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/videoanalyzer/internal/database"
	"github.com/mrlokans/videoanalyzer/internal/database/videos"
	"github.com/mrlokans/videoanalyzer/internal/services"
	"github.com/mrlokans/videoanalyzer/internal/youtube"
)

type VideosController struct {
	service AnalysisService
	tags    TagStore
}

func NewVideosController(service AnalysisService, tags TagStore) *VideosController {
	return &VideosController{service: service, tags: tags}
}

type AnalyzeRequest struct {
	URL string `json:"url"`
}

type AddTagsRequest struct {
	TagIDs *[]uint `json:"tagIds"`
}

// Analyze analyzes a video or returns the stored analysis
// POST /api/video/analyze
func (vc *VideosController) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "URL is required")
		return
	}

	analysis, _, err := vc.service.Analyze(c.Request.Context(), req.URL)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, analysis)
	case errors.Is(err, services.ErrURLRequired):
		respondBadRequest(c, "URL is required")
	case errors.Is(err, youtube.ErrInvalidURL):
		respondBadRequest(c, "Invalid YouTube URL")
	case errors.Is(err, youtube.ErrVideoNotFound):
		respondNotFound(c, "Video not found on YouTube")
	case errors.Is(err, youtube.ErrMissingAPIKey):
		respondError(c, http.StatusServiceUnavailable, "YouTube API key is not configured")
	default:
		respondInternalError(c, err, "analyze video")
	}
}

// GetVideo returns one analysis with transcript and tags
// GET /api/video/:id
func (vc *VideosController) GetVideo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	analysis, err := vc.service.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrAnalysisNotFound) {
		respondNotFound(c, "Analysis not found")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get video")
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// ListVideos returns a page of analyses, newest first
// GET /api/videos?page=1&limit=20
func (vc *VideosController) ListVideos(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", videos.DefaultPageSize)

	analyses, err := vc.service.List(c.Request.Context(), page, limit)
	if err != nil {
		respondInternalError(c, err, "list videos")
		return
	}
	c.JSON(http.StatusOK, analyses)
}

// DeleteVideo removes an analysis with its transcript and tag assignments
// DELETE /api/video/:id
func (vc *VideosController) DeleteVideo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := vc.service.Delete(c.Request.Context(), id)
	if errors.Is(err, services.ErrAnalysisNotFound) {
		respondNotFound(c, "Analysis not found")
		return
	}
	if err != nil {
		respondInternalError(c, err, "delete video")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// AddTags assigns tags to a video and returns the video with its tags
// POST /api/video/:id/tags
func (vc *VideosController) AddTags(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AddTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TagIDs == nil {
		respondBadRequest(c, "tagIds must be an array")
		return
	}

	err := vc.tags.AssignToVideo(c.Request.Context(), id, *req.TagIDs)
	if errors.Is(err, database.ErrNotFound) {
		respondNotFound(c, "Video or tag not found")
		return
	}
	if err != nil {
		respondInternalError(c, err, "add tags to video")
		return
	}

	analysis, err := vc.service.Get(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "reload video")
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// RemoveTag removes one tag from a video
// DELETE /api/video/:id/tags/:tagId
func (vc *VideosController) RemoveTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseIDParam(c, "tagId")
	if !ok {
		return
	}

	if err := vc.tags.RemoveFromVideo(c.Request.Context(), id, tagID); err != nil {
		respondInternalError(c, err, "remove tag from video")
		return
	}
	respondMessage(c, "Tag removed from video successfully")
}
