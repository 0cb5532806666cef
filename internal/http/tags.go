package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/videoanalyzer/internal/database"
	"github.com/mrlokans/videoanalyzer/internal/database/tags"
)

const invalidColorMessage = "Invalid color format. Use hex format like #FF5733"

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type TagsController struct {
	store TagStore
}

func NewTagsController(store TagStore) *TagsController {
	return &TagsController{store: store}
}

type CreateTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// UpdateTagRequest keeps color raw so an absent field can be told apart
// from an explicit null or empty string.
type UpdateTagRequest struct {
	Name  string          `json:"name"`
	Color json.RawMessage `json:"color"`
}

// GetAllTags returns all tags with their video counts
// GET /api/tags
func (tc *TagsController) GetAllTags(c *gin.Context) {
	list, err := tc.store.List(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "get all tags")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateTag creates a new tag
// POST /api/tags
func (tc *TagsController) CreateTag(c *gin.Context) {
	var req CreateTagRequest
	_ = c.ShouldBindJSON(&req)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondBadRequest(c, "Tag name is required")
		return
	}

	var color *string
	if req.Color != "" {
		if !hexColor.MatchString(req.Color) {
			respondBadRequest(c, invalidColorMessage)
			return
		}
		color = &req.Color
	}

	tag, err := tc.store.Create(c.Request.Context(), name, color)
	if errors.Is(err, database.ErrDuplicate) {
		respondConflict(c, "Tag already exists")
		return
	}
	if err != nil {
		respondInternalError(c, err, "create tag")
		return
	}
	c.JSON(http.StatusOK, tag)
}

// UpdateTag renames a tag or changes its color
// PUT /api/tags/:id
func (tc *TagsController) UpdateTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBadRequest(c, "invalid request body")
		return
	}

	var update tags.Update
	if name := strings.TrimSpace(req.Name); name != "" {
		update.Name = &name
	}

	if len(req.Color) > 0 {
		var color *string
		if err := json.Unmarshal(req.Color, &color); err != nil {
			respondBadRequest(c, invalidColorMessage)
			return
		}
		if color != nil && *color == "" {
			color = nil
		}
		if color != nil && !hexColor.MatchString(*color) {
			respondBadRequest(c, invalidColorMessage)
			return
		}
		update.SetColor = true
		update.Color = color
	}

	tag, err := tc.store.Update(c.Request.Context(), id, update)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, tag)
	case errors.Is(err, database.ErrNotFound):
		respondNotFound(c, "Tag not found")
	case errors.Is(err, database.ErrDuplicate):
		respondConflict(c, "Tag name already exists")
	default:
		respondInternalError(c, err, "update tag")
	}
}

// DeleteTag removes a tag and its video assignments
// DELETE /api/tags/:id
func (tc *TagsController) DeleteTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := tc.store.Delete(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondNotFound(c, "Tag not found")
		return
	}
	if err != nil {
		respondInternalError(c, err, "delete tag")
		return
	}
	respondMessage(c, "Tag deleted successfully")
}
