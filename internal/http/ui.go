package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// pageFiles maps clean page URLs to the HTML file served for them.
var pageFiles = map[string]string{
	"/":          "index.html",
	"/login":     "login.html",
	"/video":     "video.html",
	"/video/:id": "video.html",
	"/settings":  "settings.html",
}

// legacyPages maps the old .html URLs to their clean replacements.
var legacyPages = map[string]string{
	"/index.html":    "/",
	"/login.html":    "/login",
	"/video.html":    "/video",
	"/settings.html": "/settings",
}

// PagesController serves the static front end under clean URLs.
type PagesController struct {
	staticPath string
}

func NewPagesController(staticPath string) *PagesController {
	return &PagesController{staticPath: staticPath}
}

// RegisterRoutes registers the page routes and the static asset fallback.
func (pc *PagesController) RegisterRoutes(router *gin.Engine) {
	for route, file := range pageFiles {
		router.GET(route, pc.page(file))
	}
	for legacy, clean := range legacyPages {
		router.GET(legacy, redirectTo(clean))
	}
	router.NoRoute(pc.Asset)
}

func (pc *PagesController) page(file string) gin.HandlerFunc {
	path := filepath.Join(pc.staticPath, file)
	return func(c *gin.Context) {
		c.File(path)
	}
}

// redirectTo answers with a permanent redirect, keeping the query string so
// links like /video.html?id=3 keep working.
func redirectTo(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		location := target
		if q := c.Request.URL.RawQuery; q != "" {
			location += "?" + q
		}
		c.Redirect(http.StatusMovedPermanently, location)
	}
}

// Asset serves files such as scripts and stylesheets from the static
// directory. Unknown API paths and directories get a JSON 404.
func (pc *PagesController) Asset(c *gin.Context) {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/api/") || strings.HasSuffix(path, "/") || c.Request.Method != http.MethodGet {
		respondNotFound(c, "Not found")
		return
	}
	c.FileFromFS(path, http.Dir(pc.staticPath))
}
