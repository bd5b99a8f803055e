package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *server) setupProjectRoutes(r *gin.Engine) {
	// Projects page; always renders, falling back to bundled data.
	r.GET("/projects", func(c *gin.Context) {
		data := s.github.Data(c.Request.Context())
		c.HTML(http.StatusOK, "projects.html", gin.H{
			"title":     "Projects",
			"site":      s.site,
			"github":    data,
			"languages": data.SortedLanguages(),
		})
	})

	r.GET("/api/github", func(c *gin.Context) {
		if s.github.Username() == "" {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "GITHUB_USERNAME environment variable is not set.",
			})
			return
		}
		data, err := s.github.Fetch(c.Request.Context())
		if err != nil {
			c.Header("Cache-Control", "no-store")
			c.JSON(http.StatusOK, s.github.Stale())
			return
		}
		c.Header("Cache-Control", "s-maxage=3600, stale-while-revalidate=1800")
		c.JSON(http.StatusOK, data)
	})
}
