package main

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jeremyjr/portfolio/internal/arcade"
	"github.com/jeremyjr/portfolio/internal/tron"
)

type createGameRequest struct {
	Mode string `json:"mode"`
}

type keyRequest struct {
	Key *int `json:"key" binding:"required"`
}

type turnRequest struct {
	Player    tron.PlayerID   `json:"player"`
	Direction *tron.Direction `json:"direction" binding:"required"`
}

func (s *server) setupTronRoutes(r *gin.Engine) {
	r.GET("/games/tron", func(c *gin.Context) {
		c.HTML(http.StatusOK, "tron.html", gin.H{
			"title":     "Tron",
			"stepMilli": s.cfg.TronStep.Milliseconds(),
		})
	})

	api := r.Group("/api/tron/games")

	api.POST("", func(c *gin.Context) {
		var req createGameRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}
		}
		mode, err := arcade.ParseMode(req.Mode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		session, err := s.games.Create(mode)
		if errors.Is(err, arcade.ErrTooManySessions) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Too many games running, try again shortly"})
			return
		}
		if err != nil {
			log.Printf("Error creating tron game: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create game"})
			return
		}
		writeFrame(c, http.StatusCreated, session.Frame())
	})

	api.GET("/:id", s.withSession(func(c *gin.Context, session *arcade.Session) {
		writeFrame(c, http.StatusOK, session.Frame())
	}))

	api.GET("/:id/board", s.withSession(func(c *gin.Context, session *arcade.Session) {
		frame := session.Frame()
		board := arcade.RenderText(frame.State)
		if frame.Message != "" {
			board += frame.Message + "\n"
		}
		c.String(http.StatusOK, board)
	}))

	// Keyboard input from the page; a recognised key steers both cycles.
	api.POST("/:id/keys", s.withSession(func(c *gin.Context, session *arcade.Session) {
		var req keyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing key code"})
			return
		}
		session.Key(*req.Key)
		c.Status(http.StatusNoContent)
	}))

	api.POST("/:id/turn", s.withSession(func(c *gin.Context, session *arcade.Session) {
		var req turnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid turn: " + err.Error()})
			return
		}
		session.Turn(req.Player, *req.Direction)
		c.Status(http.StatusNoContent)
	}))

	api.POST("/:id/restart", s.withSession(func(c *gin.Context, session *arcade.Session) {
		writeFrame(c, http.StatusOK, session.Restart())
	}))

	api.DELETE("/:id", func(c *gin.Context) {
		if err := s.games.Remove(c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func (s *server) withSession(h func(*gin.Context, *arcade.Session)) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := s.games.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}
		h(c, session)
	}
}

// writeFrame answers with MessagePack when the client asks for it.
func writeFrame(c *gin.Context, status int, frame arcade.Frame) {
	if strings.Contains(c.GetHeader("Accept"), arcade.ContentTypeMsgpack) {
		b, err := arcade.EncodeFrame(frame)
		if err != nil {
			log.Printf("Error encoding frame: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode frame"})
			return
		}
		c.Data(status, arcade.ContentTypeMsgpack, b)
		return
	}
	c.JSON(status, frame)
}
