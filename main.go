package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/gin-gonic/gin"

	"github.com/jeremyjr/portfolio/internal/arcade"
	"github.com/jeremyjr/portfolio/internal/content"
	"github.com/jeremyjr/portfolio/internal/github"
	"github.com/jeremyjr/portfolio/internal/store"
)

type server struct {
	cfg    Config
	site   *content.Site
	store  *store.Store
	games  *arcade.Manager
	github *github.Provider
	admin  *adminAuth
	mailer func(SMTPConfig, contactMessage) error
}

func newServer(cfg Config, site *content.Site, st *store.Store, games *arcade.Manager, gh *github.Provider) *server {
	return &server{
		cfg:    cfg,
		site:   site,
		store:  st,
		games:  games,
		github: gh,
		admin:  newAdminAuth(cfg),
		mailer: sendContactEmail,
	}
}

func (s *server) routes() *gin.Engine {
	r := gin.Default()
	r.LoadHTMLGlob(s.cfg.TemplateGlob)

	r.Static("/images", "./images")
	r.Static("/static", "./static")

	r.Use(s.visitorTrackingMiddleware())

	// Home page route
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"site": s.site,
		})
	})

	// HTMX fragments
	r.GET("/contact-form", func(c *gin.Context) {
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"title": "Contact Me",
		})
	})

	r.GET("/work-content", func(c *gin.Context) {
		c.HTML(http.StatusOK, "work-content.html", gin.H{
			"entries": s.site.Work,
		})
	})

	r.GET("/education-content", func(c *gin.Context) {
		c.HTML(http.StatusOK, "education-content.html", gin.H{
			"entries": s.site.Education,
		})
	})

	r.POST("/contact", s.handleContact)

	s.setupProjectRoutes(r)
	s.setupTronRoutes(r)
	s.setupAdminRoutes(r)

	return r
}

func main() {
	cfg := loadConfig()

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer st.Close()

	site, err := content.Load(cfg.ContentPath)
	if err != nil {
		log.Fatal("Failed to load site content:", err)
	}

	client := github.NewClient(cfg.GitHubToken)
	client.TopRepos = cfg.GitHubTopRepos
	provider := github.NewProvider(client, cfg.GitHubUsername, cfg.GitHubCacheTTL)
	if cfg.GitHubUsername == "" {
		log.Println("WARNING: GITHUB_USERNAME not set, projects page will use bundled data")
	}

	games := arcade.NewManager(arcade.Options{
		Step:        cfg.TronStep,
		MaxSessions: cfg.TronMaxSessions,
		IdleTTL:     cfg.TronIdleTTL,
		Recorder:    st,
	})
	defer games.Shutdown()

	srv := newServer(cfg, site, st, games, provider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go games.Run(ctx)
	go srv.runVisitorCleanup(ctx)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
