// Package github fetches the profile and top repositories shown on the
// projects page, with an in-memory cache and a bundled fallback snapshot.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultBaseURL   = "https://api.github.com"
	DefaultUserAgent = "jeremyjr-portfolio"
	DefaultTopRepos  = 10

	noDescription = "No description provided."
)

var ErrNoUsername = errors.New("github: username not configured")

type Profile struct {
	Login     string  `json:"login"`
	Name      string  `json:"name"`
	AvatarURL string  `json:"avatar_url"`
	Bio       *string `json:"bio"`
	Location  *string `json:"location"`
	Followers int     `json:"followers"`
	HTMLURL   string  `json:"html_url"`
}

type Repo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Stars       int      `json:"stargazers_count"`
	HTMLURL     string   `json:"html_url"`
	Language    *string  `json:"language"`
	Homepage    *string  `json:"homepage"`
	Topics      []string `json:"topics"`
}

// Data is the document served to the projects page and written by prebuild.
type Data struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Profile     Profile        `json:"profile"`
	Languages   map[string]int `json:"languages"`
	Repos       []Repo         `json:"repos"`
}

// StatusError is returned for a non-2xx API response.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GitHub API error %d for %s: %s", e.StatusCode, e.Path, e.Body)
}

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
	Token      string
	TopRepos   int
}

func NewClient(token string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    DefaultBaseURL,
		UserAgent:  DefaultUserAgent,
		Token:      token,
		TopRepos:   DefaultTopRepos,
	}
}

// raw API shapes; only the fields we read.
type apiUser struct {
	Login     string  `json:"login"`
	Name      *string `json:"name"`
	AvatarURL string  `json:"avatar_url"`
	Bio       *string `json:"bio"`
	Location  *string `json:"location"`
	Followers int     `json:"followers"`
	HTMLURL   string  `json:"html_url"`
}

type apiRepo struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Stars       int      `json:"stargazers_count"`
	HTMLURL     string   `json:"html_url"`
	Language    *string  `json:"language"`
	Homepage    *string  `json:"homepage"`
	Topics      []string `json:"topics"`
}

// Fetch loads the profile and repositories of username in parallel.
func (c *Client) Fetch(ctx context.Context, username string) (Data, error) {
	if username == "" {
		return Data{}, ErrNoUsername
	}

	var (
		user  apiUser
		repos []apiRepo
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(ctx, "/users/"+url.PathEscape(username), nil, &user)
	})
	g.Go(func() error {
		q := url.Values{"sort": {"updated"}, "per_page": {"100"}}
		return c.get(ctx, "/users/"+url.PathEscape(username)+"/repos", q, &repos)
	})
	if err := g.Wait(); err != nil {
		return Data{}, err
	}

	return normalize(username, user, repos, c.topRepos(), time.Now().UTC()), nil
}

func (c *Client) topRepos() int {
	if c.TopRepos <= 0 {
		return DefaultTopRepos
	}
	return c.TopRepos
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.UserAgent)
	if c.Token != "" {
		req.Header.Set("Authorization", "token "+c.Token)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Path: path, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid JSON from %s: %w", path, err)
	}
	return nil
}

// normalize keeps the top repositories by stars and counts their languages.
func normalize(username string, u apiUser, all []apiRepo, top int, now time.Time) Data {
	sorted := append([]apiRepo(nil), all...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Stars > sorted[j].Stars
	})
	if len(sorted) > top {
		sorted = sorted[:top]
	}

	repos := make([]Repo, 0, len(sorted))
	languages := make(map[string]int)
	for _, r := range sorted {
		desc := noDescription
		if r.Description != nil && *r.Description != "" {
			desc = *r.Description
		}
		topics := r.Topics
		if topics == nil {
			topics = []string{}
		}
		repos = append(repos, Repo{
			Name:        r.Name,
			Description: desc,
			Stars:       r.Stars,
			HTMLURL:     r.HTMLURL,
			Language:    nonEmpty(r.Language),
			Homepage:    nonEmpty(r.Homepage),
			Topics:      topics,
		})
		if r.Language != nil && *r.Language != "" {
			languages[*r.Language]++
		}
	}

	login := u.Login
	if login == "" {
		login = username
	}
	name := login
	if u.Name != nil && *u.Name != "" {
		name = *u.Name
	}

	return Data{
		GeneratedAt: now,
		Profile: Profile{
			Login:     login,
			Name:      name,
			AvatarURL: u.AvatarURL,
			Bio:       nonEmpty(u.Bio),
			Location:  nonEmpty(u.Location),
			Followers: u.Followers,
			HTMLURL:   u.HTMLURL,
		},
		Languages: languages,
		Repos:     repos,
	}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// LanguageCount is one entry of Data.Languages ordered for display.
type LanguageCount struct {
	Language string
	Repos    int
}

// SortedLanguages returns the language histogram, most used first.
func (d Data) SortedLanguages() []LanguageCount {
	out := make([]LanguageCount, 0, len(d.Languages))
	for lang, n := range d.Languages {
		out = append(out, LanguageCount{Language: lang, Repos: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Repos != out[j].Repos {
			return out[i].Repos > out[j].Repos
		}
		return out[i].Language < out[j].Language
	})
	return out
}
