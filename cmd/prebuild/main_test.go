package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeremyjr/portfolio/internal/github"
)

func TestGenerateWithoutUsernameUsesFallback(t *testing.T) {
	d := generate(context.Background(), "", "", 5)
	if d.Profile.Login != github.Fallback().Profile.Login {
		t.Errorf("expected fallback profile, got %q", d.Profile.Login)
	}
}

func TestGenerateFallsBackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	client := github.NewClient("")
	client.BaseURL = srv.URL
	d := generateWith(context.Background(), client, "octo", 5)
	if d.Profile.Login != github.Fallback().Profile.Login {
		t.Errorf("expected fallback on error, got %q", d.Profile.Login)
	}
}

func TestGenerateUsesFreshData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"login":"octo","name":"Octo Cat"}`)
	})
	mux.HandleFunc("/users/octo/repos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name":"a","stargazers_count":1},{"name":"b","stargazers_count":3}]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := github.NewClient("")
	client.BaseURL = srv.URL
	d := generateWith(context.Background(), client, "octo", 1)
	if d.Profile.Name != "Octo Cat" || len(d.Repos) != 1 || d.Repos[0].Name != "b" {
		t.Errorf("unexpected data %+v", d)
	}
}
