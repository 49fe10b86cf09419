package services_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/shared"
	tu "github.com/desertthunder/sung/internal/testing"
)

var creds = services.Credentials{ClientID: "test_client_id", ClientSecret: "test_client_secret"}

func newService(t *testing.T, rt http.RoundTripper) *services.SpotifyService {
	t.Helper()
	svc, err := services.NewSpotifyService(creds,
		services.WithBaseURL("https://api.example.test/v1"),
		services.WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestTransportFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("transport error", func(t *testing.T) {
		refused := errors.New("connection refused")
		rt := tu.NewMockRoundTripper(nil, refused)
		svc := newService(t, rt)

		_, err := svc.Search(ctx, "Love", services.SearchOptions{})
		if !errors.Is(err, refused) {
			t.Fatalf("expected the transport error, got %v", err)
		}
		if !strings.Contains(err.Error(), "request failed") {
			t.Errorf("expected request failed, got %v", err)
		}
		if len(rt.Requests()) != 1 {
			t.Errorf("expected 1 request, got %d", len(rt.Requests()))
		}
	})

	t.Run("body read failure", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       &tu.FCloser{},
		}, nil)
		svc := newService(t, rt)

		_, err := svc.RecentlyPlayed(ctx, 10)
		if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
			t.Fatalf("expected a decode error, got %v", err)
		}
		if got := rt.Requests()[0].URL.Path; got != "/v1/me/player/recently-played" {
			t.Errorf("expected recently played endpoint, got %s", got)
		}
	})

	t.Run("unreadable error body keeps the status", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusNotFound,
			Body:       &tu.FCloser{},
		}, nil)
		svc := newService(t, rt)

		_, err := svc.TopTracks(ctx, services.TopOptions{})
		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
			t.Fatalf("expected a 404 APIError, got %v", err)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("invalid time range fails before any request", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(&http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}, nil)
		svc := newService(t, rt)

		_, err := svc.TopTracks(ctx, services.TopOptions{TimeRange: "forever"})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if len(rt.Requests()) != 0 {
			t.Errorf("expected no requests, got %d", len(rt.Requests()))
		}
	})
}
