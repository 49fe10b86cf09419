package services

import (
	"context"
	"slices"
	"strings"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

var (
	// DefaultScopes are requested by every user-authenticated client.
	DefaultScopes = []string{
		spotifyauth.ScopeUserReadPrivate,
		spotifyauth.ScopePlaylistReadPrivate,
		spotifyauth.ScopePlaylistReadCollaborative,
	}

	// PlaylistModifyScopes are required to create, change or delete playlists.
	PlaylistModifyScopes = []string{
		spotifyauth.ScopePlaylistModifyPublic,
		spotifyauth.ScopePlaylistModifyPrivate,
	}

	// RecentlyPlayedScopes are required to read the listening history.
	RecentlyPlayedScopes = []string{spotifyauth.ScopeUserReadRecentlyPlayed}

	// TopReadScopes are required to read the user's top tracks.
	TopReadScopes = []string{spotifyauth.ScopeUserTopRead}
)

// MergeScopes returns the sorted union of scopes. Entries may hold several space separated scopes.
func MergeScopes(scopes ...string) []string {
	var out []string
	for _, s := range scopes {
		for _, f := range strings.Fields(s) {
			if !slices.Contains(out, f) {
				out = append(out, f)
			}
		}
	}
	slices.Sort(out)
	return out
}

// GrantedScopes returns the scopes recorded on token, if the server reported them.
func GrantedScopes(token *oauth2.Token) []string {
	if token == nil {
		return nil
	}
	s, _ := token.Extra("scope").(string)
	return MergeScopes(s)
}

// HasScopes reports whether token was granted every one of scopes.
func HasScopes(token *oauth2.Token, scopes ...string) bool {
	granted := GrantedScopes(token)
	for _, s := range MergeScopes(scopes...) {
		if !slices.Contains(granted, s) {
			return false
		}
	}
	return true
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and calls callback whenever the access token changes.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	if token.AccessToken != r.last {
		r.last = token.AccessToken
		if r.callback != nil {
			r.callback(token)
		}
	}
	return token, nil
}

// authTokenSource refreshes tokens through the Spotify [spotifyauth.Authenticator].
type authTokenSource struct {
	ctx   context.Context
	auth  *spotifyauth.Authenticator
	token *oauth2.Token
}

func (a *authTokenSource) Token() (*oauth2.Token, error) {
	token, err := a.auth.RefreshToken(a.ctx, a.token)
	if err != nil {
		return nil, err
	}
	if token.Extra("scope") == nil {
		if scope := a.token.Extra("scope"); scope != nil {
			token = token.WithExtra(map[string]any{"scope": scope})
		}
	}
	a.token = token
	return token, nil
}
