// Package services talks to the Spotify Web API.
//
// [SpotifyService] implements [API], the narrow set of operations the rest of sung needs: search,
// several-tracks lookup, paged playlist reads, playlist add/remove/create/unfollow and the current user.
//
// # Authentication
//
// Three modes are supported:
//   - user tokens from the authorization code flow ([SpotifyService.AuthURL], [SpotifyService.Exchange],
//     then [SpotifyService.Authenticate]); refreshed tokens are reported through
//     [SpotifyService.SetTokenRefreshCallback] so callers can persist them
//   - app tokens from the client credentials flow ([SpotifyService.AuthenticateApp]), enough for search
//     and public playlists
//   - a preset [http.Client] ([WithHTTPClient]), used by tests
//
// Scopes are merged with [MergeScopes]; operations that modify playlists need [PlaylistModifyScopes].
//
// # Errors
//
// A 401 maps to [shared.ErrTokenExpired]. Other non-2xx responses become an [*APIError], which matches
// [shared.ErrAPIRequest]. Nothing is retried here unless [WithRetry] is set, in which case the typed
// client waits out rate limits on write requests.
package services
