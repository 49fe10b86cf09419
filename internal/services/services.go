package services

import (
	"context"

	"golang.org/x/oauth2"
)

// API is the set of Spotify Web API operations the rest of sung consumes.
//
// Reads return decoded JSON verbatim. Track ids are bare 22-character ids.
type API interface {
	// Search runs a single search request and returns the raw response object.
	Search(ctx context.Context, query string, opts SearchOptions) (map[string]any, error)

	// Tracks resolves up to [MaxTracksPerRequest] ids, in order. Unknown ids yield nil entries.
	Tracks(ctx context.Context, ids []string) ([]map[string]any, error)

	// PlaylistItems fetches one page of a playlist's items.
	PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*PlaylistItemsPage, error)

	// AddPlaylistItems appends up to [MaxPlaylistItemsPerRequest] tracks to a playlist.
	AddPlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error

	// RemovePlaylistItems removes every occurrence of up to [MaxPlaylistItemsPerRequest] tracks.
	RemovePlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error

	// CreatePlaylist creates a playlist owned by userID and returns its id.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (string, error)

	// CurrentUserID returns the id of the authenticated user.
	CurrentUserID(ctx context.Context) (string, error)

	// UnfollowPlaylist removes the current user as a follower, which deletes playlists the user owns.
	UnfollowPlaylist(ctx context.Context, playlistID string) error

	// RecentlyPlayed returns the user's most recently played items, newest first. Needs
	// [RecentlyPlayedScopes].
	RecentlyPlayed(ctx context.Context, limit int) (map[string]any, error)

	// TopTracks returns one page of the user's top tracks. Needs [TopReadScopes].
	TopTracks(ctx context.Context, opts TopOptions) (map[string]any, error)
}

// OAuthService is implemented by services that authenticate with the OAuth2 authorization code flow.
type OAuthService interface {
	// AuthURL returns the URL the user visits to grant access.
	AuthURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

	// Authenticate installs a previously issued token.
	Authenticate(ctx context.Context, token *oauth2.Token) error

	// SetTokenRefreshCallback registers a function called whenever a new token is issued.
	SetTokenRefreshCallback(callback func(*oauth2.Token))

	// Scopes returns the scopes requested by the service.
	Scopes() []string
}

// SearchOptions are the optional parameters of a search request.
type SearchOptions struct {
	Type   string // comma separated item types; defaults to "track"
	Market string
	Limit  int
	Offset int
}

// Time ranges accepted by the top items endpoint.
const (
	TimeRangeShort  = "short_term"  // about four weeks
	TimeRangeMedium = "medium_term" // about six months
	TimeRangeLong   = "long_term"   // about a year
)

// TopOptions are the optional parameters of a top tracks request.
type TopOptions struct {
	TimeRange string // defaults to [TimeRangeLong]
	Limit     int
	Offset    int
}

// PlaylistItem is one entry of a playlist page. Track is nil for removed or unavailable tracks.
type PlaylistItem struct {
	AddedAt string         `json:"added_at"`
	Track   map[string]any `json:"track"`
}

// PlaylistItemsPage is a page of playlist items. Next is nil on the last page.
type PlaylistItemsPage struct {
	Items  []PlaylistItem `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}
