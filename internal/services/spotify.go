// Spotify Web API implementation of [API]
//
// Read endpoints are decoded verbatim into maps so callers can project any field. Write endpoints go
// through the typed zmb3/spotify client, which shares the same authenticated [http.Client].
//
// Reference: https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sung/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL     = "https://api.spotify.com/v1"
	defaultRedirectURI = "http://127.0.0.1:3000/callback"

	// MaxTracksPerRequest is the largest id list accepted by the several-tracks endpoint.
	MaxTracksPerRequest = 50
	// MaxPlaylistItemsPerRequest is the largest item list accepted by playlist add/remove.
	MaxPlaylistItemsPerRequest = 100
	// MaxSearchLimit is the largest page size accepted by the search endpoint.
	MaxSearchLimit = 50
	// MaxPlaylistPageSize is the largest page size accepted by the playlist items endpoint.
	MaxPlaylistPageSize = 100
	// MaxHistoryLimit is the largest page size accepted by the recently played and top items endpoints.
	MaxHistoryLimit = 50
)

var (
	_ API          = (*SpotifyService)(nil)
	_ OAuthService = (*SpotifyService)(nil)
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// APIError is a non-2xx response from the Spotify Web API. It matches [shared.ErrAPIRequest].
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify API error: status %d", e.Status)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

// Credentials identify the registered Spotify application.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Option configures a [SpotifyService].
type Option func(*SpotifyService)

// WithScopes adds to the scopes requested during authorization.
func WithScopes(scopes ...string) Option {
	return func(s *SpotifyService) { s.scopes = MergeScopes(append(s.scopes, scopes...)...) }
}

// WithBaseURL points the service at another API root, e.g. an [httptest.Server].
func WithBaseURL(u string) Option {
	return func(s *SpotifyService) { s.baseURL = strings.TrimSuffix(u, "/") }
}

// WithRateLimit paces outgoing requests. A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *SpotifyService) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(l *log.Logger) Option {
	return func(s *SpotifyService) { s.logger = l }
}

// WithRetry lets the typed client retry rate-limited write requests.
func WithRetry(retry bool) Option {
	return func(s *SpotifyService) { s.retry = retry }
}

// WithMarket sets the market used when resolving tracks.
func WithMarket(market string) Option {
	return func(s *SpotifyService) { s.market = market }
}

// WithTimeout bounds every HTTP request. Zero leaves the client's own timeout in place.
func WithTimeout(d time.Duration) Option {
	return func(s *SpotifyService) { s.timeout = d }
}

// WithHTTPClient uses an already authenticated client, skipping [SpotifyService.Authenticate].
func WithHTTPClient(c *http.Client) Option {
	return func(s *SpotifyService) { s.preset = c }
}

// SpotifyService implements [API] and [OAuthService] for the Spotify Web API.
type SpotifyService struct {
	creds          Credentials
	scopes         []string
	auth           *spotifyauth.Authenticator
	token          *oauth2.Token
	httpClient     *http.Client
	preset         *http.Client
	client         *spotify.Client
	baseURL        string
	market         string
	retry          bool
	timeout        time.Duration
	limiter        *rate.Limiter
	logger         *log.Logger
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a Spotify service for the given application credentials.
func NewSpotifyService(creds Credentials, opts ...Option) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if creds.RedirectURI == "" {
		creds.RedirectURI = defaultRedirectURI
	}

	s := &SpotifyService{
		creds:   creds,
		scopes:  MergeScopes(DefaultScopes...),
		baseURL: spotifyBaseURL,
		logger:  shared.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.auth = spotifyauth.New(
		spotifyauth.WithClientID(creds.ClientID),
		spotifyauth.WithClientSecret(creds.ClientSecret),
		spotifyauth.WithRedirectURL(creds.RedirectURI),
		spotifyauth.WithScopes(s.scopes...),
	)

	if s.preset != nil {
		s.install(s.preset)
	}
	return s, nil
}

// NewFromConfig creates a service from the [shared.Config] credentials and client settings.
func NewFromConfig(cfg *shared.Config, logger *log.Logger, scopes ...string) (*SpotifyService, error) {
	sp := cfg.Credentials.Spotify
	return NewSpotifyService(
		Credentials{ClientID: sp.ClientID, ClientSecret: sp.ClientSecret, RedirectURI: sp.RedirectURI},
		WithScopes(scopes...),
		WithRateLimit(cfg.Client.RequestsPerSecond, cfg.Client.Burst),
		WithRetry(cfg.Client.Retry),
		WithMarket(cfg.Client.Market),
		WithTimeout(cfg.Client.Timeout()),
		WithLogger(logger),
	)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Scopes returns the scopes requested during authorization.
func (s *SpotifyService) Scopes() []string {
	return append([]string(nil), s.scopes...)
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.auth.AuthURL(state)
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	return s.auth.Exchange(ctx, code, opts...)
}

// SetTokenRefreshCallback registers callback to be called whenever a token is issued or refreshed.
func (s *SpotifyService) SetTokenRefreshCallback(callback func(*oauth2.Token)) {
	s.onTokenRefresh = callback
}

// Authenticate installs a user token. Expired tokens are refreshed on demand and reported to the
// refresh callback.
func (s *SpotifyService) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: missing access or refresh token", shared.ErrNotAuthenticated)
	}

	s.token = token
	source := &refreshableTokenSource{
		source:   &authTokenSource{ctx: ctx, auth: s.auth, token: token},
		callback: s.onTokenRefresh,
		last:     token.AccessToken,
	}
	s.install(oauth2.NewClient(ctx, source))
	return nil
}

// AuthenticateApp authenticates as the application itself with the client credentials flow.
//
// App tokens can search and read public resources but cannot act on behalf of a user.
func (s *SpotifyService) AuthenticateApp(ctx context.Context) error {
	cfg := &clientcredentials.Config{
		ClientID:     s.creds.ClientID,
		ClientSecret: s.creds.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	s.install(cfg.Client(ctx))
	return nil
}

// Authenticated reports whether a client has been installed.
func (s *SpotifyService) Authenticated() bool {
	return s.httpClient != nil
}

func (s *SpotifyService) install(c *http.Client) {
	if s.limiter != nil {
		base := c.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c = &http.Client{
			Transport:     &limitedTransport{base: base, limiter: s.limiter},
			CheckRedirect: c.CheckRedirect,
			Jar:           c.Jar,
			Timeout:       c.Timeout,
		}
	}
	if s.timeout > 0 && c.Timeout == 0 {
		c = &http.Client{Transport: c.Transport, CheckRedirect: c.CheckRedirect, Jar: c.Jar, Timeout: s.timeout}
	}
	s.httpClient = c
	s.client = spotify.New(c, spotify.WithBaseURL(s.baseURL+"/"), spotify.WithRetry(s.retry))
}

// limitedTransport waits on a [rate.Limiter] before every request.
type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// doRequest performs an authenticated HTTP request to the Spotify API and decodes the JSON response into result.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.httpClient == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.logger.Debug("spotify request", "method", method, "endpoint", endpoint)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", shared.ErrTokenExpired, payload.Error.Message)
	}
	return &APIError{Status: resp.StatusCode, Message: payload.Error.Message}
}

// wrapClientError maps errors from the typed client onto the same errors as [SpotifyService.doRequest].
func wrapClientError(err error) error {
	if err == nil {
		return nil
	}
	var se spotify.Error
	if errors.As(err, &se) {
		if se.Status == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", shared.ErrTokenExpired, se.Message)
		}
		return &APIError{Status: se.Status, Message: se.Message}
	}
	return err
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUserID returns the id of the authenticated user.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return "", wrapClientError(err)
	}
	return user.ID, nil
}

// Search runs one search request. The limit is capped at [MaxSearchLimit].
func (s *SpotifyService) Search(ctx context.Context, query string, opts SearchOptions) (map[string]any, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidArgument)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	if opts.Type != "" {
		params.Set("type", opts.Type)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(min(opts.Limit, MaxSearchLimit)))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}
	if market := firstNonEmpty(opts.Market, s.market); market != "" {
		params.Set("market", market)
	}

	var response map[string]any
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// Tracks retrieves up to [MaxTracksPerRequest] tracks by id. Unknown ids yield nil entries.
func (s *SpotifyService) Tracks(ctx context.Context, ids []string) ([]map[string]any, error) {
	if len(ids) == 0 {
		return []map[string]any{}, nil
	}
	if len(ids) > MaxTracksPerRequest {
		return nil, fmt.Errorf("%w: maximum %d track IDs allowed", shared.ErrInvalidArgument, MaxTracksPerRequest)
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	if s.market != "" {
		params.Set("market", s.market)
	}

	var response struct {
		Tracks []map[string]any `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/tracks?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}
	return response.Tracks, nil
}

// PlaylistItems fetches one page of a playlist, keeping only the fields sung reads.
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*PlaylistItemsPage, error) {
	if limit <= 0 || limit > MaxPlaylistPageSize {
		limit = MaxPlaylistPageSize
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("fields", "items(added_at,track),total,limit,offset,next")
	params.Set("additional_types", "track")
	if s.market != "" {
		params.Set("market", s.market)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?%s", url.PathEscape(playlistID), params.Encode())

	var page PlaylistItemsPage
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RecentlyPlayed retrieves up to limit recently played items. The limit is capped at [MaxHistoryLimit].
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) (map[string]any, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var response map[string]any
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/recently-played?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// TopTracks retrieves one page of the user's top tracks over opts.TimeRange.
func (s *SpotifyService) TopTracks(ctx context.Context, opts TopOptions) (map[string]any, error) {
	timeRange := cmp.Or(opts.TimeRange, TimeRangeLong)
	if !slices.Contains([]string{TimeRangeShort, TimeRangeMedium, TimeRangeLong}, timeRange) {
		return nil, fmt.Errorf("%w: time range %q", shared.ErrInvalidArgument, timeRange)
	}

	params := url.Values{}
	params.Set("time_range", timeRange)
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(min(opts.Limit, MaxHistoryLimit)))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	var response map[string]any
	if err := s.doRequest(ctx, http.MethodGet, "/me/top/tracks?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// AddPlaylistItems appends tracks to a playlist.
func (s *SpotifyService) AddPlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error {
	ids, err := s.itemIDs(trackIDs)
	if err != nil {
		return err
	}
	s.logger.Debug("adding playlist items", "playlist", playlistID, "count", len(ids))
	_, err = s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...)
	return wrapClientError(err)
}

// RemovePlaylistItems removes every occurrence of the given tracks from a playlist.
func (s *SpotifyService) RemovePlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error {
	ids, err := s.itemIDs(trackIDs)
	if err != nil {
		return err
	}
	s.logger.Debug("removing playlist items", "playlist", playlistID, "count", len(ids))
	_, err = s.client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), ids...)
	return wrapClientError(err)
}

func (s *SpotifyService) itemIDs(trackIDs []string) ([]spotify.ID, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	if len(trackIDs) > MaxPlaylistItemsPerRequest {
		return nil, fmt.Errorf("%w: maximum %d tracks per request", shared.ErrInvalidArgument, MaxPlaylistItemsPerRequest)
	}
	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}
	return ids, nil
}

// CreatePlaylist creates a playlist for userID and returns its id.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	s.logger.Debug("creating playlist", "user", userID, "name", name, "public", public)
	pl, err := s.client.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return "", wrapClientError(err)
	}
	return string(pl.ID), nil
}

// UnfollowPlaylist removes the current user as a follower of a playlist.
func (s *SpotifyService) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	if s.client == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	return wrapClientError(s.client.UnfollowPlaylist(ctx, spotify.ID(playlistID)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
