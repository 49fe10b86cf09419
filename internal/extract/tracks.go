package extract

// StandardTrackMetadata is the flat view of a track object used by `sung tracks show`.
var StandardTrackMetadata = Spec{
	{Name: "name", Path: "name"},
	{Name: "artist", Path: "artists.0.name"},
	{Name: "album", Path: "album.name"},
	{Name: "release_date", Path: "album.release_date"},
	{Name: "duration_ms", Path: "duration_ms"},
	{Name: "popularity", Path: "popularity"},
	{Name: "explicit", Path: "explicit"},
	{Name: "external_url", Path: "external_urls.spotify"},
	{Name: "preview_url", Path: "preview_url"},
	{Name: "track_number", Path: "track_number"},
	{Name: "album_total_tracks", Path: "album.total_tracks"},
	{Name: "available_markets", Path: "available_markets"},
	{Name: "album_images", Path: "album.images"},
}

// SearchTrackItems selects the track list of a search response.
const SearchTrackItems = "tracks.items"

// StandardTrack extracts [StandardTrackMetadata] from a track object.
var StandardTrack = MustMapping(StandardTrackMetadata)

const (
	// RecentlyPlayedNames selects the track names of a recently played response.
	RecentlyPlayedNames = "items.*.track.name"
	// RecentlyPlayedTracks selects the track objects of a recently played response.
	RecentlyPlayedTracks = "items.*.track"
	// TopTrackItems selects the track list of a top tracks response.
	TopTrackItems = "items"
)
