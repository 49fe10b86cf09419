// Package tracks provides [Collection], an ordered, read-only, dictionary-like view of Spotify tracks.
//
// A collection is built either from track references (ids, uris, urls or hrefs) or from track metadata
// already in hand. References are canonicalized to bare ids on first use and metadata is fetched lazily,
// in batches of [BatchSize], the first time it is needed.
//
// Lookups accept a [Key]: a single reference, a position (wrapping modulo the length), a slice, or a list
// of references. Positions resolve against ids only, so a missing key is reported before any metadata is
// fetched.
package tracks

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/sung/internal/refs"
	"github.com/desertthunder/sung/internal/shared"
)

// BatchSize is the largest number of ids sent in one [Fetcher.Tracks] call.
const BatchSize = 50

// Metadata is a decoded Spotify track object.
type Metadata = map[string]any

// Fetcher resolves bare track ids to metadata, in order. It is called with at most [BatchSize] ids.
//
// An id the service cannot resolve yields a nil entry.
type Fetcher interface {
	Tracks(ctx context.Context, ids []string) ([]Metadata, error)
}

// Collection is an ordered view of tracks. It is not safe for concurrent use.
type Collection struct {
	fetcher  Fetcher
	refs     []string
	given    []Metadata
	fromMeta bool

	ids      []string
	idsErr   error
	idsReady bool
	index    map[string]int

	meta *Cache[[]Metadata]
}

// FromRefs builds a collection from track references in any encoding.
//
// References are validated lazily, on the first call that needs ids.
func FromRefs(f Fetcher, trackRefs []string) *Collection {
	c := &Collection{fetcher: f, refs: slices.Clone(trackRefs)}
	c.meta = NewCache(c.fetch)
	return c
}

// FromMetadata builds a collection from track objects. Their "id" fields become the collection's ids.
func FromMetadata(f Fetcher, metas []Metadata) *Collection {
	c := &Collection{fetcher: f, given: slices.Clone(metas), fromMeta: true}
	c.meta = NewCache(func(context.Context) ([]Metadata, error) { return c.given, nil })
	return c
}

// New builds a collection from items that are either all references (strings) or all track objects.
func New(f Fetcher, items []any) (*Collection, error) {
	if len(items) == 0 {
		return FromRefs(f, nil), nil
	}

	switch items[0].(type) {
	case string:
		out := make([]string, len(items))
		for i, it := range items {
			s, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("%w: item %d is %T, expected a reference", shared.ErrInvalidArgument, i, it)
			}
			out[i] = s
		}
		return FromRefs(f, out), nil
	case map[string]any:
		out := make([]Metadata, len(items))
		for i, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: item %d is %T, expected track metadata", shared.ErrInvalidArgument, i, it)
			}
			out[i] = m
		}
		return FromMetadata(f, out), nil
	}
	return nil, fmt.Errorf("%w: cannot build a collection from %T", shared.ErrInvalidArgument, items[0])
}

// Len returns the number of tracks, duplicates included.
func (c *Collection) Len() int {
	if c.fromMeta {
		return len(c.given)
	}
	return len(c.refs)
}

// IDs returns the bare id of every track, in order.
//
// For reference-built collections this fails with [shared.ErrInvalidReference] if any reference is
// malformed. The result is computed once.
func (c *Collection) IDs() ([]string, error) {
	if !c.idsReady {
		c.ids, c.idsErr = c.resolveIDs()
		c.idsReady = true
		if c.idsErr == nil {
			c.index = make(map[string]int, len(c.ids))
			for i, id := range c.ids {
				if _, seen := c.index[id]; !seen && id != "" {
					c.index[id] = i
				}
			}
		}
	}
	if c.idsErr != nil {
		return nil, c.idsErr
	}
	return slices.Clone(c.ids), nil
}

func (c *Collection) resolveIDs() ([]string, error) {
	if !c.fromMeta {
		return refs.Track.IDs(c.refs)
	}
	ids := make([]string, len(c.given))
	for i, m := range c.given {
		if id, ok := m["id"].(string); ok {
			ids[i] = id
		}
	}
	return ids, nil
}

// Index returns the position of the first occurrence of ref.
func (c *Collection) Index(ref string) (int, error) {
	id, err := refs.TrackID(ref)
	if err != nil {
		return 0, err
	}
	if _, err := c.IDs(); err != nil {
		return 0, err
	}
	i, ok := c.index[id]
	if !ok {
		return 0, &NotFoundError{Keys: []string{ref}}
	}
	return i, nil
}

// Contains reports whether ref, in any encoding, is in the collection. Malformed refs are never contained.
func (c *Collection) Contains(ref string) bool {
	_, err := c.Index(ref)
	return err == nil
}

// Metadata returns the track objects, in order, aligned with [Collection.IDs].
//
// Supplied metadata is returned verbatim. Otherwise tracks are fetched in batches of [BatchSize] the first
// time and the result is memoized.
func (c *Collection) Metadata(ctx context.Context) ([]Metadata, error) {
	metas, err := c.meta.Get(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(metas), nil
}

func (c *Collection) fetch(ctx context.Context) ([]Metadata, error) {
	ids, err := c.IDs()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Metadata{}, nil
	}
	if c.fetcher == nil {
		return nil, fmt.Errorf("%w: no track fetcher configured", shared.ErrServiceUnavailable)
	}

	out := make([]Metadata, 0, len(ids))
	var missing []string
	for start := 0; start < len(ids); start += BatchSize {
		batch := ids[start:min(start+BatchSize, len(ids))]
		metas, err := c.fetcher.Tracks(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(metas) != len(batch) {
			return nil, fmt.Errorf("%w: requested %d tracks, received %d", shared.ErrAPIRequest, len(batch), len(metas))
		}
		for i, m := range metas {
			if m == nil {
				missing = append(missing, batch[i])
			}
		}
		out = append(out, metas...)
	}

	if len(missing) > 0 {
		return nil, &NotFoundError{Keys: missing}
	}
	return out, nil
}

// Lookup returns the tracks selected by key, in key order.
//
// The key is resolved against ids first; metadata is only fetched once every requested track is known
// to be present.
func (c *Collection) Lookup(ctx context.Context, key Key) ([]Metadata, error) {
	positions, err := key.positions(c)
	if err != nil {
		return nil, err
	}

	metas, err := c.meta.Get(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Metadata, len(positions))
	for i, p := range positions {
		out[i] = metas[p]
	}
	return out, nil
}

// Get returns the metadata of the track with the given reference.
func (c *Collection) Get(ctx context.Context, ref string) (Metadata, error) {
	return c.one(ctx, ByRef(ref))
}

// At returns the metadata at position i. Any integer is accepted; it wraps modulo the length.
func (c *Collection) At(ctx context.Context, i int) (Metadata, error) {
	return c.one(ctx, ByIndex(i))
}

// Slice returns the tracks selected by s.
func (c *Collection) Slice(ctx context.Context, s BySlice) ([]Metadata, error) {
	return c.Lookup(ctx, s)
}

// Select returns the tracks with the given references, in the order requested.
func (c *Collection) Select(ctx context.Context, trackRefs ...string) ([]Metadata, error) {
	return c.Lookup(ctx, ByRefList(trackRefs))
}

func (c *Collection) one(ctx context.Context, key Key) (Metadata, error) {
	metas, err := c.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	return metas[0], nil
}
