// Package entitycache implements the entity cache wrapper (spec §3
// "Entity cache", §4.5 "Entity loading and filtered claims"): a bounded
// in-memory LRU fronting a blockstore-backed disk cache, batch loading
// from the knowledge-graph API, datatype lookup, and the "formatter URL"
// (P1630) lookup used to turn an external id into a clickable URL.
package entitycache

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"gitlab.com/tozd/go/errors"
	"gitlab.com/tozd/go/mediawiki"

	"gitlab.com/wdlists/wdlists/internal/blockstore"
	"gitlab.com/wdlists/wdlists/internal/wikiapi"
)

// FormatterURLProperty is the property id of the "formatter URL"
// statement used by ExternalIDURL (spec §4.5).
const FormatterURLProperty = "P1630"

// Cache is the per-list (or per-wiki, depending on configuration) entity
// cache. Entities beyond MaxLocal spill to a blockstore.Store, exactly
// like internal/sparqltable's row spillover (spec §9 "prefer a single
// block store abstraction used by both").
type Cache struct {
	mu sync.Mutex

	mem      *lru.Cache
	maxLocal int

	store    *blockstore.Store
	diskRefs map[string]blockstore.Ref

	client          *wikiapi.Client
	preferPreferred bool

	missCount uint64
}

// New creates an entity cache backed by client, with an in-memory LRU of
// size maxLocal. preferPreferred (spec §6 configuration key
// "prefer_preferred") is stored on the cache; GetFilteredClaims does not
// read it and always applies the prefer-preferred policy (spec §4.5).
func New(client *wikiapi.Client, maxLocal int, preferPreferred bool) (*Cache, errors.E) {
	c := &Cache{
		maxLocal:        maxLocal,
		diskRefs:        make(map[string]blockstore.Ref),
		client:          client,
		preferPreferred: preferPreferred,
	}
	mem, err := lru.NewWithEvict(maxLocal, c.onEvict)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	c.mem = mem
	return c, nil
}

// onEvict spills an entity evicted from the in-memory LRU to the disk
// store, creating the store lazily on first spill (mirroring
// internal/sparqltable.Table.spillToDisk).
func (c *Cache) onEvict(key, value interface{}) {
	id, _ := key.(string)
	entity, _ := value.(*mediawiki.Entity)
	if entity == nil {
		return
	}
	data, err := json.Marshal(entity)
	if err != nil {
		return
	}
	if c.store == nil {
		store, errE := blockstore.New("", "entitycache-*")
		if errE != nil {
			return
		}
		c.store = store
	}
	ref, errE := c.store.Append(data)
	if errE != nil {
		return
	}
	c.diskRefs[id] = ref
}

// Close releases the backing disk store, if one was created.
func (c *Cache) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// GetEntity returns the cached entity for id, or nil if not cached,
// checking memory first, then disk (spec §3 Entity cache invariant: "a
// write appends only; reads use recorded offset/length").
func (c *Cache) GetEntity(id string) *mediawiki.Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(id)
}

func (c *Cache) getLocked(id string) *mediawiki.Entity {
	if v, ok := c.mem.Get(id); ok {
		entity, _ := v.(*mediawiki.Entity)
		return entity
	}
	c.missCount++
	if ref, ok := c.diskRefs[id]; ok {
		data, errE := c.store.Read(ref)
		if errE != nil {
			return nil
		}
		var entity mediawiki.Entity
		if err := json.Unmarshal(data, &entity); err != nil {
			return nil
		}
		return &entity
	}
	return nil
}

// LoadEntities batch-loads any of ids not already cached, via the
// knowledge-graph API (spec §4.5 "load_entities(api, ids)"). Already
// cached ids are skipped, deduplicating the request.
func (c *Cache) LoadEntities(ctx context.Context, ids []string) errors.E {
	c.mu.Lock()
	missing := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if c.getLocked(id) == nil {
			missing = append(missing, id)
		}
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return nil
	}

	entities, errE := c.client.GetEntities(ctx, missing)
	if errE != nil {
		return errE
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, entity := range entities {
		c.mem.Add(id, entity)
	}
	return nil
}

// GetDatatypeForProperty returns the datatype of property pid, falling
// back to String when the property entity is not cached or has none set
// (spec §4.5 "get_datatype_for_property").
func (c *Cache) GetDatatypeForProperty(pid string) mediawiki.DataType {
	entity := c.GetEntity(pid)
	if entity == nil || entity.DataType == nil {
		return mediawiki.String
	}
	return *entity.DataType
}

// ExternalIDURL finds property pid's P1630 "formatter URL" claim and
// substitutes "$1" with the URL-decoded id (spec §4.5
// "external_id_url").
func (c *Cache) ExternalIDURL(pid, id string) string {
	entity := c.GetEntity(pid)
	if entity == nil {
		return ""
	}
	statements := entity.Claims[FormatterURLProperty]
	for _, st := range statements {
		if st.MainSnak.DataValue == nil {
			continue
		}
		sv, ok := st.MainSnak.DataValue.Value.(mediawiki.StringValue)
		if !ok {
			continue
		}
		decoded, err := url.QueryUnescape(id)
		if err != nil {
			decoded = id
		}
		return strings.ReplaceAll(string(sv), "$1", decoded)
	}
	return ""
}

// GetFilteredClaims returns entity's statements for property, filtered by
// the "prefer-preferred" policy (spec §4.5): if any statement has rank
// Preferred, only preferred statements are returned; otherwise all are
// returned (deprecated statements are never auto-filtered).
func GetFilteredClaims(entity *mediawiki.Entity, property string) []mediawiki.Statement {
	if entity == nil {
		return nil
	}
	statements := entity.Claims[property]
	hasPreferred := false
	for _, st := range statements {
		if st.Rank == mediawiki.Preferred {
			hasPreferred = true
			break
		}
	}
	if !hasPreferred {
		return statements
	}
	out := make([]mediawiki.Statement, 0, len(statements))
	for _, st := range statements {
		if st.Rank == mediawiki.Preferred {
			out = append(out, st)
		}
	}
	return out
}

// MissCount returns the number of cache misses since the last call.
func (c *Cache) MissCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.missCount
	c.missCount = 0
	return n
}
