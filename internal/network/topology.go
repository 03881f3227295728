// Package network implements NetworkTopology, Path, and NetworkSchedule:
// the router graph, a DFS path-enumerator with a cache, and the
// composition of per-link SlottedSchedules into path-level feasibility.
//
// Grounded on ScottDaniels-tegu's gizmos/path.go (a Path is an ordered list
// of links between two endpoints, built up incrementally) for the Path
// shape, generalized here to a plain slice of LinkResources discovered by
// DFS over RouterId adjacency rather than built switch-by-switch by a
// reservation handler. The path cache is grounded on karpenter-core's
// instance-type/price caching pattern (a TTL'd lookup cache in front of an
// expensive recomputation), here keyed by a hash of the (src,dst) pair via
// mitchellh/hashstructure/v2 and backed by patrickmn/go-cache.
package network

import (
	"fmt"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/patrickmn/go-cache"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/resource"
)

// Path is an ordered sequence of links joining Src to Dst.
type Path struct {
	Src   ids.RouterId
	Dst   ids.RouterId
	Links []*resource.LinkResource
}

// Length is the hop count, used for tie-breaking path choice: ties are
// broken by shortest path (fewest links).
func (p *Path) Length() int { return len(p.Links) }

// Topology is the router adjacency graph backing path discovery.
type Topology struct {
	adjacency map[ids.RouterId][]*resource.LinkResource
	pathCache *cache.Cache
}

// NewTopology builds the adjacency index from the full set of configured
// links. The topology is immutable after construction.
func NewTopology(links []*resource.LinkResource) *Topology {
	t := &Topology{
		adjacency: map[ids.RouterId][]*resource.LinkResource{},
		pathCache: cache.New(5*time.Minute, 10*time.Minute),
	}
	for _, l := range links {
		t.adjacency[l.StartPoint] = append(t.adjacency[l.StartPoint], l)
		t.adjacency[l.EndPoint] = append(t.adjacency[l.EndPoint], l)
	}
	return t
}

type pathCacheKey struct {
	Src ids.RouterId
	Dst ids.RouterId
}

func (t *Topology) cacheKeyFor(src, dst ids.RouterId) (string, error) {
	h, err := hashstructure.Hash(pathCacheKey{Src: src, Dst: dst}, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h), nil
}

// Paths returns every simple path from src to dst, ascending by hop count,
// using a cached result when available.
func (t *Topology) Paths(src, dst ids.RouterId) ([]*Path, error) {
	key, err := t.cacheKeyFor(src, dst)
	if err != nil {
		return nil, err
	}
	if cached, ok := t.pathCache.Get(key); ok {
		return cached.([]*Path), nil
	}

	found := t.enumerate(src, dst)
	t.pathCache.Set(key, found, cache.DefaultExpiration)
	return found, nil
}

// enumerate performs a DFS over the adjacency graph, collecting every simple
// (no repeated router) path from src to dst, sorted by ascending link count.
func (t *Topology) enumerate(src, dst ids.RouterId) []*Path {
	var results []*Path
	visited := map[ids.RouterId]bool{src: true}
	var walk func(current ids.RouterId, links []*resource.LinkResource)
	walk = func(current ids.RouterId, links []*resource.LinkResource) {
		if current == dst && len(links) > 0 {
			cp := make([]*resource.LinkResource, len(links))
			copy(cp, links)
			results = append(results, &Path{Src: src, Dst: dst, Links: cp})
			return
		}
		for _, l := range t.adjacency[current] {
			next, ok := l.OtherEnd(current)
			if !ok || visited[next] {
				continue
			}
			visited[next] = true
			walk(next, append(links, l))
			visited[next] = false
		}
	}
	walk(src, nil)

	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Length() < results[j-1].Length(); j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
	return results
}
