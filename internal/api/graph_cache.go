package api

import (
	"context"
	"sync"

	"github.com/dadanbeck/canvass/internal/pkg/workerpool"
	"github.com/dadanbeck/canvass/internal/services"
)

// GraphCache keeps the last built branch graph per survey. Structural
// mutations queue a rebuild on the worker pool; a read that races a
// rebuild just computes its own copy. Each key carries a generation
// that every mutation bumps, so a rebuild that read older state can
// never overwrite a fresher graph.
type GraphCache struct {
	branches services.BranchService
	pool     *workerpool.WorkerPool

	mu     sync.RWMutex
	graphs map[cacheKey]*services.BranchGraph
	gens   map[cacheKey]uint64
}

type cacheKey struct {
	tenantID int
	surveyID int
}

func NewGraphCache(branches services.BranchService, pool *workerpool.WorkerPool) *GraphCache {
	return &GraphCache{
		branches: branches,
		pool:     pool,
		graphs:   map[cacheKey]*services.BranchGraph{},
		gens:     map[cacheKey]uint64{},
	}
}

func (gc *GraphCache) Get(ctx context.Context, scope services.Scope, surveyID int) (*services.BranchGraph, error) {
	key := cacheKey{tenantID: scope.TenantID, surveyID: surveyID}

	gc.mu.RLock()
	cached := gc.graphs[key]
	gen := gc.gens[key]
	gc.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	graph, err := gc.branches.Graph(ctx, scope, surveyID)
	if err != nil {
		return nil, err
	}

	gc.storeIfCurrent(key, gen, graph)
	return graph, nil
}

// Refresh drops the cached graph and queues a warm rebuild.
func (gc *GraphCache) Refresh(scope services.Scope, surveyID int) {
	key := cacheKey{tenantID: scope.TenantID, surveyID: surveyID}

	gc.mu.Lock()
	delete(gc.graphs, key)
	gc.gens[key]++
	gen := gc.gens[key]
	gc.mu.Unlock()

	gc.pool.Submit(func(ctx context.Context) {
		graph, err := gc.branches.Graph(ctx, scope, surveyID)
		if err != nil {
			return
		}
		gc.storeIfCurrent(key, gen, graph)
	})
}

// storeIfCurrent installs a built graph only while the key's generation
// still matches the one the build started from.
func (gc *GraphCache) storeIfCurrent(key cacheKey, gen uint64, graph *services.BranchGraph) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.gens[key] != gen {
		return
	}
	gc.graphs[key] = graph
}
