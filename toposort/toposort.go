// Package toposort orders nodes so that every node comes after the nodes it
// depends on.
package toposort

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/kndndrj/lazystream/core"
	"github.com/kndndrj/lazystream/models"
)

// CyclicDependencyError lists the nodes no pass could resolve.
type CyclicDependencyError[N comparable] struct {
	// Unresolved nodes in input order.
	Unresolved []N
	// Cycles are strongly connected components among unresolved nodes,
	// self-dependencies included.
	Cycles [][]N
	// Missing are dependencies which are not in the node set.
	Missing []N
}

func (e *CyclicDependencyError[N]) Error() string {
	msg := fmt.Sprintf("%d nodes could not be ordered: %v", len(e.Unresolved), e.Unresolved)
	if len(e.Cycles) > 0 {
		msg += fmt.Sprintf(", cycles: %v", e.Cycles)
	}
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf(", missing dependencies: %v", e.Missing)
	}
	return msg
}

func (e *CyclicDependencyError[N]) Unwrap() error {
	return core.ErrCyclicDependency
}

type config struct {
	ignoreCycles bool
	logger       models.Logger
}

type Option func(*config)

// WithIgnoreCycles returns the partial order instead of failing when some
// nodes cannot be ordered. The dropped nodes are logged.
func WithIgnoreCycles(ignore bool) Option {
	return func(c *config) {
		c.ignoreCycles = ignore
	}
}

func WithLogger(logger models.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Sort orders nodes so that all dependencies of a node precede it. deps maps
// a node to the nodes it depends on.
//
// Every pass walks the remaining nodes in input order and emits those with
// all dependencies already emitted, so the result is deterministic. A pass
// without progress means a cycle or a dependency outside of nodes.
func Sort[N comparable](nodes []N, deps map[N][]N, opts ...Option) ([]N, error) {
	cfg := &config{
		logger: models.NopLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = models.NopLogger{}
	}

	// drop duplicate nodes, keeping the first position
	seen := make(map[N]struct{}, len(nodes))
	remaining := make([]N, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		remaining = append(remaining, n)
	}

	unresolved := make(map[N]map[N]struct{}, len(remaining))
	for _, n := range remaining {
		edges := make(map[N]struct{}, len(deps[n]))
		for _, d := range deps[n] {
			edges[d] = struct{}{}
		}
		unresolved[n] = edges
	}

	sorted := make([]N, 0, len(remaining))
	for len(remaining) > 0 {
		var next []N
		for _, n := range remaining {
			if len(unresolved[n]) > 0 {
				next = append(next, n)
				continue
			}
			sorted = append(sorted, n)
			for _, other := range remaining {
				delete(unresolved[other], n)
			}
		}

		if len(next) == len(remaining) {
			err := diagnose(next, unresolved, seen)
			if !cfg.ignoreCycles {
				return nil, fmt.Errorf("toposort.Sort: %w", err)
			}
			cfg.logger.Warnf("ignoring unorderable nodes: %s", err)
			return sorted, nil
		}
		remaining = next
	}

	return sorted, nil
}

func diagnose[N comparable](stuck []N, unresolved map[N]map[N]struct{}, known map[N]struct{}) *CyclicDependencyError[N] {
	err := &CyclicDependencyError[N]{
		Unresolved: slices.Clone(stuck),
	}

	ids := make(map[N]int64, len(stuck))
	for i, n := range stuck {
		ids[n] = int64(i)
	}

	g := simple.NewDirectedGraph()
	for _, n := range stuck {
		g.AddNode(simple.Node(ids[n]))
	}

	missing := make(map[N]struct{})
	for _, n := range stuck {
		// deterministic edge order for the diagnostics
		for _, d := range orderedDeps(unresolved[n], stuck) {
			if _, ok := known[d]; !ok {
				missing[d] = struct{}{}
				continue
			}
			if d == n {
				err.Cycles = append(err.Cycles, []N{n})
				continue
			}
			if id, ok := ids[d]; ok {
				g.SetEdge(g.NewEdge(simple.Node(ids[n]), simple.Node(id)))
			}
		}
	}

	for _, component := range topo.TarjanSCC(g) {
		if len(component) < 2 {
			continue
		}
		cycle := make([]N, len(component))
		for i, node := range component {
			cycle[i] = stuck[node.ID()]
		}
		// keep input order inside a component
		slices.SortFunc(cycle, func(a, b N) int { return int(ids[a] - ids[b]) })
		err.Cycles = append(err.Cycles, cycle)
	}
	slices.SortFunc(err.Cycles, func(a, b []N) int { return int(ids[a[0]] - ids[b[0]]) })

	for d := range missing {
		err.Missing = append(err.Missing, d)
	}
	slices.SortFunc(err.Missing, func(a, b N) int { return core.Compare(a, b) })

	return err
}

// orderedDeps returns the dependencies in stuck order, followed by the
// others.
func orderedDeps[N comparable](edges map[N]struct{}, stuck []N) []N {
	out := make([]N, 0, len(edges))
	for _, n := range stuck {
		if _, ok := edges[n]; ok {
			out = append(out, n)
		}
	}
	for d := range edges {
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}
