package pipeline

import (
	"sort"

	"github.com/kbukum/stageflow/errors"
)

// Graph is the explicit stage dependency graph.
type Graph struct {
	Nodes map[string]bool
	Edges []Edge
}

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
}

// BuildGraph constructs the dependency graph from a pipeline definition.
// Unknown depends_on references fail; semantic validation reports them with
// field context before this is ever reached from the loader.
func BuildGraph(p *Pipeline) (*Graph, error) {
	g := &Graph{Nodes: make(map[string]bool, len(p.Stages))}
	for _, s := range p.Stages {
		g.Nodes[s.ID] = true
	}
	for _, s := range p.Stages {
		for _, dep := range s.DependsOn {
			if !g.Nodes[dep] {
				return nil, errors.ConfigInvalid("stage " + s.ID + " depends on unknown stage " + dep)
			}
			g.Edges = append(g.Edges, Edge{From: dep, To: s.ID})
		}
	}
	return g, nil
}

// BuildLevels groups stages by dependency level using Kahn's algorithm.
// Stages within one level have no ordering constraints between them and may
// execute in parallel. Levels and the stages inside them are sorted, so a
// fixed definition always yields the same order. A cycle fails with
// CYCLE_DETECTED naming the participating stages.
func BuildLevels(g *Graph) ([][]string, error) {
	inDegree := make(map[string]int, len(g.Nodes))
	dependents := make(map[string][]string)

	for name := range g.Nodes {
		inDegree[name] = 0
	}
	for _, e := range g.Edges {
		inDegree[e.To]++
		dependents[e.From] = append(dependents[e.From], e.To)
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		sort.Strings(next)
		queue = next
	}

	if visited != len(g.Nodes) {
		var cyclic []string
		for name, deg := range inDegree {
			if deg > 0 {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		return nil, errors.CycleDetected(cyclic)
	}

	return levels, nil
}

// Levels is a convenience combining BuildGraph and BuildLevels.
func (p *Pipeline) Levels() ([][]string, error) {
	g, err := BuildGraph(p)
	if err != nil {
		return nil, err
	}
	return BuildLevels(g)
}
