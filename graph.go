package statez

// graph assigns every registered cell a level. Plain states sit at level 0;
// a computed cell sits one above its highest dependency. Levels are fixed at
// registration, so a flush can walk buckets 1, 2, ... in order without
// traversing edges.
type graph struct {
	levels  [][]int     // bucket per level, registration order
	levelOf map[int]int // id -> level
	deps    map[int][]int
}

func newGraph() *graph {
	return &graph{
		levels:  [][]int{nil},
		levelOf: make(map[int]int),
		deps:    make(map[int][]int),
	}
}

// add places id in its bucket and returns the level. Every dependency must
// already be registered.
func (g *graph) add(id int, deps []int) int {
	level := 0
	if len(deps) > 0 {
		for _, dep := range deps {
			level = max(level, g.levelOf[dep])
		}
		level++
		g.deps[id] = deps
	}

	for len(g.levels) <= level {
		g.levels = append(g.levels, nil)
	}
	g.levels[level] = append(g.levels[level], id)
	g.levelOf[id] = level
	return level
}

// level returns the level of id and whether it is registered.
func (g *graph) level(id int) (int, bool) {
	l, ok := g.levelOf[id]
	return l, ok
}

// above returns a copy of the buckets from level 1 upward.
func (g *graph) above() [][]int {
	if len(g.levels) <= 1 {
		return nil
	}
	out := make([][]int, 0, len(g.levels)-1)
	for _, bucket := range g.levels[1:] {
		b := make([]int, len(bucket))
		copy(b, bucket)
		out = append(out, b)
	}
	return out
}
