package vector

import (
	"math"
	"math/rand"
	"sort"
	"sync"
)

// Metric selects the distance function used to compare vectors (spec §4.5).
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
	MetricDot    Metric = "dot"
)

// Ref locates the row a vector belongs to.
type Ref struct {
	DocID     string
	RowGroup  uint16
	RowOffset uint64
}

// Config tunes the graph's connectivity and search breadth (spec §4.5).
type Config struct {
	M              int // max neighbors per node per layer
	EfConstruction int // candidate list size while inserting
	Ef             int // candidate list size while searching
	Metric         Metric
}

// DefaultConfig returns parameters reasonable for small-to-medium corpora.
func DefaultConfig() Config {
	return Config{M: 16, EfConstruction: 100, Ef: 50, Metric: MetricCosine}
}

type node struct {
	ref        Ref
	vector     []float32
	neighbors  [][]int // neighbors[layer] = node ids
	level      int
	tombstoned bool
}

// SearchResult is one ranked match from Search.
type SearchResult struct {
	Ref      Ref
	Distance float64
}

// Index is an HNSW graph keyed by (docId, rowGroup, rowOffset) (spec §4.5).
type Index struct {
	mu         sync.RWMutex
	cfg        Config
	nodes      []*node
	byDocID    map[string]int
	entryPoint int
	maxLevel   int
	version    uint64
	rng        *rand.Rand
}

// New returns an empty Index.
func New(cfg Config) *Index {
	if cfg.M <= 0 {
		cfg.M = 16
	}
	if cfg.EfConstruction <= 0 {
		cfg.EfConstruction = 100
	}
	if cfg.Ef <= 0 {
		cfg.Ef = 50
	}
	return &Index{
		cfg:        cfg,
		byDocID:    map[string]int{},
		entryPoint: -1,
		rng:        rand.New(rand.NewSource(1)),
	}
}

// Version returns the monotonically increasing mutation counter (spec §4.5:
// "version number increments on every mutating call").
func (ix *Index) Version() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.version
}

// Insert adds vector under ref, connecting it into the graph. A prior
// entry for the same docId is tombstoned first so inserts double as upserts.
func (ix *Index) Insert(ref Ref, vec []float32) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if existing, ok := ix.byDocID[ref.DocID]; ok {
		ix.nodes[existing].tombstoned = true
	}

	id := len(ix.nodes)
	level := ix.randomLevel()
	n := &node{ref: ref, vector: vec, level: level, neighbors: make([][]int, level+1)}
	ix.nodes = append(ix.nodes, n)
	ix.byDocID[ref.DocID] = id

	if ix.entryPoint < 0 {
		ix.entryPoint = id
		ix.maxLevel = level
		ix.version++
		return
	}

	cur := ix.entryPoint
	for l := ix.maxLevel; l > level; l-- {
		cur = ix.greedyClosest(cur, vec, l)
	}
	for l := min(level, ix.maxLevel); l >= 0; l-- {
		candidates := ix.searchLayer(vec, cur, ix.cfg.EfConstruction, l, -1, true)
		neighbors := selectNeighbors(candidates, ix.cfg.M)
		for _, c := range neighbors {
			ix.connect(id, c.id, l)
			ix.connect(c.id, id, l)
			ix.pruneNeighbors(c.id, l)
		}
		if len(candidates) > 0 {
			cur = candidates[0].id
		}
	}
	if level > ix.maxLevel {
		ix.maxLevel = level
		ix.entryPoint = id
	}
	ix.version++
}

// Remove tombstones the node for docID. Its links stay in place:
// inserts and searches still route through it, Search never returns
// it, and the links are not rebuilt or pruned afterwards.
func (ix *Index) Remove(docID string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	id, ok := ix.byDocID[docID]
	if !ok {
		return false
	}
	ix.nodes[id].tombstoned = true
	delete(ix.byDocID, docID)
	ix.version++
	return true
}

// Remap rewrites row-group numbers after compaction, dropping entries
// whose row group no longer exists (spec §4.5).
func (ix *Index) Remap(mapping map[uint16]uint16) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, n := range ix.nodes {
		if n.tombstoned {
			continue
		}
		newRG, ok := mapping[n.ref.RowGroup]
		if !ok {
			n.tombstoned = true
			delete(ix.byDocID, n.ref.DocID)
			continue
		}
		n.ref.RowGroup = newRG
	}
	ix.version++
}

// Search returns the k nearest live vectors to query.
func (ix *Index) Search(query []float32, k int) []SearchResult {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.entryPoint < 0 || k <= 0 {
		return nil
	}

	cur := ix.entryPoint
	for l := ix.maxLevel; l > 0; l-- {
		cur = ix.greedyClosest(cur, query, l)
	}
	ef := ix.cfg.Ef
	if ef < k {
		ef = k
	}
	candidates := ix.searchLayer(query, cur, ef, 0, -1, false)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]SearchResult, len(candidates))
	for i, c := range candidates {
		out[i] = SearchResult{Ref: ix.nodes[c.id].ref, Distance: c.dist}
	}
	return out
}

// greedyClosest performs a single-best-neighbor descent at layer l
// starting from entry, used to find the entry point for the next layer down.
func (ix *Index) greedyClosest(entry int, query []float32, l int) int {
	best := entry
	bestDist := ix.distance(query, ix.nodes[entry].vector)
	improved := true
	for improved {
		improved = false
		if l >= len(ix.nodes[best].neighbors) {
			continue
		}
		for _, nb := range ix.nodes[best].neighbors[l] {
			d := ix.distance(query, ix.nodes[nb].vector)
			if d < bestDist {
				bestDist = d
				best = nb
				improved = true
			}
		}
	}
	return best
}

type candidate struct {
	id   int
	dist float64
}

// searchLayer runs the standard HNSW greedy beam search at layer l,
// returning up to ef candidates sorted by ascending distance.
// Tombstoned nodes are always traversed but are returned only when
// includeTombstoned is set, which Insert uses so a new node still gets
// links when its nearest nodes are tombstoned. excludeID, when >= 0,
// is never returned (used to keep an entry out of its own neighbor
// candidate set).
func (ix *Index) searchLayer(query []float32, entry int, ef int, l int, excludeID int, includeTombstoned bool) []candidate {
	visited := map[int]bool{entry: true}
	entryDist := ix.distance(query, ix.nodes[entry].vector)
	frontier := []candidate{{entry, entryDist}}
	var results []candidate
	if (includeTombstoned || !ix.nodes[entry].tombstoned) && entry != excludeID {
		results = append(results, candidate{entry, entryDist})
	}

	for len(frontier) > 0 {
		sort.Slice(frontier, func(i, j int) bool { return frontier[i].dist < frontier[j].dist })
		c := frontier[0]
		frontier = frontier[1:]

		if len(results) >= ef {
			sort.Slice(results, func(i, j int) bool { return results[i].dist < results[j].dist })
			if c.dist > results[ef-1].dist {
				break
			}
		}

		if l >= len(ix.nodes[c.id].neighbors) {
			continue
		}
		for _, nb := range ix.nodes[c.id].neighbors[l] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			d := ix.distance(query, ix.nodes[nb].vector)
			frontier = append(frontier, candidate{nb, d})
			if (includeTombstoned || !ix.nodes[nb].tombstoned) && nb != excludeID {
				results = append(results, candidate{nb, d})
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].dist < results[j].dist })
	if len(results) > ef {
		results = results[:ef]
	}
	return results
}

func selectNeighbors(candidates []candidate, m int) []candidate {
	if len(candidates) <= m {
		return candidates
	}
	return candidates[:m]
}

// connect adds a directed edge from -> to at layer l, growing from's
// neighbor-list storage if needed. Insert calls it in both directions.
func (ix *Index) connect(from, to, l int) {
	n := ix.nodes[from]
	for len(n.neighbors) <= l {
		n.neighbors = append(n.neighbors, nil)
	}
	for _, existing := range n.neighbors[l] {
		if existing == to {
			return
		}
	}
	n.neighbors[l] = append(n.neighbors[l], to)
}

// pruneNeighbors trims id's neighbor list at layer l back down to M,
// keeping the closest.
func (ix *Index) pruneNeighbors(id, l int) {
	n := ix.nodes[id]
	if l >= len(n.neighbors) || len(n.neighbors[l]) <= ix.cfg.M {
		return
	}
	cands := make([]candidate, len(n.neighbors[l]))
	for i, nb := range n.neighbors[l] {
		cands[i] = candidate{id: nb, dist: ix.distance(n.vector, ix.nodes[nb].vector)}
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	kept := make([]int, ix.cfg.M)
	for i := 0; i < ix.cfg.M; i++ {
		kept[i] = cands[i].id
	}
	n.neighbors[l] = kept
}

// randomLevel draws a layer via the standard exponential-decay
// assignment (mL = 1/ln(M)).
func (ix *Index) randomLevel() int {
	mL := 1.0 / math.Log(float64(ix.cfg.M))
	level := int(math.Floor(-math.Log(ix.rng.Float64()+1e-12) * mL))
	if level < 0 {
		level = 0
	}
	if level > 32 {
		level = 32
	}
	return level
}

func (ix *Index) distance(a, b []float32) float64 {
	switch ix.cfg.Metric {
	case MetricL2:
		return l2Distance(a, b)
	case MetricDot:
		return -dotProduct(a, b)
	default:
		return 1 - cosineSimilarity(a, b)
	}
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func cosineSimilarity(a, b []float32) float64 {
	dot := dotProduct(a, b)
	var na, nb float64
	for i := range a {
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
