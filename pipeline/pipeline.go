// Package pipeline wires the query stages together: parse, execute, filter,
// and rank. Each stage's output is only consumable through the next
// stage's entry point, using distinct Go types per stage rather than
// phantom type parameters, since Go has no zero-cost equivalent.
package pipeline

import (
	"time"

	"github.com/blaze-search/blaze/eval"
	"github.com/blaze-search/blaze/index"
	"github.com/blaze-search/blaze/query"
	"github.com/blaze-search/blaze/rank"
)

// Stage identifies a pipeline phase for timing purposes.
type Stage int

const (
	StageParse Stage = iota
	StageExec
	StageRank
)

// Metrics records how long each pipeline stage took.
type Metrics struct {
	ParseTime time.Duration
	ExecTime  time.Duration
	RankTime  time.Duration
}

// Total returns the sum of all recorded stage durations.
func (m Metrics) Total() time.Duration {
	return m.ParseTime + m.ExecTime + m.RankTime
}

type ctx struct {
	index       *index.Reader
	now         time.Time
	resultTotal int
	metrics     Metrics
	timed       bool
}

func (c *ctx) measure(stage Stage, f func()) {
	if !c.timed {
		f()
		return
	}
	start := time.Now()
	f()
	elapsed := time.Since(start)
	switch stage {
	case StageParse:
		c.metrics.ParseTime = elapsed
	case StageExec:
		c.metrics.ExecTime = elapsed
	case StageRank:
		c.metrics.RankTime = elapsed
	}
}

// Pipeline is the initial stage: an index bound but no query parsed yet.
type Pipeline struct{ c *ctx }

// New creates an untimed pipeline bound to idx.
func New(idx *index.Reader) *Pipeline {
	return &Pipeline{c: &ctx{index: idx, now: time.Now()}}
}

// NewTimed creates a pipeline that records per-stage timings in Metrics.
func NewTimed(idx *index.Reader) *Pipeline {
	return &Pipeline{c: &ctx{index: idx, now: time.Now(), timed: true}}
}

// Parse parses queryStr into a Query and advances to the Parsed stage.
func (p *Pipeline) Parse(queryStr string) *Parsed {
	var q query.Query
	p.c.measure(StageParse, func() { q = query.Parse(queryStr) })
	return &Parsed{c: p.c, query: q}
}

// WithQuery advances directly to the Parsed stage using an already-parsed
// query. No query string is recorded.
func (p *Pipeline) WithQuery(q query.Query) *Parsed {
	return &Parsed{c: p.c, query: q}
}

// Parsed is the stage after a query has been parsed or supplied directly.
type Parsed struct {
	c     *ctx
	query query.Query
}

// Query returns the parsed query.
func (p *Parsed) Query() query.Query { return p.query }

// Execute evaluates the query against the index and advances to the
// Executed stage. Hits are unranked, in ascending FileId order.
func (p *Parsed) Execute() *Executed {
	engine := eval.New(p.c.index)
	var hits []index.FileId
	p.c.measure(StageExec, func() { hits = engine.EvalQuery(p.query) })
	return &Executed{c: p.c, query: p.query, hits: hits}
}

// Executed is the stage after the query has been evaluated against the
// index.
type Executed struct {
	c     *ctx
	query query.Query
	hits  []index.FileId
}

// HitCount returns the number of unranked hits.
func (e *Executed) HitCount() int { return len(e.hits) }

// Hits returns the raw, unranked hits.
func (e *Executed) Hits() []index.FileId { return e.hits }

// Rank applies the path-order filter then ranks by relevance, keeping at
// most limit results. limit < 0 means unbounded.
func (e *Executed) Rank(limit int) *Ranked {
	filtered := eval.ApplyPathOrderFilter(e.c.index, e.query, e.hits)
	e.c.resultTotal = len(filtered)

	var ranked []index.FileId
	e.c.measure(StageRank, func() {
		ranked = rank.Rank(e.c.index, e.query, filtered, e.c.now, limit)
	})
	return &Ranked{c: e.c, results: ranked}
}

// Unranked skips path-order filtering and ranking, returning hits as-is.
func (e *Executed) Unranked() *Ranked {
	results := e.hits
	e.c.resultTotal = len(results)
	return &Ranked{c: e.c, results: results}
}

// Ranked is the final stage: results are ready for consumption.
type Ranked struct {
	c       *ctx
	results []index.FileId
}

// Results returns the final, ordered FileIds.
func (r *Ranked) Results() []index.FileId { return r.results }

// Count returns the number of matches after filtering, even if Results is
// shorter due to a rank limit.
func (r *Ranked) Count() int { return r.c.resultTotal }

// Metrics returns stage timings; zero-valued unless the pipeline was
// created with NewTimed.
func (r *Ranked) Metrics() Metrics { return r.c.metrics }

// ResultEntry pairs a ranked FileId with its 1-based position and
// reconstructed display path.
type ResultEntry struct {
	Rank   int
	FileId index.FileId
	Path   string
}

// IterWithPaths reconstructs a display path for each result. Entries whose
// path can't be reconstructed (corrupt index) are skipped.
func (r *Ranked) IterWithPaths() []ResultEntry {
	out := make([]ResultEntry, 0, len(r.results))
	for i, fid := range r.results {
		path, err := r.c.index.ReconstructPath(fid)
		if err != nil {
			continue
		}
		out = append(out, ResultEntry{Rank: i + 1, FileId: fid, Path: path})
	}
	return out
}

