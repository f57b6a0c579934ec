// Package controllers provides built-in controller implementations.
package controllers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/time/rate"

	"github.com/abelbrown/vocabfilter/internal/controller"
	"github.com/abelbrown/vocabfilter/internal/model"
	"github.com/abelbrown/vocabfilter/internal/otel"
)

const listComp = "list"

// Querier runs a filter query. *store.Store implements it.
type Querier interface {
	// Query returns up to limit matching vocab and the total match count.
	Query(ctx context.Context, c controller.Criteria, limit int) ([]model.Vocab, int, error)
}

// VocabListController re-queries the vocab list whenever the filter is
// committed.
//
// # Thread Safety
//
// VocabListController is safe for concurrent use. Refreshes are serialized
// and ordered by Request.Seq: a refresh that arrives after a higher Seq, or
// is still waiting for its turn when one arrives, is skipped. A burst of
// commits costs at most two queries and the last one always runs the
// newest criteria.
//
// # Throttling
//
// Queries are rate limited (QueriesPerSecond, Burst). A refresh that has to
// wait emits a list.query_throttle trace event and blocks until its slot or
// until ctx is done.
//
// # Event Channel
//
// Subscribe() returns a buffered channel (10 events). Sends never block;
// events are dropped if the subscriber falls behind.
type VocabListController struct {
	id      string
	querier Querier
	limit   int
	limiter *rate.Limiter
	events  chan controller.Event
	log     *otel.Logger

	latest    atomic.Uint64
	refreshMu sync.Mutex
}

// VocabListConfig configures the vocab list controller.
type VocabListConfig struct {
	Limit            int     // max items per refresh (default: 200)
	QueriesPerSecond float64 // sustained query rate (default: 4)
	Burst            int     // queries allowed back to back (default: 2)
}

// DefaultVocabListConfig returns sensible defaults.
func DefaultVocabListConfig() VocabListConfig {
	return VocabListConfig{
		Limit:            200,
		QueriesPerSecond: 4,
		Burst:            2,
	}
}

// NewVocabListController creates the vocab list controller. log may be nil.
func NewVocabListController(q Querier, cfg VocabListConfig, log *otel.Logger) *VocabListController {
	def := DefaultVocabListConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.QueriesPerSecond <= 0 {
		cfg.QueriesPerSecond = def.QueriesPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}

	return &VocabListController{
		id:      "vocab-list",
		querier: q,
		limit:   cfg.Limit,
		limiter: rate.NewLimiter(rate.Limit(cfg.QueriesPerSecond), cfg.Burst),
		events:  make(chan controller.Event, 10),
		log:     log,
	}
}

// ID returns "vocab-list".
func (c *VocabListController) ID() string {
	return c.id
}

// Refresh queries the store with req.Criteria.
//
// Blocks until the query completes, ctx is done, or the refresh is
// superseded by one with a higher Seq. Emits EventStarted then
// EventCompleted or EventError; superseded refreshes emit nothing.
func (c *VocabListController) Refresh(ctx context.Context, req controller.Request) {
	crit := req.Criteria
	if !c.advance(req.Seq) {
		c.skip(req)
		return
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if req.Seq != 0 && c.latest.Load() > req.Seq {
		c.skip(req)
		return
	}

	qid := newQueryID()

	if ctx.Err() != nil {
		c.sendEvent(controller.Event{Type: controller.EventError, QueryID: qid, Seq: req.Seq, Criteria: crit, Err: ctx.Err()})
		return
	}

	c.sendEvent(controller.Event{Type: controller.EventStarted, QueryID: qid, Seq: req.Seq, Criteria: crit})
	c.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindQueryStart, Comp: listComp, QueryID: qid, Seq: req.Seq, Query: crit.String()})

	if !c.limiter.Allow() {
		c.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindQueryThrottle, Comp: listComp, QueryID: qid, Seq: req.Seq})
		if err := c.limiter.Wait(ctx); err != nil {
			c.fail(qid, req, fmt.Errorf("throttled: %w", err))
			return
		}
	}

	start := time.Now()
	items, total, err := c.querier.Query(ctx, crit, c.limit)
	dur := time.Since(start)
	if err != nil {
		c.fail(qid, req, err)
		return
	}

	c.log.Emit(otel.Event{
		Level:   otel.LevelInfo,
		Kind:    otel.KindQueryComplete,
		Comp:    listComp,
		QueryID: qid,
		Seq:     req.Seq,
		Query:   crit.String(),
		Count:   total,
		Dur:     dur,
	})
	c.sendEvent(controller.Event{
		Type:     controller.EventCompleted,
		QueryID:  qid,
		Seq:      req.Seq,
		Criteria: crit,
		Items:    items,
		Total:    total,
		Dur:      dur,
	})
}

// advance raises latest to seq and reports false if a higher Seq was
// already seen.
func (c *VocabListController) advance(seq uint64) bool {
	if seq == 0 {
		return true
	}
	for {
		cur := c.latest.Load()
		if seq < cur {
			return false
		}
		if seq == cur || c.latest.CompareAndSwap(cur, seq) {
			return true
		}
	}
}

func (c *VocabListController) skip(req controller.Request) {
	c.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindQuerySkip, Comp: listComp, Seq: req.Seq, Query: req.Criteria.String()})
}

func (c *VocabListController) fail(qid string, req controller.Request, err error) {
	c.log.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindQueryError, Comp: listComp, QueryID: qid, Seq: req.Seq, Err: err.Error()})
	c.sendEvent(controller.Event{Type: controller.EventError, QueryID: qid, Seq: req.Seq, Criteria: req.Criteria, Err: err})
}

// sendEvent sends an event to subscribers without blocking.
// If the channel is full, the event is dropped.
func (c *VocabListController) sendEvent(event controller.Event) {
	select {
	case c.events <- event:
	default:
		// Channel full, drop event (subscriber not keeping up)
	}
}

// Subscribe returns the event channel.
//
// The channel is never closed - it lives for the lifetime of the controller.
func (c *VocabListController) Subscribe() <-chan controller.Event {
	return c.events
}

func newQueryID() string {
	id, err := gonanoid.New(10)
	if err != nil {
		return fmt.Sprintf("q%d", time.Now().UnixNano())
	}
	return id
}

var _ controller.Controller = (*VocabListController)(nil)
