/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package theta

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultPropagationInterval is how often an idle PropagationPool worker
// wakes up to drain writers when Start is given no explicit interval.
const DefaultPropagationInterval = 50 * time.Millisecond

// ConcurrentUpdateSketch lets many writers update one logical sketch
// without contending on a single hash table. Each writer calls NewWriter
// once and updates through the returned *Writer, which wraps a private
// UpdateSketch; a fixed-size PropagationPool periodically folds every
// registered Writer's local sketch into one shared Union, and the result's
// theta/estimate are published through an atomic so readers never observe
// a torn value mid-drain.
//
// Go has no public goroutine-local storage, so this type does not attempt
// to discover "the calling goroutine" implicitly: a Writer is an explicit
// handle the caller holds for the lifetime of one logical producer
// (typically one per worker goroutine) and passes to every Update call
// itself.
//
// This is a concurrency mode layered on top of the single-writer sketch
// types, not a fourth Sketch implementation: callers needing a Sketch
// value call Snapshot and get an ordinary *CompactSketch back.
type ConcurrentUpdateSketch struct {
	seed uint64
	lgK  uint8

	writersMu sync.Mutex
	writers   []*Writer

	shared        *Union
	sharedMu      sync.Mutex
	publishedMeta atomic.Pointer[publishedState]

	pool *PropagationPool
}

// Writer is a single producer's private view onto a ConcurrentUpdateSketch.
// A Writer must not be shared between goroutines; use one Writer per
// concurrent producer.
type Writer struct {
	local *UpdateSketch
}

func (w *Writer) UpdateInt64(value int64) UpdateResult   { return w.local.UpdateInt64(value) }
func (w *Writer) UpdateUint64(value uint64) UpdateResult { return w.local.UpdateUint64(value) }
func (w *Writer) UpdateString(value string) UpdateResult { return w.local.UpdateString(value) }
func (w *Writer) UpdateBytes(data []byte) UpdateResult   { return w.local.UpdateBytes(data) }

type publishedState struct {
	theta64     uint64
	numRetained uint32
}

// ConcurrentUpdateSketchOptionFunc configures a ConcurrentUpdateSketch.
type ConcurrentUpdateSketchOptionFunc func(*concurrentOptions)

type concurrentOptions struct {
	lgK      uint8
	seed     uint64
	poolSize int
}

func WithConcurrentLgK(lgK uint8) ConcurrentUpdateSketchOptionFunc {
	return func(o *concurrentOptions) { o.lgK = lgK }
}

func WithConcurrentSeed(seed uint64) ConcurrentUpdateSketchOptionFunc {
	return func(o *concurrentOptions) { o.seed = seed }
}

// WithConcurrentPoolSize sets the number of propagation workers draining
// writers into the shared union. Defaults to 4.
func WithConcurrentPoolSize(n int) ConcurrentUpdateSketchOptionFunc {
	return func(o *concurrentOptions) { o.poolSize = n }
}

// NewConcurrentUpdateSketch builds a shared-local concurrent sketch. Call
// Start to launch its propagation pool, NewWriter per producer, and
// Quiesce before any final read that must reflect every Update issued so
// far.
func NewConcurrentUpdateSketch(opts ...ConcurrentUpdateSketchOptionFunc) (*ConcurrentUpdateSketch, error) {
	o := &concurrentOptions{lgK: DefaultLgK, seed: DefaultSeed, poolSize: 4}
	for _, opt := range opts {
		opt(o)
	}

	union, err := NewUnion(WithUnionLgK(o.lgK), WithUnionSeed(o.seed))
	if err != nil {
		return nil, err
	}

	cs := &ConcurrentUpdateSketch{
		seed:   o.seed,
		lgK:    o.lgK,
		shared: union,
	}
	cs.publishedMeta.Store(&publishedState{theta64: MaxTheta})
	cs.pool = newPropagationPool(cs, o.poolSize)

	return cs, nil
}

// NewWriter registers and returns a new private writer handle. Safe to
// call while a PropagationPool is running.
func (cs *ConcurrentUpdateSketch) NewWriter() (*Writer, error) {
	local, err := NewUpdateSketch(WithUpdateSketchLgK(cs.lgK), WithUpdateSketchSeed(cs.seed))
	if err != nil {
		return nil, err
	}
	w := &Writer{local: local}

	cs.writersMu.Lock()
	cs.writers = append(cs.writers, w)
	cs.writersMu.Unlock()

	return w, nil
}

// Pool returns the sketch's propagation pool, for Start/Stop.
func (cs *ConcurrentUpdateSketch) Pool() *PropagationPool { return cs.pool }

// Estimate returns the cardinality estimate as of the last published
// propagation round; it does not itself trigger a drain.
func (cs *ConcurrentUpdateSketch) Estimate() float64 {
	st := cs.publishedMeta.Load()
	if st.theta64 == 0 {
		return 0
	}
	return float64(st.numRetained) / (float64(st.theta64) / float64(MaxTheta))
}

// Snapshot drains every writer into the shared union and returns a compact
// snapshot of the result. Safe to call concurrently with ongoing updates;
// it reflects whatever had been propagated at the moment it ran, not
// necessarily every update issued before the call returned — use Quiesce
// first for that guarantee.
func (cs *ConcurrentUpdateSketch) Snapshot(ordered bool) (*CompactSketch, error) {
	cs.drainAll()

	cs.sharedMu.Lock()
	defer cs.sharedMu.Unlock()
	return cs.shared.Result(ordered)
}

// Quiesce blocks until every registered writer has been folded into the
// shared union at least once more, or ctx is done. Call this before a
// final Snapshot/Estimate that must reflect every Update issued before the
// call.
func (cs *ConcurrentUpdateSketch) Quiesce(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		cs.drainAll()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cs *ConcurrentUpdateSketch) drainAll() {
	cs.writersMu.Lock()
	writers := append([]*Writer(nil), cs.writers...)
	cs.writersMu.Unlock()

	cs.sharedMu.Lock()
	defer cs.sharedMu.Unlock()

	for _, w := range writers {
		_ = cs.shared.Update(w.local.Compact(false))
	}

	result, err := cs.shared.Result(false)
	if err != nil {
		return
	}
	cs.publishedMeta.Store(&publishedState{
		theta64:     result.Theta64(),
		numRetained: result.NumRetained(),
	})
}

// PropagationPool periodically drains a ConcurrentUpdateSketch's writers
// into its shared union using a bounded worker group, so publication
// latency stays roughly constant regardless of writer count. Callers start
// and stop it explicitly rather than relying on a hidden background
// goroutine, so lifetime is always caller-owned.
type PropagationPool struct {
	sketch   *ConcurrentUpdateSketch
	size     int
	interval time.Duration
	cancel   context.CancelFunc
	g        *errgroup.Group
}

func newPropagationPool(cs *ConcurrentUpdateSketch, size int) *PropagationPool {
	if size < 1 {
		size = 1
	}
	return &PropagationPool{sketch: cs, size: size, interval: DefaultPropagationInterval}
}

// Start launches size worker goroutines that each drain the sketch's
// writers on a fixed tick until ctx is canceled or Stop is called. Workers
// are staggered by a fraction of the interval so they don't all wake and
// contend on sharedMu in lockstep.
func (p *PropagationPool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	g, ctx := errgroup.WithContext(ctx)
	p.g = g

	for i := 0; i < p.size; i++ {
		stagger := time.Duration(i) * p.interval / time.Duration(p.size)
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(stagger):
			}

			ticker := time.NewTicker(p.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					p.sketch.drainAll()
				}
			}
		})
	}
}

// Stop cancels the pool's workers and waits for them to exit.
func (p *PropagationPool) Stop() error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	return p.g.Wait()
}
