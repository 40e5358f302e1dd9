// Package pipeline implements the Block Acquisition Pipeline of spec
// §4.1: a prefetching, backpressured buffer of blocks fetched from the
// Node Client ahead of the Attribution Engine's consumption, run on the
// teacher's threadgroup lifecycle the way modules/wallet.Wallet runs its
// consensus-set subscription goroutine.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/NebulousLabs/threadgroup"

	"github.com/QbitNetwork/Qbit-wallet-backend/crypto"
	"github.com/QbitNetwork/Qbit-wallet-backend/internal/syncutil"
	"github.com/QbitNetwork/Qbit-wallet-backend/modules"
	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

const (
	// MinBatchSize is the floor the adaptive batch size halves down to on
	// repeated fetch failure (spec §4.1).
	MinBatchSize = 1

	// MaxBatchSize is the ceiling the adaptive batch size doubles up to
	// on repeated fetch success, and the daemon's own per-request cap.
	MaxBatchSize = 100

	// QueueSoftLimit is the queue depth at or above which
	// should_fetch_more returns false (spec §4.1 "should_fetch_more"
	// step).
	QueueSoftLimit = 1000

	// BackpressureCheckInterval is the period of the consumedSince
	// counter NextBlock keeps. should_fetch_more does not read that
	// counter: it is evaluated before every fetch attempt, not only every
	// N blocks handed to the consumer.
	BackpressureCheckInterval = 10

	// DeadNodeTimeout is how long the pipeline goes without a successful
	// fetch (counted from the last success, or from the start of the
	// prefetch loop before the first one) before considering the remote
	// node unresponsive and emitting a liveness warning (spec §4.1, §4.6).
	DeadNodeTimeout = 30 * time.Second
)

// Pipeline is the Block Acquisition Pipeline.
type Pipeline struct {
	tg threadgroup.ThreadGroup
	mu sync.Mutex

	node modules.NodeClient
	log  Logger

	queue []types.Block
	cond  *sync.Cond

	batchSize      int
	consumedSince  int
	backpressured  bool
	stalled        bool
	lastFetched    types.BlockHeight
	deadNode       bool

	resetLock  *syncutil.TryMutex // guards against a fetch landing mid-reset
	resetTo    *types.BlockHeight
	resetEpoch int // bumped on every Reset; fetches started before a Reset are dropped, not applied, on completion

	statusFn func() (checkpoints []crypto.Hash, startHeight, startTimestamp types.BlockHeight)
}

// Logger is the minimal logging surface the pipeline needs, satisfied by
// *persist.Logger.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// New returns a Pipeline that fetches from node. statusFn supplies the
// checkpoint list and starting position for each fetch, read fresh every
// round so a concurrent Reset takes effect on the next fetch without the
// pipeline needing its own copy of the Subwallets Store's status.
func New(node modules.NodeClient, log Logger, statusFn func() ([]crypto.Hash, types.BlockHeight, types.BlockHeight)) *Pipeline {
	p := &Pipeline{
		node:      node,
		log:       log,
		batchSize: MaxBatchSize,
		statusFn:  statusFn,
		resetLock: syncutil.NewTryMutex(),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Start launches the prefetch loop. It returns immediately; the loop
// runs until the given context is canceled or Stop is called.
func (p *Pipeline) Start(ctx context.Context) {
	if err := p.tg.Add(); err != nil {
		return
	}
	go func() {
		defer p.tg.Done()
		p.fetchLoop(ctx)
	}()
}

// Stop blocks until the prefetch loop has exited.
func (p *Pipeline) Stop() {
	p.tg.Stop()
}

func (p *Pipeline) fetchLoop(ctx context.Context) {
	lastSuccess := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.tg.StopChan():
			return
		default:
		}

		if !p.shouldFetchMore() {
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if !p.resetLock.TryLock() {
			// a Reset is in flight; wait for it to finish before fetching
			// under the new position (spec §4.1 "safe interleaving").
			time.Sleep(10 * time.Millisecond)
			continue
		}
		checkpoints, startHeight, startTimestamp := p.statusFn()
		epoch := p.resetEpochSnapshot()
		p.resetLock.Unlock()

		blocks, _, err := p.node.GetWalletSyncData(ctx, checkpoints, startHeight, startTimestamp, p.currentBatchSize())
		if err != nil {
			p.onFetchFailure(err)
			if time.Since(lastSuccess) > DeadNodeTimeout {
				p.markDeadNode()
			}
			time.Sleep(time.Second)
			continue
		}
		lastSuccess = time.Now()
		p.clearDeadNode()
		p.onFetchSuccess(len(blocks))
		p.pushBlocks(epoch, blocks)
	}
}

func (p *Pipeline) resetEpochSnapshot() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resetEpoch
}

// markDeadNode latches the dead-node flag, logging only on the
// false-to-true transition so a stuck node doesn't spam the log every
// fetch attempt.
func (p *Pipeline) markDeadNode() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.deadNode && p.log != nil {
		p.log.Warnf("pipeline: no successful fetch in over %s, node may be unresponsive", DeadNodeTimeout)
	}
	p.deadNode = true
}

// clearDeadNode re-arms the dead-node latch on successful contact.
func (p *Pipeline) clearDeadNode() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deadNode = false
}

func (p *Pipeline) currentBatchSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batchSize
}

// onFetchFailure halves the adaptive batch size (rounding up, so a
// batch size of 1 stays unreduced instead of hitting 0 first), floored
// at MinBatchSize (spec §4.1 "halve (ceil) on failure"; DESIGN.md notes
// the choice where the spec's own text is inconsistent).
func (p *Pipeline) onFetchFailure(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batchSize = (p.batchSize + 1) / 2
	if p.batchSize < MinBatchSize {
		p.batchSize = MinBatchSize
	}
	p.stalled = true
	if p.log != nil {
		p.log.Warnf("pipeline: fetch failed, reducing batch size to %d: %v", p.batchSize, err)
	}
}

// onFetchSuccess doubles the adaptive batch size, capped at
// MaxBatchSize, when a fetch returns a full batch (spec §4.1).
func (p *Pipeline) onFetchSuccess(got int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stalled = false
	if got < p.batchSize {
		// a short batch means we're near the tip; no need to grow further
		return
	}
	p.batchSize *= 2
	if p.batchSize > MaxBatchSize {
		p.batchSize = MaxBatchSize
	}
}

// pushBlocks appends newly fetched blocks to the queue, dropping any
// block whose height is <= the last queued height (drop_block
// idempotence: a retried fetch after a timeout may overlap the
// previous successful one, spec §4.1). A fetch whose epoch predates the
// current resetEpoch started before a concurrent Reset and is discarded
// whole, since applying it would reintroduce blocks the Reset meant to
// throw away (spec §4.1 "safe interleaving").
func (p *Pipeline) pushBlocks(epoch int, blocks []types.Block) {
	if len(blocks) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if epoch != p.resetEpoch {
		if p.log != nil {
			p.log.Warnf("pipeline: discarding %d blocks fetched before a reset", len(blocks))
		}
		return
	}

	var lastHeight types.BlockHeight
	haveLast := len(p.queue) > 0
	if haveLast {
		lastHeight = p.queue[len(p.queue)-1].Height
	}
	for _, b := range blocks {
		if haveLast && b.Height <= lastHeight {
			continue
		}
		p.queue = append(p.queue, b)
		lastHeight = b.Height
		haveLast = true
	}
	if len(p.queue) > 0 {
		p.lastFetched = p.queue[len(p.queue)-1].Height
	}
	p.cond.Broadcast()
}

// shouldFetchMore reports whether the pipeline should fetch another
// batch: true while the queue holds fewer than QueueSoftLimit blocks
// (spec §4.1 backpressure step). The fetch loop calls it before every
// fetch attempt; it is not limited to every BackpressureCheckInterval
// blocks consumed.
func (p *Pipeline) shouldFetchMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue) < QueueSoftLimit
}

// NextBlock blocks until a block is available or ctx is canceled,
// returning (block, true) on success and (zero, false) on cancellation.
func (p *Pipeline) NextBlock(ctx context.Context) (types.Block, bool) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 {
		if ctx.Err() != nil {
			return types.Block{}, false
		}
		p.cond.Wait()
	}

	b := p.queue[0]
	p.queue = p.queue[1:]
	p.consumedSince++
	if p.consumedSince >= BackpressureCheckInterval {
		p.consumedSince = 0
	}
	return b, true
}

// Reset discards the queue and repositions the pipeline to fetch from
// startHeight, used on Rescan and fork rollback (spec §4.1, §4.3, §10).
// It takes resetLock to ensure no in-flight fetch applies stale blocks
// after the reset completes.
func (p *Pipeline) Reset(startHeight types.BlockHeight) {
	p.resetLock.Lock()
	defer p.resetLock.Unlock()

	p.mu.Lock()
	p.queue = nil
	p.lastFetched = startHeight
	p.resetEpoch++
	p.mu.Unlock()

	if p.log != nil {
		p.log.Infof("pipeline: reset to height %d", startHeight)
	}
}

// Status reports the pipeline's internal state for diagnostics (spec
// §4.5's exposed DaemonInfo/status surface).
func (p *Pipeline) Status() modules.PipelineStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return modules.PipelineStatus{
		QueueDepth:  len(p.queue),
		BatchSize:   p.batchSize,
		LastFetched: p.lastFetched,
		Stalled:     p.stalled,
		DeadNode:    p.deadNode,
	}
}

var _ modules.BlockPipeline = (*Pipeline)(nil)
