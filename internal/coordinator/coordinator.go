// Package coordinator implements the Coordinator/Facade of spec §4.5: it
// owns the Block Pipeline, Attribution Engine and Subwallets Store, runs
// three independent ticking loops on the teacher's threadgroup lifecycle
// (the way modules/wallet.Wallet owns a single consensus-subscription
// goroutine under its ThreadGroup), and exposes the public operation
// surface plus an event feed for callers that want push notification
// instead of polling Status().
package coordinator

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/NebulousLabs/threadgroup"
	"github.com/ethereum/go-ethereum/event"

	"github.com/QbitNetwork/Qbit-wallet-backend/crypto"
	"github.com/QbitNetwork/Qbit-wallet-backend/internal/syncutil"
	"github.com/QbitNetwork/Qbit-wallet-backend/modules"
	"github.com/QbitNetwork/Qbit-wallet-backend/persist"
	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

// Config is the subset of pkg/config.Config the Coordinator itself reads
// directly, kept narrow so tests don't need to build a full
// pkg/config.Config.
type Config struct {
	SyncThreadInterval              time.Duration
	DaemonUpdateInterval            time.Duration
	LockedTransactionsCheckInterval time.Duration
	BlocksPerTick                   int
}

// Coordinator is the Coordinator/Facade.
type Coordinator struct {
	tg threadgroup.ThreadGroup
	cfg Config

	store    modules.SubwalletsStore
	pipeline modules.BlockPipeline
	engine   modules.AttributionEngine
	node     modules.NodeClient
	log      *persist.Logger

	feed event.Feed

	// optimizing and transacting are the mutually-exclusive
	// currently_optimizing/currently_transacting guards spec §4.5's
	// auto-optimization hook defines: an external fusion-transaction
	// builder acquires one before starting its own background work, via
	// BeginOptimizing/BeginTransacting below. Neither gates the
	// Coordinator's own loops -- see syncTickRunning/lockedCheckRunning
	// for that.
	optimizing  int32 // atomic bool
	transacting int32 // atomic bool

	syncTickRunning    int32 // atomic bool: reentrancy guard for syncTick
	lockedCheckRunning int32 // atomic bool: reentrancy guard for the locked-transactions poll

	rescanLock *syncutil.TryMutex

	lastDaemonInfo atomic.Value // modules.DaemonInfo

	pipelineDeadNode bool // read/written only from daemonInfoLoop's goroutine
}

// New wires the Coordinator's components together; it does not start any
// background loop until Start is called (spec §4.5).
func New(cfg Config, store modules.SubwalletsStore, pipeline modules.BlockPipeline, engine modules.AttributionEngine, node modules.NodeClient, log *persist.Logger) *Coordinator {
	return &Coordinator{
		cfg:        cfg,
		store:      store,
		pipeline:   pipeline,
		engine:     engine,
		node:       node,
		log:        log,
		rescanLock: syncutil.NewTryMutex(),
	}
}

// Subscribe registers ch to receive every Event the Coordinator
// broadcasts, returning the subscription so the caller can Unsubscribe.
func (c *Coordinator) Subscribe(ch chan<- modules.Event) event.Subscription {
	return c.feed.Subscribe(ch)
}

func (c *Coordinator) emit(ev modules.Event) {
	c.feed.Send(ev)
}

// Start launches the sync, daemon-info and locked-transaction tickers,
// each under its own threadgroup-tracked goroutine so Stop can wait for
// all three to exit cleanly (spec §5).
func (c *Coordinator) Start(ctx context.Context) error {
	if err := c.tg.Add(); err == nil {
		go func() {
			defer c.tg.Done()
			c.syncLoop(ctx)
		}()
	} else {
		return err
	}
	if err := c.tg.Add(); err == nil {
		go func() {
			defer c.tg.Done()
			c.daemonInfoLoop(ctx)
		}()
	} else {
		return err
	}
	if err := c.tg.Add(); err == nil {
		go func() {
			defer c.tg.Done()
			c.lockedCheckLoop(ctx)
		}()
	} else {
		return err
	}
	c.pipeline.Start(ctx)
	return nil
}

// Stop blocks until every Coordinator-owned goroutine has exited.
func (c *Coordinator) Stop() {
	c.pipeline.Stop()
	c.tg.Stop()
}

func (c *Coordinator) syncLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.SyncThreadInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.tg.StopChan():
			return
		case <-ticker.C:
			c.syncTick(ctx)
		}
	}
}

func (c *Coordinator) syncTick(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&c.syncTickRunning, 0, 1) {
		return // a previous tick is still in flight
	}
	defer atomic.StoreInt32(&c.syncTickRunning, 0)

	for i := 0; i < c.cfg.BlocksPerTick; i++ {
		block, ok := c.pipeline.NextBlock(ctx)
		if !ok {
			return
		}

		subWallets := c.store.GetSubWallets()
		privateViewKey := c.privateViewKey()

		data, err := c.engine.ProcessBlock(ctx, block, subWallets, privateViewKey)
		if err != nil {
			if c.log != nil {
				c.log.Warnf("coordinator: processing block %d: %v", block.Height, err)
			}
			return
		}
		if err := c.store.ApplyTransactionData(block.Height, data); err != nil {
			if c.log != nil {
				c.log.Warnf("coordinator: applying transaction data for block %d: %v", block.Height, err)
			}
			return
		}

		c.emit(modules.Event{Kind: modules.EventNewBlock, Height: block.Height})
		for _, tx := range data.TransactionsToAdd {
			c.emit(modules.Event{Kind: modules.EventTransactionFound, Height: block.Height, Data: tx})
		}
	}
}

func (c *Coordinator) privateViewKey() crypto.Scalar {
	type viewKeyer interface{ PrivateViewKey() crypto.Scalar }
	if vk, ok := c.store.(viewKeyer); ok {
		return vk.PrivateViewKey()
	}
	return crypto.NilScalar
}

func (c *Coordinator) daemonInfoLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.DaemonUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.tg.StopChan():
			return
		case <-ticker.C:
			info, err := c.node.GetDaemonInfo(ctx)
			if err != nil {
				if c.log != nil {
					c.log.Warnf("coordinator: fetching daemon info: %v", err)
				}
				continue
			}
			c.lastDaemonInfo.Store(info)
			c.emit(modules.Event{Kind: modules.EventHeightChanged, Height: info.NetworkHeight})

			c.checkPipelineDeadNode()
		}
	}
}

// checkPipelineDeadNode edge-detects the Block Pipeline's latched
// DeadNode status and emits EventDeadNode exactly once per outage,
// re-arming (and so able to emit again) once the pipeline reports
// contact restored (spec §4.1 liveness, §4.5 events). Only called from
// daemonInfoLoop's goroutine, so pipelineDeadNode needs no lock.
func (c *Coordinator) checkPipelineDeadNode() {
	dead := c.pipeline.Status().DeadNode
	if dead && !c.pipelineDeadNode {
		c.emit(modules.Event{Kind: modules.EventDeadNode})
	}
	c.pipelineDeadNode = dead
}

// DaemonInfo returns the last daemon info successfully fetched (spec
// §10 supplemented getter).
func (c *Coordinator) DaemonInfo() (modules.DaemonInfo, bool) {
	v := c.lastDaemonInfo.Load()
	if v == nil {
		return modules.DaemonInfo{}, false
	}
	return v.(modules.DaemonInfo), true
}

// lockedCheckLoop periodically asks the daemon whether every locked
// send the Subwallets Store is tracking is still known (spec §4.4's
// locked-transaction cancellation protocol): a send the daemon reports
// notFound F=10 consecutive checks in a row is canceled back to
// spendable.
func (c *Coordinator) lockedCheckLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.LockedTransactionsCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.tg.StopChan():
			return
		case <-ticker.C:
			c.checkLockedTransactions(ctx)
		}
	}
}

func (c *Coordinator) checkLockedTransactions(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&c.lockedCheckRunning, 0, 1) {
		return // a previous check is still in flight
	}
	defer atomic.StoreInt32(&c.lockedCheckRunning, 0)

	hashes := c.store.LockedTransactionHashes()
	if len(hashes) == 0 {
		return
	}

	_, notFound, err := c.node.GetTransactionsStatus(ctx, hashes)
	if err != nil {
		if c.log != nil {
			c.log.Warnf("coordinator: checking locked transaction status: %v", err)
		}
		return
	}

	for _, h := range c.store.ReconcileLockedTransactions(notFound) {
		c.emit(modules.Event{Kind: modules.EventLockedTransactionsCanceled, Data: h})
	}
}

// BeginOptimizing attempts to acquire the currently_optimizing guard for
// an external fusion-transaction builder triggered by the
// auto-optimization hook (spec §4.5): it refuses while a transacting
// operation already holds the mutually-exclusive pair.
func (c *Coordinator) BeginOptimizing() bool {
	if atomic.LoadInt32(&c.transacting) == 1 {
		return false
	}
	return atomic.CompareAndSwapInt32(&c.optimizing, 0, 1)
}

// EndOptimizing releases the currently_optimizing guard.
func (c *Coordinator) EndOptimizing() {
	atomic.StoreInt32(&c.optimizing, 0)
}

// BeginTransacting attempts to acquire the currently_transacting guard,
// refusing while an optimization is already in flight.
func (c *Coordinator) BeginTransacting() bool {
	if atomic.LoadInt32(&c.optimizing) == 1 {
		return false
	}
	return atomic.CompareAndSwapInt32(&c.transacting, 0, 1)
}

// EndTransacting releases the currently_transacting guard.
func (c *Coordinator) EndTransacting() {
	atomic.StoreInt32(&c.transacting, 0)
}

// Rescan resets the Block Pipeline and the Subwallets Store's
// synchronization state to startHeight and resumes syncing from there
// (spec §10 supplemented operation). It takes the rescan lock so it
// cannot race a sync tick already in flight.
func (c *Coordinator) Rescan(startHeight types.BlockHeight) error {
	c.rescanLock.Lock()
	defer c.rescanLock.Unlock()

	if err := c.store.RewindTo(startHeight); err != nil {
		return err
	}
	c.pipeline.Reset(startHeight)
	return nil
}

// CurrentlyOptimizing reports whether an external fusion-transaction
// builder currently holds the currently_optimizing guard (spec §4.5,
// §10 supplemented getter).
func (c *Coordinator) CurrentlyOptimizing() bool {
	return atomic.LoadInt32(&c.optimizing) == 1
}

// CurrentlyTransacting reports whether an external caller currently
// holds the currently_transacting guard (spec §4.5, §10 supplemented
// getter).
func (c *Coordinator) CurrentlyTransacting() bool {
	return atomic.LoadInt32(&c.transacting) == 1
}
