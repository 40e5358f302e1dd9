package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/QbitNetwork/Qbit-wallet-backend/crypto"
	"github.com/QbitNetwork/Qbit-wallet-backend/modules"
	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

type fakeNode struct {
	modules.NodeClient
	calls      int32
	nextHeight types.BlockHeight
	batchCap   int
}

func (f *fakeNode) GetWalletSyncData(ctx context.Context, checkpoints []crypto.Hash, startHeight, startTimestamp types.BlockHeight, blockCount int) ([]types.Block, *types.Block, error) {
	atomic.AddInt32(&f.calls, 1)
	var blocks []types.Block
	h := startHeight
	if h == 0 {
		h = f.nextHeight
	}
	n := blockCount
	if f.batchCap > 0 && n > f.batchCap {
		n = f.batchCap
	}
	for i := 0; i < n; i++ {
		blocks = append(blocks, types.Block{Height: h, Hash: crypto.Hash{byte(h)}})
		h++
	}
	f.nextHeight = h
	return blocks, nil, nil
}

func (f *fakeNode) Connected() bool { return true }

func testStatusFn(height types.BlockHeight) func() ([]crypto.Hash, types.BlockHeight, types.BlockHeight) {
	return func() ([]crypto.Hash, types.BlockHeight, types.BlockHeight) {
		return nil, height, 0
	}
}

func TestPipelineDeliversBlocksInOrder(t *testing.T) {
	node := &fakeNode{batchCap: 5}
	p := New(node, nil, testStatusFn(0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	for i := types.BlockHeight(0); i < 10; i++ {
		b, ok := p.NextBlock(ctx)
		if !ok {
			t.Fatalf("NextBlock returned !ok at i=%d", i)
		}
		if b.Height != i {
			t.Fatalf("expected block height %d, got %d", i, b.Height)
		}
	}
}

func TestNextBlockUnblocksOnContextCancel(t *testing.T) {
	// no fetch loop is started, so the queue stays empty and NextBlock
	// waits until ctx is canceled
	p := New(&fakeNode{}, nil, testStatusFn(1<<40))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		_, ok := p.NextBlock(ctx)
		if ok {
			t.Error("expected NextBlock to return !ok after cancellation")
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("NextBlock did not unblock after context cancellation")
	}
}

func TestResetClearsQueue(t *testing.T) {
	// no fetch loop is started, so nothing refills the queue after Reset
	p := New(&fakeNode{}, nil, testStatusFn(0))
	p.pushBlocks(0, []types.Block{{Height: 1}, {Height: 2}})

	p.Reset(100)
	status := p.Status()
	if status.QueueDepth != 0 {
		t.Errorf("expected empty queue after reset, got depth %d", status.QueueDepth)
	}
	if status.LastFetched != 100 {
		t.Errorf("expected LastFetched 100 after reset, got %d", status.LastFetched)
	}
}

func TestOnFetchFailureHalvesBatchSizeRoundingUp(t *testing.T) {
	p := New(&fakeNode{}, nil, testStatusFn(0))
	before := p.currentBatchSize()
	p.onFetchFailure(context.DeadlineExceeded)
	after := p.currentBatchSize()
	want := (before + 1) / 2
	if after != want {
		t.Errorf("expected batch size ceil-halved from %d to %d, got %d", before, want, after)
	}
}

func TestOnFetchFailureFloorsAtMinBatchSize(t *testing.T) {
	p := New(&fakeNode{}, nil, testStatusFn(0))
	for i := 0; i < 20; i++ {
		p.onFetchFailure(context.DeadlineExceeded)
	}
	if p.currentBatchSize() != MinBatchSize {
		t.Errorf("expected batch size floored at %d, got %d", MinBatchSize, p.currentBatchSize())
	}
}

func TestPushBlocksDiscardsStaleEpoch(t *testing.T) {
	p := New(&fakeNode{}, nil, testStatusFn(0))
	p.Reset(50) // bumps resetEpoch to 1

	// a fetch started under epoch 0, before the Reset, landing late
	p.pushBlocks(0, []types.Block{{Height: 5}})
	status := p.Status()
	if status.QueueDepth != 0 {
		t.Fatalf("expected stale-epoch fetch to be discarded, queue depth = %d", status.QueueDepth)
	}

	p.pushBlocks(1, []types.Block{{Height: 50}})
	status = p.Status()
	if status.QueueDepth != 1 {
		t.Fatalf("expected current-epoch fetch to be queued, queue depth = %d", status.QueueDepth)
	}
}

func TestDeadNodeLatchesAndReArms(t *testing.T) {
	p := New(&fakeNode{}, nil, testStatusFn(0))

	p.markDeadNode()
	if !p.Status().DeadNode {
		t.Fatal("expected DeadNode true after markDeadNode")
	}

	p.clearDeadNode()
	if p.Status().DeadNode {
		t.Fatal("expected DeadNode false after clearDeadNode re-arms the latch")
	}

	p.markDeadNode()
	if !p.Status().DeadNode {
		t.Fatal("expected DeadNode true again after a second outage")
	}
}

func TestPushBlocksDropsOverlap(t *testing.T) {
	p := New(&fakeNode{}, nil, testStatusFn(0))
	p.pushBlocks(0, []types.Block{{Height: 5}, {Height: 6}})
	p.pushBlocks(0, []types.Block{{Height: 6}, {Height: 7}})

	ctx := context.Background()
	var heights []types.BlockHeight
	for i := 0; i < 3; i++ {
		b, _ := p.NextBlock(ctx)
		heights = append(heights, b.Height)
	}
	want := []types.BlockHeight{5, 6, 7}
	for i, h := range want {
		if heights[i] != h {
			t.Errorf("position %d: expected height %d, got %d", i, h, heights[i])
		}
	}
}
