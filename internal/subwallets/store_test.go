package subwallets

import (
	"testing"

	"github.com/QbitNetwork/Qbit-wallet-backend/crypto"
	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

func testPoint(b byte) crypto.Point {
	var p crypto.Point
	p[0] = b
	return p
}

func testHash(b byte) crypto.Hash {
	var h crypto.Hash
	h[0] = b
	return h
}

func TestAddSubWalletRejectsDuplicate(t *testing.T) {
	s := New(crypto.NilScalar, 0, nil)
	pub := testPoint(1)
	if err := s.AddSubWallet(pub, crypto.NilScalar, 0); err != nil {
		t.Fatalf("first AddSubWallet: %v", err)
	}
	if err := s.AddSubWallet(pub, crypto.NilScalar, 0); err == nil {
		t.Fatal("expected error adding a duplicate subwallet")
	}
}

func TestApplyTransactionDataAddsUnspentInput(t *testing.T) {
	s := New(crypto.NilScalar, 0, nil)
	pub := testPoint(1)
	if err := s.AddSubWallet(pub, crypto.NilScalar, 0); err != nil {
		t.Fatalf("AddSubWallet: %v", err)
	}

	data := types.TransactionData{
		InputsToAdd: []types.TransactionInput{
			{Owner: pub, KeyImage: testPoint(2), Amount: 1000, BlockHeight: 5},
		},
	}
	if err := s.ApplyTransactionData(5, data); err != nil {
		t.Fatalf("ApplyTransactionData: %v", err)
	}

	wallets := s.GetSubWallets()
	if len(wallets) != 1 || len(wallets[0].Unspent) != 1 {
		t.Fatalf("expected one unspent input, got %+v", wallets)
	}
	if wallets[0].Unspent[0].Amount != 1000 {
		t.Errorf("expected amount 1000, got %d", wallets[0].Unspent[0].Amount)
	}
	if wallets[0].ScanHeight != 6 {
		t.Errorf("expected scan height advanced to 6, got %d", wallets[0].ScanHeight)
	}
}

func TestApplyTransactionDataMarksSpent(t *testing.T) {
	s := New(crypto.NilScalar, 0, nil)
	pub := testPoint(1)
	ki := testPoint(2)
	s.AddSubWallet(pub, crypto.NilScalar, 0)
	s.ApplyTransactionData(5, types.TransactionData{
		InputsToAdd: []types.TransactionInput{{Owner: pub, KeyImage: ki, Amount: 500, BlockHeight: 5}},
	})
	s.ApplyTransactionData(6, types.TransactionData{
		KeyImagesToMarkSpent: []types.SpentKeyImage{{Owner: pub, KeyImage: ki, BlockHeight: 6}},
	})

	wallets := s.GetSubWallets()
	if len(wallets[0].Unspent) != 0 {
		t.Errorf("expected no unspent inputs left, got %d", len(wallets[0].Unspent))
	}
	if len(wallets[0].Spent) != 1 {
		t.Fatalf("expected one spent input, got %d", len(wallets[0].Spent))
	}
}

func TestBalanceRespectsLockRule(t *testing.T) {
	s := New(crypto.NilScalar, 0, nil)
	pub := testPoint(1)
	s.AddSubWallet(pub, crypto.NilScalar, 0)
	s.ApplyTransactionData(10, types.TransactionData{
		InputsToAdd: []types.TransactionInput{
			{Owner: pub, KeyImage: testPoint(2), Amount: 100, BlockHeight: 10, UnlockTime: 0},
			{Owner: pub, KeyImage: testPoint(3), Amount: 200, BlockHeight: 10, UnlockTime: 999999},
		},
	})

	unlocked, locked, err := s.Balance(pub)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if unlocked != 100 {
		t.Errorf("expected unlocked 100, got %d", unlocked)
	}
	if locked != 200 {
		t.Errorf("expected locked 200, got %d", locked)
	}
}

func TestLockInputsForSendAndMissThresholdCancels(t *testing.T) {
	s := New(crypto.NilScalar, 0, nil)
	pub := testPoint(1)
	ki := testPoint(2)
	txHash := testHash(9)
	s.AddSubWallet(pub, crypto.NilScalar, 0)
	s.ApplyTransactionData(1, types.TransactionData{
		InputsToAdd: []types.TransactionInput{{Owner: pub, KeyImage: ki, Amount: 50, BlockHeight: 1}},
	})

	s.LockInputsForSend(txHash, []crypto.Point{ki})
	wallets := s.GetSubWallets()
	if len(wallets[0].Locked) != 1 {
		t.Fatalf("expected one locked input, got %d", len(wallets[0].Locked))
	}

	hashes := s.LockedTransactionHashes()
	if len(hashes) != 1 || hashes[0] != txHash {
		t.Fatalf("expected LockedTransactionHashes to report %v, got %v", txHash, hashes)
	}

	// simulate the daemon reporting the send notFound on LockedMissThreshold
	// consecutive checks; the last of them reaches the threshold and cancels it.
	var canceled []crypto.Hash
	for i := 0; i < LockedMissThreshold; i++ {
		canceled = s.ReconcileLockedTransactions([]crypto.Hash{txHash})
	}
	if len(canceled) != 1 || canceled[0] != txHash {
		t.Fatalf("expected ReconcileLockedTransactions to cancel %v on the final miss, got %v", txHash, canceled)
	}

	wallets = s.GetSubWallets()
	if len(wallets[0].Locked) != 0 {
		t.Errorf("expected locked input canceled back to unspent, still locked: %d", len(wallets[0].Locked))
	}
	if len(wallets[0].Unspent) != 1 {
		t.Errorf("expected canceled input back in unspent, got %d", len(wallets[0].Unspent))
	}
}

func TestReconcileLockedTransactionsResetsStreakOnReappearance(t *testing.T) {
	s := New(crypto.NilScalar, 0, nil)
	pub := testPoint(1)
	ki := testPoint(2)
	txHash := testHash(9)
	s.AddSubWallet(pub, crypto.NilScalar, 0)
	s.ApplyTransactionData(1, types.TransactionData{
		InputsToAdd: []types.TransactionInput{{Owner: pub, KeyImage: ki, Amount: 50, BlockHeight: 1}},
	})
	s.LockInputsForSend(txHash, []crypto.Point{ki})

	for i := 0; i < LockedMissThreshold-1; i++ {
		s.ReconcileLockedTransactions([]crypto.Hash{txHash})
	}
	// the send reappears (still in the pool): the streak resets to 0
	if canceled := s.ReconcileLockedTransactions(nil); len(canceled) != 0 {
		t.Fatalf("expected no cancellation on reappearance, got %v", canceled)
	}

	// it should now take a fresh LockedMissThreshold misses to cancel
	var canceled []crypto.Hash
	for i := 0; i < LockedMissThreshold-1; i++ {
		canceled = s.ReconcileLockedTransactions([]crypto.Hash{txHash})
		if len(canceled) != 0 {
			t.Fatalf("expected no cancellation before the streak reaches threshold again, got %v at i=%d", canceled, i)
		}
	}
	canceled = s.ReconcileLockedTransactions([]crypto.Hash{txHash})
	if len(canceled) != 1 || canceled[0] != txHash {
		t.Fatalf("expected cancellation after a fresh full streak, got %v", canceled)
	}
}

func TestRewindToDropsLaterState(t *testing.T) {
	s := New(crypto.NilScalar, 0, nil)
	pub := testPoint(1)
	s.AddSubWallet(pub, crypto.NilScalar, 0)
	s.ApplyTransactionData(5, types.TransactionData{
		InputsToAdd: []types.TransactionInput{{Owner: pub, KeyImage: testPoint(2), Amount: 10, BlockHeight: 5}},
	})
	s.ApplyTransactionData(10, types.TransactionData{
		InputsToAdd: []types.TransactionInput{{Owner: pub, KeyImage: testPoint(3), Amount: 20, BlockHeight: 10}},
	})

	if err := s.RewindTo(6); err != nil {
		t.Fatalf("RewindTo: %v", err)
	}

	wallets := s.GetSubWallets()
	if len(wallets[0].Unspent) != 1 {
		t.Fatalf("expected only the height-5 input to survive rewind, got %d", len(wallets[0].Unspent))
	}
}
