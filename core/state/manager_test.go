package state

import (
	"math/big"
	"testing"

	"marketledger/storage"
)

type record struct {
	Name    string
	Balance *big.Int
}

func TestPutGetRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	stored := &record{Name: "acme", Balance: big.NewInt(42)}
	if err := manager.KVPut([]byte("test/key"), stored); err != nil {
		t.Fatalf("put: %v", err)
	}
	loaded := new(record)
	ok, err := manager.KVGet([]byte("test/key"), loaded)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if loaded.Name != "acme" || loaded.Balance.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("unexpected value: %+v", loaded)
	}
}

func TestGetMissingKey(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	ok, err := manager.KVGet([]byte("missing"), new(record))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("missing key must yield ok=false")
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	if err := manager.KVPut(nil, uint64(1)); err == nil {
		t.Fatalf("empty key must be rejected")
	}
	if _, err := manager.KVGet(nil, new(uint64)); err == nil {
		t.Fatalf("empty key must be rejected")
	}
}

func TestOverlayReadsOwnWrites(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	if err := manager.KVPut([]byte("counter"), uint64(7)); err != nil {
		t.Fatalf("put: %v", err)
	}

	var counter uint64
	ok, err := manager.KVGet([]byte("counter"), &counter)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if counter != 7 {
		t.Fatalf("expected overlay read 7, got %d", counter)
	}

	// Nothing reaches the database until commit.
	fresh := NewManager(db)
	ok, err = fresh.KVGet([]byte("counter"), &counter)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("uncommitted write must not be visible to other managers")
	}
}

func TestCommitFlushesOverlay(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	if err := manager.KVPut([]byte("counter"), uint64(7)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if manager.Pending() != 1 {
		t.Fatalf("expected 1 pending mutation, got %d", manager.Pending())
	}
	if err := manager.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if manager.Pending() != 0 {
		t.Fatalf("commit must clear the overlay, %d pending", manager.Pending())
	}

	var counter uint64
	ok, err := NewManager(db).KVGet([]byte("counter"), &counter)
	if err != nil || !ok {
		t.Fatalf("get after commit: ok=%v err=%v", ok, err)
	}
	if counter != 7 {
		t.Fatalf("expected committed value 7, got %d", counter)
	}
}

func TestResetDiscardsOverlay(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	if err := manager.KVPut([]byte("a"), uint64(1)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := manager.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := manager.KVPut([]byte("a"), uint64(2)); err != nil {
		t.Fatalf("put: %v", err)
	}
	manager.Reset()
	if manager.Pending() != 0 {
		t.Fatalf("reset must clear the overlay")
	}

	var value uint64
	ok, err := manager.KVGet([]byte("a"), &value)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if value != 1 {
		t.Fatalf("reset must roll back to the committed value, got %d", value)
	}
}
