package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func TestGatewayMissingPath(t *testing.T) {
	gw := NewGateway("")
	if _, err := gw.Connect(context.Background()); !errors.Is(err, ErrNoDSN) {
		t.Fatalf("expected ErrNoDSN, got %v", err)
	}
}

func TestGatewayConnectIdempotent(t *testing.T) {
	gw := NewGateway(filepath.Join(t.TempDir(), "bilancio.db"))
	defer gw.Close()

	ctx := context.Background()
	first, err := gw.Connect(ctx)
	if err != nil {
		t.Fatalf("first connect: %v", err)
	}
	second, err := gw.Connect(ctx)
	if err != nil {
		t.Fatalf("second connect: %v", err)
	}
	if first != second {
		t.Fatal("repeated Connect must return the same handle")
	}
}

func TestGatewayConcurrentConnect(t *testing.T) {
	gw := NewGateway(filepath.Join(t.TempDir(), "bilancio.db"))
	defer gw.Close()

	const callers = 16
	handles := make([]any, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := gw.Connect(context.Background())
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			handles[i] = db
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if handles[i] != handles[0] {
			t.Fatal("concurrent callers must share one connection handle")
		}
	}
}

func TestGatewayCloseWithoutConnect(t *testing.T) {
	gw := NewGateway(filepath.Join(t.TempDir(), "bilancio.db"))
	if err := gw.Close(); err != nil {
		t.Fatalf("close without connect: %v", err)
	}
}
