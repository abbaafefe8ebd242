package fake_test

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-pagebench/api"
	"github.com/momentics/hioload-pagebench/fake"
	"github.com/momentics/hioload-pagebench/pool"
)

func TestConnLimitAndFailure(t *testing.T) {
	boom := errors.New("boom")
	c := fake.NewConn(fake.WithLimit(2), fake.FailSlot(1, boom))
	p, err := pool.NewSlotPool(2, 64, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	for i := 0; i < 2; i++ {
		if r := c.Recv(p.Page(0)); r.N != 64 || r.Err != nil {
			t.Fatalf("recv %d: %+v", i, r)
		}
	}
	if r := c.Recv(p.Page(0)); !r.PeerClosed() {
		t.Fatalf("expected peer close, got %+v", r)
	}
	if r := c.Send(p.Page(1)); !errors.Is(r.Err, boom) {
		t.Fatalf("expected scripted failure, got %+v", r)
	}
	if c.Ops(0) != 3 || c.TotalOps() != 4 {
		t.Fatalf("ops: slot0=%d total=%d", c.Ops(0), c.TotalOps())
	}
}

func TestConnDetectsLentBuffer(t *testing.T) {
	c := fake.NewConn()
	p, _ := pool.NewSlotPool(1, 8, nil)
	page := p.Page(0)
	if err := page.Lend(); err != nil {
		t.Fatal(err)
	}
	if r := c.Recv(page); !errors.Is(r.Err, api.ErrBufferInFlight) {
		t.Fatalf("err = %v", r.Err)
	}
	if c.Reentrant() != 1 {
		t.Fatalf("Reentrant = %d", c.Reentrant())
	}
	page.Reclaim()
}

func TestConnClosed(t *testing.T) {
	c := fake.NewConn()
	p, _ := pool.NewSlotPool(1, 8, nil)
	c.Close()
	if r := c.Send(p.Page(0)); !errors.Is(r.Err, api.ErrTransportClosed) {
		t.Fatalf("err = %v", r.Err)
	}
}
