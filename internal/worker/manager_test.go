package worker

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"
)

type stubWorker struct {
	name     string
	startErr error
	started  bool
	stopped  bool
	stopLog  *[]string
}

func (w *stubWorker) Start(ctx context.Context) error {
	if w.startErr != nil {
		return w.startErr
	}
	w.started = true
	return nil
}

func (w *stubWorker) Stop() {
	w.stopped = true
	if w.stopLog != nil {
		*w.stopLog = append(*w.stopLog, w.name)
	}
}

func (w *stubWorker) Name() string { return w.name }

func TestManager_StartAll(t *testing.T) {
	m := NewManager(zap.NewNop())
	a := &stubWorker{name: "a"}
	b := &stubWorker{name: "b"}
	m.Register(a)
	m.Register(b)

	if m.Count() != 2 {
		t.Fatalf("Count = %d, want 2", m.Count())
	}
	if err := m.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if !a.started || !b.started {
		t.Error("expected all workers started")
	}
}

func TestManager_StartAllStopsOnError(t *testing.T) {
	m := NewManager(zap.NewNop())
	a := &stubWorker{name: "a"}
	b := &stubWorker{name: "b", startErr: fmt.Errorf("boom")}
	c := &stubWorker{name: "c"}
	m.Register(a)
	m.Register(b)
	m.Register(c)

	if err := m.StartAll(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if c.started {
		t.Error("workers after the failing one must not start")
	}
}

func TestManager_StopAllReverseOrder(t *testing.T) {
	m := NewManager(zap.NewNop())
	var order []string
	m.Register(&stubWorker{name: "a", stopLog: &order})
	m.Register(&stubWorker{name: "b", stopLog: &order})
	m.Register(&stubWorker{name: "c", stopLog: &order})

	m.StopAll()

	want := []string{"c", "b", "a"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("stop order = %v, want %v", order, want)
		}
	}
}
