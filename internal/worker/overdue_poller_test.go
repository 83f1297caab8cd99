package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/domain/entity"
)

// overdueRepo serves a fixed overdue list and signals each scan.
type overdueRepo struct {
	port.CaseRepository

	mu      sync.Mutex
	overdue []*entity.DentalCase
	scans   chan struct{}
}

func (r *overdueRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]*entity.DentalCase, error) {
	r.mu.Lock()
	out := make([]*entity.DentalCase, len(r.overdue))
	copy(out, r.overdue)
	r.mu.Unlock()

	select {
	case r.scans <- struct{}{}:
	default:
	}
	return out, nil
}

func (r *overdueRepo) set(cases ...*entity.DentalCase) {
	r.mu.Lock()
	r.overdue = cases
	r.mu.Unlock()
}

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
	ids     []string
}

func (a *recordingAudit) Record(ctx context.Context, action, entityType, entityID, userID string, details map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	a.ids = append(a.ids, entityID)
}

func (a *recordingAudit) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.actions)
}

func drainScans(repo *overdueRepo) {
	for {
		select {
		case <-repo.scans:
		default:
			return
		}
	}
}

func waitScans(t *testing.T, repo *overdueRepo, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-repo.scans:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for scan %d", i+1)
		}
	}
}

func TestOverduePoller_FlagsOncePerEpisode(t *testing.T) {
	expected := time.Now().Add(-24 * time.Hour)
	repo := &overdueRepo{scans: make(chan struct{}, 16)}
	repo.set(&entity.DentalCase{
		ID:                   "c1",
		CaseNumber:           "L-2026-00007",
		CurrentStatus:        "finishing",
		ExpectedDeliveryDate: &expected,
	})
	audit := &recordingAudit{}

	p := NewOverduePoller(repo, audit, 10*time.Millisecond, zap.NewNop())
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	// Several scans, one audit record.
	waitScans(t, repo, 3)
	if got := audit.count(); got != 1 {
		t.Fatalf("audit records = %d, want 1", got)
	}

	// Clearing and re-adding the case starts a new overdue episode.
	repo.set()
	drainScans(repo)
	waitScans(t, repo, 2)
	repo.set(&entity.DentalCase{ID: "c1", CaseNumber: "L-2026-00007", ExpectedDeliveryDate: &expected})
	drainScans(repo)
	waitScans(t, repo, 2)

	if got := audit.count(); got != 2 {
		t.Fatalf("audit records = %d, want 2", got)
	}
}

func TestOverduePoller_StartTwice(t *testing.T) {
	repo := &overdueRepo{scans: make(chan struct{}, 16)}
	p := NewOverduePoller(repo, nil, time.Hour, zap.NewNop())

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	if err := p.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
}

func TestOverduePoller_StopIsIdempotent(t *testing.T) {
	repo := &overdueRepo{scans: make(chan struct{}, 16)}
	p := NewOverduePoller(repo, nil, time.Hour, zap.NewNop())

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Stop()
	p.Stop()
}
