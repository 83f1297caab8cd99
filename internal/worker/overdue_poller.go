package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
)

// OverduePoller periodically scans for open cases whose expected
// delivery date has passed, logs them and leaves an audit entry so the
// front desk can chase them.
type OverduePoller struct {
	caseRepo port.CaseRepository
	audit    port.AuditLogger
	logger   *zap.Logger

	pollInterval time.Duration

	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc

	// flagged tracks cases already reported so a case is audited once
	// per overdue episode, not once per poll
	flagged map[string]bool
}

// NewOverduePoller creates the poller. A zero interval defaults to one
// hour.
func NewOverduePoller(caseRepo port.CaseRepository, audit port.AuditLogger, interval time.Duration, logger *zap.Logger) *OverduePoller {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OverduePoller{
		caseRepo:     caseRepo,
		audit:        audit,
		logger:       logger,
		pollInterval: interval,
		flagged:      make(map[string]bool),
	}
}

// Start starts the polling worker
func (p *OverduePoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("overdue poller is already running")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.isRunning = true

	p.logger.Info("OverduePoller started",
		zap.Duration("poll_interval", p.pollInterval))

	go p.pollLoop()

	return nil
}

// Stop stops the polling worker
func (p *OverduePoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return
	}

	p.isRunning = false
	if p.cancel != nil {
		p.cancel()
	}

	p.logger.Info("OverduePoller stopped")
}

// Name returns the worker name for identification
func (p *OverduePoller) Name() string {
	return "OverduePoller"
}

func (p *OverduePoller) pollLoop() {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	// First scan immediately so a restart doesn't wait a full interval
	p.scan()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.scan()
		}
	}
}

// scan flags every newly overdue case.
func (p *OverduePoller) scan() {
	ctx, cancel := context.WithTimeout(p.ctx, 30*time.Second)
	defer cancel()

	overdue, err := p.caseRepo.ListOverdue(ctx, time.Now())
	if err != nil {
		p.logger.Error("Overdue scan failed", zap.Error(err))
		return
	}

	current := make(map[string]bool, len(overdue))
	for _, c := range overdue {
		current[c.ID] = true
		if p.flagged[c.ID] {
			continue
		}

		p.logger.Warn("Case overdue",
			zap.String("case_number", c.CaseNumber),
			zap.String("status", c.CurrentStatus),
			zap.Timep("expected_delivery_date", c.ExpectedDeliveryDate))

		if p.audit != nil {
			p.audit.Record(ctx, "case_overdue", "case", c.ID, "", map[string]interface{}{
				"case_number": c.CaseNumber,
				"status":      c.CurrentStatus,
			})
		}
	}

	// Cases no longer overdue (delivered, date pushed out) can be
	// flagged again next time they slip. Only the poll goroutine
	// touches this map.
	p.flagged = current
}
