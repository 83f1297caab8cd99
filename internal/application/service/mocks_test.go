package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dentalworks/labflow/internal/application/port"
	appwf "github.com/dentalworks/labflow/internal/application/workflow"
	"github.com/dentalworks/labflow/internal/domain/entity"
	domainwf "github.com/dentalworks/labflow/internal/domain/workflow"
)

// fakeCaseRepo is an in-memory port.CaseRepository.
type fakeCaseRepo struct {
	mu    sync.Mutex
	cases map[string]*entity.DentalCase

	// updateDeptErr, when set, fails the next UpdateDepartmentData call
	updateDeptErr error
}

func newFakeCaseRepo(cases ...*entity.DentalCase) *fakeCaseRepo {
	r := &fakeCaseRepo{cases: make(map[string]*entity.DentalCase)}
	for _, c := range cases {
		if c.Version == 0 {
			c.Version = 1
		}
		r.cases[c.ID] = c
	}
	return r
}

func (r *fakeCaseRepo) Create(ctx context.Context, c *entity.DentalCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.cases[c.ID]; exists {
		return fmt.Errorf("duplicate case id %s", c.ID)
	}
	if c.Version == 0 {
		c.Version = 1
	}
	r.cases[c.ID] = c
	return nil
}

func (r *fakeCaseRepo) GetByID(ctx context.Context, id string) (*entity.DentalCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, port.ErrCaseNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeCaseRepo) GetByCaseNumber(ctx context.Context, caseNumber string) (*entity.DentalCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cases {
		if c.CaseNumber == caseNumber {
			clone := *c
			return &clone, nil
		}
	}
	return nil, port.ErrCaseNotFound
}

func (r *fakeCaseRepo) List(ctx context.Context, filter entity.CaseFilter) ([]*entity.DentalCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.DentalCase
	for _, c := range r.cases {
		if filter.Status != "" && c.CurrentStatus != filter.Status {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeCaseRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]*entity.DentalCase, error) {
	return nil, nil
}

func (r *fakeCaseRepo) UpdateStatus(ctx context.Context, id string, status string, expectedVersion int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return false, port.ErrCaseNotFound
	}
	if c.Version != expectedVersion {
		return false, nil
	}
	c.CurrentStatus = status
	c.Version++
	return true, nil
}

func (r *fakeCaseRepo) UpdateDepartmentData(ctx context.Context, id string, department string, data interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateDeptErr != nil {
		return r.updateDeptErr
	}
	c, ok := r.cases[id]
	if !ok {
		return port.ErrCaseNotFound
	}
	switch department {
	case entity.DepartmentCAD:
		c.CADData = data.(*entity.CADData)
	case entity.DepartmentCAM:
		c.CAMData = data.(*entity.CAMData)
	case entity.DepartmentFinishing:
		c.FinishingData = data.(*entity.FinishingData)
	case entity.DepartmentRemovable:
		c.RemovableData = data.(*entity.RemovableData)
	case entity.DepartmentQC:
		c.QCData = data.(*entity.QCData)
	default:
		return fmt.Errorf("unknown department %q", department)
	}
	c.Version++
	return nil
}

func (r *fakeCaseRepo) UpdateExpectedDelivery(ctx context.Context, id string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return port.ErrCaseNotFound
	}
	c.ExpectedDeliveryDate = &t
	return nil
}

func (r *fakeCaseRepo) SetActualDelivery(ctx context.Context, id string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return port.ErrCaseNotFound
	}
	if c.ActualDeliveryDate == nil {
		c.ActualDeliveryDate = &t
	}
	return nil
}

func (r *fakeCaseRepo) SetInvoiceID(ctx context.Context, id string, invoiceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return port.ErrCaseNotFound
	}
	c.InvoiceID = invoiceID
	return nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []*entity.WorkflowHistoryEntry
}

func (r *fakeHistoryRepo) Append(ctx context.Context, entry *entity.WorkflowHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeHistoryRepo) GetByCaseID(ctx context.Context, caseID string) ([]*entity.WorkflowHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.WorkflowHistoryEntry
	for _, e := range r.entries {
		if e.CaseID == caseID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeSequenceRepo advances an in-memory per-year counter.
type fakeSequenceRepo struct {
	mu     sync.Mutex
	values map[int]int64
	err    error
}

func (r *fakeSequenceRepo) Next(ctx context.Context, year int) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.values == nil {
		r.values = make(map[int]int64)
	}
	r.values[year]++
	return r.values[year], nil
}

// fakeDoctors resolves from a fixed map.
type fakeDoctors struct {
	names map[string]string
}

func (d *fakeDoctors) GetDoctorName(ctx context.Context, doctorID string) (string, error) {
	name, ok := d.names[doctorID]
	if !ok {
		return "", fmt.Errorf("%w: %s", port.ErrDoctorNotFound, doctorID)
	}
	return name, nil
}

// fakeInventory tracks per-item stock levels.
type fakeInventory struct {
	mu         sync.Mutex
	stock      map[string]int
	deductions []string
}

func (i *fakeInventory) DeductStock(ctx context.Context, itemID string, quantity int, caseNumber string, reason string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stock[itemID] < quantity {
		return fmt.Errorf("%w: item %s", port.ErrInsufficientStock, itemID)
	}
	i.stock[itemID] -= quantity
	i.deductions = append(i.deductions, itemID)
	return nil
}

// fakeEngine records transfer requests without touching persistence.
type fakeEngine struct {
	mu        sync.Mutex
	transfers []domainwf.State
	err       error
	caseRepo  *fakeCaseRepo
}

func (e *fakeEngine) TransferCase(ctx context.Context, caseID string, toStatus domainwf.State, opts appwf.TransferOptions) (*entity.DentalCase, error) {
	e.mu.Lock()
	e.transfers = append(e.transfers, toStatus)
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	if e.caseRepo != nil {
		c, err := e.caseRepo.GetByID(ctx, caseID)
		if err != nil {
			return nil, err
		}
		if _, err := e.caseRepo.UpdateStatus(ctx, caseID, toStatus.String(), c.Version); err != nil {
			return nil, err
		}
		return e.caseRepo.GetByID(ctx, caseID)
	}
	return &entity.DentalCase{ID: caseID, CurrentStatus: toStatus.String()}, nil
}

func (e *fakeEngine) ForceStatus(ctx context.Context, caseID string, toStatus domainwf.State, actorID, actorRole, notes string) (*entity.DentalCase, error) {
	return nil, fmt.Errorf("not implemented")
}

func newTestCase(id, status string) *entity.DentalCase {
	return &entity.DentalCase{
		ID:            id,
		CaseNumber:    "L-2026-00007",
		DoctorID:      "dr-1",
		DoctorName:    "Dr. Adams",
		PatientName:   "Jordan Pike",
		TeethNumbers:  "11,21",
		WorkType:      entity.WorkTypeZirconia,
		Priority:      entity.PriorityNormal,
		CurrentStatus: status,
		ReceivedDate:  time.Now(),
		Version:       1,
	}
}
