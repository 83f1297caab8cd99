package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/domain/entity"
)

func newTestCaseService(caseRepo *fakeCaseRepo, historyRepo *fakeHistoryRepo) CaseService {
	numbers := NewCaseNumberService(&fakeSequenceRepo{}, "L")
	doctors := &fakeDoctors{names: map[string]string{"dr-1": "Dr. Adams"}}
	return NewCaseService(caseRepo, historyRepo, numbers, doctors, nil, zap.NewNop())
}

func validIntake() entity.CreateCaseInput {
	return entity.CreateCaseInput{
		DoctorID:     "dr-1",
		PatientName:  "Jordan Pike",
		TeethNumbers: "11,21",
		WorkType:     entity.WorkTypeZirconia,
	}
}

func TestCreateCase(t *testing.T) {
	caseRepo := newFakeCaseRepo()
	svc := newTestCaseService(caseRepo, &fakeHistoryRepo{})

	created, err := svc.CreateCase(context.Background(), validIntake())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^L-\d{4}-\d{5}$`), created.CaseNumber)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "reception", created.CurrentStatus)
	assert.Equal(t, "Dr. Adams", created.DoctorName)
	assert.Equal(t, entity.PriorityNormal, created.Priority, "priority defaults to normal")
	assert.False(t, created.ReceivedDate.IsZero())

	stored, err := caseRepo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.CaseNumber, stored.CaseNumber)
}

func TestCreateCase_SanitizesPatientName(t *testing.T) {
	caseRepo := newFakeCaseRepo()
	svc := newTestCaseService(caseRepo, &fakeHistoryRepo{})

	input := validIntake()
	input.PatientName = "Jordan\x00 Pike\x1f"

	created, err := svc.CreateCase(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "Jordan Pike", created.PatientName)

	stored, err := caseRepo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jordan Pike", stored.PatientName)
}

func TestGetCaseByNumber(t *testing.T) {
	caseRepo := newFakeCaseRepo(newTestCase("c1", "reception"))
	svc := newTestCaseService(caseRepo, &fakeHistoryRepo{})

	found, err := svc.GetCaseByNumber(context.Background(), "L-2026-00007")
	require.NoError(t, err)
	assert.Equal(t, "c1", found.ID)

	_, err = svc.GetCaseByNumber(context.Background(), "L-2026-99999")
	assert.ErrorIs(t, err, port.ErrCaseNotFound)
}

func TestCreateCase_Validation(t *testing.T) {
	svc := newTestCaseService(newFakeCaseRepo(), &fakeHistoryRepo{})

	tests := []struct {
		name      string
		mutate    func(*entity.CreateCaseInput)
		wantField string
	}{
		{
			name:      "missing doctor",
			mutate:    func(in *entity.CreateCaseInput) { in.DoctorID = "" },
			wantField: "doctor_id",
		},
		{
			name:      "short patient name",
			mutate:    func(in *entity.CreateCaseInput) { in.PatientName = "J" },
			wantField: "patient_name",
		},
		{
			name:      "malformed teeth list",
			mutate:    func(in *entity.CreateCaseInput) { in.TeethNumbers = "11,9" },
			wantField: "teeth_numbers",
		},
		{
			name:      "tooth outside FDI range",
			mutate:    func(in *entity.CreateCaseInput) { in.TeethNumbers = "99" },
			wantField: "teeth_numbers",
		},
		{
			name:      "unknown work type",
			mutate:    func(in *entity.CreateCaseInput) { in.WorkType = "bridgework" },
			wantField: "work_type",
		},
		{
			name:      "unknown priority",
			mutate:    func(in *entity.CreateCaseInput) { in.Priority = "asap" },
			wantField: "priority",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validIntake()
			tt.mutate(&input)

			_, err := svc.CreateCase(context.Background(), input)

			var verr *entity.ValidationError
			require.ErrorAs(t, err, &verr)
			found := false
			for _, f := range verr.Fields {
				if f.Field == tt.wantField {
					found = true
				}
			}
			assert.True(t, found, "expected field %s in %v", tt.wantField, verr.Fields)
		})
	}
}

func TestCreateCase_AccumulatesFieldErrors(t *testing.T) {
	svc := newTestCaseService(newFakeCaseRepo(), &fakeHistoryRepo{})

	_, err := svc.CreateCase(context.Background(), entity.CreateCaseInput{})

	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.GreaterOrEqual(t, len(verr.Fields), 4, "all invalid fields reported at once")
}

func TestCreateCase_UnknownDoctor(t *testing.T) {
	svc := newTestCaseService(newFakeCaseRepo(), &fakeHistoryRepo{})

	input := validIntake()
	input.DoctorID = "dr-999"

	_, err := svc.CreateCase(context.Background(), input)
	require.ErrorIs(t, err, port.ErrDoctorNotFound)
}

func TestGetCase_NotFound(t *testing.T) {
	svc := newTestCaseService(newFakeCaseRepo(), &fakeHistoryRepo{})

	_, err := svc.GetCase(context.Background(), "missing")
	assert.ErrorIs(t, err, port.ErrCaseNotFound)
}

func TestUpdateDepartmentData_Merge(t *testing.T) {
	c := newTestCase("c1", "cad_design")
	c.CADData = &entity.CADData{
		DepartmentRecord: entity.DepartmentRecord{Status: entity.RecordStatusInProgress},
		DesignSoftware:   "exocad",
		ScanRef:          "scan-001",
	}
	caseRepo := newFakeCaseRepo(c)
	svc := newTestCaseService(caseRepo, &fakeHistoryRepo{})

	updated, err := svc.UpdateDepartmentData(context.Background(), "c1", entity.DepartmentCAD,
		map[string]interface{}{"design_file_ref": "design-042.stl"}, "u-1")
	require.NoError(t, err)

	require.NotNil(t, updated.CADData)
	assert.Equal(t, "design-042.stl", updated.CADData.DesignFileRef)
	// Untouched fields survive the shallow merge
	assert.Equal(t, "exocad", updated.CADData.DesignSoftware)
	assert.Equal(t, "scan-001", updated.CADData.ScanRef)
}

func TestUpdateDepartmentData_FirstTouchStartsRecord(t *testing.T) {
	caseRepo := newFakeCaseRepo(newTestCase("c1", "cad_design"))
	svc := newTestCaseService(caseRepo, &fakeHistoryRepo{})

	updated, err := svc.UpdateDepartmentData(context.Background(), "c1", entity.DepartmentCAD,
		map[string]interface{}{"design_software": "exocad"}, "u-1")
	require.NoError(t, err)
	require.NotNil(t, updated.CADData)
	assert.Equal(t, entity.RecordStatusInProgress, updated.CADData.Status)
}

func TestUpdateDepartmentData_UnknownDepartment(t *testing.T) {
	caseRepo := newFakeCaseRepo(newTestCase("c1", "reception"))
	svc := newTestCaseService(caseRepo, &fakeHistoryRepo{})

	_, err := svc.UpdateDepartmentData(context.Background(), "c1", "shipping",
		map[string]interface{}{"notes": "n"}, "u-1")

	var verr *entity.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateExpectedDelivery(t *testing.T) {
	caseRepo := newFakeCaseRepo(newTestCase("c1", "reception"))
	svc := newTestCaseService(caseRepo, &fakeHistoryRepo{})

	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.UpdateExpectedDelivery(context.Background(), "c1", due))

	c, _ := caseRepo.GetByID(context.Background(), "c1")
	require.NotNil(t, c.ExpectedDeliveryDate)
	assert.True(t, c.ExpectedDeliveryDate.Equal(due))
}

func TestGetHistory(t *testing.T) {
	caseRepo := newFakeCaseRepo(newTestCase("c1", "cad_design"))
	historyRepo := &fakeHistoryRepo{}
	historyRepo.entries = append(historyRepo.entries, &entity.WorkflowHistoryEntry{
		CaseID: "c1", FromStatus: "reception", ToStatus: "cad_design",
	})
	svc := newTestCaseService(caseRepo, historyRepo)

	entries, err := svc.GetHistory(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cad_design", entries[0].ToStatus)

	_, err = svc.GetHistory(context.Background(), "missing")
	assert.True(t, errors.Is(err, port.ErrCaseNotFound))
}
