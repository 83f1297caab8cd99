package entity

import "time"

// DepartmentRecord is the shape shared by every department sub-record:
// an internal status, start/end times, the operator who worked the case
// and free-text notes. The record's status is independent of the case's
// CurrentStatus; completing a record never moves the case by itself.
type DepartmentRecord struct {
	Status       string     `json:"status"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	OperatorID   string     `json:"operator_id"`
	OperatorName string     `json:"operator_name"`
	Notes        string     `json:"notes"`
}

// CADData is the design department sub-record.
type CADData struct {
	DepartmentRecord
	DesignSoftware string `json:"design_software"`
	DesignFileRef  string `json:"design_file_ref"`
	ScanRef        string `json:"scan_ref"`
}

// CAMData is the milling department sub-record.
type CAMData struct {
	DepartmentRecord
	MachineID       string `json:"machine_id"`
	BlockID         string `json:"block_id"`
	BlockMaterial   string `json:"block_material"`
	MillingDuration int    `json:"milling_duration_minutes"`
	// MaterialDeducted is set after the inventory service confirmed the
	// block deduction. Completion with a selected block fails if the
	// deduction fails.
	MaterialDeducted bool `json:"material_deducted"`
}

// Finishing stage names, in pipeline order.
const (
	StageReceive      = "receive"
	StageClean        = "clean"
	StageBaseColor    = "base_color"
	StageExtraColor   = "extra_color"
	StageFurnaceSetup = "furnace_setup"
	StageFirstFiring  = "first_firing"
	StageExtraFiring  = "extra_firing"
	StagePolish       = "polish"
	StageVisualCheck  = "visual_check"
	StageReadyForQC   = "ready_for_qc"
)

// FinishingStageOrder is the fixed ordering of the finishing
// sub-pipeline.
var FinishingStageOrder = []string{
	StageReceive,
	StageClean,
	StageBaseColor,
	StageExtraColor,
	StageFurnaceSetup,
	StageFirstFiring,
	StageExtraFiring,
	StagePolish,
	StageVisualCheck,
	StageReadyForQC,
}

// FinishingStage is one step of the finishing sub-pipeline. A stage
// rejection moves the previous stage back to in_progress (local rework)
// without affecting the department record or the case status.
type FinishingStage struct {
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	OperatorID  string     `json:"operator_id,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// FinishingData is the finishing department sub-record.
type FinishingData struct {
	DepartmentRecord
	Stages []FinishingStage `json:"stages"`
}

// NewFinishingStages returns the ten-stage pipeline with every stage
// pending.
func NewFinishingStages() []FinishingStage {
	stages := make([]FinishingStage, len(FinishingStageOrder))
	for i, name := range FinishingStageOrder {
		stages[i] = FinishingStage{Name: name, Status: StageStatusPending}
	}
	return stages
}

// StageIndex returns the position of a stage name in the pipeline, or
// -1 if the name is unknown.
func StageIndex(name string) int {
	for i, s := range FinishingStageOrder {
		if s == name {
			return i
		}
	}
	return -1
}

// PauseRecord documents one removable-department hold. An open pause
// has no ResumedAt; resuming closes the record and moves it into the
// pause history.
type PauseRecord struct {
	Reason    string     `json:"reason"`
	PausedAt  time.Time  `json:"paused_at"`
	PausedBy  string     `json:"paused_by"`
	ResumedAt *time.Time `json:"resumed_at,omitempty"`
	ResumedBy string     `json:"resumed_by,omitempty"`
}

// RemovableData is the removable-prosthetics department sub-record.
// CurrentPause holds the open hold, if any; PauseHistory holds closed
// records only.
type RemovableData struct {
	DepartmentRecord
	ProstheticType string        `json:"prosthetic_type"`
	CurrentPause   *PauseRecord  `json:"current_pause,omitempty"`
	PauseHistory   []PauseRecord `json:"pause_history,omitempty"`
}

// QCData is the quality-control sub-record: four independent checks
// plus the inspector's explicit overall verdict.
type QCData struct {
	DepartmentRecord
	DimensionCheck string `json:"dimension_check"`
	ColorCheck     string `json:"color_check"`
	OcclusionCheck string `json:"occlusion_check"`
	MarginCheck    string `json:"margin_check"`

	OverallResult      string `json:"overall_result"`
	RejectionReason    string `json:"rejection_reason,omitempty"`
	ReturnToDepartment string `json:"return_to_department,omitempty"`
}
