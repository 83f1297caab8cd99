package entity

// Work type constants for DentalCase
const (
	WorkTypeZirconia       = "zirconia"
	WorkTypePFM            = "pfm"
	WorkTypeEmax           = "emax"
	WorkTypeImplant        = "implant"
	WorkTypeOrtho          = "ortho"
	WorkTypeRemovable      = "removable"
	WorkTypeComposite      = "composite"
	WorkTypeMetalFramework = "metal_framework"
	WorkTypeDenture        = "denture"
	WorkTypeOther          = "other"
)

// ValidWorkTypes enumerates all accepted work types.
var ValidWorkTypes = map[string]bool{
	WorkTypeZirconia:       true,
	WorkTypePFM:            true,
	WorkTypeEmax:           true,
	WorkTypeImplant:        true,
	WorkTypeOrtho:          true,
	WorkTypeRemovable:      true,
	WorkTypeComposite:      true,
	WorkTypeMetalFramework: true,
	WorkTypeDenture:        true,
	WorkTypeOther:          true,
}

// removableWorkTypes enter the removable branch from reception instead
// of the fixed-prosthetics CAD/CAM path.
var removableWorkTypes = map[string]bool{
	WorkTypeRemovable: true,
	WorkTypeOrtho:     true,
	WorkTypeDenture:   true,
}

// IsRemovableWorkType reports whether the work type follows the
// removable production branch.
func IsRemovableWorkType(workType string) bool {
	return removableWorkTypes[workType]
}

// Priority constants for DentalCase
const (
	PriorityNormal = "normal"
	PriorityUrgent = "urgent"
	PriorityRush   = "rush"
)

// ValidPriorities enumerates all accepted priorities.
var ValidPriorities = map[string]bool{
	PriorityNormal: true,
	PriorityUrgent: true,
	PriorityRush:   true,
}

// Department identifiers, used as the tag of the department sub-record
// union and as URL segments in the API.
const (
	DepartmentCAD       = "cad"
	DepartmentCAM       = "cam"
	DepartmentFinishing = "finishing"
	DepartmentRemovable = "removable"
	DepartmentQC        = "qc"
)

// ValidDepartments enumerates the departments that own a sub-record.
var ValidDepartments = map[string]bool{
	DepartmentCAD:       true,
	DepartmentCAM:       true,
	DepartmentFinishing: true,
	DepartmentRemovable: true,
	DepartmentQC:        true,
}

// Department sub-record status constants
const (
	RecordStatusPending    = "pending"
	RecordStatusInProgress = "in_progress"
	RecordStatusCompleted  = "completed"
)

// QC check result constants
const (
	CheckResultPass        = "pass"
	CheckResultFail        = "fail"
	CheckResultConditional = "conditional"
)

// QC overall result constants. The inspector sets the overall result
// explicitly; it is not derived from the four sub-checks.
const (
	QCOverallPass = "pass"
	QCOverallFail = "fail"
)

// Finishing stage status constants
const (
	StageStatusPending    = "pending"
	StageStatusInProgress = "in_progress"
	StageStatusCompleted  = "completed"
	StageStatusRejected   = "rejected"
)

// Actor role constants for privileged operations
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleTechnician = "technician"
)
