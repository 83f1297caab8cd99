package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/application/service"
	appwf "github.com/dentalworks/labflow/internal/application/workflow"
	"github.com/dentalworks/labflow/internal/domain/entity"
	domainwf "github.com/dentalworks/labflow/internal/domain/workflow"
)

// actorHeader identifies the requesting user on endpoints whose body
// has no operator field. Authentication proper sits in front of this
// service.
const actorHeader = "X-Actor-ID"

func (s *Server) handleCreateCase(c *gin.Context) {
	var input entity.CreateCaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	created, err := s.services.Cases.CreateCase(c.Request.Context(), input)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleListCases(c *gin.Context) {
	// An exact case-number lookup short-circuits the filter query; the
	// number is what front desk reads off the work ticket.
	if number := c.Query("case_number"); number != "" {
		found, err := s.services.Cases.GetCaseByNumber(c.Request.Context(), number)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cases": []*entity.DentalCase{found}, "count": 1})
		return
	}

	filter := entity.CaseFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}

	cases, err := s.services.Cases.ListCases(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases, "count": len(cases)})
}

func (s *Server) handleGetCase(c *gin.Context) {
	found, err := s.services.Cases.GetCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (s *Server) handleGetHistory(c *gin.Context) {
	entries, err := s.services.Cases.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries, "count": len(entries)})
}

func (s *Server) handleUpdateExpectedDelivery(c *gin.Context) {
	var req struct {
		ExpectedDeliveryDate time.Time `json:"expected_delivery_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := s.services.Cases.UpdateExpectedDelivery(c.Request.Context(), c.Param("id"), req.ExpectedDeliveryDate); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (s *Server) handleSaveDepartmentData(c *gin.Context) {
	dept := c.Param("dept")
	if !entity.ValidDepartments[dept] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown department %q", dept)})
		return
	}

	var partial map[string]interface{}
	if err := c.ShouldBindJSON(&partial); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	updated, err := s.services.Cases.UpdateDepartmentData(
		c.Request.Context(), c.Param("id"), dept, partial, c.GetHeader(actorHeader))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// handleCompleteDepartmentWork dispatches the completion to the owning
// department service; each one validates its own input shape.
func (s *Server) handleCompleteDepartmentWork(c *gin.Context) {
	ctx := c.Request.Context()
	caseID := c.Param("id")

	var (
		updated *entity.DentalCase
		err     error
	)

	switch dept := c.Param("dept"); dept {
	case entity.DepartmentCAD:
		var input service.CADInput
		if bindErr := c.ShouldBindJSON(&input); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + bindErr.Error()})
			return
		}
		updated, err = s.services.CAD.CompleteWork(ctx, caseID, input)

	case entity.DepartmentCAM:
		var input service.CAMInput
		if bindErr := c.ShouldBindJSON(&input); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + bindErr.Error()})
			return
		}
		updated, err = s.services.CAM.CompleteWork(ctx, caseID, input)

	case entity.DepartmentFinishing:
		var input service.FinishingInput
		if bindErr := c.ShouldBindJSON(&input); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + bindErr.Error()})
			return
		}
		updated, err = s.services.Finishing.CompleteWork(ctx, caseID, input)

	case entity.DepartmentRemovable:
		var input service.RemovableInput
		if bindErr := c.ShouldBindJSON(&input); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + bindErr.Error()})
			return
		}
		updated, err = s.services.Removable.CompleteWork(ctx, caseID, input)

	case entity.DepartmentQC:
		var input service.QCInput
		if bindErr := c.ShouldBindJSON(&input); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + bindErr.Error()})
			return
		}
		updated, err = s.services.QC.CompleteInspection(ctx, caseID, input)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown department %q", dept)})
		return
	}

	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleTransferCase(c *gin.Context) {
	var req struct {
		ToStatus        string `json:"to_status" binding:"required"`
		Notes           string `json:"notes"`
		RejectionReason string `json:"rejection_reason"`
		ActorID         string `json:"actor_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	updated, err := s.services.Engine.TransferCase(c.Request.Context(), c.Param("id"),
		domainwf.State(req.ToStatus), appwf.TransferOptions{
			Notes:           req.Notes,
			RejectionReason: req.RejectionReason,
			ActorID:         req.ActorID,
		})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleForceStatus(c *gin.Context) {
	var req struct {
		ToStatus  string `json:"to_status" binding:"required"`
		ActorID   string `json:"actor_id" binding:"required"`
		ActorRole string `json:"actor_role" binding:"required"`
		Notes     string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	updated, err := s.services.Engine.ForceStatus(c.Request.Context(), c.Param("id"),
		domainwf.State(req.ToStatus), req.ActorID, req.ActorRole, req.Notes)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handlePauseCase(c *gin.Context) {
	var req struct {
		Reason  string `json:"reason"`
		ActorID string `json:"actor_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	updated, err := s.services.Removable.Pause(c.Request.Context(), c.Param("id"), req.Reason, req.ActorID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleResumeCase(c *gin.Context) {
	var req struct {
		ActorID   string `json:"actor_id" binding:"required"`
		ActorRole string `json:"actor_role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	updated, err := s.services.Removable.Resume(c.Request.Context(), c.Param("id"), req.ActorID, req.ActorRole)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type stageRequest struct {
	Operator service.Operator `json:"operator"`
	Notes    string           `json:"notes"`
}

func (s *Server) handleStartStage(c *gin.Context) {
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	updated, err := s.services.Finishing.StartStage(c.Request.Context(), c.Param("id"), c.Param("stage"), req.Operator)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleCompleteStage(c *gin.Context) {
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	updated, err := s.services.Finishing.CompleteStage(c.Request.Context(), c.Param("id"), c.Param("stage"), req.Operator, req.Notes)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleRejectStage(c *gin.Context) {
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	updated, err := s.services.Finishing.RejectStage(c.Request.Context(), c.Param("id"), c.Param("stage"), req.Operator, req.Notes)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleCompleteInspection(c *gin.Context) {
	var input service.QCInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	updated, err := s.services.QC.CompleteInspection(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleAccountingReport(c *gin.Context) {
	data, err := s.services.Reports.Export(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	filename := fmt.Sprintf("accounting_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (s *Server) handleRegisterDoctor(c *gin.Context) {
	var req struct {
		ID     string `json:"id" binding:"required"`
		Name   string `json:"name" binding:"required"`
		Clinic string `json:"clinic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := s.services.Doctors.RegisterDoctor(c.Request.Context(), req.ID, req.Name, req.Clinic); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "registered"})
}

func (s *Server) handleAddStock(c *gin.Context) {
	var req struct {
		ID       string `json:"id" binding:"required"`
		Name     string `json:"name" binding:"required"`
		Material string `json:"material"`
		Quantity int    `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := s.services.Inventory.AddStock(c.Request.Context(), req.ID, req.Name, req.Material, req.Quantity); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "stocked"})
}

// writeError maps service errors onto HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	var verr *entity.ValidationError

	var status int
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
		return
	case errors.Is(err, port.ErrCaseNotFound), errors.Is(err, port.ErrDoctorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domainwf.ErrInvalidTransition),
		errors.Is(err, domainwf.ErrCasePaused),
		errors.Is(err, domainwf.ErrCaseConflict):
		status = http.StatusConflict
	case errors.Is(err, domainwf.ErrRejectionReasonRequired),
		errors.Is(err, domainwf.ErrInvalidState):
		status = http.StatusBadRequest
	case errors.Is(err, port.ErrInsufficientStock):
		status = http.StatusUnprocessableEntity
	default:
		s.logger.Error("unhandled request error", zap.Error(err))
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
