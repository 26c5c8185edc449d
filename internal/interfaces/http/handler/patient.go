package handler

import (
	patientapp "github.com/clinic/backend/internal/application/patient"
	"github.com/clinic/backend/internal/domain/shared"
	"github.com/clinic/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PatientHandler handles patient roster API endpoints
type PatientHandler struct {
	BaseHandler
	patientService *patientapp.PatientService
}

// NewPatientHandler creates a new PatientHandler
func NewPatientHandler(patientService *patientapp.PatientService) *PatientHandler {
	return &PatientHandler{patientService: patientService}
}

// ListPatientsRequest represents the patient listing query parameters
type ListPatientsRequest struct {
	dto.ListRequest
	Status        string `form:"status" binding:"omitempty,oneof=active inactive"`
	HouseholdCode string `form:"household_code"`
	VIPGrade      string `form:"vip_grade" binding:"omitempty,oneof=standard premium"`
}

// List returns patients matching the query
func (h *PatientHandler) List(c *gin.Context) {
	req := ListPatientsRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
		Filters:  map[string]any{},
	}
	if req.Status != "" {
		filter.Filters["status"] = req.Status
	}
	if req.HouseholdCode != "" {
		filter.Filters["household_code"] = req.HouseholdCode
	}
	if req.VIPGrade != "" {
		filter.Filters["vip_grade"] = req.VIPGrade
	}

	patients, total, err := h.patientService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, patients, total, req.Page, req.PageSize)
}

// Get returns one patient by ID
func (h *PatientHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid patient ID")
		return
	}

	patient, err := h.patientService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, patient)
}
