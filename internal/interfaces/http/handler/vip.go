package handler

import (
	"strconv"

	vipapp "github.com/clinic/backend/internal/application/vip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VIPHandler handles VIP candidate and designation API endpoints
type VIPHandler struct {
	BaseHandler
	candidateService   *vipapp.CandidateService
	designationService *vipapp.DesignationService
}

// NewVIPHandler creates a new VIPHandler
func NewVIPHandler(candidateService *vipapp.CandidateService, designationService *vipapp.DesignationService) *VIPHandler {
	return &VIPHandler{
		candidateService:   candidateService,
		designationService: designationService,
	}
}

// AddDesignationRequest represents a request to designate a patient
type AddDesignationRequest struct {
	PatientID string  `json:"patient_id" binding:"required,uuid"`
	Year      int     `json:"year" binding:"required,min=1990,max=2200"`
	Grade     string  `json:"grade" binding:"required,oneof=standard premium"`
	Reason    string  `json:"reason" binding:"max=2000"`
	Score     float64 `json:"score" binding:"gte=0"`
}

// SetGradeRequest represents a request to toggle a designation's grade
type SetGradeRequest struct {
	Grade string `json:"grade" binding:"required,oneof=standard premium"`
}

// BatchCommitItem is one candidate approved for commit
type BatchCommitItem struct {
	PatientID string  `json:"patient_id" binding:"required,uuid"`
	Grade     string  `json:"grade" binding:"required,oneof=standard premium"`
	Reason    string  `json:"reason" binding:"max=2000"`
	Score     float64 `json:"score" binding:"gte=0"`
}

// BatchCommitRequest represents a request to commit a reviewed candidate list
type BatchCommitRequest struct {
	Year       int               `json:"year" binding:"required,min=1990,max=2200"`
	Candidates []BatchCommitItem `json:"candidates" binding:"required,min=1,max=500,dive"`
}

// GenerateCandidates computes the ranked candidate list for a year.
// The run is a pure read; nothing is persisted until candidates are committed.
func (h *VIPHandler) GenerateCandidates(c *gin.Context) {
	var req vipapp.GenerateCandidatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	candidates, err := h.candidateService.Generate(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, candidates)
}

// AddDesignation creates or overwrites a single designation
func (h *VIPHandler) AddDesignation(c *gin.Context) {
	var req AddDesignationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		h.BadRequest(c, "Invalid patient ID")
		return
	}

	resp, err := h.designationService.Add(c.Request.Context(), vipapp.AddDesignationRequest{
		PatientID: patientID,
		Year:      req.Year,
		Grade:     req.Grade,
		Reason:    req.Reason,
		Score:     req.Score,
		Actor:     getActor(c),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// SetGrade toggles an existing designation between standard and premium
func (h *VIPHandler) SetGrade(c *gin.Context) {
	patientID, year, ok := h.designationKey(c)
	if !ok {
		return
	}

	var req SetGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.designationService.SetGrade(c.Request.Context(), patientID, year, req.Grade)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// RemoveDesignation deletes a designation
func (h *VIPHandler) RemoveDesignation(c *gin.Context) {
	patientID, year, ok := h.designationKey(c)
	if !ok {
		return
	}

	if err := h.designationService.Remove(c.Request.Context(), patientID, year); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// BatchCommit commits a reviewed candidate list, one designation per item.
// Item failures are reported per item; the batch itself always returns 200.
func (h *VIPHandler) BatchCommit(c *gin.Context) {
	var req BatchCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	candidates := make([]vipapp.CommitCandidate, 0, len(req.Candidates))
	for _, item := range req.Candidates {
		patientID, err := uuid.Parse(item.PatientID)
		if err != nil {
			h.BadRequest(c, "Invalid patient ID: "+item.PatientID)
			return
		}
		candidates = append(candidates, vipapp.CommitCandidate{
			PatientID: patientID,
			Grade:     item.Grade,
			Reason:    item.Reason,
			Score:     item.Score,
		})
	}

	result := h.designationService.BatchCommit(c.Request.Context(), req.Year, getActor(c), candidates)
	h.Success(c, result)
}

// ListByYear lists all designations for a year with patient details and history
func (h *VIPHandler) ListByYear(c *gin.Context) {
	yearStr := c.Query("year")
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1990 || year > 2200 {
		h.BadRequest(c, "Invalid or missing year parameter")
		return
	}

	items, err := h.designationService.ListByYear(c.Request.Context(), year)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// History returns every designation one patient has ever held
func (h *VIPHandler) History(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		h.BadRequest(c, "Invalid patient ID")
		return
	}

	history, err := h.designationService.History(c.Request.Context(), patientID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, history)
}

// designationKey parses the patient ID and year path params
func (h *VIPHandler) designationKey(c *gin.Context) (uuid.UUID, int, bool) {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		h.BadRequest(c, "Invalid patient ID")
		return uuid.Nil, 0, false
	}
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.BadRequest(c, "Invalid year")
		return uuid.Nil, 0, false
	}
	return patientID, year, true
}
