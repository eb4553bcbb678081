package handlers

import (
	"errors"
	"io"
	"strings"

	"teambuilder/internal/services"
	"teambuilder/internal/utils"
	"teambuilder/internal/validators"

	"github.com/gin-gonic/gin"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(teamService services.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// Recalculate starts a team count run in the background
func (h *TeamHandler) Recalculate(c *gin.Context) {
	var request validators.RecalculateRequest
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	runID, err := h.teamService.Start(c.Request.Context(), services.RecalculateOptions{DryRun: request.DryRun})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.AcceptedResponse(c, "Team count run started", gin.H{"run_id": runID, "dry_run": request.DryRun})
}

func (h *TeamHandler) GetLastRun(c *gin.Context) {
	run, err := h.teamService.GetLastRun(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Last run retrieved successfully", run)
}

func (h *TeamHandler) ListReports(c *gin.Context) {
	reports, err := h.teamService.ListReports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Reports retrieved successfully", reports, &utils.Meta{Count: len(reports)})
}

func (h *TeamHandler) GetReport(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	report, err := h.teamService.GetReport(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Report retrieved successfully", report)
}
