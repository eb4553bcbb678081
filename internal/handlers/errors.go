package handlers

import (
	"errors"

	"teambuilder/internal/repositories/interfaces"
	"teambuilder/internal/services"
	"teambuilder/internal/team"
	"teambuilder/internal/utils"
	"teambuilder/internal/validators"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto API responses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, interfaces.ErrUserNotFound):
		utils.NotFoundResponse(c, "user")
	case errors.Is(err, services.ErrReportNotFound):
		utils.NotFoundResponse(c, "report")
	case errors.Is(err, services.ErrNoRunRecorded):
		utils.NotFoundResponse(c, "team count run")
	case errors.Is(err, services.ErrRunInProgress):
		utils.ConflictResponse(c, utils.ErrRunInProgress)
	case errors.Is(err, services.ErrDerivedField), errors.Is(err, services.ErrInvalidInput):
		utils.BadRequestResponse(c, err.Error())
	case errors.Is(err, interfaces.ErrStoreUnavailable), errors.Is(err, team.ErrSourceUnavailable):
		utils.ServiceUnavailableResponse(c, utils.ErrStoreUnavailable)
	default:
		// logged by the request logger, never sent to the client
		_ = c.Error(err)
		utils.InternalServerErrorResponse(c)
	}
}

func validationDetails(errs validators.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, e := range errs {
		details[e.Field] = e.Message
	}
	return details
}
