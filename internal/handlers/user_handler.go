package handlers

import (
	"strings"

	"teambuilder/internal/middleware"
	"teambuilder/internal/services"
	"teambuilder/internal/utils"
	"teambuilder/internal/validators"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetMyDownline returns everyone referred directly or indirectly by the caller
func (h *UserHandler) GetMyDownline(c *gin.Context) {
	downline, err := h.userService.GetDownline(c.Request.Context(), middleware.CurrentUID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Downline retrieved successfully", downline.Members, &utils.Meta{Count: downline.Count})
}

// GetProfile looks a profile up by email. Admins may query another user via
// the X-User-Email header; everyone else gets their own profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	email := middleware.CurrentEmail(c)
	if other := strings.TrimSpace(c.GetHeader(utils.HeaderUserEmail)); other != "" && other != email {
		if !middleware.IsAdmin(c) {
			utils.ForbiddenResponse(c)
			return
		}
		email = other
	}
	if email == "" {
		utils.BadRequestResponse(c, "No email associated with this account")
		return
	}

	user, err := h.userService.GetProfileByEmail(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("uid"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "User retrieved successfully", user)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var request validators.CreateUserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateCreateUser(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, validationDetails(errs))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), &request)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, "User created successfully", user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var request validators.UpdateUserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateUpdateUser(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, validationDetails(errs))
		return
	}

	if err := h.userService.UpdateUser(c.Request.Context(), c.Param("uid"), request.Fields); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "User updated successfully", gin.H{"uid": c.Param("uid")})
}

func (h *UserHandler) IncrementField(c *gin.Context) {
	var request validators.IncrementFieldRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, validationDetails(errs))
		return
	}

	if err := h.userService.IncrementField(c.Request.Context(), c.Param("uid"), request.Field); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Field incremented successfully", gin.H{"uid": c.Param("uid"), "field": request.Field})
}
