package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veridian-id/veridian/internal/application/registry/usecases"
	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/shared/logger"
	"github.com/veridian-id/veridian/internal/shared/utils"
)

// MethodHandler handles authentication method registry requests.
type MethodHandler struct {
	registerUC   *usecases.RegisterMethodUseCase
	listUC       *usecases.ListMethodsUseCase
	setEnabledUC *usecases.SetMethodEnabledUseCase
	verifyUC     *usecases.MarkMethodVerifiedUseCase
	logger       logger.Interface
}

func NewMethodHandler(
	registerUC *usecases.RegisterMethodUseCase,
	listUC *usecases.ListMethodsUseCase,
	setEnabledUC *usecases.SetMethodEnabledUseCase,
	verifyUC *usecases.MarkMethodVerifiedUseCase,
	logger logger.Interface,
) *MethodHandler {
	return &MethodHandler{
		registerUC:   registerUC,
		listUC:       listUC,
		setEnabledUC: setEnabledUC,
		verifyUC:     verifyUC,
		logger:       logger,
	}
}

// RegisterMethodRequest is the request body for enrolling a method.
type RegisterMethodRequest struct {
	Variant     string             `json:"variant" binding:"required"`
	DisplayName string             `json:"display_name"`
	Payload     authmethod.Payload `json:"payload" binding:"required"`
}

// Register enrolls a new authentication method for the current user
func (h *MethodHandler) Register(c *gin.Context) {
	userID, ok := getUserID(c, h.logger)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req RegisterMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	cmd := usecases.RegisterMethodCommand{
		UserID:      userID,
		Variant:     authmethod.Variant(req.Variant),
		DisplayName: req.DisplayName,
		Payload:     req.Payload,
	}

	result, err := h.registerUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result.Method, "authentication method registered")
}

// List returns the current user's authentication methods
func (h *MethodHandler) List(c *gin.Context) {
	userID, ok := getUserID(c, h.logger)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	query := usecases.ListMethodsQuery{
		UserID:      userID,
		Variant:     authmethod.Variant(c.Query("variant")),
		EnabledOnly: c.Query("enabled_only") == "true",
	}

	methods, err := h.listUC.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"methods": methods})
}

// SetEnabledRequest is the request body for toggling a method.
type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetEnabled enables or disables a method without deleting the enrollment
func (h *MethodHandler) SetEnabled(c *gin.Context) {
	userID, ok := getUserID(c, h.logger)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	cmd := usecases.SetMethodEnabledCommand{
		UserID:    userID,
		MethodSID: c.Param("id"),
		Enabled:   *req.Enabled,
	}

	method, err := h.setEnabledUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", method)
}

// Verify records a passed ownership proof for the method
func (h *MethodHandler) Verify(c *gin.Context) {
	userID, ok := getUserID(c, h.logger)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	cmd := usecases.MarkMethodVerifiedCommand{
		UserID:    userID,
		MethodSID: c.Param("id"),
	}

	method, err := h.verifyUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", method)
}
