package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veridian-id/veridian/internal/application/pushflow/usecases"
	"github.com/veridian-id/veridian/internal/domain/pushauth"
	"github.com/veridian-id/veridian/internal/shared/logger"
	"github.com/veridian-id/veridian/internal/shared/utils"
)

// PushHandler handles push authentication requests.
type PushHandler struct {
	initiateUC *usecases.InitiatePushUseCase
	respondUC  *usecases.RespondPushUseCase
	pollUC     *usecases.PollPushUseCase
	cancelUC   *usecases.CancelPendingUseCase
	logger     logger.Interface
}

func NewPushHandler(
	initiateUC *usecases.InitiatePushUseCase,
	respondUC *usecases.RespondPushUseCase,
	pollUC *usecases.PollPushUseCase,
	cancelUC *usecases.CancelPendingUseCase,
	logger logger.Interface,
) *PushHandler {
	return &PushHandler{
		initiateUC: initiateUC,
		respondUC:  respondUC,
		pollUC:     pollUC,
		cancelUC:   cancelUC,
		logger:     logger,
	}
}

// InitiatePushRequest is the request body for starting a push approval.
type InitiatePushRequest struct {
	Purpose    string `json:"purpose" binding:"required"`
	RecoveryID string `json:"recovery_id"`
	Location   string `json:"location"`
}

// InitiatePushResponse describes the created request.
type InitiatePushResponse struct {
	RequestID   string    `json:"request_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	DeviceCount int       `json:"device_count"`
}

// Initiate fans an approval request out to the user's enrolled devices
func (h *PushHandler) Initiate(c *gin.Context) {
	userID, ok := getUserID(c, h.logger)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req InitiatePushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	cmd := usecases.InitiatePushCommand{
		UserID:      userID,
		Purpose:     pushauth.Purpose(req.Purpose),
		RecoverySID: req.RecoveryID,
		IP:          c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		Location:    req.Location,
	}

	result, err := h.initiateUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", InitiatePushResponse{
		RequestID:   result.RequestID,
		ExpiresAt:   result.ExpiresAt,
		DeviceCount: result.DeviceCount,
	})
}

// RespondPushRequest is the response a device posts back. The challenge
// token proves the responder saw the notification payload.
type RespondPushRequest struct {
	Challenge string `json:"challenge" binding:"required"`
	MethodID  string `json:"method_id" binding:"required"`
	Approve   *bool  `json:"approve" binding:"required"`
}

// Respond records a device's approve or deny decision
func (h *PushHandler) Respond(c *gin.Context) {
	var req RespondPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	cmd := usecases.RespondPushCommand{
		RequestSID: c.Param("id"),
		Challenge:  req.Challenge,
		MethodSID:  req.MethodID,
		Approve:    *req.Approve,
	}

	result, err := h.respondUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"status": result.Status})
}

// Poll reports the request state to the waiting client
func (h *PushHandler) Poll(c *gin.Context) {
	var userID uint
	if id, ok := getUserID(c, h.logger); ok {
		userID = id
	}

	query := usecases.PollPushQuery{
		RequestSID: c.Param("id"),
		UserID:     userID,
	}

	result, err := h.pollUC.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"status":     result.Status,
		"purpose":    result.Purpose,
		"expires_at": result.ExpiresAt,
	})
}

// CancelPending withdraws every pending push request for the user
func (h *PushHandler) CancelPending(c *gin.Context) {
	userID, ok := getUserID(c, h.logger)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	result, err := h.cancelUC.Execute(c.Request.Context(), usecases.CancelPendingCommand{UserID: userID})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"cancelled": result.Cancelled})
}
