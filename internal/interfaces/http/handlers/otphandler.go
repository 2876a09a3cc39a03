package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veridian-id/veridian/internal/application/otpengine/usecases"
	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/shared/constants"
	"github.com/veridian-id/veridian/internal/shared/logger"
	"github.com/veridian-id/veridian/internal/shared/utils"
)

// OTPHandler handles one-time code requests for both channels.
type OTPHandler struct {
	issueUC   *usecases.IssueCodeUseCase
	verifyUC  *usecases.VerifyCodeUseCase
	canSendUC *usecases.CanSendUseCase
	logger    logger.Interface
}

func NewOTPHandler(
	issueUC *usecases.IssueCodeUseCase,
	verifyUC *usecases.VerifyCodeUseCase,
	canSendUC *usecases.CanSendUseCase,
	logger logger.Interface,
) *OTPHandler {
	return &OTPHandler{
		issueUC:   issueUC,
		verifyUC:  verifyUC,
		canSendUC: canSendUC,
		logger:    logger,
	}
}

// SendCodeRequest is the request body for issuing a code.
type SendCodeRequest struct {
	Target  string `json:"target" binding:"required"`
	Channel string `json:"channel" binding:"required"`
	Purpose string `json:"purpose" binding:"required"`
}

// SendCodeResponse reports the issued code's lifetime. The shape is the
// same whether or not the target maps to an account.
type SendCodeResponse struct {
	ExpiresAt       time.Time `json:"expires_at"`
	CooldownSeconds int       `json:"cooldown_seconds"`
}

// Send issues a fresh code for the target over the requested channel
func (h *OTPHandler) Send(c *gin.Context) {
	var req SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	var userID *uint
	if idVal, exists := c.Get(constants.ContextKeyUserID); exists {
		if id, ok := idVal.(uint); ok {
			userID = &id
		}
	}

	cmd := usecases.IssueCodeCommand{
		UserID:  userID,
		Target:  req.Target,
		Channel: otp.Channel(req.Channel),
		Purpose: otp.Purpose(req.Purpose),
	}

	result, err := h.issueUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", SendCodeResponse{
		ExpiresAt:       result.ExpiresAt,
		CooldownSeconds: result.CooldownSeconds,
	})
}

// VerifyCodeRequest is the request body for checking a candidate code.
type VerifyCodeRequest struct {
	Target  string `json:"target" binding:"required"`
	Purpose string `json:"purpose" binding:"required"`
	Code    string `json:"code" binding:"required"`
}

// Verify checks a candidate against the newest active code
func (h *OTPHandler) Verify(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	cmd := usecases.VerifyCodeCommand{
		Target:    req.Target,
		Purpose:   otp.Purpose(req.Purpose),
		Candidate: req.Code,
	}

	result, err := h.verifyUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := gin.H{"verified": true}
	if result.UserID != nil {
		resp["user_id"] = *result.UserID
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// CanSend reports whether an issue would pass the cooldown and daily cap
func (h *OTPHandler) CanSend(c *gin.Context) {
	target := c.Query("target")
	if target == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "target is required")
		return
	}

	query := usecases.CanSendQuery{
		Target:  target,
		Purpose: otp.Purpose(c.Query("purpose")),
	}

	result, err := h.canSendUC.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"allowed":             result.Allowed,
		"retry_after_seconds": result.RetryAfterSeconds,
	})
}
