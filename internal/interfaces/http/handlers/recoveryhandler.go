package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veridian-id/veridian/internal/application/recoveryflow/usecases"
	"github.com/veridian-id/veridian/internal/shared/logger"
	"github.com/veridian-id/veridian/internal/shared/utils"
)

// RecoveryHandler handles account recovery requests. All endpoints are
// anonymous; the request ID returned by Start is the only capability the
// client holds.
type RecoveryHandler struct {
	startUC       *usecases.StartRecoveryUseCase
	verifyEmailUC *usecases.VerifyEmailStepUseCase
	verifySMSUC   *usecases.VerifySMSStepUseCase
	resendUC      *usecases.ResendCodeUseCase
	tokenUC       *usecases.IssueRecoveryTokenUseCase
	statusUC      *usecases.GetRecoveryStatusUseCase
	cancelUC      *usecases.CancelRecoveryUseCase
	logger        logger.Interface
}

func NewRecoveryHandler(
	startUC *usecases.StartRecoveryUseCase,
	verifyEmailUC *usecases.VerifyEmailStepUseCase,
	verifySMSUC *usecases.VerifySMSStepUseCase,
	resendUC *usecases.ResendCodeUseCase,
	tokenUC *usecases.IssueRecoveryTokenUseCase,
	statusUC *usecases.GetRecoveryStatusUseCase,
	cancelUC *usecases.CancelRecoveryUseCase,
	logger logger.Interface,
) *RecoveryHandler {
	return &RecoveryHandler{
		startUC:       startUC,
		verifyEmailUC: verifyEmailUC,
		verifySMSUC:   verifySMSUC,
		resendUC:      resendUC,
		tokenUC:       tokenUC,
		statusUC:      statusUC,
		cancelUC:      cancelUC,
		logger:        logger,
	}
}

// StartRecoveryRequest is the request body for starting recovery.
type StartRecoveryRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// StartRecoveryResponse acknowledges the start. Unknown emails get the
// same shape, so the endpoint cannot be used to probe for accounts.
type StartRecoveryResponse struct {
	RequestID string    `json:"request_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Start opens a recovery request for the given email
func (h *RecoveryHandler) Start(c *gin.Context) {
	var req StartRecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	cmd := usecases.StartRecoveryCommand{
		Email:     req.Email,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	result, err := h.startUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", StartRecoveryResponse{
		RequestID: result.RequestID,
		ExpiresAt: result.ExpiresAt,
	})
}

// VerifyStepRequest is the request body for both verification steps.
type VerifyStepRequest struct {
	Code string `json:"code" binding:"required"`
}

// VerifyEmail confirms the email step of a recovery request
func (h *RecoveryHandler) VerifyEmail(c *gin.Context) {
	var req VerifyStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	cmd := usecases.VerifyEmailStepCommand{
		RequestSID: c.Param("id"),
		Code:       req.Code,
	}

	result, err := h.verifyEmailUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := gin.H{
		"status": result.Status,
		"ready":  result.Ready,
	}
	if result.PhoneHint != "" {
		resp["phone_hint"] = result.PhoneHint
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// VerifySMS confirms the SMS step of a recovery request
func (h *RecoveryHandler) VerifySMS(c *gin.Context) {
	var req VerifyStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	cmd := usecases.VerifySMSStepCommand{
		RequestSID: c.Param("id"),
		Code:       req.Code,
	}

	result, err := h.verifySMSUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"status": result.Status,
		"ready":  result.Ready,
	})
}

// ResendCodeRequest is the request body for re-sending a step's code.
type ResendCodeRequest struct {
	Step string `json:"step" binding:"required,oneof=email sms"`
}

// Resend issues a fresh code for the current step and resets its attempts
func (h *RecoveryHandler) Resend(c *gin.Context) {
	var req ResendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	cmd := usecases.ResendCodeCommand{
		RequestSID: c.Param("id"),
		Step:       req.Step,
	}

	result, err := h.resendUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"expires_at":       result.ExpiresAt,
		"cooldown_seconds": result.CooldownSeconds,
	})
}

// IssueToken exchanges a fully verified request for the recovery token
func (h *RecoveryHandler) IssueToken(c *gin.Context) {
	cmd := usecases.IssueRecoveryTokenCommand{
		RequestSID: c.Param("id"),
	}

	result, err := h.tokenUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
	})
}

// Status reports the request state
func (h *RecoveryHandler) Status(c *gin.Context) {
	query := usecases.GetRecoveryStatusQuery{
		RequestSID: c.Param("id"),
	}

	status, err := h.statusUC.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", status)
}

// Cancel withdraws an active recovery request
func (h *RecoveryHandler) Cancel(c *gin.Context) {
	cmd := usecases.CancelRecoveryCommand{
		RequestSID: c.Param("id"),
	}

	if err := h.cancelUC.Execute(c.Request.Context(), cmd); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.NoContentResponse(c)
}
