package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veridian-id/veridian/internal/application/passkeyflow/usecases"
	"github.com/veridian-id/veridian/internal/domain/passkey"
	"github.com/veridian-id/veridian/internal/shared/constants"
	"github.com/veridian-id/veridian/internal/shared/logger"
	"github.com/veridian-id/veridian/internal/shared/utils"
)

// PasskeyHandler handles WebAuthn challenge requests.
type PasskeyHandler struct {
	beginUC    *usecases.BeginCeremonyUseCase
	completeUC *usecases.CompleteCeremonyUseCase
	logger     logger.Interface
}

func NewPasskeyHandler(
	beginUC *usecases.BeginCeremonyUseCase,
	completeUC *usecases.CompleteCeremonyUseCase,
	logger logger.Interface,
) *PasskeyHandler {
	return &PasskeyHandler{
		beginUC:    beginUC,
		completeUC: completeUC,
		logger:     logger,
	}
}

// BeginCeremonyRequest is the request body for starting a ceremony.
type BeginCeremonyRequest struct {
	Purpose   string `json:"purpose" binding:"required"`
	SessionID string `json:"session_id"`
}

// BeginCeremonyResponse carries the challenge the client must sign.
type BeginCeremonyResponse struct {
	ChallengeID string    `json:"challenge_id"`
	Challenge   string    `json:"challenge"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Begin issues a single-use challenge for a registration or authentication
// ceremony. Authentication challenges may be anonymous for discoverable
// credentials.
func (h *PasskeyHandler) Begin(c *gin.Context) {
	var req BeginCeremonyRequest
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

	cmd := usecases.BeginCeremonyCommand{
		Purpose:   passkey.Purpose(req.Purpose),
		UserID:    userID,
		SessionID: req.SessionID,
	}

	result, err := h.beginUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", BeginCeremonyResponse{
		ChallengeID: result.ChallengeID,
		Challenge:   result.Challenge,
		ExpiresAt:   result.ExpiresAt,
	})
}

// CompleteCeremonyRequest is the assertion the authenticator produced,
// base64url encoded by the client.
type CompleteCeremonyRequest struct {
	Challenge         string `json:"challenge" binding:"required"`
	CredentialID      string `json:"credential_id" binding:"required"`
	AuthenticatorData string `json:"authenticator_data" binding:"required"`
	ClientDataJSON    string `json:"client_data_json" binding:"required"`
	Signature         string `json:"signature" binding:"required"`
}

// CompleteCeremonyResponse identifies who authenticated.
type CompleteCeremonyResponse struct {
	UserID   uint   `json:"user_id"`
	MethodID string `json:"method_id"`
	Purpose  string `json:"purpose"`
}

// Complete verifies an assertion and consumes the challenge
func (h *PasskeyHandler) Complete(c *gin.Context) {
	var req CompleteCeremonyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	credentialID, err := decodeBase64(req.CredentialID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid credential ID encoding")
		return
	}
	authenticatorData, err := decodeBase64(req.AuthenticatorData)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid authenticator data encoding")
		return
	}
	clientDataJSON, err := decodeBase64(req.ClientDataJSON)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid client data encoding")
		return
	}
	signature, err := decodeBase64(req.Signature)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid signature encoding")
		return
	}

	cmd := usecases.CompleteCeremonyCommand{
		ChallengeValue:    req.Challenge,
		CredentialID:      credentialID,
		AuthenticatorData: authenticatorData,
		ClientDataJSON:    clientDataJSON,
		Signature:         signature,
	}

	result, err := h.completeUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", CompleteCeremonyResponse{
		UserID:   result.UserID,
		MethodID: result.MethodSID,
		Purpose:  string(result.Purpose),
	})
}
