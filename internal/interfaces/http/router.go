package http

import (
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	otpusecases "github.com/veridian-id/veridian/internal/application/otpengine/usecases"
	passkeyusecases "github.com/veridian-id/veridian/internal/application/passkeyflow/usecases"
	pushusecases "github.com/veridian-id/veridian/internal/application/pushflow/usecases"
	recoveryusecases "github.com/veridian-id/veridian/internal/application/recoveryflow/usecases"
	registryusecases "github.com/veridian-id/veridian/internal/application/registry/usecases"
	"github.com/veridian-id/veridian/internal/infrastructure/auth"
	"github.com/veridian-id/veridian/internal/infrastructure/config"
	"github.com/veridian-id/veridian/internal/infrastructure/notification"
	"github.com/veridian-id/veridian/internal/infrastructure/ratelimit"
	"github.com/veridian-id/veridian/internal/infrastructure/repository"
	"github.com/veridian-id/veridian/internal/interfaces/http/handlers"
	"github.com/veridian-id/veridian/internal/interfaces/http/middleware"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// Router wires the HTTP surface to the application layer.
type Router struct {
	engine          *gin.Engine
	methodHandler   *handlers.MethodHandler
	passkeyHandler  *handlers.PasskeyHandler
	pushHandler     *handlers.PushHandler
	otpHandler      *handlers.OTPHandler
	recoveryHandler *handlers.RecoveryHandler
}

// NewRouter builds the full dependency graph for the HTTP surface.
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) *Router {
	engine := gin.New()

	setupValidation()

	clk := clock.System()

	methodRepo := repository.NewAuthMethodRepository(db, log)
	challengeRepo := repository.NewPasskeyChallengeRepository(db, log)
	pushRepo := repository.NewPushRequestRepository(db, log)
	codeRepo := repository.NewOTPCodeRepository(db, log)
	recoveryRepo := repository.NewRecoveryRequestRepository(db, log)
	users := repository.NewUserDirectory(db, log)

	emailSender := notification.NewSMTPCodeSender(cfg.Email, log)
	smsSender := notification.NewHTTPSMSSender(cfg.SMS, log)
	dispatcher := notification.NewChannelDispatcher(emailSender, smsSender)
	pushSender := notification.NewHTTPPushSender(log)

	verifier := auth.NewWebAuthnSignatureVerifier()
	tokenService := auth.NewRecoveryTokenService(cfg.Auth.JWT, cfg.Auth.Recovery, clk)

	limiter := ratelimit.NewRedisRateLimiter(redisClient)
	startGate := ratelimit.NewRecoveryStartGate(limiter, cfg.Auth.Recovery)

	otpConfig := otpusecases.Config{
		CodeLength:  cfg.Auth.OTP.CodeLength,
		TTL:         time.Duration(cfg.Auth.OTP.ExpiryMinutes) * time.Minute,
		Cooldown:    time.Duration(cfg.Auth.OTP.CooldownSeconds) * time.Second,
		DailyCap:    cfg.Auth.OTP.DailyCap,
		MaxAttempts: cfg.Auth.OTP.MaxAttempts,
	}
	pushConfig := pushusecases.Config{
		RequestTTL:        time.Duration(cfg.Auth.Push.RequestTTLSeconds) * time.Second,
		MaxPending:        cfg.Auth.Push.MaxPendingRequests,
		MaxDeviceFailures: cfg.Auth.Push.MaxDeviceFailures,
	}
	recoveryConfig := recoveryusecases.Config{
		RequestTTL:      time.Duration(cfg.Auth.Recovery.RequestExpiryMinutes) * time.Minute,
		MaxStepAttempts: cfg.Auth.Recovery.MaxStepAttempts,
	}
	challengeTTL := time.Duration(cfg.Auth.Passkey.ChallengeExpiry) * time.Minute

	issueCodeUC := otpusecases.NewIssueCodeUseCase(codeRepo, dispatcher, otpConfig, clk, log)
	verifyCodeUC := otpusecases.NewVerifyCodeUseCase(codeRepo, clk, log)
	canSendUC := otpusecases.NewCanSendUseCase(codeRepo, otpConfig, clk)

	methodHandler := handlers.NewMethodHandler(
		registryusecases.NewRegisterMethodUseCase(methodRepo, clk, log),
		registryusecases.NewListMethodsUseCase(methodRepo, log),
		registryusecases.NewSetMethodEnabledUseCase(methodRepo, clk, log),
		registryusecases.NewMarkMethodVerifiedUseCase(methodRepo, clk, log),
		log,
	)

	passkeyHandler := handlers.NewPasskeyHandler(
		passkeyusecases.NewBeginCeremonyUseCase(challengeRepo, challengeTTL, clk, log),
		passkeyusecases.NewCompleteCeremonyUseCase(challengeRepo, methodRepo, verifier, clk, log),
		log,
	)

	pushHandler := handlers.NewPushHandler(
		pushusecases.NewInitiatePushUseCase(pushRepo, methodRepo, pushSender, pushConfig, clk, log),
		pushusecases.NewRespondPushUseCase(pushRepo, clk, log),
		pushusecases.NewPollPushUseCase(pushRepo, clk, log),
		pushusecases.NewCancelPendingUseCase(pushRepo, clk, log),
		log,
	)

	otpHandler := handlers.NewOTPHandler(issueCodeUC, verifyCodeUC, canSendUC, log)

	recoveryHandler := handlers.NewRecoveryHandler(
		recoveryusecases.NewStartRecoveryUseCase(recoveryRepo, methodRepo, users, startGate, issueCodeUC, recoveryConfig, clk, log),
		recoveryusecases.NewVerifyEmailStepUseCase(recoveryRepo, verifyCodeUC, issueCodeUC, clk, log),
		recoveryusecases.NewVerifySMSStepUseCase(recoveryRepo, verifyCodeUC, clk, log),
		recoveryusecases.NewResendCodeUseCase(recoveryRepo, issueCodeUC, clk, log),
		recoveryusecases.NewIssueRecoveryTokenUseCase(recoveryRepo, tokenService, clk, log),
		recoveryusecases.NewGetRecoveryStatusUseCase(recoveryRepo, clk, log),
		recoveryusecases.NewCancelRecoveryUseCase(recoveryRepo, clk, log),
		log,
	)

	router := &Router{
		engine:          engine,
		methodHandler:   methodHandler,
		passkeyHandler:  passkeyHandler,
		pushHandler:     pushHandler,
		otpHandler:      otpHandler,
		recoveryHandler: recoveryHandler,
	}

	router.setupMiddleware(cfg, log)
	router.setupRoutes()

	return router
}

// setupValidation makes binding errors report JSON field names instead of
// Go struct field names.
func setupValidation() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func (r *Router) setupMiddleware(cfg *config.Config, log logger.Interface) {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.Logger(log))
	r.engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.engine.Use(middleware.SecurityHeaders())
	r.engine.Use(middleware.Identity())
}

func (r *Router) setupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/v1/auth")

	methods := api.Group("/methods", middleware.RequireUser())
	{
		methods.POST("", r.methodHandler.Register)
		methods.GET("", r.methodHandler.List)
		methods.PUT("/:id/enabled", r.methodHandler.SetEnabled)
		methods.POST("/:id/verify", r.methodHandler.Verify)
	}

	passkey := api.Group("/passkey")
	{
		passkey.POST("/challenges", r.passkeyHandler.Begin)
		passkey.POST("/complete", r.passkeyHandler.Complete)
	}

	push := api.Group("/push")
	{
		push.POST("", middleware.RequireUser(), r.pushHandler.Initiate)
		push.POST("/:id/respond", r.pushHandler.Respond)
		push.GET("/:id", r.pushHandler.Poll)
		push.DELETE("/pending", middleware.RequireUser(), r.pushHandler.CancelPending)
	}

	otp := api.Group("/otp")
	{
		otp.POST("/send", r.otpHandler.Send)
		otp.POST("/verify", r.otpHandler.Verify)
		otp.GET("/can-send", r.otpHandler.CanSend)
	}

	recovery := api.Group("/recovery")
	{
		recovery.POST("", r.recoveryHandler.Start)
		recovery.POST("/:id/verify-email", r.recoveryHandler.VerifyEmail)
		recovery.POST("/:id/verify-sms", r.recoveryHandler.VerifySMS)
		recovery.POST("/:id/resend", r.recoveryHandler.Resend)
		recovery.POST("/:id/token", r.recoveryHandler.IssueToken)
		recovery.GET("/:id", r.recoveryHandler.Status)
		recovery.DELETE("/:id", r.recoveryHandler.Cancel)
	}
}

// Engine exposes the underlying gin engine for serving and tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server on the given address.
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
