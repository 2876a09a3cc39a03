package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	otpusecases "github.com/veridian-id/veridian/internal/application/otpengine/usecases"
	passkeyusecases "github.com/veridian-id/veridian/internal/application/passkeyflow/usecases"
	pushusecases "github.com/veridian-id/veridian/internal/application/pushflow/usecases"
	recoveryusecases "github.com/veridian-id/veridian/internal/application/recoveryflow/usecases"
	"github.com/veridian-id/veridian/internal/infrastructure/config"
	"github.com/veridian-id/veridian/internal/infrastructure/database"
	"github.com/veridian-id/veridian/internal/infrastructure/repository"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

const sweepInterval = time.Minute

// The worker expires what the request path no longer touches. Every sweep
// is a conditional update or delete, so overlapping runs are harmless.
func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger()
	log.Infow("starting sweep worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	clk := clock.System()
	db := database.Get()

	codeRepo := repository.NewOTPCodeRepository(db, log)
	challengeRepo := repository.NewPasskeyChallengeRepository(db, log)
	pushRepo := repository.NewPushRequestRepository(db, log)
	recoveryRepo := repository.NewRecoveryRequestRepository(db, log)

	sweeps := []struct {
		name string
		run  func(context.Context) (int64, error)
	}{
		{"otp_codes", otpusecases.NewCleanupExpiredUseCase(codeRepo, clk, log).Execute},
		{"passkey_challenges", passkeyusecases.NewSweepChallengesUseCase(challengeRepo, clk, log).Execute},
		{"push_requests", pushusecases.NewSweepExpiredUseCase(pushRepo, clk, log).Execute},
		{"recovery_requests", recoveryusecases.NewSweepExpiredUseCase(recoveryRepo, clk, log).Execute},
	}

	runSweeps := func(ctx context.Context) {
		for _, sweep := range sweeps {
			count, err := sweep.run(ctx)
			if err != nil {
				log.Errorw("sweep failed", "sweep", sweep.name, "error", err)
				continue
			}
			if count > 0 {
				log.Infow("sweep completed", "sweep", sweep.name, "affected", count)
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	log.Infow("running initial sweep")
	runSweeps(ctx)

	log.Infow("sweep worker started", "interval", sweepInterval.String())

	for {
		select {
		case <-ticker.C:
			runSweeps(ctx)

		case sig := <-sigChan:
			log.Infow("received signal, shutting down", "signal", sig)

			finalCtx, finalCancel := context.WithTimeout(context.Background(), 30*time.Second)
			runSweeps(finalCtx)
			finalCancel()

			log.Infow("sweep worker stopped")
			return
		}
	}
}
