package persistence

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/exam-service/internal/auth"
	"github.com/spec-kit/exam-service/internal/config"
	"github.com/spec-kit/exam-service/internal/domain"
	"github.com/spec-kit/exam-service/internal/repository"
)

const examSeedFile = "seeds/exam_seed.sql"

// SeedAdmin creates the configured admin account on startup. It is skipped
// when disabled, when no password is configured, or when the username or
// email is already taken.
func SeedAdmin(ctx context.Context, users repository.UserRepository, hasher auth.PasswordHasher, cfg config.SeedConfig, logger *zap.Logger) error {
	if !cfg.AdminEnabled {
		return nil
	}
	if cfg.AdminPassword == "" {
		logger.Warn("SEED_ADMIN_PASSWORD not set; skipping admin seed")
		return nil
	}

	usernameTaken, err := users.ExistsByUsername(ctx, cfg.AdminUsername)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	emailTaken, err := users.ExistsByEmail(ctx, cfg.AdminEmail)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if usernameTaken || emailTaken {
		return nil
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	id, err := users.NextAvailableID(ctx)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	admin := &domain.User{
		ID:           id,
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	logger.Info("seeded admin account", zap.String("username", cfg.AdminUsername))
	return nil
}

// SeedExams loads the exam seed file when the exam table is empty.
func SeedExams(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping exam seed")
		return nil
	}

	var count int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam`).Scan(&count); err != nil {
		return fmt.Errorf("count exam rows: %w", err)
	}
	if count > 0 {
		logger.Info("exam table already has data; skipping seed", zap.Int64("rows", count))
		return nil
	}

	content, err := os.ReadFile(examSeedFile)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("exam seed file not found; skipping", zap.String("file", examSeedFile))
			return nil
		}
		return fmt.Errorf("read exam seed: %w", err)
	}

	if _, err := pool.Exec(ctx, string(content)); err != nil {
		return fmt.Errorf("apply exam seed: %w", err)
	}

	logger.Info("seeded exam data", zap.String("file", examSeedFile))
	return nil
}
