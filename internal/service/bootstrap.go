package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"ticket-office/config"
	"ticket-office/internal/auth"
	repository "ticket-office/internal/database/postgres"
	"ticket-office/internal/entity"
)

// EnsureAdmin seeds the configured admin account when the user table is
// empty, so a fresh deployment has someone able to assign roles.
func EnsureAdmin(ctx context.Context, users repository.UserRepository, cfg *config.AdminConfig) error {
	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.Email == "" || cfg.Password == "" {
		logrus.Warn("no users exist and no admin account configured")
		return nil
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	role := entity.RoleAdmin
	admin := &entity.User{
		Email:        &cfg.Email,
		PasswordHash: &hash,
		Role:         &role,
		Verified:     true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}

	logrus.WithField("email", cfg.Email).Info("seeded initial admin account")
	return nil
}
