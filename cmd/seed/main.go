// Command seed inserts a development admin and a few sample users.
// Existing emails are left untouched.
package main

import (
	"context"
	"errors"

	"acquisitions/internal/config"
	"acquisitions/internal/db"
	apperrors "acquisitions/internal/errors"
	"acquisitions/internal/model"
	"acquisitions/internal/repository"
	"acquisitions/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	name     string
	email    string
	password string
	role     string
}

var seedUsers = []seedUser{
	{"Admin", "admin@acquisitions.local", "admin123", model.RoleAdmin},
	{"Alice Example", "alice@example.com", "password123", model.RoleUser},
	{"Bob Example", "bob@example.com", "password123", model.RoleUser},
}

func main() {
	ctx := context.Background()
	log := logger.New("info", true)

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}

	gormDB, err := db.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database init")
	}
	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatal().Err(err).Msg("auto-migrate")
	}

	repo := repository.NewUserRepository(gormDB)

	for _, s := range seedUsers {
		hashed, err := bcrypt.GenerateFromPassword([]byte(s.password), 10)
		if err != nil {
			log.Fatal().Err(err).Msg("hash password")
		}

		user := &model.User{
			Name:         s.name,
			Email:        s.email,
			PasswordHash: string(hashed),
			Role:         s.role,
		}
		if err := repo.Create(ctx, user); err != nil {
			if errors.Is(err, apperrors.ErrEmailTaken) {
				log.Info().Str("email", s.email).Msg("already seeded, skipping")
				continue
			}
			log.Fatal().Err(err).Str("email", s.email).Msg("seed user")
		}
		log.Info().Str("email", s.email).Str("role", s.role).Msg("seeded user")
	}
}
