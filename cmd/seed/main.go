// Command seed fills a development database with users, handles and
// published creations. Never point it at production.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"imaginarium/internal/config"
	"imaginarium/internal/database"
	"imaginarium/internal/logger"
	"imaginarium/internal/model"
	"imaginarium/internal/repository"
)

const demoPassword = "password123"

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numCreations := flag.Int("creations", 60, "Number of creations to create")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New("imaginarium-seed", cfg.AppEnv)

	if err := run(context.Background(), cfg, log, *numUsers, *numCreations); err != nil {
		log.WithError(err).Fatal("seed failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger, numUsers, numCreations int) error {
	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db, log); err != nil {
		return err
	}

	users := repository.NewUserRepository(db)
	images := repository.NewImageRepository(db)
	creations := repository.NewCreationRepository(db)
	likes := repository.NewLikeRepository(db)
	comments := repository.NewCommentRepository(db)

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	hashed := string(hash)

	userIDs := make([]int64, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		u := &model.User{
			Name:          gofakeit.Name(),
			Email:         gofakeit.Email(),
			PasswordHash:  &hashed,
			ProfileURL:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
			FreeTokens:    5,
			PremiumTokens: gofakeit.Number(0, 20),
		}
		if err := users.Create(ctx, u); err != nil {
			return err
		}
		handle := strings.ToLower(gofakeit.Username()) + fmt.Sprint(u.ID)
		if err := users.ClaimHandle(ctx, u.ID, handle); err != nil {
			log.WithError(err).WithField("handle", handle).Warn("skipping handle")
		}
		userIDs = append(userIDs, u.ID)
	}
	log.WithField("count", len(userIDs)).Info("users created")

	if len(userIDs) == 0 {
		return nil
	}

	styles := model.StyleCategories()
	for i := 0; i < numCreations; i++ {
		ownerID := userIDs[rand.IntN(len(userIDs))]
		style := styles[rand.IntN(len(styles))]
		prompt := model.ApplyStyle(string(style), gofakeit.HipsterSentence(6))

		img := &model.Image{
			Prompt:    prompt,
			UserID:    ownerID,
			ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/1024/1024", gofakeit.UUID()),
			IsPremium: gofakeit.Bool(),
		}
		if err := images.Create(ctx, img); err != nil {
			return err
		}
		c := &model.Creation{UserID: ownerID, ImageID: img.ID}
		if err := creations.Create(ctx, c); err != nil {
			return err
		}
		if err := creations.Publish(ctx, c.ID, img.ImageURL); err != nil {
			return err
		}

		for _, likerID := range userIDs {
			if rand.IntN(4) == 0 {
				if _, err := likes.Add(ctx, likerID, c.ID); err != nil {
					return err
				}
			}
		}
		for j := rand.IntN(4); j > 0; j-- {
			cm := &model.Comment{
				Text:       gofakeit.Sentence(8),
				UserID:     userIDs[rand.IntN(len(userIDs))],
				CreationID: c.ID,
			}
			if err := comments.Create(ctx, cm); err != nil {
				return err
			}
		}
	}
	log.WithField("count", numCreations).Info("creations published")
	log.Infof("all demo users share the password %q", demoPassword)
	return nil
}
