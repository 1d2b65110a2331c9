package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"imaginarium/internal/logger"
	"imaginarium/internal/metrics"
	"imaginarium/internal/model"
	"imaginarium/internal/render"
	"imaginarium/internal/repository"
)

const (
	defaultCreationPageSize = 10
	maxCreationPageSize     = 50
)

// CreationService turns a prompt into a published creation.
type CreationService struct {
	userRepo     repository.UserRepository
	imageRepo    repository.ImageRepository
	creationRepo repository.CreationRepository
	generator    render.Generator
	compositor   render.Compositor
	log          logrus.FieldLogger
}

func NewCreationService(
	userRepo repository.UserRepository,
	imageRepo repository.ImageRepository,
	creationRepo repository.CreationRepository,
	generator render.Generator,
	compositor render.Compositor,
	log logrus.FieldLogger,
) *CreationService {
	return &CreationService{
		userRepo:     userRepo,
		imageRepo:    imageRepo,
		creationRepo: creationRepo,
		generator:    generator,
		compositor:   compositor,
		log:          logger.Component(log, "CreationService"),
	}
}

// Submit runs the whole pipeline and returns once the creation is published.
//
// The image and creation rows are written before the generator is called, so
// a failed render leaves an invisible pending pair behind. Those are removed
// later by the pending sweeper. The pipeline is detached from ctx
// cancellation: a client hanging up does not abort a render in flight.
func (s *CreationService) Submit(ctx context.Context, userID int64, req model.SubmitCreationRequest) (*model.SubmitResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, model.ErrPromptRequired
	}

	result, err := s.submit(context.WithoutCancel(ctx), userID, req)
	switch {
	case err == nil:
		metrics.RecordSubmission(metrics.OutcomePublished)
	case errors.Is(err, model.ErrUpstreamFailure):
		metrics.RecordSubmission(metrics.OutcomeUpstreamFailure)
	default:
		metrics.RecordSubmission(metrics.OutcomeError)
	}
	return result, err
}

func (s *CreationService) submit(ctx context.Context, userID int64, req model.SubmitCreationRequest) (*model.SubmitResult, error) {
	prompt := model.ApplyStyle(req.Category, req.Prompt)
	log := s.log.WithField("user_id", userID)

	var (
		user      *model.User
		image     *model.Image
		creation  *model.Creation
		renderURL string
		lookupErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, lookupErr = s.userRepo.GetByID(gctx, userID)
		return lookupErr
	})
	g.Go(func() error {
		image = &model.Image{Prompt: prompt, UserID: userID, IsPremium: req.IsPremium}
		if err := s.imageRepo.Create(gctx, image); err != nil {
			return err
		}

		creation = &model.Creation{UserID: userID, ImageID: image.ID}
		if err := s.creationRepo.Create(gctx, creation); err != nil {
			return err
		}
		log.WithField("creation_id", creation.ID).Debug("pending creation stored")

		start := time.Now()
		url, err := s.generator.Generate(gctx, prompt)
		metrics.ObserveStage("generate", time.Since(start))
		if err != nil {
			return err
		}
		renderURL = url
		return nil
	})

	if err := g.Wait(); err != nil {
		// An unknown user usually also breaks the image insert through its
		// foreign key; report the lookup failure instead of whichever
		// goroutine lost the race.
		if errors.Is(lookupErr, model.ErrUserNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, s.pipelineError(log, creation, err)
	}

	start := time.Now()
	thumbURL, err := s.compositor.Thumbnail(ctx, renderURL, user.ProfileURL)
	metrics.ObserveStage("thumbnail", time.Since(start))
	if err != nil {
		return nil, s.pipelineError(log, creation, err)
	}

	if err := s.imageRepo.SetImageURL(ctx, image.ID, renderURL); err != nil {
		return nil, fmt.Errorf("store image url: %w", err)
	}
	if err := s.creationRepo.Publish(ctx, creation.ID, thumbURL); err != nil {
		return nil, fmt.Errorf("publish creation: %w", err)
	}

	log.WithField("creation_id", creation.ID).Info("creation published")

	return &model.SubmitResult{
		CreationID: creation.ID,
		ImageID:    image.ID,
		ImageURL:   renderURL,
		DisplayURL: thumbURL,
	}, nil
}

// pipelineError folds both image service failures into ErrUpstreamFailure.
func (s *CreationService) pipelineError(log logrus.FieldLogger, creation *model.Creation, err error) error {
	var (
		genErr  *render.GenerationError
		compErr *render.CompositingError
	)
	if creation != nil {
		log = log.WithField("creation_id", creation.ID)
	}
	if errors.As(err, &genErr) || errors.As(err, &compErr) {
		log.WithError(err).Warn("image service failed, creation left pending")
		return fmt.Errorf("%w: %v", model.ErrUpstreamFailure, err)
	}
	log.WithError(err).Error("creation pipeline failed")
	return fmt.Errorf("submit creation: %w", err)
}

// GetCreation returns a published creation to anyone and a pending one only
// to its owner.
func (s *CreationService) GetCreation(ctx context.Context, creationID, viewerID int64) (*model.CreationView, error) {
	view, err := s.creationRepo.GetView(ctx, creationID, viewerID)
	if err != nil {
		return nil, err
	}
	if view.DisplayURL == nil && view.UserID != viewerID {
		return nil, model.ErrCreationNotFound
	}
	return view, nil
}

// ListUserCreations lists an owner's creations. Owners also see their own
// pending ones.
func (s *CreationService) ListUserCreations(ctx context.Context, ownerID, viewerID int64, page, limit int) (*model.CreationPage, error) {
	page, limit = model.NormalizePage(page, limit, defaultCreationPageSize, maxCreationPageSize)

	if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}

	views, total, err := s.creationRepo.ListByUser(ctx, ownerID, viewerID, ownerID == viewerID, limit, model.Offset(page, limit))
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []model.CreationView{}
	}

	return &model.CreationPage{
		Creations:  views,
		Pagination: model.NewPagination(page, limit, total),
	}, nil
}
