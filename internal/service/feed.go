package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"imaginarium/internal/model"
	"imaginarium/internal/repository"
)

// FeedService serves the public read paths. Every query it issues filters
// on a non-null display URL, so pending creations never appear here.
type FeedService struct {
	creationRepo repository.CreationRepository
	userRepo     repository.UserRepository
}

func NewFeedService(creationRepo repository.CreationRepository, userRepo repository.UserRepository) *FeedService {
	return &FeedService{
		creationRepo: creationRepo,
		userRepo:     userRepo,
	}
}

// ListFeed returns published creations, most liked first.
func (s *FeedService) ListFeed(ctx context.Context, viewerID int64, page, limit int) (*model.CreationPage, error) {
	page, limit = model.NormalizePage(page, limit, defaultCreationPageSize, maxCreationPageSize)

	views, total, err := s.creationRepo.ListPublished(ctx, viewerID, limit, model.Offset(page, limit))
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

// Search matches users by name or handle and creations by creator or prompt.
// The viewer's own profile and creations are left out.
func (s *FeedService) Search(ctx context.Context, query string, viewerID int64) (*model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.ErrQueryRequired
	}

	var result model.SearchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.userRepo.Search(gctx, query, viewerID, model.SearchResultLimit)
		result.Users = users
		return err
	})
	g.Go(func() error {
		creations, err := s.creationRepo.Search(gctx, query, viewerID, model.SearchResultLimit)
		result.Creations = creations
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if result.Users == nil {
		result.Users = []model.UserSummary{}
	}
	if result.Creations == nil {
		result.Creations = []model.CreationView{}
	}
	return &result, nil
}
