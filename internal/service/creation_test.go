package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imaginarium/internal/logger"
	"imaginarium/internal/model"
	"imaginarium/internal/render"
)

type creationFixture struct {
	users      *memUserRepo
	images     *memImageRepo
	creations  *memCreationRepo
	generator  *fakeGenerator
	compositor *fakeCompositor
	svc        *CreationService
}

func newCreationFixture() *creationFixture {
	f := &creationFixture{
		users:      newMemUserRepo(&model.User{ID: 1, Name: "Ana", ProfileURL: "https://cdn.test/avatars/ana.png"}),
		images:     newMemImageRepo(),
		creations:  newMemCreationRepo(newMemLikeRepo()),
		generator:  &fakeGenerator{},
		compositor: &fakeCompositor{},
	}
	f.svc = NewCreationService(f.users, f.images, f.creations, f.generator, f.compositor, logger.Discard())
	return f
}

func TestCreationService_Submit_PublishesStyledPrompt(t *testing.T) {
	f := newCreationFixture()

	res, err := f.svc.Submit(context.Background(), 1, model.SubmitCreationRequest{Prompt: "a cat", Category: "ghibli"})
	require.NoError(t, err)

	require.Len(t, f.generator.prompts, 1)
	assert.Equal(t, "Ghibli art of a cat", f.generator.prompts[0])
	assert.Equal(t, []string{"https://cdn.test/avatars/ana.png"}, f.compositor.avatars)

	assert.Equal(t, "https://cdn.test/images/render.png", res.ImageURL)
	assert.Equal(t, "https://cdn.test/thumbnails/thumb.png", res.DisplayURL)

	img := f.images.images[res.ImageID]
	require.NotNil(t, img)
	assert.Equal(t, "Ghibli art of a cat", img.Prompt)
	assert.Equal(t, res.ImageURL, img.ImageURL)

	c, err := f.creations.GetByID(context.Background(), res.CreationID)
	require.NoError(t, err)
	assert.True(t, c.IsPublished())
	assert.Equal(t, res.ImageID, c.ImageID)

	feed, err := NewFeedService(f.creations, f.users).ListFeed(context.Background(), 2, 1, 10)
	require.NoError(t, err)
	require.Len(t, feed.Creations, 1)
	assert.Equal(t, res.CreationID, feed.Creations[0].ID)
	assert.Equal(t, model.CreationStatusPublished, feed.Creations[0].Status)
}

func TestCreationService_Submit_UnknownCategoryKeepsPrompt(t *testing.T) {
	f := newCreationFixture()

	_, err := f.svc.Submit(context.Background(), 1, model.SubmitCreationRequest{Prompt: "a cat", Category: "nonsense"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a cat"}, f.generator.prompts)
}

func TestCreationService_Submit_EmptyPrompt(t *testing.T) {
	f := newCreationFixture()

	_, err := f.svc.Submit(context.Background(), 1, model.SubmitCreationRequest{Prompt: "   "})
	assert.ErrorIs(t, err, model.ErrPromptRequired)
	assert.Empty(t, f.images.images)
	assert.Empty(t, f.generator.prompts)
}

func TestCreationService_Submit_GenerationFailureLeavesPending(t *testing.T) {
	f := newCreationFixture()
	f.generator.generateFn = func(ctx context.Context, prompt string) (string, error) {
		return "", &render.GenerationError{Err: errors.New("quota exceeded")}
	}

	_, err := f.svc.Submit(context.Background(), 1, model.SubmitCreationRequest{Prompt: "a cat"})
	assert.ErrorIs(t, err, model.ErrUpstreamFailure)
	assert.Equal(t, 1, f.creations.pending(), "pending pair stays behind")
	assert.Empty(t, f.compositor.avatars)

	views, total, err := f.creations.ListPublished(context.Background(), 2, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Zero(t, total)
}

func TestCreationService_Submit_CompositingFailureIsUpstream(t *testing.T) {
	f := newCreationFixture()
	f.compositor.thumbnailFn = func(ctx context.Context, imageURL, avatarURL string) (string, error) {
		return "", &render.CompositingError{Err: errors.New("avatar fetch failed")}
	}

	_, err := f.svc.Submit(context.Background(), 1, model.SubmitCreationRequest{Prompt: "a cat"})
	assert.ErrorIs(t, err, model.ErrUpstreamFailure)
	assert.Equal(t, 1, f.creations.pending())
	for _, img := range f.images.images {
		assert.Empty(t, img.ImageURL, "image url is only stored once the thumbnail exists")
	}
}

func TestCreationService_Submit_UnknownUser(t *testing.T) {
	f := newCreationFixture()
	f.images.createFn = func(ctx context.Context, img *model.Image) error {
		return errors.New("insert image: violates foreign key constraint")
	}

	_, err := f.svc.Submit(context.Background(), 99, model.SubmitCreationRequest{Prompt: "a cat"})
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestCreationService_Submit_IgnoresClientCancellation(t *testing.T) {
	f := newCreationFixture()
	f.generator.generateFn = func(ctx context.Context, prompt string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "https://cdn.test/images/render.png", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.svc.Submit(ctx, 1, model.SubmitCreationRequest{Prompt: "a cat"})
	require.NoError(t, err)
	assert.NotZero(t, res.CreationID)
}

func TestCreationService_GetCreation_PendingVisibleToOwnerOnly(t *testing.T) {
	f := newCreationFixture()
	f.creations.seed(10, 1, "")
	f.creations.seed(11, 1, "https://cdn.test/thumbnails/11.png")
	ctx := context.Background()

	v, err := f.svc.GetCreation(ctx, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, model.CreationStatusPending, v.Status)

	_, err = f.svc.GetCreation(ctx, 10, 2)
	assert.ErrorIs(t, err, model.ErrCreationNotFound)

	v, err = f.svc.GetCreation(ctx, 11, 2)
	require.NoError(t, err)
	assert.Equal(t, model.CreationStatusPublished, v.Status)

	_, err = f.svc.GetCreation(ctx, 404, 1)
	assert.ErrorIs(t, err, model.ErrCreationNotFound)
}

func TestCreationService_ListUserCreations(t *testing.T) {
	f := newCreationFixture()
	f.creations.seed(10, 1, "")
	f.creations.seed(11, 1, "https://cdn.test/thumbnails/11.png")
	ctx := context.Background()

	own, err := f.svc.ListUserCreations(ctx, 1, 1, 1, 0)
	require.NoError(t, err)
	assert.Len(t, own.Creations, 2)
	assert.Equal(t, 10, own.Limit)

	other, err := f.svc.ListUserCreations(ctx, 1, 2, 1, 0)
	require.NoError(t, err)
	require.Len(t, other.Creations, 1)
	assert.Equal(t, int64(11), other.Creations[0].ID)

	assert.Equal(t, []bool{true, false}, f.creations.listByUserCalls)

	_, err = f.svc.ListUserCreations(ctx, 42, 1, 1, 0)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}
