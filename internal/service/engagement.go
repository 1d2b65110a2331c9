package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"imaginarium/internal/logger"
	"imaginarium/internal/metrics"
	"imaginarium/internal/model"
	"imaginarium/internal/repository"
)

// Notification texts sent to creation owners.
const (
	likeNotificationTitle    = "New Love on Creation"
	commentNotificationTitle = "New Comment on Creation"
)

// LikeResult is the membership state after a toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
}

// EngagementService handles likes, comments and reports on creations.
type EngagementService struct {
	creationRepo repository.CreationRepository
	likeRepo     repository.LikeRepository
	commentRepo  repository.CommentRepository
	reportRepo   repository.ReportRepository
	userRepo     repository.UserRepository
	notifier     Notifier
	notifySelf   bool
	log          logrus.FieldLogger
}

type EngagementConfig struct {
	// NotifySelf sends notifications for likes and comments on the actor's
	// own creation.
	NotifySelf bool
}

func NewEngagementService(
	creationRepo repository.CreationRepository,
	likeRepo repository.LikeRepository,
	commentRepo repository.CommentRepository,
	reportRepo repository.ReportRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	cfg EngagementConfig,
	log logrus.FieldLogger,
) *EngagementService {
	return &EngagementService{
		creationRepo: creationRepo,
		likeRepo:     likeRepo,
		commentRepo:  commentRepo,
		reportRepo:   reportRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		notifySelf:   cfg.NotifySelf,
		log:          logger.Component(log, "EngagementService"),
	}
}

// visibleCreation loads a creation the actor may engage with. Pending
// creations exist only for their owner.
func (s *EngagementService) visibleCreation(ctx context.Context, creationID, actorID int64) (*model.Creation, error) {
	c, err := s.creationRepo.GetByID(ctx, creationID)
	if err != nil {
		return nil, err
	}
	if !c.IsPublished() && c.UserID != actorID {
		return nil, model.ErrCreationNotFound
	}
	return c, nil
}

// ToggleLike flips the actor's like on a creation. No lock guards the
// read-then-write: two racing likes both see "absent", the primary key keeps
// a single edge, and only the request that inserted it notifies.
func (s *EngagementService) ToggleLike(ctx context.Context, creationID, userID int64) (*LikeResult, error) {
	// The owner notification must land once the edge is written.
	ctx = context.WithoutCancel(ctx)

	creation, err := s.visibleCreation(ctx, creationID, userID)
	if err != nil {
		return nil, err
	}

	liked, err := s.likeRepo.Exists(ctx, userID, creationID)
	if err != nil {
		return nil, err
	}

	if liked {
		if _, err := s.likeRepo.Remove(ctx, userID, creationID); err != nil {
			return nil, err
		}
		metrics.RecordLikeToggle(false)
		return &LikeResult{Liked: false}, nil
	}

	inserted, err := s.likeRepo.Add(ctx, userID, creationID)
	if err != nil {
		return nil, err
	}
	metrics.RecordLikeToggle(true)

	if inserted {
		s.notifyOwner(ctx, creation, userID, likeNotificationTitle, func(name string) string {
			return fmt.Sprintf("%s Has Loved Your Creation ❤️", name)
		}, model.NotificationIconHeart)
	}
	return &LikeResult{Liked: true}, nil
}

// CreateComment adds a comment and notifies the creation owner. Nothing is
// written when the creation does not exist.
func (s *EngagementService) CreateComment(ctx context.Context, creationID, userID int64, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.ErrContentRequired
	}
	if utf8.RuneCountInString(text) > model.MaxCommentLength {
		return nil, model.ErrContentTooLong
	}
	ctx = context.WithoutCancel(ctx)

	creation, err := s.visibleCreation(ctx, creationID, userID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{Text: text, UserID: userID, CreationID: creationID}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if author, err := s.userRepo.GetByID(ctx, userID); err == nil {
		summary := author.Summary()
		comment.User = &summary
	}

	s.notifyOwner(ctx, creation, userID, commentNotificationTitle, func(name string) string {
		return fmt.Sprintf("%s commented: %s", name, text)
	}, model.NotificationIconComment)

	return comment, nil
}

// ListComments returns one page of comments, newest first.
func (s *EngagementService) ListComments(ctx context.Context, creationID, viewerID int64, page int) (*model.CommentPage, error) {
	if _, err := s.visibleCreation(ctx, creationID, viewerID); err != nil {
		return nil, err
	}

	page, limit := model.NormalizePage(page, model.CommentPageSize, model.CommentPageSize, model.CommentPageSize)
	comments, total, err := s.commentRepo.ListByCreation(ctx, creationID, limit, model.Offset(page, limit))
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []model.Comment{}
	}

	return &model.CommentPage{
		Comments:   comments,
		Pagination: model.NewPagination(page, limit, total),
	}, nil
}

func (s *EngagementService) ReportCreation(ctx context.Context, creationID, userID int64, reason string) (*model.Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, model.ErrReasonRequired
	}
	if _, err := s.visibleCreation(ctx, creationID, userID); err != nil {
		return nil, err
	}

	report := &model.Report{CreationID: creationID, UserID: userID, Reason: reason}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"creation_id": creationID, "user_id": userID}).Info("creation reported")
	return report, nil
}

// notifyOwner never fails the engagement that triggered it.
func (s *EngagementService) notifyOwner(ctx context.Context, creation *model.Creation, actorID int64, title string, message func(name string) string, icon string) {
	if s.notifier == nil {
		return
	}
	if creation.UserID == actorID && !s.notifySelf {
		return
	}
	log := s.log.WithFields(logrus.Fields{"creation_id": creation.ID, "user_id": actorID})

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		log.WithError(err).Warn("notification skipped: actor lookup failed")
		return
	}

	if _, err := s.notifier.Create(ctx, creation.UserID, title, message(actor.Name), icon); err != nil {
		log.WithError(err).Warn("notification failed")
	}
}
