package confession

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/whisperly-api/internal/domain"
	"github.com/whisperly-api/internal/pkg/id"
)

// feedLimit is the fixed recent-window size of the public feed.
const feedLimit = 200

type Service interface {
	Create(ctx context.Context, userID, text string) (*domain.Confession, error)
	// ListRecent returns the newest confessions, newest first.
	ListRecent(ctx context.Context) ([]domain.Confession, error)
	// React toggles userID's reaction in the given category and reports
	// whether it was added (true) or removed (false).
	React(ctx context.Context, confessionID, category, userID string) (*domain.Confession, bool, error)
	// Reply appends an immutable reply and returns the updated confession.
	Reply(ctx context.Context, confessionID, text, replierEmail string) (*domain.Confession, error)
}

type confessionStore interface {
	Put(ctx context.Context, c *domain.Confession) error
	ListRecent(ctx context.Context, limit int32) ([]domain.Confession, error)
	ToggleReaction(ctx context.Context, confessionID string, t domain.ReactionType, userID string) (*domain.Confession, bool, error)
	AppendReply(ctx context.Context, confessionID string, reply domain.Reply) (*domain.Confession, error)
}

type service struct {
	repo confessionStore
}

func NewService(repo confessionStore) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, userID, text string) (*domain.Confession, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text required: %w", domain.ErrBadRequest)
	}
	c := &domain.Confession{
		ConfessionID: id.New(),
		Text:         text,
		UserID:       userID,
		Feed:         domain.FeedAll,
		Replies:      []domain.Reply{},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) ListRecent(ctx context.Context) ([]domain.Confession, error) {
	return s.repo.ListRecent(ctx, feedLimit)
}

func (s *service) React(ctx context.Context, confessionID, category, userID string) (*domain.Confession, bool, error) {
	t, err := domain.ParseReactionType(category)
	if err != nil {
		return nil, false, err
	}
	return s.repo.ToggleReaction(ctx, confessionID, t, userID)
}

func (s *service) Reply(ctx context.Context, confessionID, text, replierEmail string) (*domain.Confession, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text required: %w", domain.ErrBadRequest)
	}
	reply := domain.Reply{
		Text:         text,
		ReplierEmail: replierEmail,
		CreatedAt:    time.Now().UTC(),
	}
	return s.repo.AppendReply(ctx, confessionID, reply)
}
