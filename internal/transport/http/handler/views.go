package handler

import (
	"time"

	"github.com/whisperly-api/internal/domain"
)

// ReactionView is one category's reactions as exposed over the API. Count is
// always derived from the reactor set, so the two can never drift apart.
type ReactionView struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// ReactionsView holds all three categories; every category is always present
// in responses, defaulted to an empty set.
type ReactionsView struct {
	Love  ReactionView `json:"love"`
	Laugh ReactionView `json:"laugh"`
	Sad   ReactionView `json:"sad"`
}

// ConfessionView is the API shape of a confession.
type ConfessionView struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	UserID    string         `json:"user_id"`
	Reactions ReactionsView  `json:"reactions"`
	Replies   []domain.Reply `json:"replies"`
	CreatedAt time.Time      `json:"createdAt"`
}

func toReactionView(users []string) ReactionView {
	if users == nil {
		users = []string{}
	}
	return ReactionView{Count: len(users), Users: users}
}

func toConfessionView(c *domain.Confession) *ConfessionView {
	replies := c.Replies
	if replies == nil {
		replies = []domain.Reply{}
	}
	return &ConfessionView{
		ID:     c.ConfessionID,
		Text:   c.Text,
		UserID: c.UserID,
		Reactions: ReactionsView{
			Love:  toReactionView(c.LoveUsers),
			Laugh: toReactionView(c.LaughUsers),
			Sad:   toReactionView(c.SadUsers),
		},
		Replies:   replies,
		CreatedAt: c.CreatedAt,
	}
}
