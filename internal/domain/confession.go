package domain

import (
	"fmt"
	"time"
)

// ReactionType is one of the three fixed reaction categories. Values outside
// the set are rejected at the parse boundary, so downstream code never sees
// an unknown category.
type ReactionType string

const (
	ReactionLove  ReactionType = "love"
	ReactionLaugh ReactionType = "laugh"
	ReactionSad   ReactionType = "sad"
)

// ReactionTypes lists all valid categories in display order.
var ReactionTypes = []ReactionType{ReactionLove, ReactionLaugh, ReactionSad}

// ParseReactionType validates a raw category string.
func ParseReactionType(s string) (ReactionType, error) {
	switch t := ReactionType(s); t {
	case ReactionLove, ReactionLaugh, ReactionSad:
		return t, nil
	}
	return "", fmt.Errorf("invalid reaction type %q: %w", s, ErrBadRequest)
}

// Reply is one append-only reply on a confession. ReplierEmail is denormalized
// at write time and never re-resolved.
type Reply struct {
	Text         string    `json:"text" dynamodbav:"text"`
	ReplierEmail string    `json:"replierEmail" dynamodbav:"replier_email"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
}

// Confession is a posted confession with embedded reaction membership and
// replies. Each category's reactor set lives in its own top-level string-set
// attribute so a toggle is a single conditional set operation in DynamoDB.
// Counts are derived from set size and never stored, so count == |set| holds
// by construction.
//
// Feed is a constant attribute ("all") used as the hash key of the
// feed-created_at-index GSI, which serves the newest-first listing.
type Confession struct {
	ConfessionID string    `json:"id" dynamodbav:"confession_id"`
	Text         string    `json:"text" dynamodbav:"text"`
	UserID       string    `json:"user_id" dynamodbav:"user_id"`
	Feed         string    `json:"-" dynamodbav:"feed"`
	LoveUsers    []string  `json:"-" dynamodbav:"love_users,stringset,omitempty"`
	LaughUsers   []string  `json:"-" dynamodbav:"laugh_users,stringset,omitempty"`
	SadUsers     []string  `json:"-" dynamodbav:"sad_users,stringset,omitempty"`
	Replies      []Reply   `json:"replies" dynamodbav:"replies"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
}

// FeedAll is the single feed partition all confessions belong to.
const FeedAll = "all"

// Reactors returns the reactor set for a category.
func (c *Confession) Reactors(t ReactionType) []string {
	switch t {
	case ReactionLove:
		return c.LoveUsers
	case ReactionLaugh:
		return c.LaughUsers
	case ReactionSad:
		return c.SadUsers
	}
	return nil
}

// HasReacted reports whether userID is in the category's reactor set.
func (c *Confession) HasReacted(t ReactionType, userID string) bool {
	for _, id := range c.Reactors(t) {
		if id == userID {
			return true
		}
	}
	return false
}
