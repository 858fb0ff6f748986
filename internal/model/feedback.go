package model

import (
	"strings"
	"time"
)

// Feedback is a report submitted by a registered user and moderated by
// administrators.  Unlike predictions, feedback always has an owner.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – owning account (required).
//  Message       – trimmed feedback text, at most 1000 characters.
//  Category      – one of the feedback categories, "general" default.
//  Rating        – optional satisfaction rating in [1,5].
//  Status        – moderation status, "pending" default.
//  AdminResponse – optional moderator reply (nullable).
//  IsPublic      – whether the feedback may be shown publicly.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Feedback struct {
	ID            uint64    // feedback.id
	UserID        uint64    // feedback.user_id
	Message       string    // feedback.message
	Category      string    // feedback.category
	Rating        *int      // feedback.rating (nullable)
	Status        string    // feedback.status
	AdminResponse *string   // feedback.admin_response (nullable)
	IsPublic      bool      // feedback.is_public
	CreatedAt     time.Time // feedback.created_at
	UpdatedAt     time.Time // feedback.updated_at
}

// Feedback categories.
const (
	FeedbackCategoryGeneral     = "general"
	FeedbackCategoryBug         = "bug"
	FeedbackCategoryFeature     = "feature"
	FeedbackCategoryImprovement = "improvement"
	FeedbackCategoryComplaint   = "complaint"
)

// Moderation statuses.  Transitions are advisory; the data layer does
// not enforce a workflow order.
const (
	FeedbackStatusPending  = "pending"
	FeedbackStatusReviewed = "reviewed"
	FeedbackStatusResolved = "resolved"
	FeedbackStatusClosed   = "closed"
)

var feedbackCategories = map[string]bool{
	FeedbackCategoryGeneral:     true,
	FeedbackCategoryBug:         true,
	FeedbackCategoryFeature:     true,
	FeedbackCategoryImprovement: true,
	FeedbackCategoryComplaint:   true,
}

var feedbackStatuses = map[string]bool{
	FeedbackStatusPending:  true,
	FeedbackStatusReviewed: true,
	FeedbackStatusResolved: true,
	FeedbackStatusClosed:   true,
}

// NormalizeFeedbackCategory lowercases and trims the submitted category
// and falls back to "general" when the value is unknown or empty.
func NormalizeFeedbackCategory(cat string) string {
	cat = strings.ToLower(strings.TrimSpace(cat))
	if feedbackCategories[cat] {
		return cat
	}
	return FeedbackCategoryGeneral
}

// ValidFeedbackStatus reports whether s is a member of the status enum.
func ValidFeedbackStatus(s string) bool {
	return feedbackStatuses[strings.ToLower(strings.TrimSpace(s))]
}
