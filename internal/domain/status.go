package domain

import "strings"

// SessionStatus is the lifecycle state of an OrderSession.
type SessionStatus string

const (
	StatusDraft     SessionStatus = "draft"
	StatusSubmitted SessionStatus = "submitted"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
)

var sessionStatuses = map[string]SessionStatus{
	"draft":     StatusDraft,
	"submitted": StatusSubmitted,
	"completed": StatusCompleted,
	"cancelled": StatusCancelled,
}

// ParseSessionStatus returns the status for a given label (case-insensitive).
func ParseSessionStatus(label string) (SessionStatus, bool) {
	status, ok := sessionStatuses[strings.ToLower(label)]

	return status, ok
}

// ReviewPriority classifies how much human scrutiny a suggested line needs.
type ReviewPriority string

const (
	PrioritySafe     ReviewPriority = "safe"
	PriorityStandard ReviewPriority = "standard"
	PriorityReview   ReviewPriority = "review"
)

var reviewPriorities = map[string]ReviewPriority{
	"safe":     PrioritySafe,
	"standard": PriorityStandard,
	"review":   PriorityReview,
}

// ParseReviewPriority returns the priority for a given label (case-insensitive).
func ParseReviewPriority(label string) (ReviewPriority, bool) {
	priority, ok := reviewPriorities[strings.ToLower(label)]

	return priority, ok
}

// TrendUp, TrendDown and TrendStable label the month-over-month sales trend.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)
