package models

// ReasonCode explains a dispatch decision.
type ReasonCode string

const (
	ReasonNone                    ReasonCode = ""
	ReasonDisabled                ReasonCode = "Disabled"
	ReasonRegionMismatch          ReasonCode = "RegionMismatch"
	ReasonWeekdayMismatch         ReasonCode = "WeekdayMismatch"
	ReasonTimeSlotMismatch        ReasonCode = "TimeSlotMismatch"
	ReasonPeopleMismatch          ReasonCode = "PeopleMismatch"
	ReasonPurposeMismatch         ReasonCode = "PurposeMismatch"
	ReasonDailyQuoteLimitExceeded ReasonCode = "DailyQuoteLimitExceeded"
	ReasonDailyBudgetExceeded     ReasonCode = "DailyBudgetExceeded"
	ReasonAlreadyQuoted           ReasonCode = "AlreadyQuoted"
	ReasonInsufficientFunds       ReasonCode = "InsufficientFunds"
	ReasonTemplateNotFound        ReasonCode = "TemplateNotFound"
)

// Outcome is the result class of a dispatch attempt.
type Outcome string

const (
	OutcomeDispatched Outcome = "Dispatched"
	OutcomeSkipped    Outcome = "Skipped"
	OutcomeFailed     Outcome = "Failed"
)
