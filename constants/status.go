package constants

// ApplicationStatus is the canonical status for rows in the applications table.
type ApplicationStatus string

const (
	ApplicationStatusMatched     ApplicationStatus = "matched"
	ApplicationStatusApplied     ApplicationStatus = "applied"
	ApplicationStatusPhoneScreen ApplicationStatus = "phone_screen"
	ApplicationStatusInterview   ApplicationStatus = "interview"
	ApplicationStatusOffer       ApplicationStatus = "offer"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn   ApplicationStatus = "withdrawn"
	ApplicationStatusExpired     ApplicationStatus = "expired"
)

// RunStatus is the canonical status for rows in pipeline_runs and for the
// checkpoint log's status field.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCrashed   RunStatus = "crashed"
)

// FeedbackAction is the action carried by an inline-button callback payload.
type FeedbackAction string

const (
	FeedbackActionApplied     FeedbackAction = "applied"
	FeedbackActionSkipped     FeedbackAction = "skipped"
	FeedbackActionNotRelevant FeedbackAction = "not_relevant"
)

// Strategy selects which scraper implementation handles a site config.
type Strategy string

const (
	StrategyAPI     Strategy = "api"
	StrategyHTML    Strategy = "html"
	StrategyBrowser Strategy = "browser"
)

// StageName is a textual stage identifier recorded in the checkpoint log on
// completion.
type StageName string

const (
	StagePollFeedback   StageName = "poll-feedback"
	StageScrape         StageName = "scrape"
	StageDedup          StageName = "dedup"
	StageKeywordFilter  StageName = "keyword-filter"
	StageScore          StageName = "score"
	StageTailor         StageName = "tailor"
	StageNotify         StageName = "notify"
	StageFinalize       StageName = "finalize"
)
