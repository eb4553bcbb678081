package models

import (
	"time"
)

// TeamCounts are the two derived fields the aggregator owns on every user.
type TeamCounts struct {
	DirectSponsorCount int64 `json:"direct_sponsor_count" firestore:"direct_sponsor_count" bson:"direct_sponsor_count"`
	TotalTeamCount     int64 `json:"total_team_count" firestore:"total_team_count" bson:"total_team_count"`
}

func (c TeamCounts) Updates() map[string]interface{} {
	return map[string]interface{}{
		FieldDirectSponsorCount: c.DirectSponsorCount,
		FieldTotalTeamCount:     c.TotalTeamCount,
	}
}

type ReferralCycle struct {
	Members []string `json:"members"`
}

type OrphanReference struct {
	UID        string `json:"uid"`
	ReferredBy string `json:"referred_by"`
}

type FailedUpdate struct {
	UID   string `json:"uid"`
	Error string `json:"error"`
}

type TeamCountRunStatus string

const (
	TeamCountRunCompleted          TeamCountRunStatus = "completed"
	TeamCountRunCompletedWithIssue TeamCountRunStatus = "completed_with_issues"
	TeamCountRunAborted            TeamCountRunStatus = "aborted"
)

// TeamCountRun is the summary of one recalculation pass.
type TeamCountRun struct {
	ID         string             `json:"id"`
	Status     TeamCountRunStatus `json:"status"`
	DryRun     bool               `json:"dry_run"`
	TotalUsers int                `json:"total_users"`
	Updated    int                `json:"updated"`
	Skipped    int                `json:"skipped"`
	Failed     []FailedUpdate     `json:"failed,omitempty"`
	Cycles     []ReferralCycle    `json:"cycles,omitempty"`
	Unresolved []string           `json:"unresolved,omitempty"`
	Orphans    []OrphanReference  `json:"orphans,omitempty"`
	Duplicates []string           `json:"duplicates,omitempty"`
	Error      string             `json:"error,omitempty"`
	ReportURL  string             `json:"report_url,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

func (r *TeamCountRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *TeamCountRun) HasIssues() bool {
	return len(r.Failed) > 0 || len(r.Cycles) > 0 || r.Skipped > 0
}

func (r *TeamCountRun) FailedUIDs() []string {
	uids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		uids = append(uids, f.UID)
	}
	return uids
}
