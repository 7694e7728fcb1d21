// Package validation orchestrates the resumable full-corpus pass: pull the
// next unvalidated profile, match, classify, repair, record the outcome, and
// checkpoint after every profile.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"authorfix/internal/identity"
	"authorfix/internal/store"
)

// Status is the job lifecycle state. Started is re-entrant: a later
// invocation may resume it or cancel it in favor of a fresh run.
type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the job can no longer be resumed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Issue is one audit entry for a profile that could not be validated.
type Issue struct {
	ProfileID    int64              `json:"profile_id" yaml:"profile_id"`
	Kind         identity.IssueKind `json:"kind" yaml:"kind"`
	Detail       string             `json:"detail,omitempty" yaml:"detail,omitempty"`
	CandidateIDs []int64            `json:"candidate_ids,omitempty" yaml:"candidate_ids,omitempty"`
}

// State is the persisted checkpoint of one validation run. It is saved after
// every processed profile, so a crashed run resumes exactly where it stopped.
type State struct {
	JobID           string    `json:"job_id"`
	Status          Status    `json:"status"`
	Total           int       `json:"total"`
	CompletedIDs    []int64   `json:"completed_ids"`
	NotValidatedIDs []int64   `json:"not_validated_ids"`
	NextCursorID    int64     `json:"next_cursor_id"`
	Issues          []Issue   `json:"issues"`
	StartedAt       time.Time `json:"started_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewState creates a fresh Started state for a job id.
func NewState(jobID string, total int) *State {
	now := time.Now().UTC()
	return &State{
		JobID:     jobID,
		Status:    StatusStarted,
		Total:     total,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Completed reports whether a profile id is already in the completed set.
func (s *State) Completed(id int64) bool {
	for _, done := range s.CompletedIDs {
		if done == id {
			return true
		}
	}
	return false
}

// MarkCompleted moves a profile id into the completed set, removing it from
// the not-validated set if an earlier run left it there.
func (s *State) MarkCompleted(id int64) {
	s.NotValidatedIDs = removeID(s.NotValidatedIDs, id)
	if !s.Completed(id) {
		s.CompletedIDs = append(s.CompletedIDs, id)
	}
}

// MarkNotValidated records an audit issue and moves the profile id into the
// not-validated set.
func (s *State) MarkNotValidated(issue Issue) {
	s.CompletedIDs = removeID(s.CompletedIDs, issue.ProfileID)
	found := false
	for _, id := range s.NotValidatedIDs {
		if id == issue.ProfileID {
			found = true
			break
		}
	}
	if !found {
		s.NotValidatedIDs = append(s.NotValidatedIDs, issue.ProfileID)
	}
	s.Issues = append(s.Issues, issue)
}

func removeID(ids []int64, id int64) []int64 {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// LoadState reads and decodes a persisted job state; nil when the job is
// unknown.
func LoadState(ctx context.Context, repo store.Repository, jobID string) (*State, error) {
	blob, err := repo.LoadJobState(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}
	var state State
	if err := json.Unmarshal(blob, &state); err != nil {
		return nil, fmt.Errorf("decode job state %s: %w", jobID, err)
	}
	return &state, nil
}

// SaveState encodes and persists a job state checkpoint.
func SaveState(ctx context.Context, repo store.Repository, state *State) error {
	state.UpdatedAt = time.Now().UTC()
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode job state %s: %w", state.JobID, err)
	}
	return repo.SaveJobState(ctx, state.JobID, blob)
}
