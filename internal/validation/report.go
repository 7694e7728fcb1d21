package validation

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"authorfix/internal/identity"
	"authorfix/internal/store"
)

// Report is the operator-facing summary of a run, built from a persisted
// state. Enough detail per not-validated profile to diagnose without
// re-running.
type Report struct {
	JobID        string  `yaml:"job_id"`
	Status       Status  `yaml:"status"`
	Total        int     `yaml:"total"`
	Completed    int     `yaml:"completed"`
	NotValidated int     `yaml:"not_validated"`
	Issues       []Issue `yaml:"issues,omitempty"`
}

// BuildReport summarizes a job state.
func BuildReport(state *State) Report {
	return Report{
		JobID:        state.JobID,
		Status:       state.Status,
		Total:        state.Total,
		Completed:    len(state.CompletedIDs),
		NotValidated: len(state.NotValidatedIDs),
		Issues:       state.Issues,
	}
}

// LoadReport builds a report for a job id, defaulting to the most recent job
// when jobID is empty.
func LoadReport(ctx context.Context, repo store.Repository, jobID string) (Report, error) {
	if jobID == "" {
		latest, err := repo.LatestJobID(ctx)
		if err != nil {
			return Report{}, err
		}
		if latest == "" {
			return Report{}, fmt.Errorf("no validation job has run: %w", identity.ErrNotFound)
		}
		jobID = latest
	}
	state, err := LoadState(ctx, repo, jobID)
	if err != nil {
		return Report{}, err
	}
	if state == nil {
		return Report{}, fmt.Errorf("job %s: %w", jobID, identity.ErrNotFound)
	}
	return BuildReport(state), nil
}

// WriteYAML renders the report as YAML for export to other tooling.
func (r Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}
