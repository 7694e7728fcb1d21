package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"authorfix/internal/decision"
	"authorfix/internal/identity"
	"authorfix/internal/logging"
	"authorfix/internal/match"
	"authorfix/internal/repair"
	"authorfix/internal/resolve"
	"authorfix/internal/store"
)

// validatedValue is what the validated tag is set to on confirmed profiles.
const validatedValue = "1"

// Options configure one validation run.
type Options struct {
	SlugPrefix      string
	Provider        decision.Provider
	Logger          *slog.Logger
	Resume          bool
	// Force re-validates profiles that already carry the validated tag.
	Force           bool
	AllowStandalone bool
}

// Runner drives the full-corpus pass. Strictly sequential: the slug registry
// mutates as repairs commit, so profiles are processed one at a time in id
// order.
type Runner struct {
	repo     store.Repository
	opts     Options
	logger   *slog.Logger
	registry *repair.Registry
	policy   *resolve.Policy
	planner  *repair.Planner
	executor *repair.Executor
}

func NewRunner(repo store.Repository, opts Options) *Runner {
	if opts.Provider == nil {
		opts.Provider = decision.AutomaticPolicy{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	logger := logging.NewComponentLogger(opts.Logger, "validation")

	registry := repair.NewRegistry()
	matcher := match.New(repo, opts.Logger, opts.SlugPrefix)
	return &Runner{
		repo:     repo,
		opts:     opts,
		logger:   logger,
		registry: registry,
		policy:   resolve.NewPolicy(repo, matcher, opts.Provider, opts.Logger, opts.SlugPrefix, opts.AllowStandalone),
		planner:  repair.NewPlanner(repo, registry, opts.Provider, opts.Logger, opts.SlugPrefix),
		executor: repair.NewExecutor(repo, registry, opts.Logger, opts.SlugPrefix),
	}
}

// JobID returns the date-scoped job identifier for a point in time.
func JobID(t time.Time) string {
	return "validate-" + t.UTC().Format("2006-01-02")
}

// Run executes (or resumes) a full validation pass. The returned state is the
// final checkpoint even when the run aborted; err is non-nil only for fatal
// conditions (operator halt, unrecoverable store errors).
func (r *Runner) Run(ctx context.Context) (*State, error) {
	jobID := JobID(time.Now())
	state, err := r.prepareState(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := r.registry.Load(ctx, r.repo); err != nil {
		return state, fmt.Errorf("load slug registry: %w", err)
	}

	r.logger.Info("validation run starting",
		logging.String("job_id", state.JobID),
		logging.Int("total", state.Total),
		logging.Int("already_completed", len(state.CompletedIDs)),
		logging.Bool("resumed", len(state.CompletedIDs) > 0 || state.NextCursorID > 0),
	)

	ids, err := r.repo.ListAuthorProfileIDs(ctx, 0)
	if err != nil {
		return state, fmt.Errorf("list profiles: %w", err)
	}

	for _, id := range ids {
		if state.Completed(id) {
			continue
		}
		if err := r.processProfile(ctx, state, id); err != nil {
			// Fatal errors abort without persisting the in-flight work;
			// the last good checkpoint stands.
			return state, err
		}
		state.NextCursorID = id
		if err := SaveState(ctx, r.repo, state); err != nil {
			return state, fmt.Errorf("checkpoint after profile %d: %w", id, err)
		}
	}

	state.Status = StatusCompleted
	if err := SaveState(ctx, r.repo, state); err != nil {
		return state, fmt.Errorf("persist completed state: %w", err)
	}
	r.logger.Info("validation run completed",
		logging.String("job_id", state.JobID),
		logging.Int("completed", len(state.CompletedIDs)),
		logging.Int("not_validated", len(state.NotValidatedIDs)),
	)
	return state, nil
}

// prepareState resumes a Started job when requested, otherwise cancels any
// stale Started job and archives terminal ones before starting fresh.
func (r *Runner) prepareState(ctx context.Context, jobID string) (*State, error) {
	existing, err := LoadState(ctx, r.repo, jobID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == StatusStarted && r.opts.Resume {
			r.logger.Info("resuming job", logging.String("job_id", jobID))
			return existing, nil
		}
		if existing.Status == StatusStarted {
			existing.Status = StatusCancelled
			if err := SaveState(ctx, r.repo, existing); err != nil {
				return nil, fmt.Errorf("cancel stale job %s: %w", jobID, err)
			}
			r.logger.Info("cancelled stale job", logging.String("job_id", jobID))
		}
		archivedID := jobID + "-" + uuid.NewString()[:8]
		if err := r.repo.ArchiveJobState(ctx, jobID, archivedID); err != nil {
			return nil, err
		}
	}

	ids, err := r.repo.ListAuthorProfileIDs(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}
	state := NewState(jobID, len(ids))
	if err := SaveState(ctx, r.repo, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (r *Runner) processProfile(ctx context.Context, state *State, id int64) error {
	profile, err := r.repo.FindAuthorProfile(ctx, id)
	if err != nil {
		return fmt.Errorf("load profile %d: %w", id, err)
	}
	if profile == nil {
		// Deleted mid-run, normally by an earlier duplicate merge.
		state.MarkCompleted(id)
		return nil
	}

	if !r.opts.Force {
		if _, validated, err := r.repo.GetProfileMeta(ctx, id, identity.ValidatedMetaKey); err != nil {
			return fmt.Errorf("read validated tag for %d: %w", id, err)
		} else if validated {
			state.MarkCompleted(id)
			return nil
		}
	}

	merged, err := r.mergeDuplicates(ctx, state, profile)
	if err != nil {
		return r.recordOrAbort(state, id, err)
	}
	if merged {
		// This profile was folded into a lower-id canonical.
		state.MarkCompleted(id)
		return nil
	}

	res, err := r.policy.Resolve(ctx, profile)
	if err != nil {
		return r.recordOrAbort(state, id, err)
	}

	switch res.Class {
	case resolve.AlreadyConsistent:
		return r.markValidated(ctx, state, id)
	case resolve.Ambiguous:
		state.MarkNotValidated(Issue{
			ProfileID:    id,
			Kind:         identity.IssueAmbiguousMatch,
			Detail:       fmt.Sprintf("%d account / %d group candidates", len(res.Candidates.Accounts), len(res.Candidates.Groups)),
			CandidateIDs: candidateIDs(res.Candidates),
		})
		return nil
	case resolve.NotFound:
		state.MarkNotValidated(Issue{ProfileID: id, Kind: identity.IssueNotFound})
		return nil
	}

	plan, err := r.planner.Plan(ctx, res.Binding)
	if err != nil {
		return r.recordOrAbort(state, id, err)
	}
	if err := r.executor.Apply(ctx, plan); err != nil {
		return r.recordOrAbort(state, id, err)
	}
	return r.markValidated(ctx, state, id)
}

// mergeDuplicates folds every higher-id profile sharing this profile's email
// into the lowest id. Reports true when the current profile itself was the
// duplicate and no longer exists.
func (r *Runner) mergeDuplicates(ctx context.Context, state *State, profile *identity.AuthorProfile) (bool, error) {
	if profile.Email == "" {
		return false, nil
	}
	dups, err := r.repo.FindAuthorProfilesByEmail(ctx, profile.Email)
	if err != nil {
		return false, fmt.Errorf("find duplicate profiles: %w", err)
	}
	if len(dups) < 2 {
		return false, nil
	}

	canonical := dups[0]
	for _, dup := range dups {
		if dup.ID < canonical.ID {
			canonical = dup
		}
	}
	for _, dup := range dups {
		if dup.ID == canonical.ID {
			continue
		}
		plan, err := r.planner.PlanMerge(ctx, canonical, dup)
		if err != nil {
			return false, err
		}
		if err := r.executor.Apply(ctx, plan); err != nil {
			return false, err
		}
		r.logger.Info("merged duplicate profile",
			logging.Int64("canonical_id", canonical.ID),
			logging.Int64("duplicate_id", dup.ID),
		)
	}
	return profile.ID != canonical.ID, nil
}

// RepairBinding applies one targeted binding outside the full pass. groupID
// 0 requests standalone synthesis; accountID 0 omits the account.
func (r *Runner) RepairBinding(ctx context.Context, profileID, groupID, accountID int64) (*repair.Plan, error) {
	if err := r.registry.Load(ctx, r.repo); err != nil {
		return nil, fmt.Errorf("load slug registry: %w", err)
	}

	profile, err := r.repo.FindAuthorProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("profile %d: %w", profileID, identity.ErrNotFound)
	}
	binding := repair.Binding{Profile: profile}
	if accountID != 0 {
		account, err := r.repo.FindAccountByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, fmt.Errorf("account %d: %w", accountID, identity.ErrNotFound)
		}
		binding.Account = account
	}
	if groupID != 0 {
		group, err := r.repo.FindDisplayGroupByID(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if group == nil {
			return nil, fmt.Errorf("group %d: %w", groupID, identity.ErrNotFound)
		}
		binding.Group = group
	}

	plan, err := r.planner.Plan(ctx, binding)
	if err != nil {
		return nil, err
	}
	if err := r.executor.Apply(ctx, plan); err != nil {
		return plan, err
	}
	if err := r.repo.SetProfileMeta(ctx, profileID, identity.ValidatedMetaKey, validatedValue); err != nil {
		return plan, fmt.Errorf("tag profile %d validated: %w", profileID, err)
	}
	return plan, nil
}

func (r *Runner) markValidated(ctx context.Context, state *State, id int64) error {
	if err := r.repo.SetProfileMeta(ctx, id, identity.ValidatedMetaKey, validatedValue); err != nil {
		return fmt.Errorf("tag profile %d validated: %w", id, err)
	}
	state.MarkCompleted(id)
	return nil
}

// recordOrAbort turns a per-profile error into an audit issue, or propagates
// it when it is fatal for the whole run. Only errors from the per-record
// taxonomy continue the run; a failing repository aborts at the first profile
// instead of being logged as an issue against every remaining one.
func (r *Runner) recordOrAbort(state *State, id int64, err error) error {
	if identity.Fatal(err) || !identity.PerRecord(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	r.logger.Warn("profile not validated",
		logging.Int64("profile_id", id),
		logging.Error(err),
	)
	state.MarkNotValidated(Issue{
		ProfileID: id,
		Kind:      identity.KindForError(err),
		Detail:    err.Error(),
	})
	return nil
}

func candidateIDs(res match.Result) []int64 {
	ids := make([]int64, 0, len(res.Accounts)+len(res.Groups))
	for _, c := range res.Accounts {
		ids = append(ids, c.Account.ID)
	}
	for _, c := range res.Groups {
		ids = append(ids, c.Group.ID)
	}
	return ids
}
