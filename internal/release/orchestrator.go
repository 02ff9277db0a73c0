package release

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/felixgeelhaar/statekit"

	"github.com/relicta-tech/pyship/internal/domain/changelog"
	"github.com/relicta-tech/pyship/internal/domain/version"
	pserr "github.com/relicta-tech/pyship/internal/errors"
	"github.com/relicta-tech/pyship/internal/hosting"
	"github.com/relicta-tech/pyship/internal/resolver"
)

// VersionFile reads and rewrites the project version inside a package
// metadata file (setup.py or pyproject.toml). Implementations live in
// internal/pyproject.
type VersionFile interface {
	// Path is the file's path relative to the repository root.
	Path() string
	// ReadVersion extracts the version recorded in contents.
	ReadVersion(contents string) (version.SemanticVersion, error)
	// WriteVersion returns contents with the version replaced by next.
	WriteVersion(contents string, next version.SemanticVersion) (string, error)
}

// Request names the branches a release run operates on.
type Request struct {
	// Branch is the branch whose HEAD is being released.
	Branch string
	// MasterBranch is additionally fast-forwarded to the release
	// commit when it differs from the release branch. Empty skips it.
	MasterBranch string
	// ReleaseBranch is the branch fast-forwarded to the release
	// commit. Empty defaults to Branch.
	ReleaseBranch string
	// Force skips the eligibility validation.
	Force bool
}

// Result describes a completed release run.
type Result struct {
	Version   version.SemanticVersion
	Release   hosting.Release
	Changelog *changelog.Changelog
	Phase     Phase
}

// Orchestrator drives a full release run: validate the head commit,
// compute the changelog and next version, commit the version bump,
// publish the release, close the released issues, fast-forward the
// branches and clean up the source PR branch.
//
// Runs are safe to repeat and to race: an unchanged head no-ops via
// the already-released check, and a concurrent release on the same
// version either matches idempotently or surfaces ErrReleaseConflict.
type Orchestrator struct {
	client      hosting.Client
	resolver    *resolver.Resolver
	generator   *Generator
	versionFile VersionFile
	observer    Observer
	logger      *log.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithObserver sets the observer notified during release runs.
func WithObserver(o Observer) Option {
	return func(orc *Orchestrator) {
		if o != nil {
			orc.observer = o
		}
	}
}

// NewOrchestrator creates a release orchestrator.
func NewOrchestrator(client hosting.Client, versionFile VersionFile, logger *log.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	orc := &Orchestrator{
		client:      client,
		resolver:    resolver.New(client, logger),
		versionFile: versionFile,
		observer:    NopObserver{},
		logger:      logger.With("component", "release"),
	}
	for _, opt := range opts {
		opt(orc)
	}
	orc.generator = NewGenerator(client, logger, WithGeneratorObserver(orc.observer))
	return orc
}

// ReleaseBranch runs the full release flow against req.Branch's HEAD.
// Eligibility failures are reported through errors matched by
// IsNotEligible; everything else is a hard failure.
func (o *Orchestrator) ReleaseBranch(ctx context.Context, req Request) (*Result, error) {
	const op = "ReleaseBranch"

	if req.Branch == "" {
		return nil, pserr.Validation(op, "branch is required")
	}
	if req.ReleaseBranch == "" {
		req.ReleaseBranch = req.Branch
	}

	m, err := newPhaseMachine()
	if err != nil {
		return nil, pserr.InternalWrap(err, op, "failed to build release machine")
	}
	o.observer.OnPhaseChange(m.phase())

	head, err := o.client.GetBranchHead(ctx, req.Branch)
	if err != nil {
		return o.fail(m, err)
	}
	o.logger.Info("starting release run", "branch", req.Branch, "head", head.SHA, "force", req.Force)
	o.observer.OnValidationStart(head.SHA)

	// Resolve the head commit up front: validation needs the issue and
	// the cleanup step needs the PR's head branch. In force mode a
	// resolution failure only costs the PR cleanup.
	var prBranch string
	res, rerr := o.resolver.Resolve(ctx, head)
	if rerr != nil && !req.Force {
		return o.fail(m, rerr)
	}
	if res != nil && res.Via != nil {
		prBranch = res.Via.HeadBranch
	}

	if !req.Force {
		if err := o.validate(ctx, head, res); err != nil {
			if IsNotEligible(err) {
				return o.skip(m, err)
			}
			return o.fail(m, err)
		}
	}

	cl, err := o.generator.Generate(ctx, head.SHA, "")
	if err != nil {
		if errors.Is(err, ErrEmptyChangelog) {
			return o.skip(m, err)
		}
		return o.fail(m, err)
	}
	o.advance(m, eventChangelogComputed)

	next, ok := cl.NextVersion()
	if !ok {
		return o.skip(m, fmt.Errorf("%w: head %s", ErrCannotDetermineNextVersion, head.SHA))
	}
	o.logger.Info("computed next version", "current", cl.CurrentVersion(), "next", next)

	bump, err := o.bumpCommit(ctx, head, next)
	if err != nil {
		return o.fail(m, err)
	}
	o.advance(m, eventVersionBumped)

	rel, err := o.createRelease(ctx, next, bump, cl)
	if err != nil {
		return o.fail(m, err)
	}
	o.observer.OnReleaseCreated(rel)
	o.advance(m, eventReleased)

	if err := o.closeIssues(ctx, cl, next, rel); err != nil {
		return o.fail(m, err)
	}
	o.advance(m, eventIssuesClosed)

	if err := o.updateBranches(ctx, req, bump, rel, next); err != nil {
		return o.fail(m, err)
	}
	o.advance(m, eventBranchesUpdated)

	if err := o.cleanupPRBranch(ctx, prBranch); err != nil {
		return o.fail(m, err)
	}
	o.advance(m, eventPRCleanedUp)
	o.advance(m, eventComplete)

	o.logger.Info("release complete", "version", next, "url", rel.URL)
	return &Result{
		Version:   next,
		Release:   rel,
		Changelog: cl,
		Phase:     m.phase(),
	}, nil
}

// validate enforces release eligibility on the head commit. The
// already-released check runs first so that re-running against a head
// the previous run produced (a bump commit) no-ops cleanly.
func (o *Orchestrator) validate(ctx context.Context, head hosting.Commit, res *resolver.Resolution) error {
	tags, err := o.client.ListTags(ctx)
	if err != nil {
		return err
	}
	for _, t := range tags {
		if t.SHA == head.SHA {
			return fmt.Errorf("%w: %s is the target of tag %s", ErrCommitAlreadyReleased, head.SHA, t.Name)
		}
	}
	if res == nil {
		return fmt.Errorf("%w: %s", ErrCommitNotRelatedToIssue, head.SHA)
	}
	if ModifierForIssue(res.Issue) == version.ModifierNone {
		return fmt.Errorf("%w: issue #%d", ErrIssueNotLabeledAsRelease, res.Issue.Number)
	}
	return nil
}

// bumpCommit creates the single-file version bump commit on top of head.
func (o *Orchestrator) bumpCommit(ctx context.Context, head hosting.Commit, next version.SemanticVersion) (hosting.Commit, error) {
	contents, err := o.client.GetFileContents(ctx, head.SHA, o.versionFile.Path())
	if err != nil {
		return hosting.Commit{}, err
	}
	current, err := o.versionFile.ReadVersion(contents)
	if err != nil {
		return hosting.Commit{}, err
	}
	if current.Equal(next) {
		return hosting.Commit{}, fmt.Errorf("%w: %s", ErrTargetVersionEqualsCurrentVersion, next)
	}
	updated, err := o.versionFile.WriteVersion(contents, next)
	if err != nil {
		return hosting.Commit{}, err
	}
	message := "Bump version to " + next.String()
	bump, err := o.client.CreateCommit(ctx, head.SHA, o.versionFile.Path(), updated, message)
	if err != nil {
		return hosting.Commit{}, err
	}
	o.logger.Debug("created bump commit", "sha", bump.SHA, "version", next)
	return bump, nil
}

// createRelease publishes the release, resolving an AlreadyExists race
// into either an idempotent match or ErrReleaseConflict.
func (o *Orchestrator) createRelease(ctx context.Context, next version.SemanticVersion, bump hosting.Commit, cl *changelog.Changelog) (hosting.Release, error) {
	tag := next.String()
	rel, err := o.client.CreateRelease(ctx, tag, bump.SHA, tag, cl.Render())
	if err == nil {
		return rel, nil
	}
	if !pserr.IsKind(err, pserr.KindAlreadyExists) {
		return hosting.Release{}, err
	}

	existing, gerr := o.client.GetRelease(ctx, tag)
	if gerr != nil {
		return hosting.Release{}, gerr
	}
	if existing.TargetSHA == bump.SHA {
		o.logger.Info("release already exists for this commit", "version", tag)
		return existing, nil
	}
	return hosting.Release{}, fmt.Errorf("%w: release %s targets %s, expected %s",
		ErrReleaseConflict, tag, existing.TargetSHA, bump.SHA)
}

// closeIssues comments on and closes every issue in the changelog.
// Closures are independent; all failures are collected and reported
// together so one bad issue does not hide the others.
func (o *Orchestrator) closeIssues(ctx context.Context, cl *changelog.Changelog, next version.SemanticVersion, rel hosting.Release) error {
	var errs []error
	for _, ic := range cl.AllIssues() {
		body := fmt.Sprintf("This issue is part of release [%s](%s)", next, rel.URL)
		if err := o.client.CommentOnIssue(ctx, ic.Number, body); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := o.client.CloseIssue(ctx, ic.Number); err != nil {
			errs = append(errs, err)
			continue
		}
		o.observer.OnIssueClosed(ic.Number)
	}
	if len(errs) > 0 {
		return pserr.ReleaseWrap(errors.Join(errs...), "closeIssues", "failed to close released issues")
	}
	return nil
}

// updateBranches fast-forwards the release and master branches to the
// bump commit. A rejected fast-forward means someone pushed
// concurrently: the release and its tag are deleted so no release
// points at a commit unreachable from the branch, then the conflict
// propagates.
func (o *Orchestrator) updateBranches(ctx context.Context, req Request, bump hosting.Commit, rel hosting.Release, next version.SemanticVersion) error {
	branches := []string{req.ReleaseBranch}
	if req.MasterBranch != "" && req.MasterBranch != req.ReleaseBranch {
		branches = append(branches, req.MasterBranch)
	}
	for _, b := range branches {
		if err := o.client.UpdateRef(ctx, hosting.BranchRef(b), bump.SHA, false); err != nil {
			if pserr.IsKind(err, pserr.KindConflict) {
				o.compensate(ctx, rel, next.String())
			}
			return err
		}
		o.observer.OnBranchUpdated(b, bump.SHA)
	}
	return nil
}

// compensate undoes a just-created release after a failed branch
// update. Best effort: failures are logged, the original conflict is
// what propagates.
func (o *Orchestrator) compensate(ctx context.Context, rel hosting.Release, tag string) {
	o.logger.Warn("branch moved concurrently, deleting release", "version", tag)
	if err := o.client.DeleteRelease(ctx, rel.ID); err != nil {
		o.logger.Error("failed to delete release during compensation", "version", tag, "error", err)
	}
	if err := o.client.DeleteRef(ctx, hosting.TagRef(tag)); err != nil && !pserr.IsKind(err, pserr.KindNotFound) {
		o.logger.Error("failed to delete tag during compensation", "tag", tag, "error", err)
	}
}

// cleanupPRBranch deletes the source PR's head branch. The branch is
// often already gone (merged and deleted on the host), so NotFound is
// swallowed.
func (o *Orchestrator) cleanupPRBranch(ctx context.Context, prBranch string) error {
	if prBranch == "" {
		return nil
	}
	err := o.client.DeleteRef(ctx, hosting.BranchRef(prBranch))
	if err != nil && !pserr.IsKind(err, pserr.KindNotFound) {
		return err
	}
	return nil
}

func (o *Orchestrator) advance(m *phaseMachine, evt statekit.EventType) {
	m.advance(evt)
	o.observer.OnPhaseChange(m.phase())
}

func (o *Orchestrator) skip(m *phaseMachine, err error) (*Result, error) {
	m.advance(eventSkip)
	o.observer.OnPhaseChange(m.phase())
	o.logger.Info("not releasing", "reason", err)
	return nil, err
}

func (o *Orchestrator) fail(m *phaseMachine, err error) (*Result, error) {
	m.advance(eventFail)
	o.observer.OnPhaseChange(m.phase())
	return nil, err
}
