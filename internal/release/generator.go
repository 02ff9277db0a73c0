package release

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/relicta-tech/pyship/internal/domain/changelog"
	"github.com/relicta-tech/pyship/internal/domain/version"
	pserr "github.com/relicta-tech/pyship/internal/errors"
	"github.com/relicta-tech/pyship/internal/hosting"
	"github.com/relicta-tech/pyship/internal/resolver"
)

// Generator builds a Changelog from the commit range between a head
// commit and a base, resolving every commit to its issue.
type Generator struct {
	client   hosting.Client
	resolver *resolver.Resolver
	observer Observer
	logger   *log.Logger
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithGeneratorObserver sets the observer notified per processed commit.
func WithGeneratorObserver(o Observer) GeneratorOption {
	return func(g *Generator) {
		if o != nil {
			g.observer = o
		}
	}
}

// NewGenerator creates a changelog generator.
func NewGenerator(client hosting.Client, logger *log.Logger, opts ...GeneratorOption) *Generator {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	g := &Generator{
		client:   client,
		resolver: resolver.New(client, logger),
		observer: NopObserver{},
		logger:   logger.With("component", "changelog"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds the changelog for head relative to base. head and
// base accept a sha or a branch name. An empty base means "since the
// last release before head", falling back to the full history when no
// release exists yet.
func (g *Generator) Generate(ctx context.Context, head, base string) (*changelog.Changelog, error) {
	headCommit, err := g.resolveCommit(ctx, head)
	if err != nil {
		return nil, err
	}

	baseSHA, baseTime, current, err := g.determineBase(ctx, headCommit, base)
	if err != nil {
		return nil, err
	}

	commits, err := g.client.ListCommits(ctx, headCommit.SHA)
	if err != nil {
		return nil, err
	}
	ranged := cutAtBase(commits, baseSHA, baseTime)
	if len(ranged) == 0 {
		return nil, fmt.Errorf("%w: no commits between %s and its base", ErrEmptyChangelog, headCommit.SHA)
	}
	g.logger.Debug("collected commit range", "head", headCommit.SHA, "base", baseSHA, "commits", len(ranged))

	cl := changelog.New(headCommit.SHA, current)
	for _, c := range ranged {
		res, err := g.resolver.Resolve(ctx, c)
		if err != nil {
			return nil, err
		}
		if res == nil {
			g.observer.OnCommitProcessed(c, nil)
			cl.AddCommit(changelog.CommitChange{
				Title:     commitTitle(c.Message),
				URL:       c.URL,
				Timestamp: c.Timestamp,
			})
			continue
		}
		issue := res.Issue
		g.observer.OnCommitProcessed(c, &issue)
		// The fold and the section ordering run on the issue's
		// creation time, not the commit time.
		cl.Add(changelog.IssueChange{
			Number:    issue.Number,
			Title:     issue.Title,
			URL:       issue.URL,
			Timestamp: issue.CreatedAt,
			Kind:      KindForIssue(issue),
			Modifier:  ModifierForIssue(issue),
		})
	}
	return cl, nil
}

// UpdateReleaseNotes regenerates the changelog for the release tagged
// tag and stores it as the release body. The release's own creation
// time is after its target commit, so the regenerated range is the one
// the release was cut from, not an empty diff against itself.
func (g *Generator) UpdateReleaseNotes(ctx context.Context, tag string) (hosting.Release, error) {
	rel, err := g.client.GetRelease(ctx, tag)
	if err != nil {
		return hosting.Release{}, err
	}

	cl, err := g.Generate(ctx, rel.TargetSHA, "")
	if err != nil {
		return hosting.Release{}, err
	}

	g.logger.Info("updating release notes", "tag", tag, "target", rel.TargetSHA)
	return g.client.UpdateReleaseBody(ctx, rel.ID, cl.Render())
}

// resolveCommit accepts a sha or a branch name.
func (g *Generator) resolveCommit(ctx context.Context, ref string) (hosting.Commit, error) {
	commit, err := g.client.GetCommit(ctx, ref)
	if err == nil {
		return commit, nil
	}
	if !pserr.IsKind(err, pserr.KindNotFound) {
		return hosting.Commit{}, err
	}
	return g.client.GetBranchHead(ctx, ref)
}

// determineBase picks the commit the changelog range is cut at. An
// explicit base wins; otherwise the base is the target of the most
// recent release created at or before the head commit's time, which
// also supplies the current version for the next-version fold.
func (g *Generator) determineBase(ctx context.Context, head hosting.Commit, base string) (string, time.Time, version.SemanticVersion, error) {
	releases, err := g.client.ListReleases(ctx)
	if err != nil {
		return "", time.Time{}, version.Zero, err
	}

	if base != "" {
		baseCommit, err := g.resolveCommit(ctx, base)
		if err != nil {
			return "", time.Time{}, version.Zero, err
		}
		current := version.Zero
		for _, r := range releases {
			if r.TargetSHA == baseCommit.SHA {
				if v, err := version.Parse(releaseVersion(r)); err == nil {
					current = v
				}
				break
			}
		}
		return baseCommit.SHA, baseCommit.Timestamp, current, nil
	}

	// Releases arrive newest first. Skipping the ones created after
	// head handles releases cut out of order relative to history.
	for _, r := range releases {
		if r.CreatedAt.After(head.Timestamp) {
			continue
		}
		current, err := version.Parse(releaseVersion(r))
		if err != nil {
			return "", time.Time{}, version.Zero, pserr.VersionWrap(err, "determineBase",
				"release "+releaseVersion(r)+" does not carry a semantic version")
		}
		return r.TargetSHA, r.CreatedAt, current, nil
	}
	return "", time.Time{}, version.Zero, nil
}

// cutAtBase trims the newest-first commit list at the base commit,
// excluding it. When the base sha is not in the listing (history was
// rewritten), the release timestamp filter approximates the cut.
func cutAtBase(commits []hosting.Commit, baseSHA string, baseTime time.Time) []hosting.Commit {
	if baseSHA == "" {
		return commits
	}
	for i, c := range commits {
		if c.SHA == baseSHA {
			return commits[:i]
		}
	}
	out := make([]hosting.Commit, 0, len(commits))
	for _, c := range commits {
		if c.Timestamp.After(baseTime) {
			out = append(out, c)
		}
	}
	return out
}

func releaseVersion(r hosting.Release) string {
	if r.TagName != "" {
		return r.TagName
	}
	return r.Title
}

func commitTitle(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return strings.TrimSpace(message[:i])
	}
	return strings.TrimSpace(message)
}
