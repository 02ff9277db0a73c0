package hosting

import (
	"net/http"
	"testing"

	"github.com/google/go-github/v60/github"

	pserr "github.com/relicta-tech/pyship/internal/errors"
)

func ghError(status int, message string, codes ...string) *github.ErrorResponse {
	e := &github.ErrorResponse{
		Response: &http.Response{StatusCode: status},
		Message:  message,
	}
	for _, code := range codes {
		e.Errors = append(e.Errors, github.Error{Code: code})
	}
	return e
}

func TestMapError(t *testing.T) {
	c := &GitHubClient{}

	tests := []struct {
		name string
		err  error
		want pserr.Kind
	}{
		{"404 maps to not found", ghError(http.StatusNotFound, "Not Found"), pserr.KindNotFound},
		{"422 already_exists maps to already exists", ghError(http.StatusUnprocessableEntity, "Validation Failed", "already_exists"), pserr.KindAlreadyExists},
		{"422 fast forward maps to conflict", ghError(http.StatusUnprocessableEntity, "Update is not a fast forward"), pserr.KindConflict},
		{"422 other maps to validation", ghError(http.StatusUnprocessableEntity, "Validation Failed", "invalid"), pserr.KindValidation},
		{"403 rate limit maps to rate limited", ghError(http.StatusForbidden, "API rate limit exceeded"), pserr.KindRateLimited},
		{"403 other maps to hosting", ghError(http.StatusForbidden, "Resource not accessible"), pserr.KindHosting},
		{"409 maps to conflict", ghError(http.StatusConflict, "Conflict"), pserr.KindConflict},
		{"500 maps to network", ghError(http.StatusInternalServerError, "oops"), pserr.KindNetwork},
		{"rate limit error type", &github.RateLimitError{}, pserr.KindRateLimited},
		{"abuse rate limit error type", &github.AbuseRateLimitError{}, pserr.KindRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.mapError("Op", "msg", tt.err)
			if pserr.GetKind(got) != tt.want {
				t.Errorf("mapError kind = %v, want %v", pserr.GetKind(got), tt.want)
			}
		})
	}
}

func TestHasLabel(t *testing.T) {
	issue := Issue{Labels: []string{"bug", "patch"}}
	if !issue.HasLabel("bug") {
		t.Error("HasLabel(bug) = false, want true")
	}
	if issue.HasLabel("feature") {
		t.Error("HasLabel(feature) = true, want false")
	}
}

func TestRefHelpers(t *testing.T) {
	if got := BranchRef("release"); got != "heads/release" {
		t.Errorf("BranchRef = %q", got)
	}
	if got := TagRef("1.2.3"); got != "tags/1.2.3" {
		t.Errorf("TagRef = %q", got)
	}
}

func TestNewGitHubClientValidation(t *testing.T) {
	if _, err := NewGitHubClient("", "o", "r", nil); err == nil {
		t.Error("empty token should fail")
	}
	if _, err := NewGitHubClient("tok", "", "r", nil); err == nil {
		t.Error("empty owner should fail")
	}
	c, err := NewGitHubClient("tok", "o", "r", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Owner() != "o" || c.Repo() != "r" {
		t.Errorf("client binding = %s/%s", c.Owner(), c.Repo())
	}
}
