// Package pypi uploads built wheels to a PyPI-compatible index by
// shelling out to twine.
package pypi

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	pserr "github.com/relicta-tech/pyship/internal/errors"
)

// ErrAlreadyPublished indicates the exact wheel is already on the
// index. The release flow treats this as a soft success: a previous
// partial run already did the work.
var ErrAlreadyPublished = errors.New("wheel is already published")

// TestRepositoryURL is the upload endpoint of test.pypi.org.
const TestRepositoryURL = "https://test.pypi.org/legacy/"

// Credentials authenticate a twine upload. For API tokens the
// username is literally "__token__".
type Credentials struct {
	Username string
	Password string
}

// Uploader uploads wheels with twine.
type Uploader struct {
	repositoryURL string
	twine         string
	logger        *log.Logger
}

// UploaderOption customizes an Uploader.
type UploaderOption func(*Uploader)

// WithRepositoryURL targets a non-default index (e.g. test.pypi.org or
// a private mirror).
func WithRepositoryURL(url string) UploaderOption {
	return func(u *Uploader) { u.repositoryURL = url }
}

// WithTwine overrides the twine executable.
func WithTwine(twine string) UploaderOption {
	return func(u *Uploader) {
		if twine != "" {
			u.twine = twine
		}
	}
}

// NewUploader creates an Uploader.
func NewUploader(logger *log.Logger, opts ...UploaderOption) *Uploader {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	u := &Uploader{
		twine:  "twine",
		logger: logger.With("component", "pypi"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload pushes a wheel to the index. Fails with ErrAlreadyPublished
// when the index already carries this exact file.
func (u *Uploader) Upload(ctx context.Context, wheelPath string, creds Credentials) error {
	const op = "Upload"

	if creds.Username == "" || creds.Password == "" {
		return pserr.Config(op, "PyPI credentials are required (set PYSHIP_PYPI_USERNAME and PYSHIP_PYPI_PASSWORD)")
	}
	if _, err := os.Stat(wheelPath); err != nil {
		return pserr.IOWrap(err, op, "wheel does not exist: "+wheelPath)
	}

	args := []string{"upload", "--non-interactive"}
	if u.repositoryURL != "" {
		args = append(args, "--repository-url", u.repositoryURL)
	}
	args = append(args, wheelPath)

	cmd := exec.CommandContext(ctx, u.twine, args...)
	cmd.Env = append(os.Environ(),
		"TWINE_USERNAME="+creds.Username,
		"TWINE_PASSWORD="+creds.Password,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	u.logger.Info("uploading wheel", "path", wheelPath, "repository", u.repositoryURL)
	if err := cmd.Run(); err != nil {
		if isAlreadyPublished(out.String()) {
			return ErrAlreadyPublished
		}
		return pserr.PublishWrap(err, op, pserr.RedactSensitive("twine upload failed:\n"+out.String()))
	}
	return nil
}

// isAlreadyPublished matches the index's duplicate-file rejection.
// PyPI answers 400 with "File already exists"; other warehouses phrase
// it slightly differently.
func isAlreadyPublished(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "file already exists") ||
		strings.Contains(lower, "filename has already been used")
}
