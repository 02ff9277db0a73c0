package config

import (
	"path"
	"strings"

	pserr "github.com/relicta-tech/pyship/internal/errors"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for values that cannot work.
// Credentials are deliberately not required here: commands that need
// them check at use time, so read-only commands run without a token.
func Validate(cfg *Config) error {
	const op = "config.Validate"

	if cfg.Release.Branch == "" {
		return pserr.Config(op, "release.branch must not be empty")
	}
	if cfg.Release.VersionFile == "" {
		return pserr.Config(op, "release.version_file must not be empty")
	}
	switch path.Base(cfg.Release.VersionFile) {
	case "setup.py", "pyproject.toml":
	default:
		return pserr.Config(op, "release.version_file must be a setup.py or pyproject.toml path, got: "+cfg.Release.VersionFile)
	}

	if slug := cfg.Repository.Slug; slug != "" {
		parts := strings.Split(slug, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return pserr.Config(op, "repository.slug must be owner/repo, got: "+slug)
		}
	}

	if cfg.GitHub.RequestsPerSecond <= 0 {
		return pserr.Config(op, "github.requests_per_second must be positive")
	}
	if cfg.GitHub.RetryAttempts < 1 {
		return pserr.Config(op, "github.retry_attempts must be at least 1")
	}

	if lvl := cfg.Output.LogLevel; lvl != "" && !validLogLevels[strings.ToLower(lvl)] {
		return pserr.Config(op, "output.log_level must be one of debug, info, warn, error; got: "+lvl)
	}
	if cfg.Output.Quiet && cfg.Output.Verbose {
		return pserr.Config(op, "output.quiet and output.verbose are mutually exclusive")
	}
	return nil
}
