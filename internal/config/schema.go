// Package config provides configuration management for pyship.
package config

import "fmt"

// ConfigFileNames are the base names searched for a config file.
var ConfigFileNames = []string{"pyship", ".pyship"}

// ConfigFileExtensions are the extensions searched for a config file.
var ConfigFileExtensions = []string{"yaml", "yml"}

// Config is the complete pyship configuration.
type Config struct {
	Repository RepositoryConfig `mapstructure:"repository" yaml:"repository"`
	GitHub     GitHubConfig     `mapstructure:"github" yaml:"github"`
	Release    ReleaseConfig    `mapstructure:"release" yaml:"release"`
	PyPI       PyPIConfig       `mapstructure:"pypi" yaml:"pypi"`
	Packaging  PackagingConfig  `mapstructure:"packaging" yaml:"packaging"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
}

// RepositoryConfig identifies the repository under release.
type RepositoryConfig struct {
	// Slug is the owner/repo identity. Empty means "infer from CI
	// facts or the origin remote".
	Slug string `mapstructure:"slug" yaml:"slug"`
}

// GitHubConfig configures the hosting client.
type GitHubConfig struct {
	// Token authenticates against the API. Supports ${VAR} expansion;
	// defaults to ${GITHUB_TOKEN}.
	Token string `mapstructure:"token" yaml:"token"`
	// BaseURL targets a GitHub Enterprise instance. Empty means
	// github.com.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// RequestsPerSecond paces API calls.
	RequestsPerSecond int `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	// RetryAttempts bounds retries of transient read failures.
	RetryAttempts int `mapstructure:"retry_attempts" yaml:"retry_attempts"`
}

// ReleaseConfig configures the release orchestration.
type ReleaseConfig struct {
	// Branch is the branch releases are cut from.
	Branch string `mapstructure:"branch" yaml:"branch"`
	// MasterBranch is additionally fast-forwarded on release.
	MasterBranch string `mapstructure:"master_branch" yaml:"master_branch"`
	// VersionFile is the package metadata file carrying the version
	// (setup.py or pyproject.toml).
	VersionFile string `mapstructure:"version_file" yaml:"version_file"`
}

// PyPIConfig configures wheel uploads.
type PyPIConfig struct {
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	// RepositoryURL targets a non-default index.
	RepositoryURL string `mapstructure:"repository_url" yaml:"repository_url"`
	// Test uploads to test.pypi.org instead.
	Test bool `mapstructure:"test" yaml:"test"`
}

// PackagingConfig configures artifact builds.
type PackagingConfig struct {
	// Python is the interpreter used for wheel builds.
	Python string `mapstructure:"python" yaml:"python"`
}

// OutputConfig configures CLI output.
type OutputConfig struct {
	Color    bool   `mapstructure:"color" yaml:"color"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose"`
	Quiet    bool   `mapstructure:"quiet" yaml:"quiet"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			Token:             "${GITHUB_TOKEN}",
			RequestsPerSecond: 10,
			RetryAttempts:     3,
		},
		Release: ReleaseConfig{
			Branch:       "release",
			MasterBranch: "master",
			VersionFile:  "setup.py",
		},
		PyPI: PyPIConfig{
			Username: "${TWINE_USERNAME}",
			Password: "${TWINE_PASSWORD}",
		},
		Packaging: PackagingConfig{
			Python: "python",
		},
		Output: OutputConfig{
			Color:    true,
			LogLevel: "info",
		},
	}
}

// String renders a short summary without secrets.
func (c *Config) String() string {
	return fmt.Sprintf("Config{repo: %s, release: %s -> %s, version_file: %s}",
		c.Repository.Slug, c.Release.Branch, c.Release.MasterBranch, c.Release.VersionFile)
}
