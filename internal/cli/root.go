// Package cli provides the command-line interface for pyship.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/relicta-tech/pyship/internal/config"
	pserr "github.com/relicta-tech/pyship/internal/errors"
)

var (
	// Version information set by main.
	versionInfo struct {
		Version string
		Commit  string
		Date    string
	}

	// Global flags
	cfgFile    string
	verbose    bool
	quiet      bool
	outputJSON bool
	noColor    bool
	logLevel   string
	slugFlag   string
	tokenFlag  string

	// Global config
	cfg *config.Config

	// Logger
	logger *log.Logger

	// Styles
	styles = struct {
		Title   lipgloss.Style
		Success lipgloss.Style
		Error   lipgloss.Style
		Warning lipgloss.Style
		Info    lipgloss.Style
		Subtle  lipgloss.Style
	}{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
)

// SetVersionInfo sets the version information from main.
func SetVersionInfo(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pyship",
	Short: "Automated GitHub releases for Python projects",
	Long: `pyship automates the release flow of Python projects hosted on GitHub.

It follows the trail from a commit to its merge pull request and on to
the issue that pull request resolved. Release-labeled issues decide the
version bump, become the changelog, and are closed with a comment once
the release is published.

A typical run on a release branch:
  pyship release

Get started with 'pyship init' to write a default configuration.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "init", "version", "help":
			return nil
		}
		return initConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a context for graceful shutdown.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: pyship.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output results as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&slugFlag, "repository", "", "repository slug (owner/repo), overrides detection")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "GitHub token, overrides config and environment")

	viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("output.quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(changelogCmd)
	rootCmd.AddCommand(validateCommitCmd)
	rootCmd.AddCommand(validateBuildCmd)
	rootCmd.AddCommand(createReleaseCmd)
	rootCmd.AddCommand(deleteReleaseCmd)
	rootCmd.AddCommand(uploadAssetCmd)
	rootCmd.AddCommand(bumpVersionCmd)
	rootCmd.AddCommand(setVersionCmd)
	rootCmd.AddCommand(createBranchCmd)
	rootCmd.AddCommand(deleteBranchCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(pypiCmd)
}

// initConfig loads the configuration and applies global flags to it.
func initConfig() error {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader.WithConfigPath(cfgFile)
	}

	var err error
	cfg, err = loader.Load()
	if err != nil {
		return err
	}

	applyGlobalFlags()
	configureLogger()
	return nil
}

// applyGlobalFlags applies global CLI flags to the configuration.
func applyGlobalFlags() {
	if verbose {
		cfg.Output.Verbose = true
	}
	if quiet {
		cfg.Output.Quiet = true
	}
	if logLevel != "" {
		cfg.Output.LogLevel = logLevel
	}
	if slugFlag != "" {
		cfg.Repository.Slug = slugFlag
	}
	if tokenFlag != "" {
		cfg.GitHub.Token = tokenFlag
	}
	if noColor {
		cfg.Output.Color = false
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// configureLogger applies the output configuration to the logger.
func configureLogger() {
	switch cfg.Output.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	if cfg.Output.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	if cfg.Output.Quiet {
		logger.SetLevel(log.ErrorLevel)
	}
	if !cfg.Output.Color {
		logger.SetColorProfile(termenv.Ascii)
	}
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pyship %s\n", versionInfo.Version)
		if verbose {
			fmt.Printf("  commit: %s\n", versionInfo.Commit)
			fmt.Printf("  built:  %s\n", versionInfo.Date)
		}
	},
}

// Helper functions for output

func printSuccess(msg string) {
	if quietOutput() {
		return
	}
	fmt.Println(styles.Success.Render("✓ " + msg))
}

func printError(msg string) {
	fmt.Fprintln(os.Stderr, styles.Error.Render("✗ "+msg))
}

func printWarning(msg string) {
	if quietOutput() {
		return
	}
	fmt.Println(styles.Warning.Render("⚠ " + msg))
}

func printInfo(msg string) {
	if quietOutput() {
		return
	}
	fmt.Println(styles.Info.Render("ℹ " + msg))
}

func printTitle(msg string) {
	if quietOutput() {
		return
	}
	fmt.Println(styles.Title.Render(msg))
}

func quietOutput() bool {
	return cfg != nil && cfg.Output.Quiet
}

// PrintError renders err with its cause and, when the error kind
// suggests one, a list of possible solutions. Called by main since
// cobra's own error printing is silenced.
func PrintError(err error) {
	printError(pserr.RedactSensitive(err.Error()))

	solutions := solutionsFor(err)
	if len(solutions) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, styles.Subtle.Render("Possible solutions:"))
	for _, s := range solutions {
		fmt.Fprintln(os.Stderr, styles.Subtle.Render("  - "+s))
	}
}

func solutionsFor(err error) []string {
	switch pserr.GetKind(err) {
	case pserr.KindConfig:
		return []string{
			"run 'pyship init' to write a default pyship.yaml",
			"check the configuration keys named in the message",
		}
	case pserr.KindHosting, pserr.KindNotFound:
		return []string{
			"verify the repository slug (--repository or repository.slug)",
			"verify the GitHub token has access to the repository",
		}
	case pserr.KindRateLimited:
		return []string{
			"lower github.requests_per_second in the configuration",
			"wait for the GitHub rate limit window to reset",
		}
	case pserr.KindNetwork:
		return []string{
			"check network connectivity to the GitHub API",
			"retry the command",
		}
	case pserr.KindConflict:
		return []string{
			"another release run may have moved the branch; rerun to pick up the new head",
		}
	case pserr.KindPublish:
		return []string{
			"verify the PyPI credentials (TWINE_USERNAME, TWINE_PASSWORD)",
			"use pypi.test to upload to the test index first",
		}
	default:
		return nil
	}
}
