// Package main provides the anvigo command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const configName = ".anvigo"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// usageError marks errors in how the command was invoked.
type usageError struct {
	error
}

func run(args []string, stdout, stderr io.Writer) int {
	// a missing .env is fine
	_ = godotenv.Load()

	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) || isCobraUsage(err) {
		return ExitUsage
	}
	return ExitError
}

// isCobraUsage recognizes usage errors cobra reports without a hook.
func isCobraUsage(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "required flag")
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
		quiet   bool
	)
	cmd := &cobra.Command{
		Use:   "anvigo",
		Short: "Draw KEGG pathway maps and parse annotations for anvi'o projects",
		Long: `anvigo highlights the KEGG orthologs found in anvi'o contigs databases,
genomes and pangenomes on KEGG pathway maps, parses AGNOSTOS output into
anvi'o functions files, and reports high coverage stretches of inversion
profiles.

Settings are read from ~/.anvigo.yaml, ANVIGO_* environment variables
and a .env file in the working directory.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ~/.anvigo.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log debug records")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Log nothing")
	pf.String("kegg-data-dir", "", "KEGG data directory with map_images/")

	app := &app{verbose: &verbose, quiet: &quiet}
	cmd.AddCommand(newKeggCmd(app))
	cmd.AddCommand(newParseCmd(app))
	cmd.AddCommand(newInversionsCmd(app))
	cmd.AddCommand(newConfigCmd())
	return cmd
}

// initConfig reads the config file and environment into viper.
func initConfig(cfgFile string) error {
	viper.SetDefault("backdrop.global", "#d5e8d4")
	viper.SetDefault("backdrop.other", "#ffffff")
	viper.SetEnvPrefix("ANVIGO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// bindFlags binds the named flags of cmd to viper keys. Flag names use
// dashes where keys use underscores.
func bindFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.InheritedFlags().Lookup(name)
		}
		if f == nil {
			return fmt.Errorf("no flag %q", name)
		}
		if err := viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// positional wraps an argument validator so that its errors are usage errors.
func positional(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// app carries state shared by subcommands.
type app struct {
	verbose *bool
	quiet   *bool
	logger  *zap.Logger
}

// log returns the run logger, building it on first use.
func (a *app) log() (*zap.Logger, error) {
	if a.logger != nil {
		return a.logger, nil
	}
	if *a.quiet {
		a.logger = zap.NewNop()
		return a.logger, nil
	}
	level := zapcore.InfoLevel
	if *a.verbose {
		level = zapcore.DebugLevel
	}
	l, err := newLogger(level)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	a.logger = l.With(zap.String("run_id", uuid.NewString()))
	return a.logger, nil
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level)

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("Jan _2 15:04:05.000")
	encoderConfig.StacktraceKey = ""
	config.EncoderConfig = encoderConfig
	return config.Build()
}

// outputFile opens path for writing, or returns stdout for "" and "-".
func outputFile(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}
