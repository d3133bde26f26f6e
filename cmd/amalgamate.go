package cmd

import (
	"fmt"
	"time"

	"amalgam/pkg/chain"
	"amalgam/pkg/collect"
	"amalgam/pkg/config"
	"amalgam/pkg/logging"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// options holds the command-line flags.
type options struct {
	configPath      string
	output          string
	includes        []string
	excludes        []string
	includeDirs     []string
	recursive       bool
	caseInsensitive bool
	verbose         bool
}

var opts options

func runAmalgamate(cmd *cobra.Command, args []string) error {
	logger := logging.Logger

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	mergeFlags(cmd, cfg, args)

	if len(cfg.Include) == 0 {
		return cmd.Help()
	}
	return Amalgamate(cfg, logger)
}

// mergeFlags applies command-line values on top of the loaded config.
func mergeFlags(cmd *cobra.Command, cfg *config.Config, args []string) {
	flags := cmd.Flags()
	if flags.Changed("output") || cfg.Output == "" {
		cfg.Output = opts.output
	}
	if opts.recursive {
		cfg.Recursive = true
	}
	if flags.Changed("case-insensitive") {
		caseInsensitive := opts.caseInsensitive
		cfg.CaseInsensitive = &caseInsensitive
	}
	cfg.Include = append(cfg.Include, opts.includes...)
	cfg.Include = append(cfg.Include, args...)
	cfg.Exclude = append(cfg.Exclude, opts.excludes...)
	cfg.IncludeDirs = append(cfg.IncludeDirs, opts.includeDirs...)
}

// Amalgamate collects the configured files and writes the flattened output.
func Amalgamate(cfg *config.Config, logger *zap.Logger) error {
	startTime := time.Now()

	cmp := chain.DefaultComparer()
	if cfg.CaseInsensitive != nil {
		cmp = chain.CaseSensitive
		if *cfg.CaseInsensitive {
			cmp = chain.CaseInsensitive
		}
	}

	fc := chain.New(logger, chain.WithComparer(cmp))
	for _, dir := range cfg.IncludeDirs {
		fc.AddIncludeDir(dir)
	}

	findOpts := collect.Options{
		Recursive:       cfg.Recursive,
		CaseInsensitive: cmp == chain.CaseInsensitive,
		SkipBinary:      true,
	}
	for _, arg := range cfg.Include {
		found, err := collect.Find(arg, findOpts, logger)
		if err != nil {
			logger.Warn("Failed to expand include pattern", zap.String("pattern", arg), zap.Error(err))
			continue
		}
		if len(found.Binary) > 0 {
			logger.Warn("Detected binary files. These files are not included in the output.",
				zap.Int("binaryFileCount", len(found.Binary)),
				zap.Strings("binaryFiles", found.Binary))
		}
		for _, path := range found.Regular {
			if err := fc.PushFile(path); err != nil {
				logger.Warn("Failed to add file", zap.String("file", path), zap.Error(err))
			}
		}
	}

	// Excludes apply after every include has been collected.
	findOpts.SkipBinary = false
	for _, arg := range cfg.Exclude {
		found, err := collect.Find(arg, findOpts, logger)
		if err != nil {
			logger.Warn("Failed to expand exclude pattern", zap.String("pattern", arg), zap.Error(err))
			continue
		}
		for _, path := range found.Regular {
			if err := fc.ExcludeFile(path); err != nil {
				logger.Warn("Failed to exclude file", zap.String("file", path), zap.Error(err))
			}
		}
	}

	if fc.Len() == 0 {
		logger.Warn("No files to process after filtering.")
		return nil
	}

	output := cfg.OutputPath()
	stats, err := fc.Generate(output)
	if err != nil {
		return fmt.Errorf("failed to generate %s: %w", output, err)
	}
	if stats.Unreadable != nil {
		logger.Warn("Some eligible files could not be read",
			zap.Errors("errors", multierr.Errors(stats.Unreadable)))
	}

	logger.Info("Successfully amalgamated files",
		zap.String("outputFile", output),
		zap.Int("eligibleFiles", fc.Len()),
		zap.Int("emittedFiles", stats.Files),
		zap.Int("inlinedIncludes", stats.Inlined),
		zap.Int("verbatimIncludes", stats.Verbatim),
		zap.Duration("elapsed", time.Since(startTime)))
	return nil
}
