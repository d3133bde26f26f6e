package cmd

import (
	"amalgam/pkg/config"
	"amalgam/pkg/logging"
	"amalgam/pkg/version"

	"github.com/spf13/cobra"
)

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "amalgam [flags] [dir/pattern ...]",
	Short: "Amalgam merges a source tree into a single file",
	Long: `Amalgam inlines every #include that names one of the selected files, producing a
single self-contained source file. Includes of files outside the selection are kept verbatim.

Patterns take the form dir/pattern, for example src/*.c;*.h. Positional arguments are
treated like --include.`,
	Example:       `  amalgam -r -i 'src/*.c;*.h' -e 'src/test_*' -I include -o bundle.c`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !opts.verbose {
			return nil
		}
		return logging.Setup(true, "amalgam", version.Get().Version)
	},
	RunE: runAmalgamate,
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	flags := RootCmd.Flags()
	flags.StringArrayVarP(&opts.includes, "include", "i", nil, "pattern of file(s) to amalgamate (repeatable)")
	flags.StringArrayVarP(&opts.excludes, "exclude", "e", nil, "pattern of file(s) to leave out (repeatable)")
	flags.StringArrayVarP(&opts.includeDirs, "include-dir", "I", nil, "add an include search directory (repeatable)")
	flags.StringVarP(&opts.output, "output", "o", config.DefaultOutput, "name of the output file")
	flags.BoolVarP(&opts.recursive, "recursive", "r", false, "search pattern directories recursively")
	flags.BoolVar(&opts.caseInsensitive, "case-insensitive", false, "compare paths ignoring letter case")
	flags.StringVar(&opts.configPath, "config", "", "YAML config file (default $"+config.EnvConfig+" or ./"+config.DefaultFile+")")
	RootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
}
