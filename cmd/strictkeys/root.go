package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/calumari/strictkeys"
)

type options struct {
	verbose   bool
	logFormat string
	log       *logrus.Logger
}

type checkOptions struct {
	output       string
	rulesFormat  string
	targetFormat string
	failOnWarn   bool
	quiet        bool
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	opts := &options{}
	check := &checkOptions{}
	root := &cobra.Command{
		Use:   "strictkeys <rules-file> <target-file>...",
		Short: "Enforce allowed keys in YAML and JSON files",
		Long: `strictkeys checks that every mapping of the target documents only uses keys
allowed by the most specific matching rule of the rules file.

Exit status is 0 when no strict violation is found, 1 when at least one is
found and 2 on usage, rules or document errors.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(cmd.ErrOrStderr(), opts.verbose, opts.logFormat)
			if err != nil {
				return fatal(err)
			}
			opts.log = log
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := stdinOnce(args); err != nil {
				return fatal(err)
			}
			return runCheck(cmd, opts, check, stdin, args[0], args[1:])
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pflags := root.PersistentFlags()
	pflags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug details to stderr")
	pflags.StringVar(&opts.logFormat, "log-format", envOrDefault("STRICTKEYS_LOG_FORMAT", "text"), "Log format (text|json)")

	flags := root.Flags()
	flags.StringVarP(&check.output, "output", "o", envOrDefault("STRICTKEYS_OUTPUT", "text"), "Report format (text|json)")
	flags.StringVar(&check.rulesFormat, "rules-format", "", "Rules file format, detected from the extension when empty")
	flags.StringVar(&check.targetFormat, "target-format", "", "Target file format, detected from the extension when empty (required for stdin)")
	flags.BoolVar(&check.failOnWarn, "fail-on-warn", false, "Exit 1 on warn violations too")
	flags.BoolVarP(&check.quiet, "quiet", "q", false, "Print nothing when there are no violations")

	root.AddCommand(newGenerateCmd(opts, stdin))
	return root
}

func runCheck(cmd *cobra.Command, opts *options, check *checkOptions, stdin io.Reader, rulesPath string, targets []string) error {
	if check.output != "text" && check.output != "json" {
		return fatal(fmt.Errorf("unknown output format %q (want text or json)", check.output))
	}
	reg, err := strictkeys.NewRegistry(strictkeys.Stdlib())
	if err != nil {
		return fatal(err)
	}

	rs, err := loadRules(reg, stdin, rulesPath, check.rulesFormat)
	if err != nil {
		return fatal(err)
	}
	opts.log.WithFields(logrus.Fields{"rules": rulesPath, "count": rs.Len()}).Debug("rules loaded")

	var violations []strictkeys.Violation
	for _, target := range targets {
		docs, err := readDocuments(reg, stdin, target, check.targetFormat)
		if err != nil {
			return fatal(err)
		}
		vs := strictkeys.CheckDocuments(rs, displayName(target), docs)
		opts.log.WithFields(logrus.Fields{
			"target":     target,
			"documents":  len(docs),
			"violations": len(vs),
		}).Debug("target checked")
		violations = append(violations, vs...)
	}

	report := strictkeys.NewReport(violations)
	if err := writeReport(cmd.OutOrStdout(), report, check); err != nil {
		return fatal(err)
	}

	code := report.ExitCode()
	if check.failOnWarn && report.Warn > 0 {
		code = strictkeys.ExitViolation
	}
	if code != strictkeys.ExitOK {
		opts.log.WithFields(logrus.Fields{"strict": report.Strict, "warn": report.Warn}).Debug("check failed")
		return &exitError{code: code}
	}
	return nil
}

func writeReport(w io.Writer, report *strictkeys.Report, check *checkOptions) error {
	switch {
	case check.output == "json":
		return report.WriteJSON(w)
	case check.quiet && len(report.Violations) == 0:
		return nil
	default:
		return report.WriteText(w)
	}
}

func loadRules(reg *strictkeys.Registry, stdin io.Reader, path, formatName string) (*strictkeys.RuleSet, error) {
	if formatName == "" && path != "-" {
		return strictkeys.LoadRulesFile(path, reg)
	}
	f, err := formatFor(reg, path, formatName)
	if err != nil {
		return nil, err
	}
	data, err := readInput(stdin, path)
	if err != nil {
		return nil, err
	}
	rs, err := strictkeys.LoadRules(data, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayName(path), err)
	}
	return rs, nil
}

func readDocuments(reg *strictkeys.Registry, stdin io.Reader, path, formatName string) ([]any, error) {
	f, err := formatFor(reg, path, formatName)
	if err != nil {
		return nil, err
	}
	data, err := readInput(stdin, path)
	if err != nil {
		return nil, err
	}
	docs, err := f.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayName(path), err)
	}
	return docs, nil
}

func formatFor(reg *strictkeys.Registry, path, name string) (strictkeys.Format, error) {
	switch {
	case name != "":
		return reg.Lookup(name)
	case path == "-":
		return strictkeys.Format{}, fmt.Errorf("reading stdin requires an explicit format flag")
	default:
		return reg.ForPath(path)
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// stdinOnce rejects "-" given more than once.
func stdinOnce(args []string) error {
	var n int
	for _, a := range args {
		if a == "-" {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("stdin (-) given %d times, it can be read only once", n)
	}
	return nil
}

func displayName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}
