package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/calumari/strictkeys"
)

func newGenerateCmd(opts *options, stdin io.Reader) *cobra.Command {
	var (
		output      string
		inputFormat string
		mode        string
	)
	cmd := &cobra.Command{
		Use:   "generate <target-file>...",
		Short: "Print rules allowing exactly the keys present in the target files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := stdinOnce(args); err != nil {
				return fatal(err)
			}
			m, err := strictkeys.ParseMode(mode)
			if err != nil {
				return fatal(err)
			}
			reg, err := strictkeys.NewRegistry(strictkeys.Stdlib())
			if err != nil {
				return fatal(err)
			}

			var docs []any
			for _, target := range args {
				d, err := readDocuments(reg, stdin, target, inputFormat)
				if err != nil {
					return fatal(err)
				}
				docs = append(docs, d...)
			}

			rs, err := strictkeys.Infer(m, docs...)
			if err != nil {
				return fatal(err)
			}
			data, err := strictkeys.MarshalRules(rs, output)
			if err != nil {
				return fatal(err)
			}
			opts.log.WithFields(logrus.Fields{"targets": len(args), "rules": rs.Len()}).Debug("rules generated")

			if _, err := cmd.OutOrStdout().Write(data); err != nil {
				return fatal(fmt.Errorf("write rules: %w", err))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Rules format (yaml|json)")
	cmd.Flags().StringVar(&inputFormat, "format", "", "Target file format, detected from the extension when empty (required for stdin)")
	cmd.Flags().StringVar(&mode, "mode", string(strictkeys.Strict), "Mode of the generated rules (strict|warn)")
	return cmd
}
