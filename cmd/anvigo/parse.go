package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/merenlab/anvigo/internal/agnostos"
)

func newParseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Convert third-party annotations into anvi'o functions files",
		Args:  positional(cobra.NoArgs),
	}
	cmd.AddCommand(newParseAgnostosCmd(a))
	return cmd
}

func newParseAgnostosCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "agnostos <agnostos-output>",
		Short: "Convert AGNOSTOS gene cluster assignments",
		Long: `Convert AGNOSTOS output into an anvi'o functions file. Each gene takes
its cluster name as accession and the cluster category as function.`,
		Example: `  anvigo parse agnostos clusters.tsv -o functions.txt`,
		Args:    positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := a.log()
			if err != nil {
				return err
			}
			fns, err := agnostos.ParseFile(args[0])
			if err != nil {
				return err
			}
			w, closeOut, err := outputFile(cmd, outPath)
			if err != nil {
				return err
			}
			if err := agnostos.WriteFunctions(w, fns); err != nil {
				closeOut()
				return fmt.Errorf("writing functions: %w", err)
			}
			if err := closeOut(); err != nil {
				return fmt.Errorf("closing output: %w", err)
			}
			logger.Info("parsed AGNOSTOS output",
				zap.String("input", args[0]),
				zap.Int("functions", len(fns)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default: stdout)")
	return cmd
}
