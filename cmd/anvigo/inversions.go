package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/merenlab/anvigo/internal/inversions"
)

func newInversionsCmd(a *app) *cobra.Command {
	var (
		outPath string
		opts    = inversions.DefaultStretchOptions()
	)
	cmd := &cobra.Command{
		Use:   "inversions <contigs-db> <profile-db>...",
		Short: "Report high coverage stretches of inversion profiles",
		Long: `Gather per-nucleotide coverages of every profiled contig from profile
databases of the "inversions" variant and report stretches covered at least
--min-coverage times over at least --min-length nucleotides.`,
		Args: positional(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := a.log()
			if err != nil {
				return err
			}
			inv, err := inversions.New(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}
			inv.SetLogger(logger)
			stretches, err := inv.Process(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w, closeOut, err := outputFile(cmd, outPath)
			if err != nil {
				return err
			}
			if err := inversions.WriteReport(w, stretches); err != nil {
				closeOut()
				return fmt.Errorf("writing report: %w", err)
			}
			if err := closeOut(); err != nil {
				return fmt.Errorf("closing output: %w", err)
			}
			logger.Info("reported stretches",
				zap.Int("profiles", len(args)-1),
				zap.Int("contigs", len(inv.Contigs())),
				zap.Int("stretches", len(stretches)))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&outPath, "output", "o", "", "Output file (default: stdout)")
	f.Uint16Var(&opts.MinCoverage, "min-coverage", opts.MinCoverage, "Minimum coverage of a stretch")
	f.IntVar(&opts.MinLength, "min-length", opts.MinLength, "Minimum length of a stretch")
	return cmd
}
