package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/merenlab/anvigo/internal/anvierr"
	"github.com/merenlab/anvigo/internal/keggdata"
	"github.com/merenlab/anvigo/internal/mapper"
	"github.com/merenlab/anvigo/internal/render"
)

var singleKeys = []string{"kegg-data-dir", "color-hexcode", "draw-maps-lacking-kos", "overwrite-output"}

var multiKeys = append([]string{"colormap", "colormap-limits", "colormap-scheme", "reverse-overlay"}, singleKeys...)

func newKeggCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kegg",
		Short: "Draw KEGG pathway maps highlighting annotated orthologs",
		Long: `Draw KEGG pathway maps highlighting the KOfam annotations of contigs
databases, genomes or pangenomes. Maps are written as <output-dir>/kos_<map>.pdf.`,
		Args: positional(cobra.NoArgs),
	}
	cmd.AddCommand(newKeggContigsCmd(a))
	cmd.AddCommand(newKeggGenomeCmd(a))
	cmd.AddCommand(newKeggContigsDBsCmd(a))
	cmd.AddCommand(newKeggPanCmd(a))
	return cmd
}

func addSingleFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output-dir", "o", "", "Directory to write maps to")
	f.StringSlice("pathway-numbers", nil, "Regular expressions selecting map numbers (default all maps)")
	f.String("color-hexcode", mapper.DefaultColor, `Highlight color, or "original" to keep the map's colors`)
	f.Bool("draw-maps-lacking-kos", false, "Also draw maps without any highlighted ortholog")
	f.Bool("overwrite-output", false, "Replace existing output files")
	_ = cmd.MarkFlagRequired("output-dir")
}

func addMultiFlags(cmd *cobra.Command) {
	addSingleFlags(cmd)
	f := cmd.Flags()
	f.String("colormap", "", `Palette of unified maps, or "none" for a single color (default plasma_r by count, tab10 by combination)`)
	f.String("colormap-limits", "", `Fraction of the palette to use as "lower,upper"`)
	f.String("colormap-scheme", "", `Color unified maps by source "count" or "combination"`)
	f.Bool("reverse-overlay", false, "Draw orthologs found in fewer sources on top")
	f.Bool("colorbar", false, "Write colorbar.pdf describing unified map colors")
	f.Bool("draw-individual-files", false, "Draw maps of every source")
	f.StringSlice("individual", nil, "Draw maps of the named sources")
	f.Bool("draw-grid", false, "Compose grids of unified and every source's maps")
	f.StringSlice("grid", nil, "Compose grids with the maps of the named sources")
}

func singleOptions(cmd *cobra.Command) (mapper.SingleOptions, string, error) {
	f := cmd.Flags()
	out, err := f.GetString("output-dir")
	if err != nil {
		return mapper.SingleOptions{}, "", err
	}
	patterns, err := f.GetStringSlice("pathway-numbers")
	if err != nil {
		return mapper.SingleOptions{}, "", err
	}
	if len(patterns) == 0 {
		patterns = nil
	}
	return mapper.SingleOptions{
		Patterns:    patterns,
		ColorHex:    viper.GetString("color_hexcode"),
		DrawLacking: viper.GetBool("draw_maps_lacking_kos"),
	}, out, nil
}

func multiOptions(cmd *cobra.Command) (mapper.MultiOptions, string, error) {
	single, out, err := singleOptions(cmd)
	if err != nil {
		return mapper.MultiOptions{}, "", err
	}
	limits, err := parseLimits(viper.GetString("colormap_limits"))
	if err != nil {
		return mapper.MultiOptions{}, "", err
	}
	f := cmd.Flags()
	individual, err := selection(cmd, "draw-individual-files", "individual")
	if err != nil {
		return mapper.MultiOptions{}, "", err
	}
	grid, err := selection(cmd, "draw-grid", "grid")
	if err != nil {
		return mapper.MultiOptions{}, "", err
	}
	colorbar, err := f.GetBool("colorbar")
	if err != nil {
		return mapper.MultiOptions{}, "", err
	}
	return mapper.MultiOptions{
		Patterns:       single.Patterns,
		ColorHex:       single.ColorHex,
		DrawLacking:    single.DrawLacking,
		Colormap:       viper.GetString("colormap"),
		Limits:         limits,
		Scheme:         viper.GetString("colormap_scheme"),
		ReverseOverlay: viper.GetBool("reverse_overlay"),
		Colorbar:       colorbar,
		Individual:     individual,
		Grid:           grid,
	}, out, nil
}

func selection(cmd *cobra.Command, allFlag, namesFlag string) (mapper.Selection, error) {
	all, err := cmd.Flags().GetBool(allFlag)
	if err != nil {
		return mapper.Selection{}, err
	}
	names, err := cmd.Flags().GetStringSlice(namesFlag)
	if err != nil {
		return mapper.Selection{}, err
	}
	return mapper.Selection{All: all, Names: names}, nil
}

// consensusOverride takes only the consensus flags given on the command
// line; the others keep the values stored in the pan database.
func consensusOverride(cmd *cobra.Command) (mapper.ConsensusOverride, error) {
	var o mapper.ConsensusOverride
	f := cmd.Flags()
	if f.Changed("consensus-threshold") {
		threshold, err := f.GetFloat64("consensus-threshold")
		if err != nil {
			return o, err
		}
		o.Threshold = &threshold
	}
	if f.Changed("discard-ties") {
		ties, err := f.GetBool("discard-ties")
		if err != nil {
			return o, err
		}
		o.DiscardTies = &ties
	}
	return o, nil
}

// parseLimits reads "lower,upper". An empty value leaves the limits unset.
func parseLimits(v string) ([]float64, error) {
	v = strings.Trim(strings.TrimSpace(v), "()[]")
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return nil, anvierr.Config("colormap limits %q are not two comma separated numbers", v)
	}
	limits := make([]float64, 2)
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, anvierr.Config("colormap limit %q is not a number", p)
		}
		limits[i] = x
	}
	return limits, nil
}

// newMapper wires the KEGG data directory, renderer and settings into a
// Mapper.
func (a *app) newMapper() (*mapper.Mapper, error) {
	logger, err := a.log()
	if err != nil {
		return nil, err
	}
	root := viper.GetString("kegg_data_dir")
	if root == "" {
		return nil, anvierr.Config("no KEGG data directory is set; use --kegg-data-dir or the kegg_data_dir setting")
	}
	dir, err := keggdata.Open(root)
	if err != nil {
		return nil, err
	}
	dir.SetLogger(logger)

	drawer := render.NewDrawer(dir)
	drawer.SetLogger(logger)

	m := mapper.New(dir, drawer)
	m.SetLogger(logger)
	m.SetOverwrite(viper.GetBool("overwrite_output"))
	m.SetBackdrop(mapper.Backdrop{
		Global: viper.GetString("backdrop.global"),
		Other:  viper.GetString("backdrop.other"),
	})
	return m, nil
}

func newKeggContigsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contigs <contigs-db>",
		Short: "Draw maps of one contigs database",
		Args:  positional(cobra.ExactArgs(1)),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, singleKeys...)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, out, err := singleOptions(cmd)
			if err != nil {
				return err
			}
			m, err := a.newMapper()
			if err != nil {
				return err
			}
			_, err = m.MapContigsDB(cmd.Context(), args[0], out, opts)
			return err
		},
	}
	addSingleFlags(cmd)
	return cmd
}

func newKeggGenomeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genome <genomes-storage-db> <genome>",
		Short: "Draw maps of one genome in a genomes storage",
		Args:  positional(cobra.ExactArgs(2)),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, singleKeys...)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, out, err := singleOptions(cmd)
			if err != nil {
				return err
			}
			m, err := a.newMapper()
			if err != nil {
				return err
			}
			_, err = m.MapGenome(cmd.Context(), args[0], args[1], out, opts)
			return err
		},
	}
	addSingleFlags(cmd)
	return cmd
}

func newKeggContigsDBsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contigs-dbs <contigs-db>...",
		Short: "Draw unified maps of several contigs databases",
		Long: `Draw unified maps of several contigs databases, named by their project
names. Orthologs are colored by the number or the combination of databases
containing them.`,
		Args: positional(cobra.MinimumNArgs(2)),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, multiKeys...)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, out, err := multiOptions(cmd)
			if err != nil {
				return err
			}
			m, err := a.newMapper()
			if err != nil {
				return err
			}
			_, err = m.MapContigsDBs(cmd.Context(), args, out, opts)
			return err
		},
	}
	addMultiFlags(cmd)
	return cmd
}

func newKeggPanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pan <pan-db> <genomes-storage-db>",
		Short: "Draw unified maps of a pangenome",
		Long: `Draw unified maps of a pangenome. Each gene cluster contributes its
consensus KO, shared by the genomes with genes in the cluster.`,
		Args: positional(cobra.ExactArgs(2)),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, multiKeys...)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, out, err := multiOptions(cmd)
			if err != nil {
				return err
			}
			override, err := consensusOverride(cmd)
			if err != nil {
				return err
			}
			m, err := a.newMapper()
			if err != nil {
				return err
			}
			_, err = m.MapPan(cmd.Context(), args[0], args[1], out, opts, override)
			return err
		},
	}
	addMultiFlags(cmd)
	cmd.Flags().Float64("consensus-threshold", 0, "Fraction of a cluster's genes its consensus KO must annotate (default from the pan database)")
	cmd.Flags().Bool("discard-ties", false, "Give clusters with tied KOs no consensus (default from the pan database)")
	return cmd
}
