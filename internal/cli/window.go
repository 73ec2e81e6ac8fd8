package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/param"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/window"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/weighting"
)

func NewCmdWindow() *cobra.Command {
	cfg := param.Default()
	cmd := &cobra.Command{
		Use:   "window <positions>...",
		Short: "List the windows of position streams",
		Long: heredoc.Doc(`
			Each argument is a comma separated position stream of one feature.
			Every window is printed as its start and size, followed by the
			minwin weight of the streams.
		`),
		Example: heredoc.Doc(`
			$ proxq window --maxwinsize 10 1,5,9,15 2,6,10,16 5,11,18
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.MinCardinality > len(args) {
				return fmt.Errorf("cardinality %d exceeds %d streams", cfg.MinCardinality, len(args))
			}
			streams, err := cursors(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			w := window.New(streams, cfg.MaxWindowSize, cfg.MinCardinality, 0)
			n := 0
			for ok := w.First(); ok; ok = w.Next() {
				fmt.Fprintf(out, "%d\t%d\n", w.Start(), w.Size())
				n++
			}

			wf, err := weighting.New(cfg)
			if err != nil {
				return err
			}
			wctx := wf.NewContext()
			for _, c := range streams {
				if err := wctx.AddFeature(weighting.FeatureMatch, c); err != nil {
					return err
				}
			}
			weight, err := wctx.Call(1)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "windows: %d, weight: %g\n", n, weight)
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.MaxWindowSize, "maxwinsize", cfg.MaxWindowSize, "maximum window size")
	cmd.Flags().IntVar(&cfg.MinCardinality, "cardinality", 0, "minimum features per window, 0 for all")
	return cmd
}

func cursors(args []string) ([]cursor.Cursor, error) {
	out := make([]cursor.Cursor, 0, len(args))
	for i, arg := range args {
		var positions []int
		for _, field := range strings.Split(arg, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			p, err := strconv.Atoi(field)
			if err != nil || p < 1 {
				return nil, fmt.Errorf("stream %d: position %q is not a positive integer", i+1, field)
			}
			positions = append(positions, p)
		}
		out = append(out, cursor.NewSlice(fmt.Sprintf("s%d", i+1), positions...))
	}
	return out, nil
}
