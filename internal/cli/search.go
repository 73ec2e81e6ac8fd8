package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/registry"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/config"
)

type searchOptions struct {
	corpus      string
	limit       int
	maxWinSize  int
	cardinality int
	indexType   string
	boost       float64
	summaries   bool
	asJSON      bool
	shards      int
}

func NewCmdSearch(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Index a local corpus and run a query against it",
		Long: heredoc.Doc(`
			Indexes the corpus into a temporary directory and runs the query
			with BM25 plus the minwin proximity boost. Queries accept AND, OR,
			NOT and WINDOW(maxwinsize[,cardinality]: items) groups.
		`),
		Example: heredoc.Doc(`
			$ proxq search --corpus docs/ "quick fox"
			$ proxq search --corpus docs.jsonl --maxwinsize 5 "WINDOW(3: lazy dog) fox"
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("maxwinsize") {
				opts.maxWinSize = cfg.Proximity.MaxWindowSize
			}
			if !cmd.Flags().Changed("cardinality") {
				opts.cardinality = cfg.Proximity.MinCardinality
			}
			if !cmd.Flags().Changed("type") {
				opts.indexType = cfg.Proximity.ForwardIndexType
			}
			if !cmd.Flags().Changed("boost") {
				opts.boost = cfg.Proximity.Boost
			}
			return runSearch(cmd, opts, cfg.Indexer, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.corpus, "corpus", "", "directory of .txt files or JSON lines file")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "number of results")
	cmd.Flags().IntVar(&opts.maxWinSize, "maxwinsize", 1000, "maximum window size")
	cmd.Flags().IntVar(&opts.cardinality, "cardinality", 0, "minimum features per window, 0 for all")
	cmd.Flags().StringVar(&opts.indexType, "type", "orig", "forward index type of summaries (orig or stem)")
	cmd.Flags().Float64Var(&opts.boost, "boost", 1, "weight of the proximity score")
	cmd.Flags().BoolVar(&opts.summaries, "summary", true, "show the tightest window of each result")
	cmd.Flags().IntVar(&opts.shards, "shards", 0, "number of shards, 0 for the configured count")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("corpus")
	return cmd
}

func runSearch(cmd *cobra.Command, opts *searchOptions, indexCfg config.IndexerConfig, query string) error {
	docs, err := loadCorpus(opts.corpus)
	if err != nil {
		return err
	}
	plan, err := parser.Parse(query)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "proxq-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	// everything stays in memory for the lifetime of the command
	indexCfg.DataDir = dir
	indexCfg.SegmentMaxSize = 1 << 40
	indexCfg.FlushInterval = time.Hour
	if opts.shards > 0 {
		indexCfg.NumShards = opts.shards
	}
	router, err := shard.NewRouter(indexCfg)
	if err != nil {
		return err
	}
	defer router.Close()
	for _, d := range docs {
		if _, err := router.RouteDocument(d.DocumentID).IndexDocument(d.DocumentID, d.Title, d.Body); err != nil {
			return err
		}
	}

	shards := make([]executor.Shard, 0, router.NumShards())
	for _, engine := range router.Engines() {
		shards = append(shards, engine)
	}
	exec := executor.New(shards, registry.Default(), nil)
	params := map[string]string{
		"maxwinsize":  strconv.Itoa(opts.maxWinSize),
		"cardinality": strconv.Itoa(opts.cardinality),
	}
	if opts.summaries {
		params["type"] = opts.indexType
	}
	res, err := exec.Execute(context.Background(), plan, executor.Options{
		Limit:     opts.limit,
		Params:    params,
		Boost:     opts.boost,
		Summaries: opts.summaries,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tDOC\tSCORE\tPROXIMITY\tSUMMARY")
	for i, d := range res.Results {
		var summary []string
		for _, e := range d.Summary {
			summary = append(summary, e.Text)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.4f\t%s\n", i+1, d.DocID, d.Score, d.Proximity, strings.Join(summary, " | "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d of %d hits (%s)\n", len(res.Results), res.TotalHits, plan.Canonical())
	return nil
}
