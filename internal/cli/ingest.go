package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/kafka"
)

func NewCmdIngest(root *rootOptions) *cobra.Command {
	var (
		batchSize int
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ingest <corpus>",
		Short: "Publish a corpus to the document ingest topic",
		Long: heredoc.Doc(`
			Publishes every document of the corpus as a document event keyed
			by its id. The indexer consumes the topic and routes each
			document to its shard.
		`),
		Example: heredoc.Doc(`
			$ proxq ingest --config configs/development.yaml docs/
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchSize <= 0 {
				return fmt.Errorf("batch size %d must be positive", batchSize)
			}
			cfg, err := root.config()
			if err != nil {
				return err
			}
			docs, err := loadCorpus(args[0])
			if err != nil {
				return err
			}

			producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
			defer producer.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			now := time.Now().UTC()
			for start := 0; start < len(docs); start += batchSize {
				end := min(start+batchSize, len(docs))
				events := make([]kafka.Event, 0, end-start)
				for _, d := range docs[start:end] {
					if d.IngestedAt.IsZero() {
						d.IngestedAt = now
					}
					events = append(events, kafka.Event{Key: d.DocumentID, Value: d})
				}
				if err := producer.PublishBatch(ctx, events); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d documents to %s\n", len(docs), cfg.Kafka.Topics.DocumentIngest)
			return nil
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch", 100, "documents per write")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "deadline for publishing the whole corpus")
	return cmd
}
