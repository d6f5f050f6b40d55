package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/postgres"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/postgres/repositories"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/search/opensearch"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

func newReindexCmd(opts *rootOptions) *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the comp search index from PostgreSQL",
		Long:  "Walks every comp in the database and writes it to the OpenSearch index.\nExisting documents are overwritten; documents for deleted comps are left\nto the worker's delete events.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchSize < 1 {
				return fmt.Errorf("--batch-size must be >= 1, got %d", batchSize)
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			log, err := opts.newLogger()
			if err != nil {
				return err
			}

			conn, err := postgres.NewConnection(cfg.Database, log)
			if err != nil {
				return err
			}
			defer conn.Close()
			repo := repositories.NewPostgresCompRepo(conn, log)

			osClient, err := opensearch.NewClient(cfg.OpenSearch, log)
			if err != nil {
				return err
			}
			index := opensearch.NewCompIndex(osClient, log)

			ctx := cmd.Context()
			if err := index.EnsureIndex(ctx); err != nil {
				return err
			}

			indexed := 0
			for page := 1; ; page++ {
				comps, _, err := repo.List(ctx, common.Pagination{Page: page, PageSize: batchSize})
				if err != nil {
					return err
				}
				if len(comps) == 0 {
					break
				}
				for _, c := range comps {
					if err := index.Index(ctx, c); err != nil {
						return fmt.Errorf("failed to index comp %s: %w", c.ID, err)
					}
					indexed++
				}
				log.Info("reindex progress", logging.Int("page", page), logging.Int("indexed", indexed))
				if len(comps) < batchSize {
					break
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d comp(s)\n", indexed)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 200, "comps fetched per page")

	return cmd
}
