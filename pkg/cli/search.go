package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flyboard/agentd/pkg/model"
	"github.com/flyboard/agentd/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg      config
		query    string
		topK     int64
		audience string
		tags     string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Free-text query against the knowledge base",
			Destination: &query,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Aliases:     []string{"k"},
			Usage:       "Number of results to return (max 10)",
			Destination: &topK,
		},
		&cli.StringFlag{
			Name:        "audience",
			Usage:       "Audience filter (biases ranking, never excludes)",
			Destination: &audience,
		},
		&cli.StringFlag{
			Name:        "tags",
			Usage:       "Comma-separated tag filter (biases ranking, never excludes)",
			Destination: &tags,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, agentFlags(&cfg)...)

	return &cli.Command{
		Name:  "search",
		Usage: "Search the knowledge base directly",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := cfg.newLogger()
			logging.SetDefault(logger)
			ctx = logging.With(ctx, logger)

			var filters *model.SearchFilters
			if audience != "" || tags != "" {
				filters = &model.SearchFilters{Audience: audience}
				for _, tag := range strings.Split(tags, ",") {
					if tag = strings.TrimSpace(tag); tag != "" {
						filters.Tags = append(filters.Tags, tag)
					}
				}
			}

			results, err := cfg.newEngine().Search(ctx, query, int(topK), filters)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to marshal search results")
			}

			fmt.Fprintln(c.Root().Writer, string(out))
			return nil
		},
	}
}
