package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/parleyhq/parley/internal/core/conversation"
	"github.com/parleyhq/parley/internal/store/jsonfile"
)

type HistoryCmd struct {
	flags *Flags

	last    int
	msgType string
	cached  bool
}

// NewHistoryCmd creates a new history command.
func NewHistoryCmd(flags *Flags) *HistoryCmd {
	return &HistoryCmd{flags: flags}
}

// Register adds the history command to the application.
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "Print conversation history as JSON lines",
		UsageText: "parley history [--last N] [--type <message_type>] [--cached]",
		Description: `Prints the project's conversation history, one JSON message per line,
oldest first. Fetches from the server by default; --cached reads the
local transcript cache instead, which also works offline.

Examples:
  parley history                       # full history from the server
  parley history --last 20             # only the newest 20 messages
  parley history --type agent_question # questions only
  parley history --cached              # read the local cache`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "last",
				Aliases:     []string{"n"},
				Usage:       "print only the newest N messages",
				Destination: &cmd.last,
			},
			&cli.StringFlag{
				Name:        "type",
				Aliases:     []string{"t"},
				Usage:       "filter by message type (text, agent_question, ...)",
				Destination: &cmd.msgType,
			},
			&cli.BoolFlag{
				Name:        "cached",
				Usage:       "read the local transcript cache instead of the server",
				Destination: &cmd.cached,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	projectID := cmd.flags.ProjectID()
	if projectID == "" {
		return fmt.Errorf("no project selected: pass --project or set 'project' in the config file")
	}

	var msgs []conversation.Message
	var err error
	if cmd.cached {
		msgs, err = cmd.loadCached(ctx, projectID)
	} else {
		msgs, err = cmd.fetchAll(ctx, projectID)
	}
	if err != nil {
		return err
	}

	if !cmd.cached {
		// Fold the fetched pages into the local cache so --cached stays
		// usable offline.
		store := jsonfile.NewTranscriptStore(cmd.flags.Config.TranscriptsDir())
		if _, err := store.Merge(ctx, projectID, msgs); err != nil {
			log.Warn().Err(err).Msg("refresh transcript cache")
		}
	}

	if cmd.msgType != "" {
		filtered := msgs[:0]
		for _, m := range msgs {
			if string(m.Type) == cmd.msgType {
				filtered = append(filtered, m)
			}
		}
		msgs = filtered
	}

	if cmd.last > 0 && len(msgs) > cmd.last {
		msgs = msgs[len(msgs)-cmd.last:]
	}

	enc := json.NewEncoder(c.Root().Writer)
	for _, m := range msgs {
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
	}

	return nil
}

// loadCached reads the local transcript cache.
func (cmd *HistoryCmd) loadCached(ctx context.Context, projectID string) ([]conversation.Message, error) {
	store := jsonfile.NewTranscriptStore(cmd.flags.Config.TranscriptsDir())
	msgs, err := store.Load(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load cached transcript: %w", err)
	}
	return msgs, nil
}

// fetchAll pages backward through the server history until exhausted.
func (cmd *HistoryCmd) fetchAll(ctx context.Context, projectID string) ([]conversation.Message, error) {
	pageSize := cmd.flags.Config.History.PageSize

	var all []conversation.Message
	var before time.Time
	for {
		page, err := cmd.flags.History.FetchPage(ctx, projectID, before, pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch history: %w", err)
		}

		normalized := conversation.NormalizePage(page.Messages)
		if len(normalized) == 0 {
			break
		}
		all = conversation.Merge(normalized, all)

		// --last never needs more pages than it prints.
		if cmd.last > 0 && len(all) >= cmd.last {
			break
		}
		if len(all) >= page.TotalCount {
			break
		}
		before = normalized[0].CreatedAt
	}

	return all, nil
}
