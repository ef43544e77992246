package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/parleyhq/parley/internal/store/jsonfile"
	"github.com/parleyhq/parley/internal/tui"
)

type ChatCmd struct {
	flags *Flags
}

// NewChatCmd creates a new chat command
func NewChatCmd(flags *Flags) *ChatCmd {
	return &ChatCmd{
		flags: flags,
	}
}

// Run opens the chat surface. Exported for use as default command.
func (cmd *ChatCmd) Run(ctx context.Context, c *cli.Command) error {
	projectID := cmd.flags.ProjectID()
	if projectID == "" {
		return fmt.Errorf("no project selected: pass --project or set 'project' in the config file")
	}

	store := jsonfile.NewTranscriptStore(cmd.flags.Config.TranscriptsDir())

	opts := tui.Options{
		ProjectID: projectID,
		History:   cmd.flags.History,
		Stream:    cmd.flags.Stream,
		Actions:   cmd.flags.Actions,
		Store:     store,
	}

	m := tui.New(cmd.flags.Config, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run chat: %w", err)
	}

	if cmd.flags.Stream != nil {
		_ = cmd.flags.Stream.Close()
	}

	return nil
}
