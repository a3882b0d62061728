// Package cli is the offline command line front end: it answers questions
// about local PDFs without any database or broker.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lecture-qa/internal/bootstrap"
	"lecture-qa/internal/config"
)

// newEngine builds the question answering core. Tests replace it.
var newEngine = func() (*bootstrap.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return bootstrap.NewEngine(cfg, nil), nil
}

// NewRootCommand builds a fresh command tree; flag state lives in each command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "lectureqa",
		Short:         "Ask questions about lecture PDFs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAskCommand(), newPagesCommand())
	return root
}

func Execute() error {
	return NewRootCommand().Execute()
}
