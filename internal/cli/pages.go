package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newPagesCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Print the extracted text of every page of a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPages(cmd, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "lecture PDF")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runPages(cmd *cobra.Command, pagesFile string) error {
	data, err := os.ReadFile(pagesFile)
	if err != nil {
		return fmt.Errorf("read %s failed: %w", pagesFile, err)
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	pages, err := engine.Extractor.ExtractPages(data)
	if err != nil {
		return fmt.Errorf("extract %s failed: %w", filepath.Base(pagesFile), err)
	}

	out := cmd.OutOrStdout()
	for _, page := range pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			text = "(no text)"
		}
		fmt.Fprintf(out, "--- Slide %d ---\n%s\n", page.Number, text)
	}
	fmt.Fprintf(out, "%d pages\n", len(pages))
	return nil
}
