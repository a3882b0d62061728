package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lecture-qa/internal/rag"
)

const previewRunes = 300

type askOptions struct {
	files   []string
	token   string
	json    bool
	timeout time.Duration
}

func newAskCommand() *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Index lecture PDFs and answer one question",
		Long: `Extracts every page of the given PDFs, embeds them, and answers the question
from the most relevant pages. Mentioning "slide N" or "page N" in the question
jumps straight to that page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args, opts)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.files, "file", "f", nil, "lecture PDF to index (repeatable)")
	cmd.Flags().StringVar(&opts.token, "token", "", "LLM token (defaults to the configured key)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output the full result as JSON")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 3*time.Minute, "overall time limit")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string, opts *askOptions) error {
	question := strings.TrimSpace(args[0])
	if question == "" {
		return errors.New("question is empty")
	}

	uploads, err := readUploads(opts.files)
	if err != nil {
		return err
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	report, err := engine.Index.Ingest(ctx, uploads)
	if err != nil {
		return fmt.Errorf("index lectures failed: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, skipped := range report.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", skipped.Name, skipped.Reason)
	}

	credential := opts.token
	if credential == "" {
		credential = engine.DefaultCredential
	}
	result, err := engine.Pipeline.Run(ctx, question, engine.Index.Snapshot(), credential)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if opts.json {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	printResult(out, result)
	return nil
}

func printResult(out io.Writer, result *rag.Result) {
	fmt.Fprintln(out, result.Answer)
	if len(result.RetrievedDocs) == 0 {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Retrieved passages:")
	for i, doc := range result.RetrievedDocs {
		fmt.Fprintf(out, "  [%d] %s relevance %.1f%%\n", i+1, doc.Metadata.Citation(), doc.Score*100)
		fmt.Fprintf(out, "      %s\n", preview(doc.Text))
	}
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}

func readUploads(paths []string) ([]rag.Upload, error) {
	if len(paths) == 0 {
		return nil, errors.New("at least one --file is required")
	}
	uploads := make([]rag.Upload, 0, len(paths))
	for _, path := range paths {
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil, fmt.Errorf("%s: only PDF files are supported", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s failed: %w", path, err)
		}
		uploads = append(uploads, rag.Upload{Name: filepath.Base(path), Data: data})
	}
	return uploads, nil
}
