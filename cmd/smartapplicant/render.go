package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/smartapplicant/internal/observability"
	"github.com/jonathan/smartapplicant/internal/rendering"
)

var (
	renderIn      string
	renderCompany string
	renderOut     string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Export a cover letter text file as a PDF",
	Long: `Lays out a plain-text cover letter on A4 pages and writes the PDF. No API key is needed.

The output defaults to <Company>.pdf in the current directory, or Cover_Letter.pdf when
--company is empty.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderIn, "in", "i", "", "Path to the letter text file (required)")
	renderCmd.Flags().StringVarP(&renderCompany, "company", "c", "", "Company name used for the file name")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output PDF path or directory")
	_ = renderCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(renderIn)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", renderIn, err)
	}
	if !nonEmpty(string(data)) {
		return fmt.Errorf("%s is empty", renderIn)
	}

	path := renderOut
	switch {
	case path == "":
		path = rendering.FileName(renderCompany)
	case filepath.Ext(path) == "":
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		path = filepath.Join(path, rendering.FileName(renderCompany))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	doc, err := rendering.RenderPDF(f, string(data))
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if verbose {
		observability.NewPrinter(out).PrintLayout(doc)
	}
	_, _ = fmt.Fprintf(out, "Wrote %d page(s) to %s\n", len(doc.Pages), path)
	return nil
}
