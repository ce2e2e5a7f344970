package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/smartapplicant/internal/db"
	"github.com/jonathan/smartapplicant/internal/ingestion"
	"github.com/jonathan/smartapplicant/internal/logging"
	"github.com/jonathan/smartapplicant/internal/observability"
	"github.com/jonathan/smartapplicant/internal/rendering"
	"github.com/jonathan/smartapplicant/internal/types"
	"github.com/jonathan/smartapplicant/internal/wizard"
)

var (
	genResume     string
	genJob        string
	genJobURL     string
	genEmail      bool
	genPDFDir     string
	genUseBrowser bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a cover letter (and optionally an outreach email) in one run",
	Long: `Reads the resume and the job description, generates the cover letter with its match
assessment, and prints both. With --email the outreach email is generated as well.
With --pdf-dir the letter is also exported as a PDF named after the company.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genResume, "resume", "r", "", "Path to the resume PDF (required)")
	generateCmd.Flags().StringVarP(&genJob, "job", "j", "", "Path to a job description text file")
	generateCmd.Flags().StringVar(&genJobURL, "job-url", "", "URL of the job posting")
	generateCmd.Flags().BoolVar(&genEmail, "email", false, "Also generate the outreach email")
	generateCmd.Flags().StringVar(&genPDFDir, "pdf-dir", "", "Directory to write the letter PDF to")
	generateCmd.Flags().BoolVar(&genUseBrowser, "use-browser", false, "Use headless browser for SPA sites (requires Chrome)")
	_ = generateCmd.MarkFlagRequired("resume")
	generateCmd.MarkFlagsMutuallyExclusive("job", "job-url")
	rootCmd.AddCommand(generateCmd)
}

// loadInputs reads the resume and the job description concurrently.
func loadInputs(ctx context.Context, resumePath, jobPath, jobURL string, useBrowser bool) (*types.ResumeFile, string, error) {
	var (
		resume *types.ResumeFile
		job    string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resume, err = ingestion.LoadResumeFile(resumePath)
		return err
	})
	g.Go(func() error {
		var err error
		job, err = loadJob(gctx, jobPath, jobURL, useBrowser)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	return resume, job, nil
}

// newLocalController builds a wizard with the resume and job already set.
func newLocalController(resume *types.ResumeFile, job string, gen wizard.Generator, ref wizard.Refiner) (*wizard.Controller, error) {
	c := wizard.NewController("cli", wizard.NewState(), gen, ref)
	if err := c.SetResume(resume); err != nil {
		return nil, err
	}
	if err := c.SetJobDescription(job); err != nil {
		return nil, err
	}
	return c, nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = genUseBrowser
	}
	if genJob == "" && genJobURL == "" {
		return fmt.Errorf("either --job or --job-url must be provided")
	}

	resume, job, err := loadInputs(ctx, genResume, genJob, genJobURL, cfg.UseBrowser)
	if err != nil {
		return err
	}

	svc, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	c, err := newLocalController(resume, job, svc.generator, svc.refiner)
	if err != nil {
		return err
	}
	defer c.Close()

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)

	fmt.Fprintln(out, "[generate] writing cover letter...")
	if err := c.GenerateLetter(ctx); err != nil {
		return err
	}
	snap := c.Snapshot()
	printer.PrintAssessment(snap.Assessment)
	printer.PrintDocument("COVER LETTER", snap.Letter)

	if genPDFDir != "" {
		path, doc, err := writeLetterPDF(genPDFDir, snap)
		if err != nil {
			return err
		}
		if cfg.Verbose {
			printer.PrintLayout(doc)
		}
		fmt.Fprintf(out, "[generate] PDF written to %s\n", path)
	}

	if genEmail {
		fmt.Fprintln(out, "[generate] writing outreach email...")
		if err := c.GenerateEmail(ctx); err != nil {
			return err
		}
		snap = c.Snapshot()
		printer.PrintDocument("OUTREACH EMAIL", snap.Email)
	}

	archiveRun(ctx, c)
	return nil
}

// writeLetterPDF renders the snapshot's letter into dir.
func writeLetterPDF(dir string, snap wizard.Snapshot) (string, *rendering.Document, error) {
	if !nonEmpty(snap.Letter) {
		return "", nil, wizard.ErrNoLetter
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	company := ""
	if snap.Assessment != nil {
		company = snap.Assessment.CompanyName
	}
	path := filepath.Join(dir, rendering.FileName(company))

	f, err := os.Create(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	doc, err := rendering.RenderPDF(f, snap.Letter)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return "", nil, err
	}
	return path, doc, nil
}

// archiveRun saves the result when a database is configured. Failures are
// only logged.
func archiveRun(ctx context.Context, c *wizard.Controller) {
	if cfg.DatabaseURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	database, err := connectArchive(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Warn().Err(err).Msg("archive unavailable")
		return
	}
	defer database.Close()

	st := c.State()
	app := db.NewApplication(c.ID(), st.JobDescription, st.Assessment, st.Letter, st.Email)
	if err := database.SaveApplication(ctx, app); err != nil {
		logging.Warn().Err(err).Msg("failed to archive application")
		return
	}
	logging.Debug().Str("application_id", app.ID.String()).Msg("application archived")
}
