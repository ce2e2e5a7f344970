package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/smartapplicant/internal/ingestion"
	"github.com/jonathan/smartapplicant/internal/observability"
	"github.com/jonathan/smartapplicant/internal/types"
	"github.com/jonathan/smartapplicant/internal/wizard"
)

var (
	interResume string
	interJob    string
	interJobURL string
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Run the wizard in the terminal",
	Long: `Generates the cover letter, then reads commands from stdin. Plain text is sent to the
chat and edits the document on screen.

Commands:
  /email        generate the outreach email
  /back         return to the letter
  /letter       regenerate the letter
  /pdf [dir]    export the letter as PDF
  /new          start over with a new job (keeps the resume)
  /reset        start over completely
  /show         print the current document and chat
  /quit         exit`,
	RunE: runInteractive,
}

func init() {
	interactiveCmd.Flags().StringVarP(&interResume, "resume", "r", "", "Path to the resume PDF")
	interactiveCmd.Flags().StringVarP(&interJob, "job", "j", "", "Path to a job description text file")
	interactiveCmd.Flags().StringVar(&interJobURL, "job-url", "", "URL of the job posting")
	interactiveCmd.MarkFlagsMutuallyExclusive("job", "job-url")
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	c := wizard.NewController("cli", wizard.NewState(), svc.generator, svc.refiner)
	defer c.Close()

	r := newREPL(c, cmd.InOrStdin(), cmd.OutOrStdout(), cfg.UseBrowser)
	if interResume != "" {
		if err := r.setResume(interResume); err != nil {
			return err
		}
	}
	if interJob != "" || interJobURL != "" {
		job, err := loadJob(ctx, interJob, interJobURL, cfg.UseBrowser)
		if err != nil {
			return err
		}
		if err := c.SetJobDescription(job); err != nil {
			return err
		}
	}
	return r.run(ctx)
}

var errQuit = errors.New("quit")

// repl drives a Controller from line-based input.
type repl struct {
	c          *wizard.Controller
	in         *bufio.Scanner
	out        io.Writer
	printer    *observability.Printer
	useBrowser bool
}

func newREPL(c *wizard.Controller, in io.Reader, out io.Writer, useBrowser bool) *repl {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &repl{
		c:          c,
		in:         scanner,
		out:        out,
		printer:    observability.NewPrinter(out),
		useBrowser: useBrowser,
	}
}

//nolint:errcheck // terminal output
func (r *repl) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// prompt prints label and reads one line. ok is false at end of input.
func (r *repl) prompt(label string) (string, bool) {
	r.printf("%s", label)
	if !r.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

func (r *repl) setResume(path string) error {
	file, err := ingestion.LoadResumeFile(path)
	if err != nil {
		return err
	}
	return r.c.SetResume(file)
}

// setJob accepts a URL or a path to a text file.
func (r *repl) setJob(ctx context.Context, input string) error {
	var (
		job string
		err error
	)
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		job, err = loadJob(ctx, "", input, r.useBrowser)
	} else {
		job, err = loadJob(ctx, input, "", r.useBrowser)
	}
	if err != nil {
		return err
	}
	return r.c.SetJobDescription(job)
}

// fillInputs asks for whatever the letter still needs, then generates it.
func (r *repl) fillInputs(ctx context.Context) error {
	for r.c.State().Resume == nil {
		line, ok := r.prompt("Resume PDF path: ")
		if !ok {
			return errQuit
		}
		if err := r.setResume(line); err != nil {
			r.printf("[error] %v\n", err)
		}
	}
	for !nonEmpty(r.c.State().JobDescription) {
		line, ok := r.prompt("Job description file or URL: ")
		if !ok {
			return errQuit
		}
		if err := r.setJob(ctx, line); err != nil {
			r.printf("[error] %v\n", err)
		}
	}
	return r.generateLetter(ctx)
}

func (r *repl) generateLetter(ctx context.Context) error {
	r.printf("[wizard] writing cover letter...\n")
	if err := r.c.GenerateLetter(ctx); err != nil {
		return err
	}
	snap := r.c.Snapshot()
	r.printer.PrintAssessment(snap.Assessment)
	r.printer.PrintDocument("COVER LETTER", snap.Letter)
	return nil
}

func (r *repl) show() {
	snap := r.c.Snapshot()
	switch snap.Step {
	case types.StepLetterReview:
		r.printer.PrintAssessment(snap.Assessment)
		r.printer.PrintDocument("COVER LETTER", snap.Letter)
	case types.StepEmailReview:
		r.printer.PrintDocument("OUTREACH EMAIL", snap.Email)
	default:
		r.printf("[wizard] no document yet\n")
	}
	r.printer.PrintTranscript(snap.Transcript)
}

func (r *repl) run(ctx context.Context) error {
	if err := r.fillInputs(ctx); err != nil {
		if errors.Is(err, errQuit) {
			return nil
		}
		r.printf("[error] %v\n", err)
	}

	for {
		line, ok := r.prompt(fmt.Sprintf("[%s]> ", r.c.Snapshot().Step))
		if !ok {
			return nil
		}
		if line == "" {
			continue
		}

		err := r.dispatch(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			r.printf("[error] %v\n", err)
		}
	}
}

func (r *repl) dispatch(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, "/") {
		return r.chat(ctx, line)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return errQuit
	case "/show":
		r.show()
		return nil
	case "/letter":
		return r.generateLetter(ctx)
	case "/email":
		r.printf("[wizard] writing outreach email...\n")
		if err := r.c.GenerateEmail(ctx); err != nil {
			return err
		}
		r.printer.PrintDocument("OUTREACH EMAIL", r.c.Snapshot().Email)
		return nil
	case "/back":
		if err := r.c.Back(); err != nil {
			return err
		}
		r.printer.PrintDocument("COVER LETTER", r.c.Snapshot().Letter)
		return nil
	case "/pdf":
		dir := "."
		if len(fields) > 1 {
			dir = fields[1]
		}
		path, _, err := writeLetterPDF(dir, r.c.Snapshot())
		if err != nil {
			return err
		}
		r.printf("[wizard] PDF written to %s\n", path)
		return nil
	case "/new":
		if err := r.c.ResetForNewJob(); err != nil {
			return err
		}
		return r.fillInputs(ctx)
	case "/reset":
		if err := r.c.FullReset(); err != nil {
			return err
		}
		return r.fillInputs(ctx)
	default:
		return fmt.Errorf("unknown command %s", fields[0])
	}
}

func (r *repl) chat(ctx context.Context, message string) error {
	reply, err := r.c.Chat(ctx, message)
	if err != nil {
		return err
	}
	r.printf("\n%s\n\n", reply.Text)
	if reply.IsUpdate {
		snap := r.c.Snapshot()
		title, text := "COVER LETTER", snap.Letter
		if snap.Step == types.StepEmailReview {
			title, text = "OUTREACH EMAIL", snap.Email
		}
		r.printer.PrintDocument(title, text)
	}
	return nil
}
