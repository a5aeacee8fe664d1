package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	app "github.com/sitemanager/backend/internal/application/ledger"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
	"github.com/sitemanager/backend/internal/domain/site"
	"go.uber.org/zap"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const cmdPurgeSite = "sites:purge"

// Generator expands recurring templates
type Generator interface {
	GenerateMonthlyCharges(ctx context.Context, period string) (*app.GenerationReport, error)
	GenerateRecurringExpenses(ctx context.Context) (*app.GenerationReport, error)
	CurrentPeriod() string
}

// Purger resolves and deletes sites
type Purger interface {
	Resolve(ctx context.Context, idOrName string) (*site.Site, error)
	Purge(ctx context.Context, siteID uuid.UUID) (*app.PurgeReport, error)
}

// Services are what the commands run against
type Services struct {
	Generator Generator
	Purger    Purger
	Logger    *zap.Logger
}

// Connector opens the services. The returned func releases them.
type Connector func(ctx context.Context) (*Services, func() error, error)

type cli struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	connect Connector
}

// run executes one command and returns the process exit code
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, connect Connector) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr, connect: connect}
	if len(args) == 0 {
		c.usage(stderr)
		return exitUsage
	}

	name, rest := args[0], args[1:]
	switch name {
	case app.JobMonthlyCharges:
		return c.generateMonthly(ctx, rest)
	case app.JobRecurringExpenses:
		return c.generateRecurring(ctx, rest)
	case cmdPurgeSite:
		return c.purgeSite(ctx, rest)
	case "help", "-h", "--help":
		c.usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		c.usage(stderr)
		return exitUsage
	}
}

func (c *cli) usage(w io.Writer) {
	fmt.Fprint(w, `Site Manager ledger console

Usage:
  ledgerctl <command> [flags] [arguments]

Commands:
  charges:generate-monthly [--period=YYYY-MM]   Create the dues charges of a month (default: current month)
  expenses:generate-recurring                   Create the recurring expenses that are due
  sites:purge <site id or name> [--force]       Delete a site and all of its data

Environment Variables:
  SM_DATABASE_HOST, SM_DATABASE_PORT, SM_DATABASE_USER, SM_DATABASE_PASSWORD, SM_DATABASE_DBNAME,
  SM_REDIS_ENABLED, SM_REDIS_HOST, SM_LEDGER_TIMEZONE
`)
}

// parseFlags parses flags that may appear before or after positional
// arguments and returns the positionals
func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) open(ctx context.Context) (*Services, func(), bool) {
	svc, closeFn, err := c.connect(ctx)
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to initialize: %v\n", err)
		return nil, nil, false
	}
	return svc, func() {
		if closeFn == nil {
			return
		}
		if err := closeFn(); err != nil {
			fmt.Fprintf(c.stderr, "error during shutdown: %v\n", err)
		}
	}, true
}

func (c *cli) generateMonthly(ctx context.Context, args []string) int {
	fs := c.flagSet(app.JobMonthlyCharges)
	period := fs.String("period", "", "month to generate, YYYY-MM (default: current month)")
	positional, err := parseFlags(fs, args)
	if err != nil {
		return exitUsage
	}
	if len(positional) > 0 {
		fmt.Fprintf(c.stderr, "unexpected argument %q\n", positional[0])
		return exitUsage
	}
	if *period != "" {
		if _, err := valueobject.ParsePeriod(*period); err != nil {
			fmt.Fprintf(c.stderr, "invalid --period: %v\n", err)
			return exitUsage
		}
	}

	svc, release, ok := c.open(ctx)
	if !ok {
		return exitFailure
	}
	defer release()

	if *period == "" {
		*period = svc.Generator.CurrentPeriod()
	}
	report, err := svc.Generator.GenerateMonthlyCharges(ctx, *period)
	return c.finishGeneration(report, err)
}

func (c *cli) generateRecurring(ctx context.Context, args []string) int {
	fs := c.flagSet(app.JobRecurringExpenses)
	positional, err := parseFlags(fs, args)
	if err != nil {
		return exitUsage
	}
	if len(positional) > 0 {
		fmt.Fprintf(c.stderr, "unexpected argument %q\n", positional[0])
		return exitUsage
	}

	svc, release, ok := c.open(ctx)
	if !ok {
		return exitFailure
	}
	defer release()

	report, err := svc.Generator.GenerateRecurringExpenses(ctx)
	return c.finishGeneration(report, err)
}

// finishGeneration prints the report and maps the outcome to an exit code.
// A run skipped because another instance holds the lock is not a failure.
func (c *cli) finishGeneration(report *app.GenerationReport, err error) int {
	if errors.Is(err, shared.ErrRunInProgress) {
		fmt.Fprintln(c.stdout, "Another run is in progress, nothing to do.")
		return exitOK
	}
	if report == nil {
		fmt.Fprintf(c.stderr, "generation failed: %v\n", err)
		return exitFailure
	}

	if report.Period != "" {
		fmt.Fprintf(c.stdout, "%s %s\n", report.Job, report.Period)
	} else {
		fmt.Fprintln(c.stdout, report.Job)
	}
	fmt.Fprintf(c.stdout, "Sites: %d\nCreated: %d\nSkipped: %d\n", report.Sites, report.Created, report.Skipped)
	for _, f := range report.Failures {
		fmt.Fprintf(c.stderr, "FAILED site=%s template=%s %q: %v\n", f.SiteID, f.TemplateID, f.Name, f.Err)
	}
	if err != nil {
		fmt.Fprintf(c.stderr, "%d template(s) failed\n", len(report.Failures))
		return exitFailure
	}
	return exitOK
}

func (c *cli) purgeSite(ctx context.Context, args []string) int {
	fs := c.flagSet(cmdPurgeSite)
	force := fs.Bool("force", false, "skip the confirmation prompt")
	positional, err := parseFlags(fs, args)
	if err != nil {
		return exitUsage
	}
	if len(positional) != 1 {
		fmt.Fprintln(c.stderr, "usage: ledgerctl sites:purge <site id or name> [--force]")
		return exitUsage
	}
	target := strings.TrimSpace(positional[0])

	svc, release, ok := c.open(ctx)
	if !ok {
		return exitFailure
	}
	defer release()

	st, err := svc.Purger.Resolve(ctx, target)
	if err != nil {
		if shared.IsNotFound(err) {
			fmt.Fprintf(c.stderr, "site %q not found\n", target)
		} else {
			fmt.Fprintf(c.stderr, "failed to resolve site: %v\n", err)
		}
		return exitFailure
	}

	state := "active"
	if st.DeletedAt != nil {
		state = "deleted " + st.DeletedAt.Format("2006-01-02")
	} else if !st.Active {
		state = "inactive"
	}
	fmt.Fprintf(c.stdout, "Site: %s (%s, %s)\n", st.Name, st.ID, state)

	if !*force && !c.confirm(fmt.Sprintf("This permanently deletes %q and all of its data. Continue? [y/N] ", st.Name)) {
		fmt.Fprintln(c.stdout, "Aborted.")
		return exitOK
	}

	report, err := svc.Purger.Purge(ctx, st.ID)
	if err != nil {
		fmt.Fprintf(c.stderr, "purge failed, nothing was deleted: %v\n", err)
		svc.Logger.Error("Site purge failed", zap.String("site_id", st.ID.String()), zap.Error(err))
		return exitFailure
	}
	c.printPurge(report)
	return exitOK
}

func (c *cli) confirm(prompt string) bool {
	fmt.Fprint(c.stdout, prompt)
	line, err := bufio.NewReader(c.stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (c *cli) printPurge(report *app.PurgeReport) {
	fmt.Fprintf(c.stdout, "Purged site %s (%s)\n", report.SiteName, report.SiteID)
	targets := make([]string, 0, len(report.Deleted))
	for target := range report.Deleted {
		targets = append(targets, string(target))
	}
	sort.Strings(targets)
	for _, target := range targets {
		fmt.Fprintf(c.stdout, "  %-26s %d\n", target, report.Deleted[ledger.PurgeTarget(target)])
	}
	fmt.Fprintf(c.stdout, "  %-26s %d\n", "users_unassigned", report.UsersUnassigned)
}
