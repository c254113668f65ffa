package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-books/cmd/odyssey/cli"
	"github.com/odyssey-erp/odyssey-books/internal/app"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	"github.com/odyssey-erp/odyssey-books/migrations"
)

// exitCode carries a command's exit status out of cobra without printing usage.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		var code exitCode
		if errors.As(err, &code) {
			os.Exit(int(code))
		}
		_, _ = fmt.Fprintln(os.Stderr, "booksctl:", err)
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "booksctl",
		Short: "Operator tooling for the books ledger and payroll",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(newPayrollCommand(stdout, stderr), newJobsCommand(stdout, stderr), newMigrateCommand(stdout))
	return root
}

func newPayrollCommand(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{Use: "payroll", Short: "Payroll calculations"}

	opts := cli.PayrollCalcOptions{Stdout: stdout, Stderr: stderr}
	calc := &cobra.Command{
		Use:   "calc",
		Short: "Compute one employee month without touching the ledger",
		RunE: func(*cobra.Command, []string) error {
			return asExit(cli.PayrollCalcCommand(opts))
		},
	}
	flags := calc.Flags()
	flags.IntVar(&opts.Year, "year", 0, "tax year")
	flags.StringVar(&opts.Salary, "salary", "", "monthly salary or hourly rate")
	flags.StringVar(&opts.SalaryType, "salary-type", "monthly", "monthly or hourly")
	flags.IntVar(&opts.WorkedDays, "worked-days", 0, "days worked in the month")
	flags.IntVar(&opts.TotalWorkDays, "total-days", 0, "scheduled work days in the month")
	flags.StringVar(&opts.Employment, "employment", "full_time", "full_time or contractor")
	flags.BoolVar(&opts.NonResident, "non-resident", false, "employee is not a tax resident")
	flags.StringVar(&opts.SettingsFile, "settings", "", "tax settings YAML (defaults to built-in values)")
	flags.StringVar(&opts.Currency, "currency", "KZT", "display currency")
	flags.BoolVar(&opts.JSONOutput, "json", false, "emit JSON")
	_ = calc.MarkFlagRequired("year")
	_ = calc.MarkFlagRequired("salary")
	_ = calc.MarkFlagRequired("total-days")

	cmd.AddCommand(calc)
	return cmd
}

func newJobsCommand(stdout, stderr io.Writer) *cobra.Command {
	var redisAddr string
	cmd := &cobra.Command{Use: "jobs", Short: "Background job management"}
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", envOr("REDIS_ADDR", "localhost:6379"), "Redis address of the job queue")

	trigger := &cobra.Command{
		Use:   "trigger <task>",
		Short: "Enqueue periods:provision, gl:integrity or idempotency:cleanup",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			jobsCLI, err := cli.NewJobsCLI(redisAddr)
			if err != nil {
				return err
			}
			defer jobsCLI.Close()
			return asExit(jobsCLI.TriggerCommand(c.Context(), args[0], stdout, stderr))
		},
	}
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show default queue counters",
		RunE: func(c *cobra.Command, _ []string) error {
			jobsCLI, err := cli.NewJobsCLI(redisAddr)
			if err != nil {
				return err
			}
			defer jobsCLI.Close()
			s, err := jobsCLI.InspectQueue(c.Context())
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "jobs stats: %v\n", err)
				return exitCode(1)
			}
			_, _ = fmt.Fprintf(stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
				s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry)
			return nil
		},
	}
	cmd.AddCommand(trigger, stats)
	return cmd
}

func newMigrateCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema to PG_DSN",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			pool, err := db.New(c.Context(), cfg.PostgresOptions())
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := migrations.Apply(c.Context(), pool); err != nil {
				return err
			}
			names, _ := migrations.Names()
			_, _ = fmt.Fprintf(stdout, "applied %d schema files\n", len(names))
			return nil
		},
	}
}

func asExit(code int) error {
	if code == 0 {
		return nil
	}
	return exitCode(code)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
