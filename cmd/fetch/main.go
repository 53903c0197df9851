// Command fetch runs the portal's upstream pipelines once from the terminal
// and prints the result as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"staff-portal/internal/config"
	"staff-portal/internal/finance"
	"staff-portal/internal/logging"
	"staff-portal/internal/planday"
	"staff-portal/internal/revenue"
	"staff-portal/internal/roster"
)

const dateLayout = "2006-01-02"

type options struct {
	configPath  string
	date        string
	departments []string
	statuses    []string
	verbose     bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "fetch",
		Short:        "Query the scheduling API the way the portal does",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to the YAML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log probing and lookups to stderr")

	shifts := &cobra.Command{
		Use:   "shifts",
		Short: "Print the normalized shifts for one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()
			day, err := parseDay(opts)
			if err != nil {
				return err
			}
			statuses := opts.statuses
			if len(statuses) == 0 {
				statuses = cfg.Planday.DefaultStatuses
			}
			engine := roster.NewEngine(newClient(cfg, logger), rosterOptions(cfg, logger))
			items, err := engine.ShiftsForDay(cmd.Context(), roster.ShiftQuery{
				DepartmentIDs: opts.departments,
				Date:          day,
				Statuses:      statuses,
			})
			if err != nil {
				return err
			}
			return printJSON(out, map[string]any{"items": items})
		},
	}
	shifts.Flags().StringSliceVar(&opts.statuses, "status", nil, "shift statuses (default from config)")

	rev := &cobra.Command{
		Use:   "revenue",
		Short: "Print today's and week-to-date revenue against budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()
			day, err := parseDay(opts)
			if err != nil {
				return err
			}
			svc := revenue.NewService(newClient(cfg, logger), rosterOptions(cfg, logger))
			sum, err := svc.ForDay(cmd.Context(), revenue.Query{DepartmentIDs: opts.departments, Date: day})
			if err != nil {
				return err
			}
			return printJSON(out, sum)
		},
	}

	for _, c := range []*cobra.Command{shifts, rev} {
		c.Flags().StringVarP(&opts.date, "date", "d", time.Now().Format(dateLayout), "day to fetch (YYYY-MM-DD)")
		c.Flags().StringSliceVar(&opts.departments, "dept", nil, "department ids")
		_ = c.MarkFlagRequired("dept")
	}

	kpis := &cobra.Command{
		Use:   "kpis",
		Short: "Print the finance KPI rollup from the configured workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()
			svc := finance.NewService(cfg.Finance.Workbook, cfg.Finance.Sheet, 0, logger)
			report, err := svc.Report(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(out, report)
		},
	}

	root.AddCommand(shifts, rev, kpis)
	return root
}

func setup(opts *options) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	} else {
		cfg.Logging.Level = "warn"
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func parseDay(opts *options) (time.Time, error) {
	if len(opts.departments) == 0 {
		return time.Time{}, fmt.Errorf("at least one --dept is required")
	}
	day, err := time.Parse(dateLayout, opts.date)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return day, nil
}

func newClient(cfg *config.Config, logger *zap.Logger) *planday.Client {
	tokens := planday.NewTokenCache(planday.TokenConfig{
		TokenURL:     cfg.Planday.TokenURL,
		ClientID:     cfg.Planday.ClientID,
		RefreshToken: cfg.Planday.RefreshToken,
		Logger:       logger,
	})
	return planday.NewClient(planday.ClientConfig{
		BaseURL:  cfg.Planday.BaseURL,
		ClientID: cfg.Planday.ClientID,
		Tokens:   tokens,
		Timeout:  config.Duration(cfg.Planday.Timeout, 15*time.Second),
		Logger:   logger,
	})
}

func rosterOptions(cfg *config.Config, logger *zap.Logger) roster.Options {
	return roster.Options{
		PageSize:          cfg.Planday.PageSize,
		MaxPages:          cfg.Planday.MaxPages,
		LookupConcurrency: cfg.Planday.LookupConcurrency,
		Logger:            logger,
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
