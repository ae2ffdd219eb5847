package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/export"
	"mobile-pos/internal/repository"
	"mobile-pos/internal/service"

	"github.com/spf13/cobra"
)

var (
	exportType        string
	exportFrom        string
	exportTo          string
	exportGranularity string
	exportOut         string
)

// posctl export
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a report or the service tickets as CSV",
	Example: "  posctl export --type overview --from 2024-01-01 --to 2024-01-31 --granularity weekly\n" +
		"  posctl export --type services --from 2024-01-01 --to 2024-01-31 --out services.csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := export.Kind(exportType)
		if !kind.Valid() {
			return fmt.Errorf("unknown export type %q", exportType)
		}

		e, err := bootDB(cmd.Context())
		if err != nil {
			return err
		}
		defer e.closer()

		loc, err := e.cfg.Report.Location()
		if err != nil {
			return err
		}
		from, err := time.ParseInLocation(export.DateLayout, exportFrom, loc)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		to, err := time.ParseInLocation(export.DateLayout, exportTo, loc)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}

		store := repository.NewPostgresStore(e.db.DB())
		report, err := service.NewReportService(store, loc, e.log).Report(cmd.Context(), from, to, domain.Granularity(exportGranularity))
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		switch kind {
		case export.KindOverview:
			return export.WriteOverviewCSV(out, *report)
		case export.KindProducts:
			return export.WriteProductsCSV(out, *report)
		default:
			tickets, err := service.NewServiceTicketService(store, e.log).List(cmd.Context(), domain.TicketFilter{From: report.From, To: report.To})
			if err != nil {
				return err
			}
			return export.WriteServicesCSV(out, tickets)
		}
	},
}

func init() {
	today := time.Now().Format(export.DateLayout)
	exportCmd.Flags().StringVar(&exportType, "type", string(export.KindOverview), "overview, products or services")
	exportCmd.Flags().StringVar(&exportFrom, "from", today, "first day (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", today, "last day (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportGranularity, "granularity", string(domain.GranularityDaily), "daily, weekly or monthly")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file, stdout when empty")
}
