package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yourusername/keiba-stats/internal/health"
	"github.com/yourusername/keiba-stats/internal/metrics"
	"github.com/yourusername/keiba-stats/internal/models"
)

var (
	exchangeFile string
	replaceAll   bool
	deleteID     string
	servePort    int
)

func init() {
	exportCmd.Flags().StringVarP(&exchangeFile, "output", "o", "-", "Export file (- for stdout)")
	importCmd.Flags().StringVarP(&exchangeFile, "input", "i", "", "Export file to import (- for stdin)")
	importCmd.Flags().BoolVar(&replaceAll, "replace", false, "Replace every stored dataset instead of merging")
	importCmd.MarkFlagRequired("input")
	datasetsCmd.Flags().StringVar(&deleteID, "delete", "", "Delete the dataset with this ID")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Status server port (default from metrics.port)")
}

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List stored meeting datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if deleteID != "" {
			id, err := uuid.Parse(deleteID)
			if err != nil {
				return fmt.Errorf("invalid dataset id %q: %w", deleteID, err)
			}
			if err := datasets.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", id)
			return nil
		}

		list, err := datasets.List(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(list)
		}
		w := newTable()
		fmt.Fprintf(w, "id\tracetrack\tdate\traces\tsaved\t\n")
		for _, ds := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t\n", ds.ID, ds.Racetrack, ds.Date, len(ds.Races), savedAt(ds))
		}
		return w.Flush()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every stored dataset as an export document",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exchangeFile == "-" {
			return datasets.Export(cmd.Context(), os.Stdout)
		}
		f, err := os.Create(exchangeFile)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exchangeFile, err)
		}
		if err := datasets.Export(cmd.Context(), f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load datasets from an export document",
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if exchangeFile != "-" {
			f, err := os.Open(exchangeFile)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", exchangeFile, err)
			}
			defer f.Close()
			r = f
		}

		result, err := datasets.Import(cmd.Context(), r, !replaceAll)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(result)
		}
		fmt.Printf("imported %d datasets, skipped %d existing\n", result.Added, result.Skipped)
		printLines("rejected", result.Rejected)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health checks and Prometheus metrics until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	port := servePort
	if port == 0 {
		port = cfg.Metrics.Port
	}
	srv := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        port,
		MetricsPath: cfg.Metrics.Path,
		Metrics:     metricsHandler(),
		Logger:      logger,
		Store:       datasets,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}

	// Warm the table cache so the stats gauges are populated before the first scrape
	races, err := datasets.AllRaces(ctx)
	if err != nil {
		return err
	}
	if len(races) > 0 {
		tickets, err := parseTickets(cfg.Stats.Tickets)
		if err != nil {
			return err
		}
		if _, err := engine.ComputeAll(races, tickets); err != nil {
			logger.WithError(err).Warn("Failed to warm statistics cache")
		}
	}
	srv.SetReady(true)

	<-ctx.Done()
	return srv.Shutdown()
}

func metricsHandler() http.Handler {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.Handler()
}

func savedAt(ds *models.Dataset) string {
	if ds.UpdatedAt != nil {
		return ds.UpdatedAt.Format("2006-01-02 15:04")
	}
	return ds.CreatedAt.Format("2006-01-02 15:04")
}
