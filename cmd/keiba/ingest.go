package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/keiba-stats/internal/models"
	"github.com/yourusername/keiba-stats/internal/service"
)

var (
	meetingTrack string
	meetingDate  string
	raceCardFile string
	programFile  string
	payoutFile   string
	overwrite    bool
	confirm      bool
)

func init() {
	ingestCmd.Flags().StringVar(&meetingTrack, "track", "", "Racetrack of the meeting, e.g. 中山")
	ingestCmd.Flags().StringVar(&meetingDate, "date", "", "Meeting date (YYYY-MM-DD)")
	ingestCmd.Flags().StringVar(&raceCardFile, "racecard", "", "File with the pasted race results (- for stdin)")
	ingestCmd.Flags().StringVar(&programFile, "program", "", "File with the pasted program listing")
	ingestCmd.Flags().StringVar(&payoutFile, "payouts", "", "File with the pasted payout listing")
	ingestCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing dataset for the same meeting")
	ingestCmd.MarkFlagRequired("track")
	ingestCmd.MarkFlagRequired("date")
	ingestCmd.MarkFlagRequired("racecard")

	updatePayoutsCmd.Flags().StringVar(&meetingTrack, "track", "", "Racetrack of the stored meeting")
	updatePayoutsCmd.Flags().StringVar(&meetingDate, "date", "", "Date of the stored meeting (YYYY-MM-DD)")
	updatePayoutsCmd.Flags().StringVar(&payoutFile, "payouts", "", "File with the pasted payout listing (- for stdin)")
	updatePayoutsCmd.Flags().BoolVar(&confirm, "confirm", false, "Commit even when conflicts are found")
	updatePayoutsCmd.MarkFlagRequired("track")
	updatePayoutsCmd.MarkFlagRequired("date")
	updatePayoutsCmd.MarkFlagRequired("payouts")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Parse a meeting's race card and payouts and save it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context())
	},
}

var updatePayoutsCmd = &cobra.Command{
	Use:   "update-payouts",
	Short: "Re-parse payouts for a stored meeting and reconcile them with its results",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdatePayouts(cmd.Context())
	},
}

func runIngest(ctx context.Context) error {
	card, err := readInput(raceCardFile)
	if err != nil {
		return err
	}
	program, err := readOptionalInput(programFile)
	if err != nil {
		return err
	}
	payouts, err := readOptionalInput(payoutFile)
	if err != nil {
		return err
	}

	report, err := ingestor.Ingest(service.IngestRequest{
		Racetrack:   meetingTrack,
		Date:        meetingDate,
		RaceCard:    card,
		ProgramText: program,
		PayoutText:  payouts,
	})
	if err != nil {
		return err
	}

	saved, op, err := datasets.Upsert(ctx, report.Dataset, overwrite)
	if errors.Is(err, models.ErrDatasetDuplicate) {
		return fmt.Errorf("%w (use --overwrite to replace it)", err)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(struct {
			Operation string                   `json:"operation"`
			Dataset   *models.Dataset          `json:"dataset"`
			Report    *service.IngestionReport `json:"report"`
		}{string(op), saved, report})
	}

	fmt.Printf("%s %s %s: %d races (%s)\n", op, saved.Racetrack, saved.Date, len(saved.Races), saved.ID)
	fmt.Printf("  payout blocks: %d parsed, %d failed\n", report.PayoutBlocks, report.FailedBlocks)
	printLines("line errors", report.LineErrors)
	printLines("warnings", report.Warnings)
	return nil
}

func runUpdatePayouts(ctx context.Context) error {
	text, err := readInput(payoutFile)
	if err != nil {
		return err
	}
	ds, err := datasets.GetByTrackAndDate(ctx, meetingTrack, meetingDate)
	if err != nil {
		return fmt.Errorf("failed to load %s %s: %w", meetingTrack, meetingDate, err)
	}

	result, err := reconciler.ReconcileMeeting(text, ds.Racetrack, ds.Date, ds.Races)
	if err != nil {
		return err
	}
	printLines("warnings", result.Warnings)
	for _, c := range result.Conflicts {
		fmt.Printf("  conflict %s %s: %s\n", c.Race, c.Type, c.Detail)
	}

	races, err := reconciler.Commit(result, confirm)
	if errors.Is(err, service.ErrUnconfirmedConflicts) {
		return fmt.Errorf("%w (review the conflicts above and rerun with --confirm)", err)
	}
	if err != nil {
		return err
	}

	updated, err := datasets.ReplaceRaces(ctx, ds.Racetrack, ds.Date, races)
	if err != nil {
		return err
	}
	audit.LogPayoutsCommitted(updated.Racetrack, updated.Date, len(updated.Races), len(result.Conflicts), confirm)

	if jsonOutput {
		return printJSON(struct {
			Dataset   *models.Dataset    `json:"dataset"`
			Conflicts []service.Conflict `json:"conflicts"`
			Warnings  []string           `json:"warnings"`
		}{updated, result.Conflicts, result.Warnings})
	}
	fmt.Printf("updated payouts for %s %s: %d races at %s\n",
		updated.Racetrack, updated.Date, len(updated.Races), updated.UpdatedAt.Format(time.RFC3339))
	return nil
}

func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func readOptionalInput(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return readInput(path)
}
