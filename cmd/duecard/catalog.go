package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/duecard/internal/catalog"
	"github.com/Veraticus/duecard/internal/cli"
	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/config"
	"github.com/Veraticus/duecard/internal/synclock"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Maintain the shared credit card offer catalog",
		Long: `Scrape credit card offers from the comparison site and reconcile them into the
remote catalog. Offers entered by hand or marked protected are never overwritten.`,
	}

	cmd.AddCommand(syncCatalogCmd())
	cmd.AddCommand(listOffersCmd())
	cmd.AddCommand(importOffersCmd())
	cmd.AddCommand(protectOfferCmd())
	cmd.AddCommand(unprotectOfferCmd())

	return cmd
}

func syncCatalogCmd() *cobra.Command {
	var (
		dryRun  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Scrape offers and update the catalog",
		Long: `Fetch the current offers, match them against the stored catalog and write the
differences. Use --dry-run to see the plan without writing anything.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			syncCfg, err := config.LoadSyncConfig()
			if err != nil {
				return err
			}
			scraperCfg, err := config.LoadScraperConfig()
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(out, "Catalog sync")
			ctx := handler.HandleInterrupts(cmd.Context(), !dryRun)

			fetcher, err := newFetcher()
			if err != nil {
				return fmt.Errorf("failed to create scraper: %w", err)
			}

			store, closeStore, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			locker, closeLocker, err := newLocker(ctx, syncCfg.RedisAddr)
			if err != nil {
				return fmt.Errorf("failed to connect to lock server: %w", err)
			}
			defer closeLocker()

			fmt.Fprintln(out, cli.FormatTitle(cli.SyncIcon+" Syncing catalog"))

			syncer := catalog.NewSyncer(fetcher, store, locker, nil)
			report, err := syncer.Run(ctx, catalog.SyncOptions{
				Progress:     cli.NewProgress(cmd.ErrOrStderr(), "Writing offers"),
				Threshold:    syncCfg.SimilarityThreshold,
				FetchTimeout: scraperCfg.Timeout * time.Duration(scraperCfg.RetryAttempts),
				LockTTL:      syncCfg.LockTTL,
				DryRun:       dryRun,
			})
			if err != nil {
				return syncError(err)
			}

			writeSyncReport(out, report, verbose || dryRun)

			if handler.WasInterrupted() {
				return common.NewUserError("Sync interrupted", ctx.Err())
			}
			if report.Result.Failed > 0 {
				return fmt.Errorf("%d of %d catalog writes failed", report.Result.Failed,
					report.Result.Failed+report.Result.Succeeded())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the plan without writing")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list every planned change")
	cmd.Flags().Float64("threshold", catalog.DefaultSimilarityThreshold, "minimum name similarity (0-1) for a fuzzy match")
	_ = viper.BindPFlag("catalog.similarity_threshold", cmd.Flags().Lookup("threshold"))

	return cmd
}

func syncError(err error) error {
	switch {
	case errors.Is(err, synclock.ErrLocked):
		return common.NewUserError("Another catalog sync is already running. Try again later.", err)
	case errors.Is(err, catalog.ErrNoRecords):
		return common.NewUserError("The comparison site returned no offers; the catalog was left untouched.", err)
	case errors.Is(err, catalog.ErrFetchFailed):
		return common.NewUserError("Could not fetch offers; the catalog was left untouched.", err)
	default:
		return err
	}
}

func writeSyncReport(out io.Writer, report *catalog.SyncReport, details bool) {
	counts := report.Plan.Counts()

	summary := fmt.Sprintf("Fetched:   %d (%d usable)\nStored:    %d\nAdd:       %d\nUpdate:    %d\nProtected: %d\nUnchanged: %d\nCollapsed: %d",
		report.Fetched, report.Usable, report.Stored,
		counts.Add, counts.Update, counts.Protected, counts.Unchanged, counts.Collapsed)
	title := "Sync plan"
	if report.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(out, cli.RenderBox(title, summary))

	if details {
		for _, scraped := range report.Plan.ToAdd {
			fmt.Fprintf(out, "  %s %s (%s)\n", cli.SuccessStyle.Render("+"), scraped.Name, scraped.Bank)
		}
		for _, entry := range report.Plan.ToUpdate {
			fmt.Fprintf(out, "  %s %s (%s, %s)\n", cli.WarningStyle.Render("~"), entry.Stored.Name, entry.Stored.ID, entry.Match)
			for _, change := range entry.Changes {
				fmt.Fprintf(out, "      %s: %s -> %s\n", change.Field, formatValue(change.Old), formatValue(change.New))
			}
		}
		for _, entry := range report.Plan.Protected {
			fmt.Fprintf(out, "  %s %s (%s)\n", cli.SubtleStyle.Render(cli.LockIcon), entry.Stored.Name, entry.Stored.ID)
		}
		for _, entry := range report.Plan.Collapsed {
			fmt.Fprintf(out, "  %s %s -> %s (%s)\n", cli.SubtleStyle.Render("="), entry.Scraped.Name, entry.Stored.ID, entry.Match)
		}
	}

	if report.DryRun {
		fmt.Fprintln(out, cli.FormatInfo("Dry run: nothing was written"))
		return
	}

	result := report.Result
	if result.Failed == 0 {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Added %d, updated %d", result.Added, result.Updated)))
		return
	}
	fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Added %d, updated %d, failed %d", result.Added, result.Updated, result.Failed)))
	for _, recErr := range result.Errors {
		fmt.Fprintf(out, "  %s %s\n", cli.ErrorStyle.Render(cli.ErrorIcon), recErr.Error())
	}
}

func formatValue(v any) string {
	switch value := v.(type) {
	case decimal.NullDecimal:
		if !value.Valid {
			return "(none)"
		}
		return value.Decimal.String()
	case string:
		if value == "" {
			return `""`
		}
		return fmt.Sprintf("%q", value)
	default:
		return fmt.Sprint(v)
	}
}

func listOffersCmd() *cobra.Command {
	var (
		bank          string
		protectedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog offers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			store, closeStore, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			offers, err := catalog.ListOffers(cmd.Context(), store, catalog.ListFilter{
				Bank:          bank,
				ProtectedOnly: protectedOnly,
			})
			if err != nil {
				return err
			}

			if len(offers) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No offers found."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Bank"),
				headerStyle.Render("Name"),
				headerStyle.Render("Cashback"),
				headerStyle.Render("Source"),
				headerStyle.Render("Protected"))
			for _, offer := range offers {
				protected := ""
				if offer.IsProtected() {
					protected = cli.LockIcon
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					offer.ID, offer.Bank, offer.Name, offer.CashbackRate, offer.DataSource, protected)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "", "only show offers from this bank")
	cmd.Flags().BoolVar(&protectedOnly, "protected", false, "only show offers the sync leaves alone")

	return cmd
}

func importOffersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Bulk import offers from a JSON file",
		Long: `Create catalog offers from a JSON array. Offers whose ID already exists are
skipped; offers without an ID are given a new one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			f, err := os.Open(config.ExpandPath(args[0]))
			if err != nil {
				return common.NewUserError(fmt.Sprintf("Cannot open %s", args[0]), err)
			}
			defer f.Close()

			records, err := catalog.ReadImportFile(f)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("%s is not a valid import file", args[0]), err)
			}

			handler := cli.NewInterruptHandler(out, "Import")
			ctx := handler.HandleInterrupts(cmd.Context(), true)

			store, closeStore, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := catalog.ImportOffers(ctx, store, records, now())
			if err != nil {
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d offers (%d skipped, %d failed)",
				result.Created, result.Skipped, result.Failed)))
			for _, recErr := range result.Errors {
				fmt.Fprintf(out, "  %s %s\n", cli.ErrorStyle.Render(cli.ErrorIcon), recErr.Error())
			}
			if result.Failed > 0 {
				return fmt.Errorf("%d offers failed to import", result.Failed)
			}
			return nil
		},
	}
}

func protectOfferCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "protect <offer-id>",
		Short: "Stop the sync from changing an offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setProtection(cmd, args[0], true, strings.TrimSpace(reason))
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the offer is protected")

	return cmd
}

func unprotectOfferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unprotect <offer-id>",
		Short: "Let the sync update an offer again",
		Long: `Clear an offer's protection flag and its manual-edit marker. Offers that were
entered by hand stay protected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setProtection(cmd, args[0], false, "")
		},
	}
}

func setProtection(cmd *cobra.Command, id string, enabled bool, reason string) error {
	store, closeStore, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	if err := catalog.SetProtection(cmd.Context(), store, id, enabled, reason, now()); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewUserError(fmt.Sprintf("No offer with ID %q", id), err)
		}
		return err
	}

	if enabled {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s %s is now protected", cli.LockIcon, id)))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s is no longer protected", id)))
	}
	return nil
}
