package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Veraticus/duecard/internal/billing"
	"github.com/Veraticus/duecard/internal/cli"
	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
	"github.com/Veraticus/duecard/internal/service"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [card-id]",
		Short: "Show which bill is due next for each card",
		Long: `Resolve the billing cycle each card's owner should act on now. Once this
month's bill is paid the card moves on to next month's bill.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			today := now()

			return withLedger(cmd.Context(), func(_ service.Storage, ledger *billing.Ledger) error {
				if len(args) == 1 {
					status, err := ledger.Status(cmd.Context(), args[0], today)
					if err != nil {
						return cardNotFound(args[0], err)
					}
					fmt.Fprintln(out, cli.RenderBox(cli.CardIcon+" "+status.Card.Name, describeStatus(status.Status)))
					return nil
				}

				statuses, err := ledger.Overview(cmd.Context(), today)
				if err != nil {
					return err
				}
				if len(statuses) == 0 {
					fmt.Fprintln(out, cli.InfoStyle.Render("No cards yet. Use 'duecard cards add' to add one."))
					return nil
				}
				return writeStatusTable(out, statuses)
			})
		},
	}
}

func describeStatus(status model.BillStatus) string {
	return fmt.Sprintf("Bill:   %s\nDue:    %s (%s)\nStatus: %s",
		status.MonthKey,
		status.DueDate.Format(dateLayout),
		cli.FormatDaysDiff(status.DaysDiff),
		cli.FormatPaid(status.IsPaid))
}

func writeStatusTable(out io.Writer, statuses []billing.CardStatus) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("Card"),
		headerStyle.Render("Bill"),
		headerStyle.Render("Due date"),
		headerStyle.Render("When"),
		headerStyle.Render("Status"))
	for _, cs := range statuses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			cs.Card.ID,
			cs.Card.Name,
			cs.Status.MonthKey,
			cs.Status.DueDate.Format(dateLayout),
			cli.FormatDaysDiff(cs.Status.DaysDiff),
			cli.FormatPaid(cs.Status.IsPaid))
	}
	return w.Flush()
}

func payCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay <card-id>",
		Short: "Mark the card's current bill as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			return withLedger(cmd.Context(), func(_ service.Storage, ledger *billing.Ledger) error {
				before, err := ledger.Status(cmd.Context(), args[0], now())
				if err != nil {
					return cardNotFound(args[0], err)
				}

				created, after, err := ledger.MarkPaid(cmd.Context(), args[0], now())
				if err != nil {
					return fmt.Errorf("failed to mark payment: %w", err)
				}

				if created == nil {
					fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%s bill for %s is already marked paid",
						before.Card.Name, before.Status.MonthKey)))
					return nil
				}

				msg := fmt.Sprintf("Marked %s bill for %s as paid", before.Card.Name, created.MonthKey)
				if created.OnTime != nil && !*created.OnTime {
					fmt.Fprintln(out, cli.FormatWarning(msg+" (late)"))
				} else {
					fmt.Fprintln(out, cli.FormatSuccess(msg))
				}
				fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("Next: %s due %s",
					after.MonthKey, after.DueDate.Format(dateLayout))))
				return nil
			})
		},
	}
}

func unpayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpay <card-id> [YYYY-MM]",
		Short: "Remove a payment record",
		Long: `Delete the payment record of one billing month. Without a month the most recent
record is removed.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cardID := args[0]

			return withLedger(cmd.Context(), func(_ service.Storage, ledger *billing.Ledger) error {
				var monthKey string
				if len(args) == 2 {
					monthKey = args[1]
					if _, _, err := billing.ParseMonthKey(monthKey); err != nil {
						return common.NewUserError(fmt.Sprintf("%q is not a billing month, use YYYY-MM", monthKey), err)
					}
				} else {
					history, err := ledger.History(cmd.Context(), cardID)
					if err != nil {
						return cardNotFound(cardID, err)
					}
					if len(history) == 0 {
						fmt.Fprintln(out, cli.FormatInfo("No payments recorded for this card"))
						return nil
					}
					monthKey = history[0].MonthKey
				}

				removed, err := ledger.Unmark(cmd.Context(), cardID, monthKey, now())
				if err != nil {
					return cardNotFound(cardID, err)
				}

				if !removed {
					fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("No payment recorded for %s", monthKey)))
					return nil
				}
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Removed payment for %s", monthKey)))
				return nil
			})
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <card-id>",
		Short: "List a card's payment records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			return withLedger(cmd.Context(), func(_ service.Storage, ledger *billing.Ledger) error {
				payments, err := ledger.History(cmd.Context(), args[0])
				if err != nil {
					return cardNotFound(args[0], err)
				}

				if len(payments) == 0 {
					fmt.Fprintln(out, cli.InfoStyle.Render("No payments recorded yet."))
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					headerStyle.Render("Bill"),
					headerStyle.Render("Due date"),
					headerStyle.Render("Marked"),
					headerStyle.Render("On time"))
				for _, p := range payments {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						p.MonthKey,
						p.DueDate.Format(dateLayout),
						p.MarkedAt.Format(dateLayout),
						formatOnTime(p.OnTime))
				}
				return w.Flush()
			})
		},
	}
}

func formatOnTime(onTime *bool) string {
	switch {
	case onTime == nil:
		return cli.SubtleStyle.Render("incomplete")
	case *onTime:
		return cli.SuccessStyle.Render("yes")
	default:
		return cli.WarningStyle.Render("late")
	}
}

func remindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "List unpaid bills inside their reminder window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			return withLedger(cmd.Context(), func(_ service.Storage, ledger *billing.Ledger) error {
				reminders, err := ledger.DueSoon(cmd.Context(), now())
				if err != nil {
					return err
				}

				if len(reminders) == 0 {
					fmt.Fprintln(out, cli.FormatSuccess("Nothing due soon"))
					return nil
				}

				for _, r := range reminders {
					fmt.Fprintf(out, "%s %s: %s bill %s (%s)\n",
						cli.BellIcon,
						cli.BoldStyle.Render(r.Card.Name),
						r.Status.MonthKey,
						cli.FormatDaysDiff(r.Status.DaysDiff),
						r.Status.DueDate.Format(dateLayout))
				}
				return nil
			})
		},
	}
}
