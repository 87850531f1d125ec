package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/duecard/internal/billing"
	"github.com/Veraticus/duecard/internal/cli"
	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
	"github.com/Veraticus/duecard/internal/service"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

var errNothingToChange = errors.New("no changes requested")

func cardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Manage tracked credit cards",
		Long:  `List, add, edit and delete the credit cards whose bills duecard keeps track of.`,
	}

	cmd.AddCommand(listCardsCmd())
	cmd.AddCommand(addCardCmd())
	cmd.AddCommand(editCardCmd())
	cmd.AddCommand(deleteCardCmd())
	cmd.AddCommand(notifyCardCmd())

	return cmd
}

func listCardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			return withLedger(cmd.Context(), func(store service.Storage, _ *billing.Ledger) error {
				cards, err := store.ListCards(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list cards: %w", err)
				}

				if len(cards) == 0 {
					fmt.Fprintln(out, cli.InfoStyle.Render("No cards yet. Use 'duecard cards add' to add one."))
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					headerStyle.Render("ID"),
					headerStyle.Render("Name"),
					headerStyle.Render("Bank"),
					headerStyle.Render("Due"),
					headerStyle.Render("This month"))
				for _, card := range cards {
					bank := card.Bank
					if bank == "" {
						bank = cli.SubtleStyle.Render("-")
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
						card.ID, card.Name, bank, card.DueDay, cli.FormatPaid(card.IsPaid))
				}
				return w.Flush()
			})
		},
	}
}

func addCardCmd() *cobra.Command {
	var (
		bank   string
		dueDay int
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a card",
		Long: `Add a card to the ledger. The due day is the day of the month the bill is due;
days past the end of a short month fall on that month's last day.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card := &model.Card{
				ID:     uuid.NewString(),
				Name:   strings.TrimSpace(args[0]),
				Bank:   strings.TrimSpace(bank),
				DueDay: dueDay,
			}
			if card.DueDay < 1 || card.DueDay > 31 {
				return common.NewUserError("--due-day must be between 1 and 31", common.ErrInvalidDueDay)
			}

			return withLedger(cmd.Context(), func(store service.Storage, _ *billing.Ledger) error {
				if err := store.CreateCard(cmd.Context(), card); err != nil {
					return fmt.Errorf("failed to add card: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Added %s %s (due on day %d, ID %s)", cli.CardIcon, card.Name, card.DueDay, card.ID)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "", "issuing bank")
	cmd.Flags().IntVar(&dueDay, "due-day", 0, "day of the month the bill is due (1-31)")
	_ = cmd.MarkFlagRequired("due-day")

	return cmd
}

func editCardCmd() *cobra.Command {
	var (
		name   string
		bank   string
		dueDay int
	)

	cmd := &cobra.Command{
		Use:   "edit <card-id>",
		Short: "Change a card's name, bank or due day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("name") && !flags.Changed("bank") && !flags.Changed("due-day") {
				return common.NewUserError("Nothing to change. Pass --name, --bank or --due-day.", errNothingToChange)
			}

			return withLedger(cmd.Context(), func(store service.Storage, _ *billing.Ledger) error {
				card, err := store.GetCard(cmd.Context(), args[0])
				if err != nil {
					return cardNotFound(args[0], err)
				}

				if flags.Changed("name") {
					card.Name = strings.TrimSpace(name)
				}
				if flags.Changed("bank") {
					card.Bank = strings.TrimSpace(bank)
				}
				if flags.Changed("due-day") {
					if dueDay < 1 || dueDay > 31 {
						return common.NewUserError("--due-day must be between 1 and 31", common.ErrInvalidDueDay)
					}
					card.DueDay = dueDay
				}

				if err := store.UpdateCard(cmd.Context(), card); err != nil {
					return fmt.Errorf("failed to update card: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated %s", card.Name)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new card name")
	cmd.Flags().StringVar(&bank, "bank", "", "new issuing bank")
	cmd.Flags().IntVar(&dueDay, "due-day", 0, "new due day (1-31)")

	return cmd
}

func deleteCardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <card-id>",
		Short: "Delete a card and its payment history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd.Context(), func(store service.Storage, _ *billing.Ledger) error {
				card, err := store.GetCard(cmd.Context(), args[0])
				if err != nil {
					return cardNotFound(args[0], err)
				}

				if err := store.DeleteCard(cmd.Context(), card.ID); err != nil {
					return fmt.Errorf("failed to delete card: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %s", card.Name)))
				return nil
			})
		},
	}
}

func notifyCardCmd() *cobra.Command {
	var (
		daysBefore int
		disable    bool
	)

	cmd := &cobra.Command{
		Use:   "notify <card-id>",
		Short: "Configure due-date reminders for a card",
		Long: `Show or change when 'duecard reminders' starts listing a card. Without flags the
current setting is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			flags := cmd.Flags()

			return withLedger(cmd.Context(), func(store service.Storage, _ *billing.Ledger) error {
				card, err := store.GetCard(cmd.Context(), args[0])
				if err != nil {
					return cardNotFound(args[0], err)
				}

				setting, err := store.GetNotificationSetting(cmd.Context(), card.ID)
				switch {
				case errors.Is(err, common.ErrNotFound):
					defaults := model.DefaultNotificationSetting(card.ID)
					setting = &defaults
				case err != nil:
					return fmt.Errorf("failed to load notification setting: %w", err)
				}

				if !flags.Changed("days-before") && !flags.Changed("disable") {
					fmt.Fprintln(out, describeSetting(card.Name, *setting))
					return nil
				}

				if flags.Changed("days-before") {
					setting.DaysBefore = daysBefore
				}
				if flags.Changed("disable") {
					setting.Enabled = !disable
				}

				if err := store.SaveNotificationSetting(cmd.Context(), setting); err != nil {
					return fmt.Errorf("failed to save notification setting: %w", err)
				}

				fmt.Fprintln(out, cli.FormatSuccess(describeSetting(card.Name, *setting)))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&daysBefore, "days-before", 3, "remind this many days before the due date (0-31)")
	cmd.Flags().BoolVar(&disable, "disable", false, "turn reminders off for this card")

	return cmd
}

func describeSetting(cardName string, setting model.NotificationSetting) string {
	if !setting.Enabled {
		return fmt.Sprintf("%s Reminders for %s are off", cli.BellIcon, cardName)
	}
	return fmt.Sprintf("%s Reminders for %s start %d day(s) before the due date", cli.BellIcon, cardName, setting.DaysBefore)
}
