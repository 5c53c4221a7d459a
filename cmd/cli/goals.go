package main

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/spf13/cobra"
)

func newGoalsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Manage savings goals",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the user's goals, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := e.requireUser()
			if err != nil {
				return err
			}
			a, err := e.open()
			if err != nil {
				return err
			}
			defer a.Close()

			goals, err := a.Goals.List(e.ctx, userID)
			if err != nil {
				return err
			}
			return printGoals(cmd.OutOrStdout(), goals, currencyOf(e.ctx, a, userID))
		},
	})

	var name, target, deadline string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a goal on the user's primary account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := e.requireUser()
			if err != nil {
				return err
			}
			amount, err := parseAmount("target", target)
			if err != nil {
				return err
			}
			var due time.Time
			if deadline != "" {
				if due, err = time.Parse(time.DateOnly, deadline); err != nil {
					return fmt.Errorf("--deadline: want YYYY-MM-DD: %w", err)
				}
			}

			a, err := e.open()
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.Goals.Create(e.ctx, userID, name, amount, due)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created goal %s (%s) targeting %s\n",
				g.ID, g.Name, formatMoney(g.TargetAmount, currencyOf(e.ctx, a, userID)))
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "goal name (required)")
	_ = create.MarkFlagRequired("name")
	create.Flags().StringVar(&target, "target", "", "target amount (required)")
	_ = create.MarkFlagRequired("target")
	create.Flags().StringVar(&deadline, "deadline", "", "deadline YYYY-MM-DD")
	cmd.AddCommand(create)

	cmd.AddCommand(goalMoveCommand(e, "deposit", "Move money from the account into a goal"))
	cmd.AddCommand(goalMoveCommand(e, "withdraw", "Move money from a goal back to the account"))

	cmd.AddCommand(&cobra.Command{
		Use:   "delete GOAL_ID",
		Short: "Delete a goal, returning what it holds to the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := e.requireUser()
			if err != nil {
				return err
			}
			a, err := e.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Goals.Delete(e.ctx, args[0], userID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted goal %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func goalMoveCommand(e *env, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " GOAL_ID AMOUNT",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := e.requireUser()
			if err != nil {
				return err
			}
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}

			a, err := e.open()
			if err != nil {
				return err
			}
			defer a.Close()

			var g *domain.Goal
			if verb == "deposit" {
				g, err = a.Goals.Deposit(e.ctx, args[0], userID, amount)
			} else {
				g, err = a.Goals.Withdraw(e.ctx, args[0], userID, amount)
			}
			if err != nil {
				return err
			}
			cur := currencyOf(e.ctx, a, userID)
			fmt.Fprintf(cmd.OutOrStdout(), "Goal %s: %s of %s (%s)\n",
				g.Name, formatMoney(g.CurrentAmount, cur), formatMoney(g.TargetAmount, cur), g.Status)
			return nil
		},
	}
}
