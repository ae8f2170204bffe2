package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/credential"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/entitlement"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/logger"
)

// accountReader is the part of the store used to check that an account exists.
type accountReader interface {
	GetAccount(ctx context.Context, id uuid.UUID) (credential.Account, error)
}

func (a *app) lifecycle() *entitlement.Lifecycle {
	return newLifecycle(a.store, a.store, a.catalog, a.log)
}

func newLifecycle(subs entitlement.SubscriptionStore, w entitlement.SubscriptionWriter, plans entitlement.PlanSource, log *slog.Logger) *entitlement.Lifecycle {
	return entitlement.NewLifecycle(subs, w, plans,
		entitlement.WithOnChange(func(accountID uuid.UUID) {
			log.Info("subscription replaced", logger.AccountID(accountID))
		}),
	)
}

func newSubscriptionCmd(withApp appRunner) *cobra.Command {
	var (
		accountID string
		plan      string
		assign    bool
	)

	change := &cobra.Command{
		Use:   "change",
		Short: "Move an account to another plan; the current subscription is cancelled",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			id, err := uuid.Parse(accountID)
			if err != nil {
				return fmt.Errorf("invalid account id: %w", err)
			}
			return changeSubscription(cmd.Context(), cmd.OutOrStdout(), a.store, a.lifecycle(), id, plan, assign)
		}),
	}
	change.Flags().StringVar(&accountID, "account", "", "account id")
	change.Flags().StringVar(&plan, "plan", "", "target plan")
	change.Flags().BoolVar(&assign, "assign", false, "allow plans that are not public")
	_ = change.MarkFlagRequired("account")
	_ = change.MarkFlagRequired("plan")

	var showAccount string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current subscription of an account",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			id, err := uuid.Parse(showAccount)
			if err != nil {
				return fmt.Errorf("invalid account id: %w", err)
			}
			return showSubscription(cmd.Context(), cmd.OutOrStdout(), a.store, id, time.Now())
		}),
	}
	show.Flags().StringVar(&showAccount, "account", "", "account id")
	_ = show.MarkFlagRequired("account")

	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Manage subscriptions",
	}
	cmd.AddCommand(change, show)
	return cmd
}

func changeSubscription(ctx context.Context, out io.Writer, accounts accountReader, lc *entitlement.Lifecycle, accountID uuid.UUID, plan string, assign bool) error {
	if _, err := accounts.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return fmt.Errorf("account %s does not exist", accountID)
		}
		return err
	}

	change := lc.ChangePlan
	if assign {
		change = lc.Assign
	}
	sub, err := change(ctx, accountID, plan)
	if err != nil {
		return fmt.Errorf("change plan to %s: %w", plan, err)
	}
	printSubscription(out, sub, entitlement.Classify(&sub, sub.CreatedAt))
	return nil
}

func showSubscription(ctx context.Context, out io.Writer, subs entitlement.SubscriptionStore, accountID uuid.UUID, now time.Time) error {
	sub, err := subs.CurrentSubscription(ctx, accountID)
	if err != nil {
		if errors.Is(err, entitlement.ErrNotFound) {
			_, _ = fmt.Fprintf(out, "account %s has no subscription\n", accountID)
			return nil
		}
		return err
	}
	printSubscription(out, sub, entitlement.Classify(&sub, now))
	return nil
}

func printSubscription(out io.Writer, sub entitlement.Subscription, health entitlement.Health) {
	_, _ = fmt.Fprintf(out, "subscription %s plan=%s status=%s payment=%s health=%s\n",
		sub.ID, sub.PlanSlug, sub.Status, sub.PaymentStatus, health)
}
