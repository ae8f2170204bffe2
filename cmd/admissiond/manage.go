package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/credential"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/entitlement"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/jwt"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
)

func newMigrateCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.migrate(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		}),
	}
}

func newPlansCmd(withApp appRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Inspect and seed the plan catalog",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "seed",
			Short: "Write the plan catalog to the database",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
				if err := a.seedPlans(cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d plans seeded\n", len(a.catalog.Plans()))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print the plan catalog",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
				return printPlans(cmd, a.catalog.Plans())
			}),
		},
	)

	return cmd
}

func printPlans(cmd *cobra.Command, plans []entitlement.Plan) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	header := []string{"PLAN", "PUBLIC"}
	for _, c := range quota.Categories() {
		header = append(header, strings.ToUpper(c.String()))
	}
	_, _ = fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, p := range plans {
		row := []string{p.Slug, fmt.Sprint(p.Public)}
		for _, c := range quota.Categories() {
			row = append(row, formatLimit(p.Limit(c)))
		}
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func formatLimit(limit int64) string {
	switch limit {
	case quota.Unlimited:
		return "unlimited"
	case quota.Disabled:
		return "-"
	default:
		return fmt.Sprint(limit)
	}
}

func newAccountCmd(withApp appRunner) *cobra.Command {
	var (
		email    string
		role     string
		verified bool
		plan     string
		trial    bool
	)

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account and subscribe it to a plan",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()
			acct := credential.Account{
				ID:       uuid.New(),
				Email:    strings.ToLower(strings.TrimSpace(email)),
				Role:     credential.Role(role),
				Verified: verified,
			}
			switch acct.Role {
			case credential.RoleUser, credential.RoleAdmin, credential.RoleSuperadmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			if err := a.store.UpsertAccount(ctx, acct); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "account %s\n", acct.ID)

			if plan == "" {
				return nil
			}
			lifecycle := a.lifecycle()
			var (
				sub entitlement.Subscription
				err error
			)
			switch {
			case trial:
				sub, err = lifecycle.StartTrial(ctx, acct.ID, plan, 0)
			case acct.Role.Elevated():
				sub, err = lifecycle.Assign(ctx, acct.ID, plan)
			default:
				sub, err = lifecycle.ChangePlan(ctx, acct.ID, plan)
			}
			if err != nil {
				return fmt.Errorf("subscribe to %s: %w", plan, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "subscription %s plan=%s status=%s payment=%s\n",
				sub.ID, sub.PlanSlug, sub.Status, sub.PaymentStatus)
			return nil
		}),
	}
	create.Flags().StringVar(&email, "email", "", "account email")
	create.Flags().StringVar(&role, "role", string(credential.RoleUser), "user, admin or superadmin")
	create.Flags().BoolVar(&verified, "verified", true, "mark the email as verified")
	create.Flags().StringVar(&plan, "plan", "", "plan to subscribe to")
	create.Flags().BoolVar(&trial, "trial", false, "start the plan as a trial")
	_ = create.MarkFlagRequired("email")

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(create)
	return cmd
}

func newAPIKeyCmd(withApp appRunner) *cobra.Command {
	var (
		accountID string
		name      string
		expiresIn time.Duration
	)

	create := &cobra.Command{
		Use:   "create",
		Short: "Issue an API key; the raw key is printed once",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			id, err := uuid.Parse(accountID)
			if err != nil {
				return fmt.Errorf("invalid account id: %w", err)
			}
			var expiresAt *time.Time
			if expiresIn > 0 {
				t := time.Now().UTC().Add(expiresIn)
				expiresAt = &t
			}

			raw, key, err := credential.IssueAPIKey(cmd.Context(), a.store, id, name, a.cfg.APIKeyPrefix, expiresAt)
			if err != nil {
				if errors.Is(err, credential.ErrNotFound) {
					return fmt.Errorf("account %s does not exist", id)
				}
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "key %s (%s)\n%s\n", key.ID, key.Prefix, raw)
			return nil
		}),
	}
	create.Flags().StringVar(&accountID, "account", "", "owner account id")
	create.Flags().StringVar(&name, "name", "default", "key name")
	create.Flags().DurationVar(&expiresIn, "expires-in", 0, "key lifetime, 0 never expires")
	_ = create.MarkFlagRequired("account")

	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}
	cmd.AddCommand(
		create,
		newAPIKeyStatusCmd(withApp, "revoke", "Deactivate an API key", false),
		newAPIKeyStatusCmd(withApp, "activate", "Reactivate a revoked API key", true),
	)
	return cmd
}

func newAPIKeyStatusCmd(withApp appRunner, use, short string, active bool) *cobra.Command {
	var keyID string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			id, err := uuid.Parse(keyID)
			if err != nil {
				return fmt.Errorf("invalid key id: %w", err)
			}
			return setKeyActive(cmd.Context(), cmd.OutOrStdout(), a.store, id, active)
		}),
	}
	cmd.Flags().StringVar(&keyID, "id", "", "api key id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func setKeyActive(ctx context.Context, out io.Writer, w credential.KeyStatusWriter, id uuid.UUID, active bool) error {
	if err := w.SetAPIKeyActive(ctx, id, active); err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return fmt.Errorf("api key %s does not exist", id)
		}
		return err
	}
	state := "revoked"
	if active {
		state = "active"
	}
	_, _ = fmt.Fprintf(out, "key %s %s\n", id, state)
	return nil
}

func newSessionCmd(withApp appRunner) *cobra.Command {
	var accountID string

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a session token for an account",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if a.cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			id, err := uuid.Parse(accountID)
			if err != nil {
				return fmt.Errorf("invalid account id: %w", err)
			}
			acct, err := a.store.GetAccount(cmd.Context(), id)
			if err != nil {
				return err
			}
			sessions, err := jwt.NewFromString(a.cfg.JWTSecret, jwt.WithIssuer(a.cfg.Name))
			if err != nil {
				return err
			}
			token, err := sessions.Issue(acct.ID, string(acct.Role))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		}),
	}
	issue.Flags().StringVar(&accountID, "account", "", "account id")
	_ = issue.MarkFlagRequired("account")

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage session tokens",
	}
	cmd.AddCommand(issue)
	return cmd
}
