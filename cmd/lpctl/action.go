package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"liquidityDesk/internal/action"
	"liquidityDesk/internal/config"
	"liquidityDesk/internal/horizon"
	"liquidityDesk/internal/lperr"
	"liquidityDesk/internal/poolsync"
	"liquidityDesk/internal/quote"
)

func newActionCmd() *cobra.Command {
	actionCmd := &cobra.Command{
		Use:   "action",
		Short: "Build and submit a position action through the signing relay",
	}
	actionCmd.PersistentFlags().String("pool", "", "liquidity pool id (hex)")
	actionCmd.PersistentFlags().String("account", "", "source account")
	actionCmd.PersistentFlags().String("relay-url", "", "signing relay base URL")
	actionCmd.PersistentFlags().Bool("dry-run", false, "print the operation plan without submitting")

	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit both assets at the pool ratio",
		RunE:  runAction(action.KindDeposit),
	}
	depositCmd.Flags().String("amount-a", "", "amount of asset A to deposit")
	depositCmd.Flags().String("amount-b", "", "amount of asset B, only used for an empty pool")
	depositCmd.Flags().String("low", "", "lowest acceptable price (decimal); empty means full range")
	depositCmd.Flags().String("high", "", "highest acceptable price (decimal); empty means full range")

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Burn a percentage of the position's shares",
		RunE:  runAction(action.KindWithdraw),
	}
	withdrawCmd.Flags().String("percent", "100", "percent of shares to burn, in (0, 100]")

	claimCmd := &cobra.Command{
		Use:   "claim",
		Short: "Withdraw everything and re-deposit the principal, keeping accrued fees",
		RunE:  runAction(action.KindClaim),
	}

	actionCmd.AddCommand(depositCmd, withdrawCmd, claimCmd)
	return actionCmd
}

func runAction(kind action.Kind) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		req, err := actionRequest(cmd, cfg, kind)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		client, err := newHorizonClient(cfg, logger)
		if err != nil {
			return err
		}
		var submitter action.Submitter = dryRunSubmitter{}
		if !dryRun {
			relay, err := horizon.NewRelaySubmitter(horizon.Options{BaseURL: cfg.RelayURL, Timeout: cfg.Timeout}, logger.Named("relay"))
			if err != nil {
				return err
			}
			submitter = relay
		}

		ctx := cmd.Context()
		syncer := poolsync.NewSynchronizer(client, logger.Named("poolsync"), nil)
		sub := syncer.Start(ctx, req.PoolID, cfg.Interval)
		defer syncer.Stop(sub)
		waitFirstSnapshot(ctx, sub, cfg.Timeout)
		req.Reserves = sub

		orch := action.NewOrchestrator(action.Config{
			Tolerance: decimal.NewNullDecimal(cfg.Tolerance),
			Refresh:   action.RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff},
		}, client, client, submitter, logger.Named("action"), nil)
		defer orch.Close()

		var pending *action.PendingAction
		if dryRun {
			pending, err = orch.Prepare(ctx, req)
		} else {
			pending, err = orch.Confirm(ctx, req)
		}
		if pending != nil {
			if perr := printJSON(cmd.OutOrStdout(), pending); perr != nil {
				return perr
			}
		}
		if err != nil {
			if ek := lperr.KindOf(err); ek.Recoverable() {
				return fmt.Errorf("%s refused (%s): %w", req.Kind, ek, err)
			}
			return err
		}
		return nil
	}
}

func actionRequest(cmd *cobra.Command, cfg config.Config, kind action.Kind) (action.Request, error) {
	poolID, err := cfg.SinglePool()
	if err != nil {
		return action.Request{}, err
	}
	if cfg.Account == "" {
		return action.Request{}, fmt.Errorf("account is required")
	}
	req := action.Request{
		Kind:      kind,
		PoolID:    poolID,
		Account:   cfg.Account,
		Signer:    action.AccountSigner(cfg.Account),
		Tolerance: decimal.NewNullDecimal(cfg.Tolerance),
	}

	switch kind {
	case action.KindDeposit:
		in := quote.DepositInput{}
		in.AmountA, _ = cmd.Flags().GetString("amount-a")
		in.AmountB, _ = cmd.Flags().GetString("amount-b")
		in.LowPrice, _ = cmd.Flags().GetString("low")
		in.HighPrice, _ = cmd.Flags().GetString("high")
		req.Deposit = in
	case action.KindWithdraw:
		raw, _ := cmd.Flags().GetString("percent")
		percent, err := decimal.NewFromString(raw)
		if err != nil {
			return action.Request{}, fmt.Errorf("parse percent: %w", err)
		}
		req.BurnPercent = percent
	}
	return req, nil
}

// waitFirstSnapshot gives the subscription a chance to publish before the quote
// is built. On timeout the orchestrator reads the pool directly.
func waitFirstSnapshot(ctx context.Context, sub *poolsync.Subscription, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-sub.Snapshots():
	case <-timer.C:
	case <-ctx.Done():
	}
}

// dryRunSubmitter refuses to submit. Dry runs stop after Prepare, so reaching it
// is a bug.
type dryRunSubmitter struct{}

func (dryRunSubmitter) Submit(context.Context, []action.Operation, action.Signer) (action.SubmitResult, error) {
	return action.SubmitResult{}, fmt.Errorf("dry run: submission disabled")
}
