package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"liquidityDesk/internal/config"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/quote"
)

func newQuoteCmd() *cobra.Command {
	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a deposit, withdrawal or fee claim without submitting",
	}

	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Quote a balanced deposit",
		RunE:  runQuoteDeposit,
	}
	depositCmd.Flags().String("pool", "", "liquidity pool id (hex)")
	depositCmd.Flags().String("amount-a", "", "amount of asset A to deposit")
	depositCmd.Flags().String("amount-b", "", "amount of asset B, only used for an empty pool")
	depositCmd.Flags().String("low", "", "lowest acceptable price (decimal); empty means full range")
	depositCmd.Flags().String("high", "", "highest acceptable price (decimal); empty means full range")

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Quote a pro-rata withdrawal with slippage minimums",
		RunE:  runQuoteWithdraw,
	}
	withdrawCmd.Flags().String("pool", "", "liquidity pool id (hex)")
	withdrawCmd.Flags().String("account", "", "account holding the shares")
	withdrawCmd.Flags().String("percent", "100", "percent of shares to burn, in (0, 100]")

	claimCmd := &cobra.Command{
		Use:   "claim",
		Short: "Quote a fee claim round trip",
		RunE:  runQuoteClaim,
	}
	claimCmd.Flags().String("pool", "", "liquidity pool id (hex)")
	claimCmd.Flags().String("account", "", "account holding the shares")

	quoteCmd.AddCommand(depositCmd, withdrawCmd, claimCmd)
	return quoteCmd
}

type quoteOutput struct {
	Reserves model.PoolReserves  `json:"reserves"`
	Position *model.UserPosition `json:"position,omitempty"`
	Deposit  *quote.Deposit      `json:"deposit,omitempty"`
	Withdraw *quote.Withdraw     `json:"withdraw,omitempty"`
	Claim    *quote.Claim        `json:"claim,omitempty"`
}

func runQuoteDeposit(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	poolID, err := cfg.SinglePool()
	if err != nil {
		return err
	}
	client, err := newHorizonClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()
	reserves, err := client.FetchPoolReserves(ctx, poolID)
	if err != nil {
		return fmt.Errorf("fetch pool reserves: %w", err)
	}

	in := quote.DepositInput{}
	in.AmountA, _ = cmd.Flags().GetString("amount-a")
	in.AmountB, _ = cmd.Flags().GetString("amount-b")
	in.LowPrice, _ = cmd.Flags().GetString("low")
	in.HighPrice, _ = cmd.Flags().GetString("high")

	q, err := quote.BuildDeposit(reserves, in)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), quoteOutput{
		Reserves: reserves,
		Deposit:  &q,
	})
}

func runQuoteWithdraw(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	rawPercent, _ := cmd.Flags().GetString("percent")
	percent, err := decimal.NewFromString(rawPercent)
	if err != nil {
		return fmt.Errorf("parse percent: %w", err)
	}

	reserves, position, err := fetchPoolAndPosition(cmd, cfg, logger)
	if err != nil {
		return err
	}

	q, err := quote.BuildWithdraw(reserves, position, percent)
	if err != nil {
		return err
	}
	q, err = q.WithTolerance(cfg.Tolerance)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), quoteOutput{
		Reserves: reserves,
		Position: &position,
		Withdraw: &q,
	})
}

func runQuoteClaim(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	reserves, position, err := fetchPoolAndPosition(cmd, cfg, logger)
	if err != nil {
		return err
	}
	q, err := quote.BuildClaim(reserves, position)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), quoteOutput{
		Reserves: reserves,
		Position: &position,
		Claim:    &q,
	})
}

// fetchPoolAndPosition reads the reserves and the account position concurrently.
func fetchPoolAndPosition(cmd *cobra.Command, cfg config.Config, logger *zap.Logger) (model.PoolReserves, model.UserPosition, error) {
	poolID, err := cfg.SinglePool()
	if err != nil {
		return model.PoolReserves{}, model.UserPosition{}, err
	}
	account := cfg.Account
	if account == "" {
		return model.PoolReserves{}, model.UserPosition{}, fmt.Errorf("account is required")
	}
	client, err := newHorizonClient(cfg, logger)
	if err != nil {
		return model.PoolReserves{}, model.UserPosition{}, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	var (
		reserves model.PoolReserves
		position model.UserPosition
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := client.FetchPoolReserves(gctx, poolID)
		if err != nil {
			return fmt.Errorf("fetch pool reserves: %w", err)
		}
		reserves = r
		return nil
	})
	g.Go(func() error {
		p, err := client.FetchPosition(gctx, account, poolID)
		if err != nil {
			return fmt.Errorf("fetch position: %w", err)
		}
		position = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.PoolReserves{}, model.UserPosition{}, err
	}
	return reserves, position, nil
}
