package main

import (
	"context"
	"fmt"
	"time"

	"github.com/banky/go-lighter/constants"
	"github.com/banky/go-lighter/exchange"
	"github.com/banky/go-lighter/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newOrdersCmd(opts *rootOptions) *cobra.Command {
	var (
		baseAmount int64
		price      uint32
	)

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Create, modify and cancel a limit order on one api key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, cfg, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ex.Close()
			return runOrderFlow(cmd.Context(), ex, cfg.MarketIndex, baseAmount, price)
		},
	}
	cmd.Flags().Int64Var(&baseAmount, "base-amount", 100, "order size in base units")
	cmd.Flags().Uint32Var(&price, "price", 405000, "limit price in price units")
	return cmd
}

// runOrderFlow places an order on a fresh key, then modifies and cancels it
// on the same key so the exchange sees consecutive nonces
func runOrderFlow(
	ctx context.Context,
	ex *exchange.Exchange,
	market uint8,
	baseAmount int64,
	price uint32,
) error {
	clientIndex := time.Now().UnixMilli() % (1 << 40)

	tx, res, err := ex.CreateLimitOrder(ctx, exchange.LimitOrderRequest{
		MarketIndex:      market,
		ClientOrderIndex: clientIndex,
		BaseAmount:       baseAmount,
		Price:            price,
	}, exchange.WithHoldKey())
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	defer ex.Release(tx.KeyIndex)
	logResult("create order", tx, res)
	if !res.IsAccepted() {
		return res.Err()
	}

	tx, res, err = ex.ModifyOrder(ctx, types.ModifyOrder{
		MarketIndex:  market,
		Index:        clientIndex,
		BaseAmount:   baseAmount * 2,
		Price:        price,
		TriggerPrice: constants.NIL_TRIGGER_PRICE,
	}, exchange.WithKeyIndex(tx.KeyIndex))
	if err != nil {
		return fmt.Errorf("modify order: %w", err)
	}
	logResult("modify order", tx, res)

	tx, res, err = ex.CancelOrder(ctx, types.CancelOrder{
		MarketIndex: market,
		Index:       clientIndex,
	}, exchange.WithKeyIndex(tx.KeyIndex))
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	logResult("cancel order", tx, res)

	return res.Err()
}

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var (
		baseAmount int64
		price      uint32
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Send two batches of orders on one api key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, cfg, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ex.Close()
			return runBatchFlow(cmd.Context(), ex, cfg.MarketIndex, baseAmount, price)
		},
	}
	cmd.Flags().Int64Var(&baseAmount, "base-amount", 100, "order size in base units")
	cmd.Flags().Uint32Var(&price, "price", 405000, "ask price in price units")
	return cmd
}

// runBatchFlow sends [ask, bid] then [cancel ask, cancel bid] on one key
func runBatchFlow(
	ctx context.Context,
	ex *exchange.Exchange,
	market uint8,
	baseAmount int64,
	price uint32,
) error {
	first, err := ex.NextNonce()
	if err != nil {
		return err
	}
	defer ex.Release(first.KeyIndex)

	base := time.Now().UnixMilli() % (1 << 40)
	expiry := time.Now().Add(constants.DEFAULT_ORDER_EXPIRY).UnixMilli()

	ask, err := ex.Sign(types.CreateOrder{
		MarketIndex:      market,
		ClientOrderIndex: base,
		BaseAmount:       baseAmount,
		Price:            price,
		IsAsk:            1,
		Type:             constants.ORDER_TYPE_LIMIT,
		TimeInForce:      constants.ORDER_TIME_IN_FORCE_GOOD_TILL_TIME,
		OrderExpiry:      expiry,
	}, first)
	if err != nil {
		return err
	}

	second, err := ex.NextNonce(exchange.WithKeyIndex(first.KeyIndex))
	if err != nil {
		return err
	}
	bid, err := ex.Sign(types.CreateOrder{
		MarketIndex:      market,
		ClientOrderIndex: base + 1,
		BaseAmount:       baseAmount,
		Price:            price * 9 / 10,
		Type:             constants.ORDER_TYPE_LIMIT,
		TimeInForce:      constants.ORDER_TIME_IN_FORCE_GOOD_TILL_TIME,
		OrderExpiry:      expiry,
	}, second)
	if err != nil {
		return err
	}

	if err := sendBatch(ctx, ex, "place orders", ask, bid); err != nil {
		return err
	}

	var cancels []types.SignedTx
	for _, idx := range []int64{base, base + 1} {
		ticket, err := ex.NextNonce(exchange.WithKeyIndex(first.KeyIndex))
		if err != nil {
			return err
		}
		tx, err := ex.Sign(types.CancelOrder{MarketIndex: market, Index: idx}, ticket)
		if err != nil {
			return err
		}
		cancels = append(cancels, tx)
	}

	return sendBatch(ctx, ex, "cancel orders", cancels...)
}

func sendBatch(ctx context.Context, ex *exchange.Exchange, label string, txs ...types.SignedTx) error {
	results, err := ex.SendBatch(ctx, txs)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	for i, res := range results {
		logResult(label, txs[i], res)
		if types.NeedsReconciliation(res.Err()) {
			log.Warn().Str("tx_hash", res.TxHash).Msg("delivery unknown, check the exchange before resubmitting")
		}
	}
	for _, res := range results {
		if err := res.Err(); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
	}
	return nil
}

func newAccountCmd(opts *rootOptions) *cobra.Command {
	var (
		toAccount int64
		amount    string
		fee       string
		memo      string
		leverage  string
		isolated  bool
	)

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Transfer USDC to another account and update leverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			lev, err := decimal.NewFromString(leverage)
			if err != nil {
				return fmt.Errorf("invalid leverage: %w", err)
			}

			ex, cfg, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ex.Close()

			ctx := cmd.Context()
			if toAccount >= 0 {
				tx, res, err := ex.Transfer(ctx, exchange.TransferRequest{
					ToAccountIndex: toAccount,
					Amount:         amount,
					Fee:            fee,
					Memo:           memo,
					L1PrivateKey:   cfg.L1PrivateKey,
				})
				if err != nil {
					return fmt.Errorf("transfer: %w", err)
				}
				logResult("transfer", tx, res)
			}

			tx, res, err := ex.UpdateLeverage(ctx, exchange.LeverageRequest{
				MarketIndex: cfg.MarketIndex,
				Leverage:    lev,
				Isolated:    isolated,
			})
			if err != nil {
				return fmt.Errorf("update leverage: %w", err)
			}
			logResult("update leverage", tx, res)
			return res.Err()
		},
	}
	cmd.Flags().Int64Var(&toAccount, "to", -1, "destination account index, negative skips the transfer")
	cmd.Flags().StringVar(&amount, "amount", "1", "USDC amount to transfer")
	cmd.Flags().StringVar(&fee, "fee", "", "USDC transfer fee")
	cmd.Flags().StringVar(&memo, "memo", "", "transfer memo, at most 32 bytes")
	cmd.Flags().StringVar(&leverage, "leverage", "3", "target leverage")
	cmd.Flags().BoolVar(&isolated, "isolated", false, "use isolated margin")
	return cmd
}

func newNoncesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "nonces",
		Short: "Print the synced nonce of every api key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, _, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ex.Close()

			for _, st := range ex.NonceState() {
				fmt.Fprintf(cmd.OutOrStdout(), "api key %d: next nonce %d\n", st.KeyIndex, st.NextNonce)
			}
			return nil
		},
	}
}

func logResult(label string, tx types.SignedTx, res types.Result) {
	ev := log.Info()
	if !res.IsAccepted() {
		ev = log.Warn()
	}
	ev.Str("op", label).
		Uint8("key", tx.KeyIndex).
		Int64("nonce", tx.Nonce).
		Str("status", res.Status.String()).
		Str("tx_hash", res.TxHash).
		Str("reason", res.Reason).
		Msg("submitted")
}
