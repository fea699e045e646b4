package exchange

import (
	"context"
	"fmt"
	"strings"

	"github.com/banky/go-lighter/constants"
	"github.com/banky/go-lighter/internal/utils"
	"github.com/banky/go-lighter/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Transfer moves USDC from this account to req.ToAccountIndex
func (e *Exchange) Transfer(
	ctx context.Context,
	req TransferRequest,
	opts ...TxOption,
) (types.SignedTx, types.Result, error) {
	amount, err := utils.UsdcToInt(req.Amount)
	if err != nil {
		return notSubmitted(fmt.Errorf("invalid amount: %w", err))
	}

	var fee int64
	if req.Fee != "" {
		fee, err = utils.StringToScaledInt(req.Fee, constants.USDC_DECIMALS)
		if err != nil {
			return notSubmitted(fmt.Errorf("invalid fee: %w", err))
		}
	}

	memo, err := utils.ParseMemo(req.Memo)
	if err != nil {
		return notSubmitted(err)
	}

	if req.L1PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(req.L1PrivateKey, "0x"))
		if err != nil {
			return notSubmitted(fmt.Errorf("invalid L1 private key: %w", err))
		}
		opts = append(opts[:len(opts):len(opts)], withL1Key(key))
	}

	return e.submit(ctx, types.Transfer{
		ToAccountIndex: req.ToAccountIndex,
		USDCAmount:     amount,
		Fee:            fee,
		Memo:           memo,
	}, opts)
}

// Withdraw moves USDC from the exchange back to L1
func (e *Exchange) Withdraw(
	ctx context.Context,
	req WithdrawRequest,
	opts ...TxOption,
) (types.SignedTx, types.Result, error) {
	amount, err := utils.UsdcToInt(req.Amount)
	if err != nil {
		return notSubmitted(fmt.Errorf("invalid amount: %w", err))
	}

	return e.submit(ctx, types.Withdraw{USDCAmount: amount}, opts)
}

// UpdateLeverage sets the leverage and margin mode of a market
func (e *Exchange) UpdateLeverage(
	ctx context.Context,
	req LeverageRequest,
	opts ...TxOption,
) (types.SignedTx, types.Result, error) {
	fraction, err := utils.LeverageToMarginFraction(req.Leverage)
	if err != nil {
		return notSubmitted(err)
	}

	mode := constants.CROSS_MARGIN_MODE
	if req.Isolated {
		mode = constants.ISOLATED_MARGIN_MODE
	}

	return e.submit(ctx, types.UpdateLeverage{
		MarketIndex:           req.MarketIndex,
		InitialMarginFraction: fraction,
		MarginMode:            mode,
	}, opts)
}
