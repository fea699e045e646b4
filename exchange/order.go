package exchange

import (
	"context"

	"github.com/banky/go-lighter/constants"
	"github.com/banky/go-lighter/types"
)

// CreateOrder signs and sends a create order transaction
func (e *Exchange) CreateOrder(
	ctx context.Context,
	order types.CreateOrder,
	opts ...TxOption,
) (types.SignedTx, types.Result, error) {
	return e.submit(ctx, order, opts)
}

// ModifyOrder changes the size, price or trigger of a resting order
func (e *Exchange) ModifyOrder(
	ctx context.Context,
	modify types.ModifyOrder,
	opts ...TxOption,
) (types.SignedTx, types.Result, error) {
	return e.submit(ctx, modify, opts)
}

// CancelOrder cancels a single order by order index
func (e *Exchange) CancelOrder(
	ctx context.Context,
	cancel types.CancelOrder,
	opts ...TxOption,
) (types.SignedTx, types.Result, error) {
	return e.submit(ctx, cancel, opts)
}

// CancelAllOrders cancels every open order, immediately or at a scheduled
// time
func (e *Exchange) CancelAllOrders(
	ctx context.Context,
	cancel types.CancelAllOrders,
	opts ...TxOption,
) (types.SignedTx, types.Result, error) {
	return e.submit(ctx, cancel, opts)
}

// CreateLimitOrder creates a good-till-time (or post-only) limit order
func (e *Exchange) CreateLimitOrder(
	ctx context.Context,
	req LimitOrderRequest,
	opts ...TxOption,
) (types.SignedTx, types.Result, error) {
	tif := constants.ORDER_TIME_IN_FORCE_GOOD_TILL_TIME
	if req.PostOnly {
		tif = constants.ORDER_TIME_IN_FORCE_POST_ONLY
	}

	expiry := req.OrderExpiry
	if expiry == 0 {
		expiry = e.now().Add(constants.DEFAULT_ORDER_EXPIRY).UnixMilli()
	}

	return e.CreateOrder(ctx, types.CreateOrder{
		MarketIndex:      req.MarketIndex,
		ClientOrderIndex: req.ClientOrderIndex,
		BaseAmount:       req.BaseAmount,
		Price:            req.Price,
		IsAsk:            boolToUint8(req.IsAsk),
		Type:             constants.ORDER_TYPE_LIMIT,
		TimeInForce:      tif,
		ReduceOnly:       boolToUint8(req.ReduceOnly),
		TriggerPrice:     constants.NIL_TRIGGER_PRICE,
		OrderExpiry:      expiry,
	}, opts...)
}

// CreateMarketOrder creates an immediate-or-cancel market order
func (e *Exchange) CreateMarketOrder(
	ctx context.Context,
	req MarketOrderRequest,
	opts ...TxOption,
) (types.SignedTx, types.Result, error) {
	return e.CreateOrder(ctx, types.CreateOrder{
		MarketIndex:      req.MarketIndex,
		ClientOrderIndex: req.ClientOrderIndex,
		BaseAmount:       req.BaseAmount,
		Price:            req.Price,
		IsAsk:            boolToUint8(req.IsAsk),
		Type:             constants.ORDER_TYPE_MARKET,
		TimeInForce:      constants.ORDER_TIME_IN_FORCE_IMMEDIATE_OR_CANCEL,
		ReduceOnly:       boolToUint8(req.ReduceOnly),
		TriggerPrice:     constants.NIL_TRIGGER_PRICE,
	}, opts...)
}
