package types

import (
	"errors"
	"fmt"

	"github.com/banky/go-lighter/constants"
)

// TxParams is implemented by every transaction payload the signer accepts.
// The tx type selects the operation kind.
type TxParams interface {
	TxType() uint8
	Validate() error
}

// SignedTx is a signed transaction ready for submission. Info holds the
// exact tx_info JSON the exchange expects.
type SignedTx struct {
	Type     uint8
	Info     []byte
	Hash     string
	KeyIndex uint8
	Nonce    int64
}

/*//////////////////////////////////////////////////////////////
                             ORDERS
//////////////////////////////////////////////////////////////*/

type CreateOrder struct {
	MarketIndex      uint8  `json:"MarketIndex"`
	ClientOrderIndex int64  `json:"ClientOrderIndex"`
	BaseAmount       int64  `json:"BaseAmount"`
	Price            uint32 `json:"Price"`
	IsAsk            uint8  `json:"IsAsk"`
	Type             uint8  `json:"Type"`
	TimeInForce      uint8  `json:"TimeInForce"`
	ReduceOnly       uint8  `json:"ReduceOnly"`
	TriggerPrice     uint32 `json:"TriggerPrice"`
	OrderExpiry      int64  `json:"OrderExpiry"`
}

func (CreateOrder) TxType() uint8 { return constants.TX_TYPE_CREATE_ORDER }

func (o CreateOrder) Validate() error {
	if o.BaseAmount <= 0 {
		return fmt.Errorf("base amount must be positive, got %d", o.BaseAmount)
	}
	if o.IsAsk > 1 || o.ReduceOnly > 1 {
		return errors.New("IsAsk and ReduceOnly must be 0 or 1")
	}
	if o.Type > constants.ORDER_TYPE_TWAP {
		return fmt.Errorf("unknown order type %d", o.Type)
	}
	if o.TimeInForce > constants.ORDER_TIME_IN_FORCE_POST_ONLY {
		return fmt.Errorf("unknown time in force %d", o.TimeInForce)
	}
	if o.Type != constants.ORDER_TYPE_MARKET && o.Price == 0 {
		return errors.New("price is required for non-market orders")
	}
	return nil
}

type ModifyOrder struct {
	MarketIndex  uint8  `json:"MarketIndex"`
	Index        int64  `json:"Index"`
	BaseAmount   int64  `json:"BaseAmount"`
	Price        uint32 `json:"Price"`
	TriggerPrice uint32 `json:"TriggerPrice"`
}

func (ModifyOrder) TxType() uint8 { return constants.TX_TYPE_MODIFY_ORDER }

func (o ModifyOrder) Validate() error {
	if o.BaseAmount <= 0 {
		return fmt.Errorf("base amount must be positive, got %d", o.BaseAmount)
	}
	if o.Price == 0 {
		return errors.New("price is required")
	}
	return nil
}

type CancelOrder struct {
	MarketIndex uint8 `json:"MarketIndex"`
	Index       int64 `json:"Index"`
}

func (CancelOrder) TxType() uint8 { return constants.TX_TYPE_CANCEL_ORDER }

func (CancelOrder) Validate() error { return nil }

type CancelAllOrders struct {
	TimeInForce uint8 `json:"TimeInForce"`
	Time        int64 `json:"Time"`
}

func (CancelAllOrders) TxType() uint8 { return constants.TX_TYPE_CANCEL_ALL_ORDERS }

func (c CancelAllOrders) Validate() error {
	if c.TimeInForce > constants.CANCEL_ALL_TIF_ABORT {
		return fmt.Errorf("unknown cancel-all time in force %d", c.TimeInForce)
	}
	if c.TimeInForce == constants.CANCEL_ALL_TIF_SCHEDULED && c.Time <= 0 {
		return errors.New("scheduled cancel-all requires a time")
	}
	return nil
}

// L1Signable is implemented by params that can also be authorised by the
// account's L1 key. L1Message is the text the L1 key signs.
type L1Signable interface {
	L1Message(chainID uint32, accountIndex int64, apiKeyIndex uint8, nonce int64) string
}

/*//////////////////////////////////////////////////////////////
                         ACCOUNT ACTIONS
//////////////////////////////////////////////////////////////*/

type Transfer struct {
	ToAccountIndex int64                       `json:"ToAccountIndex"`
	USDCAmount     int64                       `json:"USDCAmount"`
	Fee            int64                       `json:"Fee"`
	Memo           [constants.MEMO_LENGTH]byte `json:"Memo"`
}

func (Transfer) TxType() uint8 { return constants.TX_TYPE_TRANSFER }

func (t Transfer) Validate() error {
	if t.USDCAmount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", t.USDCAmount)
	}
	if t.Fee < 0 {
		return fmt.Errorf("transfer fee must not be negative, got %d", t.Fee)
	}
	return nil
}

func (t Transfer) L1Message(
	chainID uint32,
	accountIndex int64,
	apiKeyIndex uint8,
	nonce int64,
) string {
	return fmt.Sprintf(
		"Transfer\n\n"+
			"nonce: 0x%x\n"+
			"from: %d\n"+
			"api key: %d\n"+
			"to: %d\n"+
			"amount: %d\n"+
			"fee: %d\n"+
			"chainId: %d\n"+
			"memo: 0x%x\n"+
			"Only sign this message for a trusted client!",
		nonce,
		accountIndex,
		apiKeyIndex,
		t.ToAccountIndex,
		t.USDCAmount,
		t.Fee,
		chainID,
		t.Memo[:],
	)
}

type Withdraw struct {
	USDCAmount int64 `json:"USDCAmount"`
}

func (Withdraw) TxType() uint8 { return constants.TX_TYPE_WITHDRAW }

func (w Withdraw) Validate() error {
	if w.USDCAmount <= 0 {
		return fmt.Errorf("withdraw amount must be positive, got %d", w.USDCAmount)
	}
	return nil
}

type UpdateLeverage struct {
	MarketIndex           uint8  `json:"MarketIndex"`
	InitialMarginFraction uint16 `json:"InitialMarginFraction"`
	MarginMode            uint8  `json:"MarginMode"`
}

func (UpdateLeverage) TxType() uint8 { return constants.TX_TYPE_UPDATE_LEVERAGE }

func (u UpdateLeverage) Validate() error {
	if u.InitialMarginFraction == 0 ||
		u.InitialMarginFraction > constants.MARGIN_FRACTION_TICK {
		return fmt.Errorf(
			"initial margin fraction must be in (0, %d], got %d",
			constants.MARGIN_FRACTION_TICK,
			u.InitialMarginFraction,
		)
	}
	if u.MarginMode > constants.ISOLATED_MARGIN_MODE {
		return fmt.Errorf("unknown margin mode %d", u.MarginMode)
	}
	return nil
}
