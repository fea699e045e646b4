package signer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/banky/go-lighter/constants"
	"github.com/banky/go-lighter/nonce"
	"github.com/banky/go-lighter/types"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/maxatome/go-testdeep/td"
)

const (
	testKey2 = "0123456789012345678901234567890123456789012345678901234567890123"
	testKey3 = "0x1111111111111111111111111111111111111111111111111111111111111111"
)

var testNow = time.UnixMilli(1_700_000_000_000)

func testSigner(t *testing.T) *KeySigner {
	t.Helper()
	s, err := New(Config{
		ChainID:      constants.TESTNET_CHAIN_ID,
		AccountIndex: 42,
		PrivateKeys:  map[uint8]string{2: testKey2, 3: testKey3},
		Now:          func() time.Time { return testNow },
	})
	td.Require(t).CmpNoError(err)
	return s
}

func testOrder() types.CreateOrder {
	return types.CreateOrder{
		MarketIndex:      0,
		ClientOrderIndex: 7,
		BaseAmount:       1000,
		Price:            350000,
		IsAsk:            1,
		Type:             constants.ORDER_TYPE_LIMIT,
		TimeInForce:      constants.ORDER_TIME_IN_FORCE_GOOD_TILL_TIME,
		OrderExpiry:      1_700_086_400_000,
	}
}

func TestNewRejectsBadKeys(t *testing.T) {
	_, err := New(Config{})
	td.CmpError(t, err)

	_, err = New(Config{PrivateKeys: map[uint8]string{2: "not-hex"}})
	td.CmpError(t, err)
}

func TestKeyIndexes(t *testing.T) {
	td.Cmp(t, testSigner(t).KeyIndexes(), []uint8{2, 3})
}

func TestSignIsDeterministic(t *testing.T) {
	s := testSigner(t)
	ticket := nonce.Ticket{KeyIndex: 2, Nonce: 10}

	a, err := s.Sign(testOrder(), ticket, WithExpiredAt(1_700_000_600_000))
	td.CmpNoError(t, err)
	b, err := s.Sign(testOrder(), ticket, WithExpiredAt(1_700_000_600_000))
	td.CmpNoError(t, err)

	td.Cmp(t, a, b)
	td.Cmp(t, a.Type, constants.TX_TYPE_CREATE_ORDER)
	td.Cmp(t, a.KeyIndex, uint8(2))
	td.Cmp(t, a.Nonce, int64(10))
	td.Cmp(t, a.Hash, td.Re(`^0x[0-9a-f]{64}$`))

	// A different nonce changes the hash
	c, err := s.Sign(
		testOrder(),
		nonce.Ticket{KeyIndex: 2, Nonce: 11},
		WithExpiredAt(1_700_000_600_000),
	)
	td.CmpNoError(t, err)
	td.Cmp(t, c.Hash, td.Not(a.Hash))
}

func TestSignatureRecoversPublicKey(t *testing.T) {
	s := testSigner(t)

	tx, err := s.Sign(testOrder(), nonce.Ticket{KeyIndex: 3, Nonce: 1})
	td.Require(t).CmpNoError(err)

	var info struct {
		Sig string `json:"Sig"`
	}
	td.Require(t).CmpNoError(json.Unmarshal(tx.Info, &info))

	hash, err := hexutil.Decode(tx.Hash)
	td.Require(t).CmpNoError(err)
	sig, err := hexutil.Decode(info.Sig)
	td.Require(t).CmpNoError(err)

	pub, err := crypto.SigToPub(hash, sig)
	td.Require(t).CmpNoError(err)

	want, err := s.PublicKey(3)
	td.CmpNoError(t, err)
	td.Cmp(t, hexutil.Encode(crypto.FromECDSAPub(pub)), want)
}

func TestTxInfoFields(t *testing.T) {
	s := testSigner(t)

	tx, err := s.Sign(testOrder(), nonce.Ticket{KeyIndex: 2, Nonce: 5})
	td.Require(t).CmpNoError(err)

	var info map[string]any
	td.Require(t).CmpNoError(json.Unmarshal(tx.Info, &info))

	td.Cmp(t, info, td.SuperMapOf(map[string]any{
		"AccountIndex":     float64(42),
		"ApiKeyIndex":      float64(2),
		"Nonce":            float64(5),
		"ExpiredAt":        float64(testNow.Add(constants.DefaultTxExpiry).UnixMilli()),
		"MarketIndex":      float64(0),
		"ClientOrderIndex": float64(7),
		"BaseAmount":       float64(1000),
		"Price":            float64(350000),
		"IsAsk":            float64(1),
		"Sig":              td.Re(`^0x[0-9a-f]{130}$`),
	}, nil))
}

func TestExpiresIn(t *testing.T) {
	s := testSigner(t)

	tx, err := s.Sign(
		testOrder(),
		nonce.Ticket{KeyIndex: 2, Nonce: 5},
		WithExpiresIn(time.Minute),
	)
	td.Require(t).CmpNoError(err)

	var info struct {
		ExpiredAt int64 `json:"ExpiredAt"`
	}
	td.Require(t).CmpNoError(json.Unmarshal(tx.Info, &info))
	td.Cmp(t, info.ExpiredAt, testNow.Add(time.Minute).UnixMilli())
}

func TestSignErrors(t *testing.T) {
	s := testSigner(t)

	_, err := s.Sign(testOrder(), nonce.Ticket{KeyIndex: 9, Nonce: 1})
	td.CmpErrorIs(t, err, types.ErrSigning)

	bad := testOrder()
	bad.BaseAmount = 0
	_, err = s.Sign(bad, nonce.Ticket{KeyIndex: 2, Nonce: 1})
	td.CmpErrorIs(t, err, types.ErrSigning)

	_, err = s.Sign(nil, nonce.Ticket{KeyIndex: 2, Nonce: 1})
	td.CmpErrorIs(t, err, types.ErrSigning)

	_, err = s.PublicKey(9)
	td.CmpErrorIs(t, err, types.ErrSigning)
}

func TestSignTransferWithL1Key(t *testing.T) {
	s := testSigner(t)
	ticket := nonce.Ticket{KeyIndex: 2, Nonce: 5}

	l1Key, err := crypto.HexToECDSA(testKey3[2:])
	td.Require(t).CmpNoError(err)

	transfer := types.Transfer{ToAccountIndex: 9, USDCAmount: 1_000_000, Fee: 10}

	plain, err := s.Sign(transfer, ticket, WithExpiredAt(1_700_000_600_000))
	td.Require(t).CmpNoError(err)
	signed, err := s.Sign(transfer, ticket, WithExpiredAt(1_700_000_600_000), WithL1Key(l1Key))
	td.Require(t).CmpNoError(err)

	// The L1 signature rides along in tx_info without changing the tx hash
	td.Cmp(t, signed.Hash, plain.Hash)

	var info map[string]any
	td.Require(t).CmpNoError(json.Unmarshal(plain.Info, &info))
	td.Cmp(t, info, td.Not(td.ContainsKey("L1Sig")))

	var withL1 struct {
		L1Sig string
	}
	td.Require(t).CmpNoError(json.Unmarshal(signed.Info, &withL1))

	sig, err := hexutil.Decode(withL1.L1Sig)
	td.Require(t).CmpNoError(err)
	td.Require(t).Len(sig, 65)
	td.Cmp(t, sig[64], td.Between(byte(27), byte(28)))

	sig[64] -= 27
	msg := transfer.L1Message(constants.TESTNET_CHAIN_ID, 42, 2, 5)
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(msg)), sig)
	td.Require(t).CmpNoError(err)
	td.Cmp(t, crypto.PubkeyToAddress(*pub), crypto.PubkeyToAddress(l1Key.PublicKey))
}

func TestL1KeyRejectedForOtherTxTypes(t *testing.T) {
	s := testSigner(t)

	l1Key, err := crypto.HexToECDSA(testKey3[2:])
	td.Require(t).CmpNoError(err)

	_, err = s.Sign(testOrder(), nonce.Ticket{KeyIndex: 2, Nonce: 1}, WithL1Key(l1Key))
	td.CmpErrorIs(t, err, types.ErrSigning)
}

func TestTransferL1Message(t *testing.T) {
	transfer := types.Transfer{ToAccountIndex: 9, USDCAmount: 1_000_000, Fee: 10}
	msg := transfer.L1Message(300, 42, 2, 255)

	td.Cmp(t, msg, td.HasPrefix("Transfer\n\nnonce: 0xff\nfrom: 42\napi key: 2\nto: 9\n"))
	td.Cmp(t, msg, td.Contains("amount: 1000000\nfee: 10\nchainId: 300\n"))
}
