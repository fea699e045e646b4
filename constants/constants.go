package constants

import "time"

const MAINNET_API_URL = "https://mainnet.zklighter.elliot.ai"
const TESTNET_API_URL = "https://testnet.zklighter.elliot.ai"
const LOCAL_API_URL = "http://localhost:8080"

const MAINNET_CHAIN_ID = 304
const TESTNET_CHAIN_ID = 300

// Stream path appended to the base URL for the websocket transport
const STREAM_PATH = "stream"

/*//////////////////////////////////////////////////////////////
                          API KEYS & NONCES
//////////////////////////////////////////////////////////////*/

// API key indexes 0 and 1 are reserved for the desktop and mobile apps
const MIN_API_KEY_INDEX uint8 = 2
const MAX_API_KEY_INDEX uint8 = 254

const MIN_NONCE int64 = 0

// MaxBatchSize is the largest number of transactions the exchange accepts
// in one sendTxBatch call
const MaxBatchSize = 50

// DefaultTxExpiry is added to the signing time when no explicit expiry is
// requested
const DefaultTxExpiry = 10 * time.Minute

// CodeOK is the result code the exchange returns for accepted transactions
const CodeOK = 200

/*//////////////////////////////////////////////////////////////
                           TX TYPES
//////////////////////////////////////////////////////////////*/

const (
	TX_TYPE_CHANGE_PUB_KEY     uint8 = 8
	TX_TYPE_CREATE_SUB_ACCOUNT uint8 = 9
	TX_TYPE_CREATE_PUBLIC_POOL uint8 = 10
	TX_TYPE_UPDATE_PUBLIC_POOL uint8 = 11
	TX_TYPE_TRANSFER           uint8 = 12
	TX_TYPE_WITHDRAW           uint8 = 13
	TX_TYPE_CREATE_ORDER       uint8 = 14
	TX_TYPE_CANCEL_ORDER       uint8 = 15
	TX_TYPE_CANCEL_ALL_ORDERS  uint8 = 16
	TX_TYPE_MODIFY_ORDER       uint8 = 17
	TX_TYPE_MINT_SHARES        uint8 = 18
	TX_TYPE_BURN_SHARES        uint8 = 19
	TX_TYPE_UPDATE_LEVERAGE    uint8 = 20
)

/*//////////////////////////////////////////////////////////////
                        ORDER PARAMETERS
//////////////////////////////////////////////////////////////*/

const (
	ORDER_TYPE_LIMIT             uint8 = 0
	ORDER_TYPE_MARKET            uint8 = 1
	ORDER_TYPE_STOP_LOSS         uint8 = 2
	ORDER_TYPE_STOP_LOSS_LIMIT   uint8 = 3
	ORDER_TYPE_TAKE_PROFIT       uint8 = 4
	ORDER_TYPE_TAKE_PROFIT_LIMIT uint8 = 5
	ORDER_TYPE_TWAP              uint8 = 6
)

const (
	ORDER_TIME_IN_FORCE_IMMEDIATE_OR_CANCEL uint8 = 0
	ORDER_TIME_IN_FORCE_GOOD_TILL_TIME      uint8 = 1
	ORDER_TIME_IN_FORCE_POST_ONLY           uint8 = 2
)

const (
	CANCEL_ALL_TIF_IMMEDIATE uint8 = 0
	CANCEL_ALL_TIF_SCHEDULED uint8 = 1
	CANCEL_ALL_TIF_ABORT     uint8 = 2
)

const (
	CROSS_MARGIN_MODE    uint8 = 0
	ISOLATED_MARGIN_MODE uint8 = 1
)

// NIL_TRIGGER_PRICE marks orders without a trigger
const NIL_TRIGGER_PRICE uint32 = 0

// DEFAULT_ORDER_EXPIRY applies to good-till-time orders without an explicit
// expiry
const DEFAULT_ORDER_EXPIRY = 28 * 24 * time.Hour

/*//////////////////////////////////////////////////////////////
                         AMOUNT SCALING
//////////////////////////////////////////////////////////////*/

// USDC amounts travel on the wire as integers with 6 decimals
const USDC_DECIMALS = 6

// Margin fractions are expressed in basis points of 1
const MARGIN_FRACTION_TICK = 10_000

// Transfer memos are exactly this many bytes
const MEMO_LENGTH = 32
