package info

type NextNonceResponse struct {
	Code    int64  `json:"code"`
	Message string `json:"message,omitempty"`
	Nonce   int64  `json:"nonce"`
}

type ApiKey struct {
	AccountIndex int64  `json:"account_index"`
	ApiKeyIndex  uint8  `json:"api_key_index"`
	Nonce        int64  `json:"nonce"`
	PublicKey    string `json:"public_key"`
}

type ApiKeysResponse struct {
	Code    int64    `json:"code"`
	Message string   `json:"message,omitempty"`
	ApiKeys []ApiKey `json:"api_keys"`
}
