package ws

import (
	"encoding/json"
	"fmt"
)

// ===== Message Types =====

const (
	typeConnected   = "connected"
	typePing        = "ping"
	typePong        = "pong"
	typeSendTx      = "jsonapi/sendtx"
	typeSendTxBatch = "jsonapi/sendtxbatch"
)

// outgoing is the envelope written for every request
type outgoing struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type sendTxData struct {
	ID     string          `json:"id"`
	TxType uint8           `json:"tx_type"`
	TxInfo json.RawMessage `json:"tx_info"`
}

type sendTxBatchData struct {
	ID      string            `json:"id"`
	TxTypes []int             `json:"tx_types"`
	TxInfos []json.RawMessage `json:"tx_infos"`
}

// incoming is any frame read from the stream. Transaction acks carry their
// fields either at the top level or under data.
type incoming struct {
	Type    string    `json:"type"`
	ID      requestID `json:"id"`
	Code    int64     `json:"code"`
	Message string    `json:"message"`
	TxHash  hashList  `json:"tx_hash"`
	Data    *incoming `json:"data"`
	Error   *apiError `json:"error"`
}

type apiError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

// Response is the exchange's acknowledgement of a sendtx or sendtxbatch
// request
type Response struct {
	ID       string
	Code     int64
	Message  string
	TxHashes []string
}

func (m incoming) response() Response {
	src := m
	if m.Data != nil {
		src = *m.Data
	}

	r := Response{
		ID:       string(src.ID),
		Code:     src.Code,
		Message:  src.Message,
		TxHashes: src.TxHash,
	}
	if r.ID == "" {
		r.ID = string(m.ID)
	}

	// Errors are reported without a success code
	errSrc := src.Error
	if errSrc == nil {
		errSrc = m.Error
	}
	if errSrc != nil {
		r.Code = errSrc.Code
		r.Message = errSrc.Message
	}

	return r
}

// isAck reports whether the frame answers a transaction request
func (m incoming) isAck() bool {
	switch m.Type {
	case typeSendTx, typeSendTxBatch:
		return true
	}
	if m.Error != nil {
		return true
	}
	if m.Data != nil {
		return m.Data.Code != 0 || m.Data.Error != nil || len(m.Data.TxHash) > 0
	}
	return m.Code != 0 || len(m.TxHash) > 0
}

// hashList decodes tx_hash given either as a string or a list of strings
type hashList []string

func (h *hashList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*h = nil
		return nil
	}

	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*h = nil
		} else {
			*h = hashList{one}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("invalid tx_hash: %w", err)
	}
	*h = many
	return nil
}

// requestID decodes an echoed id given either as a string or a number
type requestID string

func (id *requestID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = requestID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	*id = requestID(n.String())
	return nil
}
