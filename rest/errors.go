package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// ClientError is returned for 4xx responses. The exchange did not accept
// the request.
type ClientError struct {
	StatusCode int64
	Code       int64
	Msg        string
	Headers    http.Header
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error (status %d, code %d): %s", e.StatusCode, e.Code, e.Msg)
}

// ServerError is returned for 5xx responses
type ServerError struct {
	StatusCode int64
	Text       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Text)
}

// DecodeError is returned when a successful response carries a body that
// cannot be decoded
type DecodeError struct {
	StatusCode int64
	Body       string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error (status %d): %v", e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type errorResponse struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

func handleException(resp *resty.Response) error {
	statusCode := int64(resp.StatusCode())

	if statusCode < 400 {
		return nil
	}

	if statusCode >= 400 && statusCode < 500 {
		var errResp errorResponse
		err := json.Unmarshal(resp.Body(), &errResp)

		if err != nil || (errResp.Code == 0 && errResp.Message == "") {
			return &ClientError{
				StatusCode: statusCode,
				Code:       statusCode,
				Msg:        string(resp.Body()),
				Headers:    resp.Header(),
			}
		}

		return &ClientError{
			StatusCode: statusCode,
			Code:       errResp.Code,
			Msg:        errResp.Message,
			Headers:    resp.Header(),
		}
	}

	return &ServerError{
		StatusCode: statusCode,
		Text:       string(resp.Body()),
	}
}
