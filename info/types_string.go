package info

import (
	"fmt"
	"strings"
)

// String implements fmt.Stringer for ApiKey
func (k ApiKey) String() string {
	return fmt.Sprintf(
		"ApiKey{\n"+
			"  AccountIndex: %d\n"+
			"  ApiKeyIndex:  %d\n"+
			"  Nonce:        %d\n"+
			"  PublicKey:    %s\n"+
			"}",
		k.AccountIndex, k.ApiKeyIndex, k.Nonce, shortKey(k.PublicKey),
	)
}

// String implements fmt.Stringer for ApiKeysResponse
func (r ApiKeysResponse) String() string {
	return fmt.Sprintf(
		"ApiKeysResponse{\n"+
			"  Code:    %d\n"+
			"  ApiKeys: %s\n"+
			"}",
		r.Code, formatApiKeySlice(r.ApiKeys),
	)
}

func formatApiKeySlice(keys []ApiKey) string {
	if len(keys) == 0 {
		return "[]"
	}

	var b strings.Builder
	b.WriteString("[\n")
	for _, k := range keys {
		b.WriteString("    ")
		b.WriteString(strings.ReplaceAll(k.String(), "\n", "\n    "))
		b.WriteString(",\n")
	}
	b.WriteString("  ]")
	return b.String()
}

// shortKey keeps the head and tail of a long hex key
func shortKey(key string) string {
	if len(key) <= 20 {
		return key
	}
	return key[:10] + "..." + key[len(key)-8:]
}
