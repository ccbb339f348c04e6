package domain

import "strings"

// BuildTransferIdempotencyKey namespaces a client-supplied Idempotency-Key
// for transfer creation. Format: "transfer:<key>".
func BuildTransferIdempotencyKey(clientKey string) string {
	return "transfer:" + strings.TrimSpace(clientKey)
}
