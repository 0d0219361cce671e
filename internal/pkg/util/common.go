package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"

	"github.com/mr-tron/base58"
)

// Precision is the number of decimal places kept in payout files.
const Precision = 1000000

// GenSignCode signs timestamp+body with the admin secret (hex HMAC-SHA256).
func GenSignCode(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignEqual compares two hex signatures in constant time.
func SignEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

// FloorPrecision truncates v to 6 decimals.
func FloorPrecision(v float64) float64 {
	return math.Floor(v*Precision) / Precision
}

// IsTxSignature reports whether s is a base58 encoded 64 byte Solana
// transaction signature.
func IsTxSignature(s string) bool {
	b, err := base58.Decode(s)
	return err == nil && len(b) == 64
}
