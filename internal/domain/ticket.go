package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// BarcodePrefix is the fixed prefix carried by every minted barcode.
const BarcodePrefix = "TJM"

// NewTokenID mints the opaque identifier used for private ticket retrieval
// links. Collisions are treated as impossible; the storage layer still
// carries a unique constraint as a backstop.
func NewTokenID() string {
	return uuid.New().String()
}

// NewBarcode mints a scanner-friendly barcode: prefix, millisecond timestamp
// and a three-digit random suffix to break ties within the same millisecond.
func NewBarcode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("%s%d%03d", BarcodePrefix, time.Now().UnixMilli(), suffix)
}
