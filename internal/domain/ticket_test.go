package domain

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenID_IsUUID(t *testing.T) {
	tok := NewTokenID()

	_, err := uuid.Parse(tok)
	assert.NoError(t, err)
	assert.NotEqual(t, tok, NewTokenID())
}

func TestNewBarcode_Format(t *testing.T) {
	before := time.Now().UnixMilli()
	barcode := NewBarcode()
	after := time.Now().UnixMilli()

	require.True(t, strings.HasPrefix(barcode, BarcodePrefix))

	rest := strings.TrimPrefix(barcode, BarcodePrefix)
	// millisecond timestamp plus a zero-padded three-digit suffix
	require.GreaterOrEqual(t, len(rest), 4)

	ts, err := strconv.ParseInt(rest[:len(rest)-3], 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ts, before)
	assert.LessOrEqual(t, ts, after)

	suffix, err := strconv.Atoi(rest[len(rest)-3:])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, suffix, 0)
	assert.Less(t, suffix, 1000)
}

func TestEvent_PhoneLimit(t *testing.T) {
	e := &Event{GeneralPhoneLimit: 2, VIPPhoneLimit: 5}

	assert.Equal(t, 2, e.PhoneLimit(IdentityGeneral))
	assert.Equal(t, 5, e.PhoneLimit(IdentityVIP))

	unlimited := &Event{}
	assert.Equal(t, 0, unlimited.PhoneLimit(IdentityGeneral))
}
