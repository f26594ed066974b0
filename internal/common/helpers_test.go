package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeCoins(t *testing.T) {
	assert.Equal(t, "Sweet Coin", PluralizeCoins(1, "Sweet Coins"))
	assert.Equal(t, "Sweet Coin", PluralizeCoins(-1, "Sweet Coins"))
	assert.Equal(t, "Sweet Coins", PluralizeCoins(0, "Sweet Coins"))
	assert.Equal(t, "Sweet Coins", PluralizeCoins(5, "Sweet Coins"))
}

func TestFormatCoins(t *testing.T) {
	assert.Equal(t, "150 Sweet Coins", FormatCoins(150, "Sweet Coins"))
	assert.Equal(t, "1 Sweet Coin", FormatCoins(1, "Sweet Coins"))
}

func TestFormatDateTime(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	ts := time.Date(2026, 3, 14, 18, 30, 0, 0, loc)
	// Всегда UTC, независимо от зоны входного времени
	assert.Equal(t, "14.03.2026 15:30", FormatDateTime(ts))
}

func TestUserError(t *testing.T) {
	err := NewUserError("Maximum 5 tickets per user")
	uerr, ok := AsUserError(err)
	assert.True(t, ok)
	assert.Equal(t, "Maximum 5 tickets per user", uerr.Msg)

	_, ok = AsUserError(ErrRaffleNotFound)
	assert.False(t, ok)
}
