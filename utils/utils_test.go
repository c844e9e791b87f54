package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valeriaulyamaeva/moneymine/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthBounds(t *testing.T) {
	assert.Equal(t, date(2024, 2, 1), FirstDayOfMonth(date(2024, 2, 17)))
	assert.Equal(t, date(2024, 2, 29), LastDayOfMonth(date(2024, 2, 17)))
	assert.Equal(t, date(2023, 2, 28), LastDayOfMonth(date(2023, 2, 1)))
	assert.Equal(t, date(2023, 12, 31), LastDayOfMonth(date(2023, 12, 5)))
	assert.True(t, SameMonth(date(2023, 12, 1), date(2023, 12, 31)))
	assert.False(t, SameMonth(date(2023, 12, 1), date(2024, 12, 1)))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 5), d)

	d, err = ParseDate(" 05/03/2024 ")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 5), d)

	_, err = ParseDate("2024/03/05")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 1), m)

	m, err = ParseMonth("2024-02-20")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 1), m)

	_, err = ParseMonth("feb")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestNewCode(t *testing.T) {
	a, b := NewCode(), NewCode()
	assert.Len(t, a, CodeLength)
	assert.NotEqual(t, a, b)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatAmount(1234.5, "USD"))
	assert.Equal(t, "-$10.00", FormatAmount(-10, "USD"))
	assert.Equal(t, "R$1.234,50", FormatAmount(1234.5, ""))
}
