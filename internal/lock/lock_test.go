package lock

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/stretchr/testify/assert"
)

func TestAcquireRejectsLongNames(t *testing.T) {
	_, err := Acquire(context.Background(), nil, strings.Repeat("x", maxNameLen+1), 1)
	assert.ErrorContains(t, err, "exceeds")
}

func TestReleaseNilIsSafe(t *testing.T) {
	var a *Advisory
	assert.NotPanics(t, a.Release)
}

func TestCheckResult(t *testing.T) {
	assert.NoError(t, checkResult("slot", sql.NullInt64{Int64: 1, Valid: true}))

	timedOut := checkResult("slot", sql.NullInt64{Int64: 0, Valid: true})
	assert.ErrorIs(t, timedOut, reservation.ErrBusy)
	assert.ErrorContains(t, timedOut, `"slot"`)

	assert.ErrorIs(t, checkResult("slot", sql.NullInt64{}), reservation.ErrBusy)
}
