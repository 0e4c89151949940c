package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/speedrun-hq/settlement-worker/pkg/models"
)

func TestIntentRowToModelMapsNullableColumns(t *testing.T) {
	now := time.Now()
	row := intentRow{
		ID:         "t1",
		Status:     string(models.StatusSettled),
		Hash:       sql.NullString{String: "0xabc", Valid: true},
		To:         "0x1100000000000000000000000000000000000011",
		Value:      "1000",
		Calldata:   "0x",
		GasLimit:   "21000",
		RetryCount: 2,
		LastError:  sql.NullString{}, // never set
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	m := row.toModel()
	assert.Equal(t, "t1", m.ID)
	assert.Equal(t, models.StatusSettled, m.Status)
	assert.Equal(t, "0xabc", m.Hash)
	assert.Equal(t, "", m.LastError, "an unset nullable column must map to the zero value, not a Go null marker")
	assert.Equal(t, 2, m.RetryCount)
}

func TestIntentRowToModelWithoutHash(t *testing.T) {
	row := intentRow{
		ID:       "t2",
		Status:   string(models.StatusPending),
		Hash:     sql.NullString{},
		LastError: sql.NullString{String: "rpc timeout", Valid: true},
	}

	m := row.toModel()
	assert.Equal(t, "", m.Hash)
	assert.Equal(t, "rpc timeout", m.LastError)
}
