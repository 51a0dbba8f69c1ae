package dbmetrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperation(t *testing.T) {
	assert.Equal(t, "SELECT", operation("SELECT id FROM bookings"))
	assert.Equal(t, "UPDATE", operation("  update transactions SET status = $1"))
	assert.Equal(t, "INSERT", operation("INSERT\nINTO outbox_events"))
	assert.Equal(t, "OTHER", operation("LOCK TABLE bookings"))
}

func TestGetExecutor(t *testing.T) {
	var db *DB
	ctx := context.Background()

	assert.False(t, IsInTransaction(ctx))
	assert.Equal(t, DBExecutor(db), GetExecutor(ctx, db))

	tx := &Tx{}
	txCtx := WithTx(ctx, tx)

	assert.True(t, IsInTransaction(txCtx))
	assert.Same(t, tx, GetExecutor(txCtx, db))
}
