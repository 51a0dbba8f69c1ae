package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MarketplaceService/pkg/dbmetrics"
)

type fakeTx struct {
	dbmetrics.DBExecutor
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit() error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback() error {
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx       *fakeTx
	opts     *sql.TxOptions
	begins   int
	beginErr error
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error) {
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	b.begins++
	b.opts = opts
	return b.tx, nil
}

func TestTransactionManager_Do(t *testing.T) {
	t.Run("commits on success and exposes tx in context", func(t *testing.T) {
		b := &fakeBeginner{tx: &fakeTx{}}
		m := NewTransactionManager(b)

		err := m.Do(context.Background(), func(ctx context.Context) error {
			assert.True(t, dbmetrics.IsInTransaction(ctx))
			return nil
		})

		require.NoError(t, err)
		assert.True(t, b.tx.committed)
		assert.False(t, b.tx.rolledBack)
		assert.Equal(t, sql.LevelReadCommitted, b.opts.Isolation)
	})

	t.Run("rolls back and returns fn error", func(t *testing.T) {
		b := &fakeBeginner{tx: &fakeTx{}}
		m := NewTransactionManager(b)
		boom := errors.New("boom")

		err := m.Do(context.Background(), func(ctx context.Context) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.True(t, b.tx.rolledBack)
		assert.False(t, b.tx.committed)
	})

	t.Run("nested call joins outer transaction", func(t *testing.T) {
		b := &fakeBeginner{tx: &fakeTx{}}
		m := NewTransactionManager(b)

		err := m.Do(context.Background(), func(ctx context.Context) error {
			return m.DoSerializable(ctx, func(ctx context.Context) error { return nil })
		})

		require.NoError(t, err)
		assert.Equal(t, 1, b.begins)
	})

	t.Run("begin error", func(t *testing.T) {
		m := NewTransactionManager(&fakeBeginner{beginErr: errors.New("no conn")})

		err := m.Do(context.Background(), func(ctx context.Context) error { return nil })

		assert.ErrorIs(t, err, ErrBeginTx)
	})

	t.Run("commit error", func(t *testing.T) {
		b := &fakeBeginner{tx: &fakeTx{commitErr: errors.New("serialization failure")}}
		m := NewTransactionManager(b)

		err := m.Do(context.Background(), func(ctx context.Context) error { return nil })

		assert.ErrorIs(t, err, ErrCommitTx)
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		b := &fakeBeginner{tx: &fakeTx{}}
		m := NewTransactionManager(b)

		assert.Panics(t, func() {
			_ = m.Do(context.Background(), func(ctx context.Context) error { panic("oops") })
		})
		assert.True(t, b.tx.rolledBack)
	})
}

func TestTransactionManager_DoReadOnly(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	m := NewTransactionManager(b)

	require.NoError(t, m.DoReadOnly(context.Background(), func(ctx context.Context) error { return nil }))
	assert.True(t, b.opts.ReadOnly)
}
