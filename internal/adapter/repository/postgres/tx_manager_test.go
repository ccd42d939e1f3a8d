package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
)

func TestInTx_CommitsOnSuccess(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE entries").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := newTxManagerWithPool(mock).InTx(context.Background(), func(tx *Tx) error {
		_, err := tx.PgxTx().Exec(context.Background(), "UPDATE entries SET spend_amount = 0")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, mock)
}

func TestInTx_RollsBackWhenFnFails(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	fnErr := errors.New("outbox insert failed")
	err := newTxManagerWithPool(mock).InTx(context.Background(), func(tx *Tx) error {
		return fnErr
	})
	if !errors.Is(err, fnErr) {
		t.Fatalf("expected fn error, got %v", err)
	}

	assertExpectations(t, mock)
}

func TestInTx_BeginError(t *testing.T) {
	mock := newMockPool(t)
	beginErr := errors.New("pool exhausted")
	mock.ExpectBegin().WillReturnError(beginErr)

	called := false
	err := newTxManagerWithPool(mock).InTx(context.Background(), func(tx *Tx) error {
		called = true
		return nil
	})
	if !errors.Is(err, beginErr) {
		t.Fatalf("expected begin error, got %v", err)
	}
	if called {
		t.Fatal("fn must not run without a transaction")
	}

	assertExpectations(t, mock)
}

func TestInTx_CommitError(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	commitErr := errors.New("commit failed")
	mock.ExpectCommit().WillReturnError(commitErr)

	err := newTxManagerWithPool(mock).InTx(context.Background(), func(tx *Tx) error {
		return nil
	})
	if !errors.Is(err, commitErr) {
		t.Fatalf("expected commit error, got %v", err)
	}
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}
