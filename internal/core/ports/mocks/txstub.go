package mocks

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TxStub is a no-op pgx.Tx for exercising transactional call paths in unit
// tests. Repositories are mocked separately, so the Tx itself only has to
// track commit/rollback.
type TxStub struct {
	CommitErr      error
	CommitCalled   bool
	RollbackCalled bool
}

func (t *TxStub) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *TxStub) Commit(ctx context.Context) error {
	t.CommitCalled = true
	return t.CommitErr
}

func (t *TxStub) Rollback(ctx context.Context) error {
	if t.CommitCalled {
		return pgx.ErrTxClosed
	}
	t.RollbackCalled = true
	return nil
}

func (t *TxStub) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *TxStub) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *TxStub) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *TxStub) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *TxStub) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *TxStub) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *TxStub) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (t *TxStub) Conn() *pgx.Conn { return nil }
