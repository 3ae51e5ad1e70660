package repository

import (
	"context"
	"database/sql"
)

// Querier SQL执行接口，*sql.DB 和 *sql.Tx 均满足
// 归档任务的"先归档确认、后删除热存储"需要在事务内删除
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)
