// Package numbering generates per-tenant document numbers. Numbers are
// derived from a count of existing documents under the same date prefix, so a
// concurrent checkout can produce the same candidate twice; the database
// unique constraint catches that and callers retry.
package numbering

import (
	"context"
	"fmt"
	"time"
)

// Counter reports how many documents a tenant already has under a number
// prefix.
type Counter interface {
	CountSalesWithInvoicePrefix(ctx context.Context, tenantID int64, prefix string) (int, error)
	CountExpensesWithNumberPrefix(ctx context.Context, tenantID int64, prefix string) (int, error)
}

type Generator struct {
	counter Counter
	now     func() time.Time
}

func New(counter Counter) *Generator {
	return &Generator{counter: counter, now: time.Now}
}

// NewWithClock pins the clock, for tests.
func NewWithClock(counter Counter, now func() time.Time) *Generator {
	return &Generator{counter: counter, now: now}
}

// NextInvoiceNumber returns INV-YYYYMMDD-NNNN where NNNN restarts at 0001
// each day per tenant.
func (g *Generator) NextInvoiceNumber(ctx context.Context, tenantID int64) (string, error) {
	prefix := "INV-" + g.now().Format("20060102")
	count, err := g.counter.CountSalesWithInvoicePrefix(ctx, tenantID, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, count+1), nil
}

// NextExpenseNumber returns EXP-YYYYMM-NNNN where NNNN restarts at 0001 each
// month per tenant.
func (g *Generator) NextExpenseNumber(ctx context.Context, tenantID int64) (string, error) {
	prefix := "EXP-" + g.now().Format("200601")
	count, err := g.counter.CountExpensesWithNumberPrefix(ctx, tenantID, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, count+1), nil
}
