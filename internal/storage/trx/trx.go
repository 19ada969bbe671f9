// Package trx carries storage transaction ids through a context.
package trx

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrIDNotFoundInCtx = errors.New("no transaction id found in ctx")
	ErrNotFound        = errors.New("transaction not found")
)

type contextKey string

const idKey contextKey = "storageTransactionID"

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey, id)
}

func IDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(idKey).(string)
	if !ok || id == "" {
		return "", ErrIDNotFoundInCtx
	}

	return id, nil
}

func NotFound(id string) error {
	return fmt.Errorf("transaction %s not found: %w", id, ErrNotFound)
}
