package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/almacen-ligero/internal/domain"
)

// Política de reintentos para escrituras de persistencia. Las llamadas al
// almacenamiento no tienen garantía de éxito (red, Supabase caído); los
// errores transitorios se absorben aquí y solo el fallo definitivo sube al
// caller, marcado con domain.ErrStoreUnavailable.
const (
	defaultWriteAttempts = 3
	defaultWriteBackoff  = 200 * time.Millisecond
)

// WithRetry ejecuta fn hasta attempts veces con backoff exponencial.
// Si todos los intentos fallan, envuelve el último error con
// domain.ErrStoreUnavailable para que el caller pueda distinguir un fallo de
// almacenamiento de un rechazo de validación.
func WithRetry(ctx context.Context, attempts int, backoff time.Duration, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(backoff << i):
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, ctx.Err())
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
