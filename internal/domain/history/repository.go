package history

import "context"

// Repository persiste el historial de actividad.
// ListByOwner devuelve entradas más recientes primero; limit <= 0 usa el
// default de la implementación.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	ListByOwner(ctx context.Context, ownerUserID string, limit int) ([]Entry, error)
}
