package companions

import "context"

// Repository es el contrato de persistencia del compañero.
//
// Contrato de errores (ver errors.go):
//   - GetByOwner / GetByID devuelven ErrNotFound si no hay registro;
//     la ausencia no es una falla de storage.
//   - Create devuelve ErrConflict si el owner ya tiene compañero
//     (segunda línea de defensa; Adopt es quien garantiza el invariante).
//   - Update es compare-and-swap: escribe el registro completo solo si
//     c.Version coincide con la versión persistida, e incrementa version
//     en el mismo write. Si la versión no coincide devuelve ErrConflict;
//     si el id no existe, ErrNotFound.
//   - Delete es idempotente: borrar un id inexistente no es error.
//
// Cualquier falla del backend se envuelve con ErrStorage.
type Repository interface {
	GetByOwner(ctx context.Context, ownerUserID string) (Companion, error)
	GetByID(ctx context.Context, id string) (Companion, error)
	Create(ctx context.Context, c Companion) error
	Update(ctx context.Context, c Companion) error
	Delete(ctx context.Context, id string) error
}
