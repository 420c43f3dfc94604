package companions

import "errors"

// Taxonomía de errores del dominio. Los adapters de storage devuelven estos
// mismos sentinels (envolviendo la causa con %w cuando aplica) para que
// handlers y callers decidan con errors.Is sin conocer el backend.
var (
	// ErrInvalidInput: entrada inválida; el caller debe corregir, no reintentar.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict: mutación concurrente o violación de unicidad.
	// Seguro de reintentar después de releer el estado actual.
	ErrConflict = errors.New("conflict")

	// ErrNotFound: el registro ya no existe.
	ErrNotFound = errors.New("not found")

	// ErrStorage: falla de transporte o del backend de datos.
	// El caller puede reintentar con backoff; los workflows nunca lo hacen solos.
	ErrStorage = errors.New("storage failure")
)
