package history

import "time"

// EntryType clasifica las entradas del historial de actividad del compañero.
type EntryType string

const (
	EntryAdopted  EntryType = "ADOPTED"
	EntryCared    EntryType = "CARED"
	EntryLevelUp  EntryType = "LEVEL_UP"
	EntryReleased EntryType = "RELEASED"
)

// Entry es una entrada append-only del historial. No se edita ni se borra;
// sobrevive al compañero que la originó (por eso guarda owner y companion).
type Entry struct {
	ID          string
	OwnerUserID string
	CompanionID string

	Type   EntryType
	Detail string // texto corto opcional ("replaced", "reached level 2", ...)

	// Snapshot posterior a la acción, para render del timeline sin joins.
	Health int
	Level  int

	OccurredAt time.Time
}
