package companions

import "time"

// Kind define las especies de compañero disponibles.
// @Enum fish, frog
type Kind string

const (
	KindFish Kind = "fish"
	KindFrog Kind = "frog"
)

const (
	// MaxHealth es el tope de salud; Care nunca lo sobrepasa.
	MaxHealth = 100

	// CareHealthGain / CareExperienceGain son los efectos de un cuidado.
	CareHealthGain     = 20
	CareExperienceGain = 10

	// MinNameLen es el mínimo de caracteres para el nombre (ya trimmed).
	MinNameLen = 3
)

// Companion representa al compañero virtual de un usuario.
// Invariante del dominio: cero o un compañero por owner_user_id
// (lo garantiza Adopt; en Postgres además hay unique sobre owner_user_id).
type Companion struct {
	ID          string
	OwnerUserID string

	Name string
	Kind Kind

	Health     int // 0..100
	Level      int // >= 1
	Experience int // resto dentro del nivel actual, siempre < LevelThreshold

	// Version respalda updates condicionales (compare-and-swap).
	// Arranca en 1 y sube en cada Update exitoso.
	Version int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ParseKind valida y normaliza una especie.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindFish:
		return KindFish, nil
	case KindFrog:
		return KindFrog, nil
	default:
		return "", ErrInvalidInput
	}
}
