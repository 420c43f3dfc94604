package companions

// LevelThreshold es la experiencia necesaria para subir un nivel.
const LevelThreshold = 500

// AdvanceProgress aplica una ganancia de experiencia sobre (level, experience)
// y devuelve el nuevo par normalizado: el resto devuelto siempre queda
// por debajo de LevelThreshold. Pura y total: gain <= 0 no agrega nada
// (el caller valida que gain sea no-negativa).
//
// Se persiste siempre la forma "resto" (< threshold); nunca el acumulado crudo.
func AdvanceProgress(level, experience, gain int) (int, int) {
	if level < 1 {
		level = 1
	}
	if experience < 0 {
		experience = 0
	}
	if gain > 0 {
		experience += gain
	}
	for experience >= LevelThreshold {
		level++
		experience -= LevelThreshold
	}
	return level, experience
}

// ClampHealth acota la salud al rango [0, MaxHealth].
func ClampHealth(h int) int {
	if h < 0 {
		return 0
	}
	if h > MaxHealth {
		return MaxHealth
	}
	return h
}
