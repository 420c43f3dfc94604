package companions

import "context"

// Coordinator mantiene la proyección optimista de un compañero para un caller
// (típicamente la UI): aplica la mutación especulativa de inmediato, la
// concilia con el resultado autoritativo del workflow, o la revierte si el
// workflow falla. No persiste nada; es solo un contrato de consistencia de
// vista. Un Coordinator atiende a un solo caller; no es seguro para uso
// concurrente.
type Coordinator struct {
	original    Companion
	current     Companion
	speculative bool
}

// Mutation proyecta el efecto especulativo de un workflow sobre una vista.
// Debe usar las mismas reglas que el workflow real (ver CareMutation) para
// que proyección y cómputo autoritativo no puedan divergir.
type Mutation func(Companion) Companion

// CareMutation replica las reglas de CareWorkflow sobre la vista:
// salud +20 con tope, experiencia +10 con rollover. Con salud llena la
// vista queda igual, como el workflow.
func CareMutation(c Companion) Companion {
	if c.Health >= MaxHealth {
		return c
	}
	c.Health = ClampHealth(c.Health + CareHealthGain)
	c.Level, c.Experience = AdvanceProgress(c.Level, c.Experience, CareExperienceGain)
	return c
}

func NewCoordinator(current Companion) *Coordinator {
	return &Coordinator{
		original: current,
		current:  current,
	}
}

// Speculate aplica la mutación sobre la vista y la hace visible de inmediato.
func (o *Coordinator) Speculate(m Mutation) Companion {
	o.current = m(o.original)
	o.speculative = true
	return o.current
}

// Reconcile reemplaza la proyección con el resultado autoritativo.
// Una discrepancia con lo especulado no es error: el resultado manda.
func (o *Coordinator) Reconcile(authoritative Companion) Companion {
	o.original = authoritative
	o.current = authoritative
	o.speculative = false
	return o.current
}

// Rollback descarta la proyección especulativa y restaura la vista original.
func (o *Coordinator) Rollback() Companion {
	o.current = o.original
	o.speculative = false
	return o.current
}

// View devuelve la vista actual (especulativa o conciliada).
func (o *Coordinator) View() Companion {
	return o.current
}

// Speculating indica si la vista actual es provisional.
func (o *Coordinator) Speculating() bool {
	return o.speculative
}

// Execute ata el protocolo completo: especula, invoca el workflow y
// concilia o revierte según el resultado. Devuelve la vista final y el
// error del workflow (intacto, con su sentinel).
func (o *Coordinator) Execute(ctx context.Context, m Mutation, call func(context.Context) (Companion, error)) (Companion, error) {
	o.Speculate(m)

	result, err := call(ctx)
	if err != nil {
		return o.Rollback(), err
	}
	return o.Reconcile(result), nil
}
