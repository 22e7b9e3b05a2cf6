package block

// EffectKind определяет характер эффекта
type EffectKind string

const (
	EffectBuff   EffectKind = "buff"
	EffectDebuff EffectKind = "debuff"
	EffectAura   EffectKind = "aura"
)

// StackingRule определяет поведение при повторном наложении эффекта
type StackingRule string

const (
	StackingNone    StackingRule = "none"    // повторное наложение игнорируется
	StackingRefresh StackingRule = "refresh" // таймер эффекта сбрасывается
	StackingStack   StackingRule = "stack"   // эффекты складываются
)

// Modifier описывает одно изменение характеристики, производимое эффектом
type Modifier struct {
	Stat  string  `json:"stat"`
	Op    string  `json:"op"` // "add" | "mul"
	Value float64 `json:"value"`
}

// Effect описывает статусный эффект, привязанный к типу блока.
// Для движка карты эффект непрозрачен: его интерпретирует игровая
// система эффектов, здесь он только хранится и сравнивается по имени.
type Effect struct {
	Name      string       `json:"name"`
	Kind      EffectKind   `json:"kind"`
	Duration  float64      `json:"duration"` // секунды; 0 - пока стоишь на блоке
	Stacking  StackingRule `json:"stacking"`
	Modifiers []Modifier   `json:"modifiers,omitempty"`
}

// Clone создаёт глубокую копию эффекта; nil остаётся nil
func (e *Effect) Clone() *Effect {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Modifiers != nil {
		clone.Modifiers = make([]Modifier, len(e.Modifiers))
		copy(clone.Modifiers, e.Modifiers)
	}
	return &clone
}
