package block

import "strings"

// Имена трейтов, кодируемых в VariantKey
const (
	TraitCollision = "Collision"
	TraitEffect    = "Effect"

	collisionOn = "On"
)

// TraitSet - разобранное представление VariantKey: набор трейтов,
// отличающих вариант от архетипа. Сравнение вариантов всегда идёт
// через TraitSet, а не через строковое сравнение ключей, поэтому
// порядок записи трейтов в загруженных данных не имеет значения.
type TraitSet struct {
	Collision bool   // трейт Collision=On
	Effect    string // имя эффекта из трейта Effect=<name>; пусто - нет
}

// ParseVariantKey разбирает строку вида "Collision=On;Effect=Burn".
// Неизвестные пары и мусор игнорируются; пустая строка означает
// архетип (пустой набор трейтов).
func ParseVariantKey(key string) TraitSet {
	var ts TraitSet
	if key == "" {
		return ts
	}
	for _, part := range strings.Split(key, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(name) {
		case TraitCollision:
			if strings.TrimSpace(value) == collisionOn {
				ts.Collision = true
			}
		case TraitEffect:
			ts.Effect = strings.TrimSpace(value)
		}
	}
	return ts
}

// Key возвращает каноническую строковую форму набора трейтов.
// Порядок фиксирован (Collision, затем Effect), чтобы вновь созданные
// варианты имели детерминированный VariantKey.
func (ts TraitSet) Key() string {
	parts := make([]string, 0, 2)
	if ts.Collision {
		parts = append(parts, TraitCollision+"="+collisionOn)
	}
	if ts.Effect != "" {
		parts = append(parts, TraitEffect+"="+ts.Effect)
	}
	return strings.Join(parts, ";")
}

// Equals сравнивает наборы трейтов независимо от их строковой записи
func (ts TraitSet) Equals(other TraitSet) bool {
	return ts.Collision == other.Collision && ts.Effect == other.Effect
}

// IsEmpty возвращает true для пустого набора (архетип)
func (ts TraitSet) IsEmpty() bool {
	return !ts.Collision && ts.Effect == ""
}
