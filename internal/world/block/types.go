package block

import (
	"encoding/json"
	"fmt"
)

// BlockTypeID представляет идентификатор типа блока в палитре карты
type BlockTypeID uint16

// CollisionType определяет, препятствует ли блок прохождению
type CollisionType uint8

const (
	// CollisionNone - блок не участвует в проверках проходимости
	CollisionNone CollisionType = iota
	// CollisionBox - блок занимает всю ячейку и блокирует её
	CollisionBox
)

// String возвращает строковое представление типа коллизии
func (c CollisionType) String() string {
	switch c {
	case CollisionNone:
		return "none"
	case CollisionBox:
		return "box"
	default:
		return "unknown"
	}
}

// MarshalJSON сериализует тип коллизии в тегированную строку
func (c CollisionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON десериализует тип коллизии из тегированной строки
func (c *CollisionType) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	switch tag {
	case "none":
		*c = CollisionNone
	case "box":
		*c = CollisionBox
	default:
		return fmt.Errorf("неизвестный тип коллизии: %q", tag)
	}
	return nil
}

// BlockType описывает одну запись палитры: архетип или его вариант.
// Архетип ссылается сам на себя (ArchetypeID == ID, VariantKey пуст).
// Вариант хранит в VariantKey канонический набор трейтов, отличающих
// его от архетипа.
type BlockType struct {
	ID            BlockTypeID   `json:"id"`
	ArchetypeID   BlockTypeID   `json:"archetype_id"`
	VariantKey    string        `json:"variant_key,omitempty"`
	Name          string        `json:"name"`
	Model         string        `json:"model"`
	Category      string        `json:"category"`
	CollisionType CollisionType `json:"collision_type"`
	Effect        *Effect       `json:"effect,omitempty"`
}

// IsArchetype возвращает true, если запись является корневым определением
func (bt *BlockType) IsArchetype() bool {
	return bt.VariantKey == ""
}

// Traits возвращает разобранный набор трейтов записи
func (bt *BlockType) Traits() TraitSet {
	return ParseVariantKey(bt.VariantKey)
}

// Clone создаёт глубокую копию записи палитры
func (bt *BlockType) Clone() *BlockType {
	clone := *bt
	clone.Effect = bt.Effect.Clone()
	return &clone
}
