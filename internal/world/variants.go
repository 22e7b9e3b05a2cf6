package world

import (
	"github.com/annel0/blockmap/internal/world/block"
)

// Операции над вариантами палитры.
//
// Вариант - запись палитры, производная от архетипа и отличающаяся от
// него набором трейтов (коллизия, эффект). Связь всегда однохоповая:
// ArchetypeID варианта указывает на архетип, варианты никогда не
// ссылаются на другие варианты. Поиск существующего варианта идёт по
// разобранному набору трейтов, поэтому дубликаты с иным порядком
// записи VariantKey не создаются.

// GetOrCreateVariantID возвращает ID записи палитры, представляющей
// архетип с включённой или выключенной коллизией.
//
// Выключенная коллизия представляется самим архетипом - палитра при
// этом не мутируется. Для включённой коллизии ищется (или создаётся)
// вариант с набором трейтов ровно {Collision=On}. Повторный вызов с
// теми же аргументами возвращает тот же ID и не растит палитру.
//
// Возвращает (0, false), если archetypeID не указывает на архетип.
func (m *BlockMapDefinition) GetOrCreateVariantID(archetypeID block.BlockTypeID, collisionEnabled bool) (block.BlockTypeID, bool) {
	arch, ok := m.Palette[archetypeID]
	if !ok || arch.ArchetypeID != arch.ID {
		return 0, false
	}

	if !collisionEnabled {
		return archetypeID, true
	}

	target := block.TraitSet{Collision: true}
	if id, found := m.findVariant(archetypeID, target); found {
		return id, true
	}

	id := m.nextID()
	m.Palette[id] = &block.BlockType{
		ID:            id,
		ArchetypeID:   archetypeID,
		VariantKey:    target.Key(),
		Name:          arch.Name,
		Model:         arch.Model,
		Category:      arch.Category,
		CollisionType: block.CollisionBox,
	}
	return id, true
}

// GetOrCreateEffectVariant возвращает ID варианта с указанным эффектом,
// сохраняя коллизионный трейт базовой записи.
//
// baseID может указывать как на архетип, так и на любой его вариант.
// Целевой набор трейтов пересчитывается от архетипа: коллизия берётся
// из базовой записи, эффект - из аргумента. effect == nil означает
// "снять эффект": операция сводится к чистому коллизионному варианту
// (или к самому архетипу, если коллизия у базы выключена).
//
// Возвращает (0, false), если baseID отсутствует в палитре.
func (m *BlockMapDefinition) GetOrCreateEffectVariant(baseID block.BlockTypeID, effect *block.Effect) (block.BlockTypeID, bool) {
	base, ok := m.Palette[baseID]
	if !ok {
		return 0, false
	}
	arch, ok := m.Palette[base.ArchetypeID]
	if !ok {
		return 0, false
	}

	target := block.TraitSet{
		Collision: base.CollisionType == block.CollisionBox,
	}
	if effect != nil {
		target.Effect = effect.Name
	}

	// Пустой набор трейтов - это сам архетип
	if target.IsEmpty() {
		return arch.ID, true
	}

	if id, found := m.findVariant(arch.ID, target); found {
		return id, true
	}

	id := m.nextID()
	m.Palette[id] = &block.BlockType{
		ID:            id,
		ArchetypeID:   arch.ID,
		VariantKey:    target.Key(),
		Name:          arch.Name,
		Model:         arch.Model,
		Category:      arch.Category,
		CollisionType: base.CollisionType,
		Effect:        effect.Clone(),
	}
	return id, true
}

// SetArchetypeEffect перезаписывает эффект самого архетипа и
// распространяет его на прямой коллизионный вариант (набор трейтов
// ровно {Collision=On}), сохраняя тип коллизии варианта.
//
// Варианты, кодирующие эффект в собственном VariantKey, намеренно не
// затрагиваются: их эффект - часть идентичности варианта. Если
// коллизионного варианта ещё нет, обновляется только архетип.
func (m *BlockMapDefinition) SetArchetypeEffect(archetypeID block.BlockTypeID, effect *block.Effect) {
	arch, ok := m.Palette[archetypeID]
	if !ok || arch.ArchetypeID != arch.ID {
		return
	}

	arch.Effect = effect.Clone()

	collisionOnly := block.TraitSet{Collision: true}
	if id, found := m.findVariant(archetypeID, collisionOnly); found {
		m.Palette[id].Effect = effect.Clone()
	}
}

// Normalize чинит записи палитры после загрузки из хранилища.
//
// Запись с пустым VariantKey объявляет себя архетипом и обязана
// ссылаться сама на себя; в повреждённых или отредактированных вручную
// файлах ArchetypeID может указывать куда угодно. Записи с заполненным
// VariantKey не трогаются. Операция идемпотентна.
func (m *BlockMapDefinition) Normalize() {
	for _, bt := range m.Palette {
		if bt.IsArchetype() && bt.ArchetypeID != bt.ID {
			bt.ArchetypeID = bt.ID
		}
	}
}

// findVariant ищет среди вариантов архетипа запись с точно совпадающим
// набором трейтов. Сравнение идёт по разобранным трейтам, а не по
// строке VariantKey. При наличии дубликатов (повреждённые данные)
// детерминированно выбирается запись с минимальным ID.
func (m *BlockMapDefinition) findVariant(archetypeID block.BlockTypeID, target block.TraitSet) (block.BlockTypeID, bool) {
	var (
		best  block.BlockTypeID
		found bool
	)
	for id, bt := range m.Palette {
		if bt.ArchetypeID != archetypeID || bt.IsArchetype() {
			continue
		}
		if !bt.Traits().Equals(target) {
			continue
		}
		if !found || id < best {
			best = id
			found = true
		}
	}
	return best, found
}
