package world

import (
	"testing"

	"github.com/annel0/blockmap/internal/world/block"
)

func newTestMap() (*BlockMapDefinition, block.BlockTypeID) {
	m := NewBlockMapDefinition("test", 8, 8, 8)
	archID := m.NewArchetype("Stone", "models/stone", "terrain")
	return m, archID
}

func TestNewArchetypeSelfReference(t *testing.T) {
	m, archID := newTestMap()

	arch, ok := m.BlockTypeByID(archID)
	if !ok {
		t.Fatal("Архетип не найден в палитре")
	}
	if arch.ArchetypeID != arch.ID {
		t.Errorf("Архетип должен ссылаться сам на себя: ID=%d, ArchetypeID=%d", arch.ID, arch.ArchetypeID)
	}
	if !arch.IsArchetype() {
		t.Error("VariantKey архетипа должен быть пуст")
	}
	if arch.CollisionType != block.CollisionNone {
		t.Error("Новый архетип не должен иметь коллизии")
	}
}

func TestCollisionVariantIdempotent(t *testing.T) {
	m, archID := newTestMap()

	id1, ok := m.GetOrCreateVariantID(archID, true)
	if !ok {
		t.Fatal("Не удалось создать коллизионный вариант")
	}
	id2, ok := m.GetOrCreateVariantID(archID, true)
	if !ok {
		t.Fatal("Повторный вызов завершился неудачей")
	}

	if id1 != id2 {
		t.Errorf("Повторный вызов должен вернуть тот же ID: %d != %d", id1, id2)
	}
	if len(m.Palette) != 2 {
		t.Errorf("Ожидались 2 записи палитры (архетип + вариант), получено %d", len(m.Palette))
	}

	variant, _ := m.BlockTypeByID(id1)
	if variant.CollisionType != block.CollisionBox {
		t.Error("Коллизионный вариант должен иметь CollisionBox")
	}
	if variant.ArchetypeID != archID {
		t.Errorf("Вариант должен ссылаться на архетип %d, получено %d", archID, variant.ArchetypeID)
	}
	if variant.VariantKey != "Collision=On" {
		t.Errorf("Ожидался канонический ключ Collision=On, получен %q", variant.VariantKey)
	}
}

func TestCollisionDisabledReturnsArchetype(t *testing.T) {
	m, archID := newTestMap()

	id, ok := m.GetOrCreateVariantID(archID, false)
	if !ok {
		t.Fatal("Вызов с выключенной коллизией завершился неудачей")
	}
	if id != archID {
		t.Errorf("Выключенная коллизия должна вернуть сам архетип %d, получено %d", archID, id)
	}
	if len(m.Palette) != 1 {
		t.Errorf("Палитра не должна расти, получено %d записей", len(m.Palette))
	}
}

func TestCollisionVariantRejectsNonArchetype(t *testing.T) {
	m, archID := newTestMap()

	variantID, _ := m.GetOrCreateVariantID(archID, true)
	if _, ok := m.GetOrCreateVariantID(variantID, true); ok {
		t.Error("Создание варианта от варианта должно быть отклонено")
	}
	if _, ok := m.GetOrCreateVariantID(999, true); ok {
		t.Error("Создание варианта от несуществующего ID должно быть отклонено")
	}
}

func TestVariantMatchOrderIndependent(t *testing.T) {
	m, archID := newTestMap()

	// Запись с неканоническим порядком трейтов, как из отредактированного файла
	preseeded := &block.BlockType{
		ID:            7,
		ArchetypeID:   archID,
		VariantKey:    "Effect=Burn;Collision=On",
		Name:          "Stone",
		Model:         "models/stone",
		Category:      "terrain",
		CollisionType: block.CollisionBox,
		Effect:        &block.Effect{Name: "Burn", Kind: block.EffectDebuff},
	}
	m.RegisterBlockType(preseeded)

	collisionID, _ := m.GetOrCreateVariantID(archID, true)
	id, ok := m.GetOrCreateEffectVariant(collisionID, &block.Effect{Name: "Burn", Kind: block.EffectDebuff})
	if !ok {
		t.Fatal("Не удалось разрешить вариант с эффектом")
	}
	if id != 7 {
		t.Errorf("Должна переиспользоваться запись 7 с тем же набором трейтов, получено %d", id)
	}
}

func TestEffectVariantFromArchetype(t *testing.T) {
	m, archID := newTestMap()

	effect := &block.Effect{Name: "Slow", Kind: block.EffectDebuff, Duration: 2}
	id, ok := m.GetOrCreateEffectVariant(archID, effect)
	if !ok {
		t.Fatal("Не удалось создать вариант с эффектом")
	}

	variant, _ := m.BlockTypeByID(id)
	if variant.VariantKey != "Effect=Slow" {
		t.Errorf("Ожидался ключ Effect=Slow, получен %q", variant.VariantKey)
	}
	if variant.CollisionType != block.CollisionNone {
		t.Error("Вариант от архетипа без коллизии не должен получить коллизию")
	}
	if variant.Effect == nil || variant.Effect.Name != "Slow" {
		t.Error("Эффект варианта должен копироваться из аргумента")
	}

	// Идемпотентность
	id2, _ := m.GetOrCreateEffectVariant(archID, effect)
	if id != id2 {
		t.Errorf("Повторный вызов должен вернуть тот же ID: %d != %d", id, id2)
	}
}

func TestEffectVariantKeepsCollisionTrait(t *testing.T) {
	m, archID := newTestMap()

	collisionID, _ := m.GetOrCreateVariantID(archID, true)
	id, ok := m.GetOrCreateEffectVariant(collisionID, &block.Effect{Name: "Burn"})
	if !ok {
		t.Fatal("Не удалось создать вариант с эффектом")
	}

	variant, _ := m.BlockTypeByID(id)
	if variant.VariantKey != "Collision=On;Effect=Burn" {
		t.Errorf("Ожидался ключ Collision=On;Effect=Burn, получен %q", variant.VariantKey)
	}
	if variant.CollisionType != block.CollisionBox {
		t.Error("Коллизионный трейт базы должен сохраниться")
	}
	if variant.ArchetypeID != archID {
		t.Errorf("Связь должна быть однохоповой: ArchetypeID=%d, ожидался %d", variant.ArchetypeID, archID)
	}
}

func TestClearEffectRoundTrip(t *testing.T) {
	m, archID := newTestMap()

	collisionID, _ := m.GetOrCreateVariantID(archID, true)
	burnID, _ := m.GetOrCreateEffectVariant(collisionID, &block.Effect{Name: "Burn"})

	// Снятие эффекта возвращает чистый коллизионный вариант
	cleared, ok := m.GetOrCreateEffectVariant(burnID, nil)
	if !ok {
		t.Fatal("Снятие эффекта завершилось неудачей")
	}
	if cleared != collisionID {
		t.Errorf("Снятие эффекта должно вернуть коллизионный вариант %d, получено %d", collisionID, cleared)
	}

	// Снятие эффекта с самого архетипа возвращает архетип
	clearedArch, ok := m.GetOrCreateEffectVariant(archID, nil)
	if !ok {
		t.Fatal("Снятие эффекта с архетипа завершилось неудачей")
	}
	if clearedArch != archID {
		t.Errorf("Ожидался сам архетип %d, получено %d", archID, clearedArch)
	}
}

func TestEffectVariantMissingBase(t *testing.T) {
	m, _ := newTestMap()
	if _, ok := m.GetOrCreateEffectVariant(999, &block.Effect{Name: "Burn"}); ok {
		t.Error("Несуществующий baseID должен быть отклонён")
	}
}

func TestSetArchetypeEffectPropagation(t *testing.T) {
	m, archID := newTestMap()

	collisionID, _ := m.GetOrCreateVariantID(archID, true)
	burnID, _ := m.GetOrCreateEffectVariant(collisionID, &block.Effect{Name: "Burn"})

	aura := &block.Effect{Name: "Regen", Kind: block.EffectBuff}
	m.SetArchetypeEffect(archID, aura)

	arch, _ := m.BlockTypeByID(archID)
	if arch.Effect == nil || arch.Effect.Name != "Regen" {
		t.Error("Эффект архетипа должен быть перезаписан")
	}

	collisionVariant, _ := m.BlockTypeByID(collisionID)
	if collisionVariant.Effect == nil || collisionVariant.Effect.Name != "Regen" {
		t.Error("Эффект должен распространиться на чистый коллизионный вариант")
	}
	if collisionVariant.CollisionType != block.CollisionBox {
		t.Error("Тип коллизии варианта не должен измениться")
	}

	// Вариант с эффектом в ключе не затрагивается
	burnVariant, _ := m.BlockTypeByID(burnID)
	if burnVariant.Effect == nil || burnVariant.Effect.Name != "Burn" {
		t.Error("Вариант с эффектом в VariantKey не должен быть затронут")
	}
}

func TestNormalizeRepairsArchetypeSelfReference(t *testing.T) {
	m, archID := newTestMap()

	// Повреждённая запись: пустой VariantKey, но ссылка на чужой архетип
	m.RegisterBlockType(&block.BlockType{
		ID:          5,
		ArchetypeID: archID,
		Name:        "Dirt",
	})
	// Корректный вариант, который трогать нельзя
	collisionID, _ := m.GetOrCreateVariantID(archID, true)

	m.Normalize()

	repaired, _ := m.BlockTypeByID(5)
	if repaired.ArchetypeID != 5 {
		t.Errorf("Normalize должен починить самоссылку: ArchetypeID=%d, ожидалось 5", repaired.ArchetypeID)
	}

	variant, _ := m.BlockTypeByID(collisionID)
	if variant.ArchetypeID != archID {
		t.Error("Normalize не должен трогать записи с VariantKey")
	}

	// Идемпотентность
	m.Normalize()
	repaired, _ = m.BlockTypeByID(5)
	if repaired.ArchetypeID != 5 {
		t.Error("Повторный Normalize не должен менять результат")
	}
}

func TestFindVariantDuplicatesDeterministic(t *testing.T) {
	m, archID := newTestMap()

	// Две повреждённые записи с одинаковым набором трейтов
	m.RegisterBlockType(&block.BlockType{
		ID: 10, ArchetypeID: archID, VariantKey: "Collision=On",
		CollisionType: block.CollisionBox,
	})
	m.RegisterBlockType(&block.BlockType{
		ID: 4, ArchetypeID: archID, VariantKey: "Collision=On",
		CollisionType: block.CollisionBox,
	})

	id, ok := m.GetOrCreateVariantID(archID, true)
	if !ok {
		t.Fatal("Разрешение варианта завершилось неудачей")
	}
	if id != 4 {
		t.Errorf("При дубликатах должен выбираться минимальный ID: ожидалось 4, получено %d", id)
	}
}
