package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/annel0/blockmap/internal/eventbus"
	"github.com/annel0/blockmap/internal/logging"
	"github.com/annel0/blockmap/internal/storage"
	"github.com/annel0/blockmap/internal/vec"
	"github.com/annel0/blockmap/internal/world"
	"github.com/annel0/blockmap/internal/world/block"
	"github.com/annel0/blockmap/internal/world/gen"
)

const eventSource = "blockmap-server"

// MapRegistry держит загруженные карты в памяти перед хранилищем.
//
// Операции резолвера вариантов не синхронизированы внутри карты,
// поэтому реестр выступает единственным писателем: все мутации и
// запросы к загруженной карте идут под общим мьютексом реестра.
// Читатели, которым нужен параллелизм, берут снапшот через Snapshot.
type MapRegistry struct {
	mu    sync.Mutex
	maps  map[string]*world.BlockMapDefinition
	store *storage.MapStorage
	bus   eventbus.EventBus
}

// NewMapRegistry создает реестр поверх хранилища карт
func NewMapRegistry(store *storage.MapStorage, bus eventbus.EventBus) *MapRegistry {
	return &MapRegistry{
		maps:  make(map[string]*world.BlockMapDefinition),
		store: store,
		bus:   bus,
	}
}

// CreateMap создает пустую карту и сразу сохраняет её.
// При generate=true карта заполняется стартовым рельефом.
func (r *MapRegistry) CreateMap(key string, width, height, depth int, generate bool, seed int64) (*world.BlockMapDefinition, error) {
	if key == "" || width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("некорректные параметры карты: key=%q, %dx%dx%d", key, width, height, depth)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.maps[key]; exists {
		return nil, fmt.Errorf("карта %q уже загружена", key)
	}

	m := world.NewBlockMapDefinition(key, width, height, depth)
	if generate {
		gen.NewGenerator(seed).Generate(m)
	}

	if err := r.store.SaveMap(m); err != nil {
		return nil, err
	}
	r.maps[key] = m

	r.publish(eventbus.EventMapCreated, eventbus.MapEventPayload{
		MapKey: key, Width: width, Height: height, Depth: depth,
	})
	logging.Info("🗺️  Карта %q создана (%dx%dx%d, generate=%v)", key, width, height, depth, generate)
	return m, nil
}

// SaveMap сохраняет загруженную карту в хранилище
func (r *MapRegistry) SaveMap(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.mapLocked(key)
	if err != nil {
		return err
	}
	if err := r.store.SaveMap(m); err != nil {
		return err
	}
	r.publish(eventbus.EventMapSaved, eventbus.MapEventPayload{MapKey: key})
	return nil
}

// DeleteMap выгружает карту и удаляет её из хранилища
func (r *MapRegistry) DeleteMap(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.maps, key)
	if err := r.store.DeleteMap(key); err != nil {
		return err
	}
	r.publish(eventbus.EventMapDeleted, eventbus.MapEventPayload{MapKey: key})
	return nil
}

// ListMaps возвращает ключи карт в хранилище
func (r *MapRegistry) ListMaps() ([]string, error) {
	return r.store.ListMaps()
}

// Snapshot возвращает глубокую копию карты для параллельных читателей
func (r *MapRegistry) Snapshot(key string) (*world.BlockMapDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.mapLocked(key)
	if err != nil {
		return nil, err
	}
	return m.Clone(), nil
}

// NewArchetype добавляет архетип в палитру карты
func (r *MapRegistry) NewArchetype(key, name, model, category string) (block.BlockTypeID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.mapLocked(key)
	if err != nil {
		return 0, err
	}
	return m.NewArchetype(name, model, category), nil
}

// ResolveCollisionVariant возвращает ID записи палитры для архетипа с
// включённой/выключенной коллизией, создавая вариант при необходимости
func (r *MapRegistry) ResolveCollisionVariant(key string, archetypeID block.BlockTypeID, collisionEnabled bool) (block.BlockTypeID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.mapLocked(key)
	if err != nil {
		return 0, err
	}

	before := len(m.Palette)
	id, ok := m.GetOrCreateVariantID(archetypeID, collisionEnabled)
	if !ok {
		return 0, fmt.Errorf("архетип %d не найден в палитре карты %q", archetypeID, key)
	}
	if len(m.Palette) > before {
		r.publishVariant(key, m, id)
	}
	return id, nil
}

// ResolveEffectVariant возвращает ID варианта с указанным эффектом
// (nil снимает эффект), создавая вариант при необходимости
func (r *MapRegistry) ResolveEffectVariant(key string, baseID block.BlockTypeID, effect *block.Effect) (block.BlockTypeID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.mapLocked(key)
	if err != nil {
		return 0, err
	}

	before := len(m.Palette)
	id, ok := m.GetOrCreateEffectVariant(baseID, effect)
	if !ok {
		return 0, fmt.Errorf("тип блока %d не найден в палитре карты %q", baseID, key)
	}
	if len(m.Palette) > before {
		r.publishVariant(key, m, id)
	}
	return id, nil
}

// SetArchetypeEffect перезаписывает эффект архетипа карты
func (r *MapRegistry) SetArchetypeEffect(key string, archetypeID block.BlockTypeID, effect *block.Effect) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.mapLocked(key)
	if err != nil {
		return err
	}
	if _, ok := m.BlockTypeByID(archetypeID); !ok {
		return fmt.Errorf("архетип %d не найден в палитре карты %q", archetypeID, key)
	}

	m.SetArchetypeEffect(archetypeID, effect)
	r.publish(eventbus.EventArchetypeEffect, eventbus.VariantEventPayload{
		MapKey: key, ArchetypeID: archetypeID,
	})
	return nil
}

// PlaceBlock размещает блок в ячейке карты
func (r *MapRegistry) PlaceBlock(key string, cell vec.Vec3, id block.BlockTypeID, rot *world.Rotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.mapLocked(key)
	if err != nil {
		return err
	}
	if !m.SetBlockRotated(cell, id, rot) {
		return fmt.Errorf("ячейка %v вне границ карты %q", cell, key)
	}

	r.publish(eventbus.EventBlockPlaced, eventbus.BlockEventPayload{
		MapKey: key, Cell: cell, BlockTypeID: id,
	})
	return nil
}

// RemoveBlock удаляет блок из ячейки карты
func (r *MapRegistry) RemoveBlock(key string, cell vec.Vec3) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.mapLocked(key)
	if err != nil {
		return err
	}
	if !m.RemoveBlock(cell) {
		return fmt.Errorf("в ячейке %v карты %q нет блока", cell, key)
	}

	r.publish(eventbus.EventBlockRemoved, eventbus.BlockEventPayload{
		MapKey: key, Cell: cell,
	})
	return nil
}

// Query выполняет читающий callback над картой под мьютексом реестра.
// Карту нельзя сохранять за пределами callback'а.
func (r *MapRegistry) Query(key string, fn func(m *world.BlockMapDefinition) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.mapLocked(key)
	if err != nil {
		return err
	}
	return fn(m)
}

// Close сохраняет все загруженные карты
func (r *MapRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for key, m := range r.maps {
		if err := r.store.SaveMap(m); err != nil {
			logging.Error("Ошибка сохранения карты %q при завершении: %v", key, err)
			lastErr = err
		}
	}
	return lastErr
}

// mapLocked возвращает карту из памяти, подгружая её из хранилища.
// Вызывается только под r.mu.
func (r *MapRegistry) mapLocked(key string) (*world.BlockMapDefinition, error) {
	if m, ok := r.maps[key]; ok {
		return m, nil
	}
	m, err := r.store.LoadMap(key)
	if err != nil {
		return nil, err
	}
	r.maps[key] = m
	return m, nil
}

// publishVariant публикует событие о появлении нового варианта
func (r *MapRegistry) publishVariant(key string, m *world.BlockMapDefinition, id block.BlockTypeID) {
	bt, ok := m.BlockTypeByID(id)
	if !ok {
		return
	}
	r.publish(eventbus.EventVariantCreated, eventbus.VariantEventPayload{
		MapKey:      key,
		ArchetypeID: bt.ArchetypeID,
		VariantID:   id,
		VariantKey:  bt.VariantKey,
	})
}

func (r *MapRegistry) publish(eventType string, payload interface{}) {
	if r.bus == nil {
		return
	}
	ev := eventbus.NewEnvelope(eventType, eventSource, payload)
	if err := r.bus.Publish(context.Background(), ev); err != nil {
		logging.Warn("Не удалось опубликовать событие %s: %v", eventType, err)
	}
}
