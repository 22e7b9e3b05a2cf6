package world

import (
	"github.com/annel0/blockmap/internal/vec"
	"github.com/annel0/blockmap/internal/world/block"
)

// CellSize - размер одной ячейки карты в мировых единицах.
// Преобразование мировой координаты в ячейку: cell = floor(coord / CellSize).
const CellSize = 1.0

// Rotation представляет поворот размещённого блока (кватернион)
type Rotation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// PlacedBlock представляет блок, размещённый в конкретной ячейке карты
type PlacedBlock struct {
	Cell        vec.Vec3          `json:"cell"`
	BlockTypeID block.BlockTypeID `json:"block_type_id"`
	Rotation    *Rotation         `json:"rotation,omitempty"`
}

// MapObject описывает не-блочный объект карты (точка спауна и т.п.).
// Для движка карты объекты непрозрачны и только переживают round-trip.
type MapObject struct {
	Kind    string                 `json:"kind"`
	Name    string                 `json:"name,omitempty"`
	Cell    vec.Vec3               `json:"cell"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// BlockMapDefinition представляет именованный ограниченный объём карты:
// палитру типов блоков и разреженное отображение ячейка -> блок.
// Структура рассчитана на одного логического писателя; параллельные
// читатели допустимы только при отсутствии мутаций (или по копии Clone).
type BlockMapDefinition struct {
	Key     string
	Width   int
	Height  int
	Depth   int
	Palette map[block.BlockTypeID]*block.BlockType
	Blocks  map[vec.Vec3]PlacedBlock
	Objects []MapObject
}

// NewBlockMapDefinition создаёт пустую карту с указанными границами
func NewBlockMapDefinition(key string, width, height, depth int) *BlockMapDefinition {
	return &BlockMapDefinition{
		Key:     key,
		Width:   width,
		Height:  height,
		Depth:   depth,
		Palette: make(map[block.BlockTypeID]*block.BlockType),
		Blocks:  make(map[vec.Vec3]PlacedBlock),
	}
}

// InBounds проверяет, лежит ли ячейка внутри объёма карты
func (m *BlockMapDefinition) InBounds(cell vec.Vec3) bool {
	return cell.X >= 0 && cell.X < m.Width &&
		cell.Y >= 0 && cell.Y < m.Height &&
		cell.Z >= 0 && cell.Z < m.Depth
}

// InBoundsColumn проверяет, лежит ли колонка (X, Z) внутри карты
func (m *BlockMapDefinition) InBoundsColumn(x, z int) bool {
	return x >= 0 && x < m.Width && z >= 0 && z < m.Depth
}

// BlockTypeByID возвращает запись палитры по идентификатору
func (m *BlockMapDefinition) BlockTypeByID(id block.BlockTypeID) (*block.BlockType, bool) {
	bt, ok := m.Palette[id]
	return bt, ok
}

// NewArchetype добавляет в палитру новый архетип и возвращает его ID
func (m *BlockMapDefinition) NewArchetype(name, model, category string) block.BlockTypeID {
	id := m.nextID()
	m.Palette[id] = &block.BlockType{
		ID:            id,
		ArchetypeID:   id,
		Name:          name,
		Model:         model,
		Category:      category,
		CollisionType: block.CollisionNone,
	}
	return id
}

// RegisterBlockType вставляет запись палитры как есть.
// Используется только при начальной загрузке; последующие правки
// должны идти через операции вариантов, сохраняющие инварианты палитры.
func (m *BlockMapDefinition) RegisterBlockType(bt *block.BlockType) {
	m.Palette[bt.ID] = bt
}

// SetBlock размещает блок указанного типа в ячейке.
// Возвращает false, если ячейка вне границ карты.
func (m *BlockMapDefinition) SetBlock(cell vec.Vec3, id block.BlockTypeID) bool {
	return m.SetBlockRotated(cell, id, nil)
}

// SetBlockRotated размещает блок с поворотом
func (m *BlockMapDefinition) SetBlockRotated(cell vec.Vec3, id block.BlockTypeID, rot *Rotation) bool {
	if !m.InBounds(cell) {
		return false
	}
	m.Blocks[cell] = PlacedBlock{Cell: cell, BlockTypeID: id, Rotation: rot}
	return true
}

// GetBlock возвращает блок в ячейке, если он размещён
func (m *BlockMapDefinition) GetBlock(cell vec.Vec3) (PlacedBlock, bool) {
	pb, ok := m.Blocks[cell]
	return pb, ok
}

// RemoveBlock удаляет блок из ячейки.
// Возвращает true, если блок там действительно был.
func (m *BlockMapDefinition) RemoveBlock(cell vec.Vec3) bool {
	if _, ok := m.Blocks[cell]; !ok {
		return false
	}
	delete(m.Blocks, cell)
	return true
}

// AddObject добавляет объект карты
func (m *BlockMapDefinition) AddObject(obj MapObject) {
	m.Objects = append(m.Objects, obj)
}

// Clone создаёт глубокую копию карты.
// Используется для передачи снапшота параллельным читателям,
// пока писатель продолжает мутировать оригинал.
func (m *BlockMapDefinition) Clone() *BlockMapDefinition {
	clone := &BlockMapDefinition{
		Key:     m.Key,
		Width:   m.Width,
		Height:  m.Height,
		Depth:   m.Depth,
		Palette: make(map[block.BlockTypeID]*block.BlockType, len(m.Palette)),
		Blocks:  make(map[vec.Vec3]PlacedBlock, len(m.Blocks)),
	}
	for id, bt := range m.Palette {
		clone.Palette[id] = bt.Clone()
	}
	for cell, pb := range m.Blocks {
		if pb.Rotation != nil {
			rot := *pb.Rotation
			pb.Rotation = &rot
		}
		clone.Blocks[cell] = pb
	}
	if m.Objects != nil {
		clone.Objects = make([]MapObject, len(m.Objects))
		copy(clone.Objects, m.Objects)
	}
	return clone
}

// nextID возвращает свободный идентификатор палитры.
// Идентификаторы монотонно растут; 0 зарезервирован как "нет типа".
func (m *BlockMapDefinition) nextID() block.BlockTypeID {
	var max block.BlockTypeID
	for id := range m.Palette {
		if id > max {
			max = id
		}
	}
	return max + 1
}
