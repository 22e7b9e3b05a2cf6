package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/annel0/blockmap/internal/world"
	"github.com/annel0/blockmap/internal/world/block"
)

// mapDocument - wire-представление карты.
// Палитра кодируется как объект строковый-ID -> запись, блоки - как
// список размещений (ячейка + тип + опциональный поворот).
type mapDocument struct {
	Key     string                      `json:"key"`
	Width   int                         `json:"width"`
	Height  int                         `json:"height"`
	Depth   int                         `json:"depth"`
	Palette map[string]*block.BlockType `json:"palette"`
	Blocks  []world.PlacedBlock         `json:"blocks"`
	Objects []world.MapObject           `json:"objects,omitempty"`
}

// EncodeMap сериализует карту в JSON.
// Список блоков сортируется по ячейке, чтобы вывод был детерминирован.
func EncodeMap(m *world.BlockMapDefinition) ([]byte, error) {
	doc := mapDocument{
		Key:     m.Key,
		Width:   m.Width,
		Height:  m.Height,
		Depth:   m.Depth,
		Palette: make(map[string]*block.BlockType, len(m.Palette)),
		Blocks:  make([]world.PlacedBlock, 0, len(m.Blocks)),
		Objects: m.Objects,
	}

	for id, bt := range m.Palette {
		doc.Palette[strconv.Itoa(int(id))] = bt
	}

	for _, pb := range m.Blocks {
		doc.Blocks = append(doc.Blocks, pb)
	}
	sort.Slice(doc.Blocks, func(i, j int) bool {
		a, b := doc.Blocks[i].Cell, doc.Blocks[j].Cell
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации карты: %w", err)
	}
	return data, nil
}

// DecodeMap восстанавливает карту из JSON.
// Частично заполненная палитра допустима (nil-записи пропускаются).
// После декодирования палитра нормализуется: это единственная точка
// восстановления, после которой данным карты можно доверять.
func DecodeMap(data []byte) (*world.BlockMapDefinition, error) {
	var doc mapDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ошибка десериализации карты: %w", err)
	}

	m := world.NewBlockMapDefinition(doc.Key, doc.Width, doc.Height, doc.Depth)

	for key, bt := range doc.Palette {
		if bt == nil {
			continue
		}
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("некорректный ключ палитры %q: %w", key, err)
		}
		// Ключ объекта палитры - источник истины для ID записи
		bt.ID = block.BlockTypeID(id)
		m.RegisterBlockType(bt)
	}

	for _, pb := range doc.Blocks {
		m.Blocks[pb.Cell] = pb
	}
	m.Objects = doc.Objects

	m.Normalize()
	return m, nil
}
