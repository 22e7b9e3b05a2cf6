package spatial

import (
	"testing"

	"github.com/annel0/blockmap/internal/vec"
	"github.com/annel0/blockmap/internal/world"
	"github.com/annel0/blockmap/internal/world/block"
)

// buildMap создаёт карту с коллизионным вариантом террейна
func buildMap(t *testing.T, width, height, depth int) (*world.BlockMapDefinition, block.BlockTypeID) {
	t.Helper()
	m := world.NewBlockMapDefinition("spatial-test", width, height, depth)
	archID := m.NewArchetype("Terrain", "models/terrain", "terrain")
	solidID, ok := m.GetOrCreateVariantID(archID, true)
	if !ok {
		t.Fatal("Не удалось создать коллизионный вариант")
	}
	return m, solidID
}

func at(x, y, z float64) vec.Vec3Float {
	return vec.Vec3Float{X: x, Y: y, Z: z}
}

func TestSurfaceHeightEmptyColumn(t *testing.T) {
	m, _ := buildMap(t, 4, 4, 4)

	h, ok := SurfaceHeight(nil, m, at(1.5, 0, 1.5))
	if !ok {
		t.Fatal("Колонка внутри границ должна давать результат")
	}
	if h != 0 {
		t.Errorf("Пустая колонка - ровная земля: ожидалось 0, получено %v", h)
	}
}

func TestSurfaceHeightSingleBlock(t *testing.T) {
	m, solidID := buildMap(t, 4, 4, 4)
	m.SetBlock(vec.Vec3{X: 1, Y: 0, Z: 1}, solidID)

	h, ok := SurfaceHeight(nil, m, at(1.5, 0, 1.5))
	if !ok {
		t.Fatal("Колонка внутри границ должна давать результат")
	}
	if h != world.CellSize {
		t.Errorf("Ожидалась высота %v (верхняя грань блока), получено %v", world.CellSize, h)
	}
}

func TestSurfaceHeightSkipsGaps(t *testing.T) {
	m, solidID := buildMap(t, 4, 6, 4)
	m.SetBlock(vec.Vec3{X: 2, Y: 0, Z: 2}, solidID)
	m.SetBlock(vec.Vec3{X: 2, Y: 3, Z: 2}, solidID)

	h, ok := SurfaceHeight(nil, m, at(2.5, 0, 2.5))
	if !ok {
		t.Fatal("Колонка внутри границ должна давать результат")
	}
	// Поверхность определяется самым высоким блокирующим блоком
	if h != 4*world.CellSize {
		t.Errorf("Ожидалась высота %v, получено %v", 4*world.CellSize, h)
	}
}

func TestSurfaceHeightIgnoresNonColliding(t *testing.T) {
	m, solidID := buildMap(t, 4, 4, 4)
	archID := m.Palette[solidID].ArchetypeID

	m.SetBlock(vec.Vec3{X: 1, Y: 0, Z: 1}, solidID)
	// Декоративный блок без коллизии выше поверхности
	m.SetBlock(vec.Vec3{X: 1, Y: 2, Z: 1}, archID)

	h, _ := SurfaceHeight(nil, m, at(1.5, 0, 1.5))
	if h != world.CellSize {
		t.Errorf("Блок без коллизии не должен влиять на поверхность: ожидалось %v, получено %v", world.CellSize, h)
	}
}

func TestSurfaceHeightDanglingPaletteRef(t *testing.T) {
	m, solidID := buildMap(t, 4, 4, 4)
	m.SetBlock(vec.Vec3{X: 1, Y: 0, Z: 1}, solidID)
	// Блок с битой ссылкой на палитру выше поверхности
	m.SetBlock(vec.Vec3{X: 1, Y: 2, Z: 1}, 999)

	h, ok := SurfaceHeight(nil, m, at(1.5, 0, 1.5))
	if !ok {
		t.Fatal("Битая ссылка не должна ломать запрос")
	}
	if h != world.CellSize {
		t.Errorf("Блок с битой ссылкой должен считаться пустым: ожидалось %v, получено %v", world.CellSize, h)
	}
}

func TestSurfaceHeightOutOfBounds(t *testing.T) {
	m, _ := buildMap(t, 4, 4, 4)

	if _, ok := SurfaceHeight(nil, m, at(-1, 0, 0)); ok {
		t.Error("Колонка вне границ не должна давать результат")
	}
	if _, ok := SurfaceHeight(nil, m, at(4.5, 0, 0)); ok {
		t.Error("Колонка за дальней границей не должна давать результат")
	}
}

func TestCanOccupyFreeAndBlocked(t *testing.T) {
	m, solidID := buildMap(t, 4, 4, 4)

	if !CanOccupy(nil, m, at(1.5, 1, 1.5), 2*world.CellSize) {
		t.Error("Свободный объём должен быть доступен")
	}

	// Блок на второй ячейке объёма
	m.SetBlock(vec.Vec3{X: 1, Y: 2, Z: 1}, solidID)
	if CanOccupy(nil, m, at(1.5, 1, 1.5), 2*world.CellSize) {
		t.Error("Объём с блокирующей ячейкой должен быть занят")
	}
	// Объём высотой в одну ячейку ниже блока свободен
	if !CanOccupy(nil, m, at(1.5, 1, 1.5), world.CellSize) {
		t.Error("Одна свободная ячейка должна быть доступна")
	}
}

func TestCanOccupyRoundsUpHeight(t *testing.T) {
	m, solidID := buildMap(t, 4, 4, 4)
	m.SetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}, solidID)

	// 1.2 ячейки округляется вверх до 2 - вторая ячейка занята
	if CanOccupy(nil, m, at(1.5, 0, 1.5), 1.2*world.CellSize) {
		t.Error("Дробная высота должна округляться вверх до целых ячеек")
	}
}

func TestCanOccupyOutOfBounds(t *testing.T) {
	m, _ := buildMap(t, 4, 4, 4)
	if CanOccupy(nil, m, at(-1, 0, 0), world.CellSize) {
		t.Error("Колонка вне границ должна считаться занятой")
	}
}

func TestCanStandInCell(t *testing.T) {
	m, solidID := buildMap(t, 4, 4, 4)
	m.SetBlock(vec.Vec3{X: 1, Y: 0, Z: 1}, solidID)

	if !CanStandInCell(nil, m, vec.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Error("Ячейка над блокирующим блоком должна иметь опору")
	}
	if CanStandInCell(nil, m, vec.Vec3{X: 0, Y: 1, Z: 0}) {
		t.Error("Ячейка над пустотой не должна иметь опоры")
	}
	if CanStandInCell(nil, m, vec.Vec3{X: 1, Y: 2, Z: 1}) {
		t.Error("Опора должна быть непосредственно под ячейкой")
	}
}

func TestCanTraverseStepHeight(t *testing.T) {
	m, solidID := buildMap(t, 6, 6, 6)
	// Колонка (1,1): поверхность 1 ячейка
	m.SetBlock(vec.Vec3{X: 1, Y: 0, Z: 1}, solidID)
	// Колонка (2,1): поверхность 3 ячейки
	for y := 0; y < 3; y++ {
		m.SetBlock(vec.Vec3{X: 2, Y: y, Z: 1}, solidID)
	}

	// Перепад 2 ячейки при шаге в 1 ячейку - нельзя
	if CanTraverse(nil, m, at(1.5, 0, 1.5), at(2.5, 0, 1.5), world.CellSize) {
		t.Error("Перепад выше maxStepHeight должен быть непроходим")
	}
	// С достаточным шагом - можно
	if !CanTraverse(nil, m, at(1.5, 0, 1.5), at(2.5, 0, 1.5), 2*world.CellSize) {
		t.Error("Перепад в пределах maxStepHeight должен быть проходим")
	}
	// Спуск симметричен подъёму
	if CanTraverse(nil, m, at(2.5, 0, 1.5), at(1.5, 0, 1.5), world.CellSize) {
		t.Error("Спуск выше maxStepHeight должен быть непроходим")
	}
}

func TestCanTraverseDefaultStep(t *testing.T) {
	m, solidID := buildMap(t, 6, 6, 6)
	m.SetBlock(vec.Vec3{X: 1, Y: 0, Z: 1}, solidID)

	// maxStepHeight <= 0 берётся из настроек (одна ячейка)
	if !CanTraverse(nil, m, at(0.5, 0, 1.5), at(1.5, 0, 1.5), 0) {
		t.Error("Перепад в одну ячейку должен быть проходим с шагом по умолчанию")
	}
}

func TestCanTraverseOutOfBounds(t *testing.T) {
	m, _ := buildMap(t, 4, 4, 4)

	if CanTraverse(nil, m, at(1.5, 0, 1.5), at(-1, 0, 1.5), world.CellSize) {
		t.Error("Шаг в колонку вне границ должен быть отклонён")
	}
	if CanTraverse(nil, m, at(-1, 0, 1.5), at(1.5, 0, 1.5), world.CellSize) {
		t.Error("Шаг из колонки вне границ должен быть отклонён")
	}
}

func TestCustomCellSize(t *testing.T) {
	m, solidID := buildMap(t, 4, 4, 4)
	m.SetBlock(vec.Vec3{X: 1, Y: 0, Z: 1}, solidID)

	cfg := &Config{CellSize: 2.0, MaxStepHeight: 2.0}

	// Мировая позиция (3.0, 0, 3.0) при ячейке 2.0 попадает в колонку (1,1)
	h, ok := SurfaceHeight(cfg, m, at(3.0, 0, 3.0))
	if !ok {
		t.Fatal("Колонка внутри границ должна давать результат")
	}
	if h != 2.0 {
		t.Errorf("Ожидалась высота 2.0 при ячейке 2.0, получено %v", h)
	}
}
