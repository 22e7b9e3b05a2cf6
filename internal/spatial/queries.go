package spatial

import (
	"math"

	"github.com/annel0/blockmap/internal/vec"
	"github.com/annel0/blockmap/internal/world"
	"github.com/annel0/blockmap/internal/world/block"
)

// Запросы движка - чистые чтения над BlockMapDefinition. Карта при
// выполнении запроса не мутируется, поэтому несколько горутин могут
// опрашивать одну карту одновременно, пока никто её не редактирует.

// SurfaceHeight возвращает мировую высоту поверхности в колонке,
// содержащей позицию pos.
//
// Колонка сканируется сверху вниз; блокирующей считается ячейка, чей
// тип в палитре имеет коллизию Box. Блоки без коллизии и блоки с
// битой ссылкой на палитру пропускаются как пустые. Для колонки без
// блокирующих ячеек возвращается (0, true) - ровная земля. Для
// колонки вне границ карты возвращается (0, false).
func SurfaceHeight(cfg *Config, m *world.BlockMapDefinition, pos vec.Vec3Float) (float64, bool) {
	cfg = cfg.orDefault()

	cell := vec.WorldToCell(pos, cfg.CellSize)
	if !m.InBoundsColumn(cell.X, cell.Z) {
		return 0, false
	}

	for y := m.Height - 1; y >= 0; y-- {
		if isBlocking(m, vec.Vec3{X: cell.X, Y: y, Z: cell.Z}) {
			// Верхняя грань самой высокой блокирующей ячейки
			return float64(y+1) * cfg.CellSize, true
		}
	}
	return 0, true
}

// CanOccupy проверяет, свободен ли вертикальный объём высотой
// requiredHeight, начинающийся в ячейке позиции pos.
//
// Высота округляется вверх до целого числа ячеек, минимум одна.
// Колонка вне границ карты считается занятой.
func CanOccupy(cfg *Config, m *world.BlockMapDefinition, pos vec.Vec3Float, requiredHeight float64) bool {
	cfg = cfg.orDefault()

	cell := vec.WorldToCell(pos, cfg.CellSize)
	if !m.InBoundsColumn(cell.X, cell.Z) {
		return false
	}

	span := int(math.Ceil(requiredHeight / cfg.CellSize))
	if span < 1 {
		span = 1
	}

	for i := 0; i < span; i++ {
		if isBlocking(m, cell.WithY(cell.Y+i)) {
			return false
		}
	}
	return true
}

// CanStandInCell проверяет, есть ли у ячейки физическая опора:
// блокирующий блок непосредственно под ней. Стоять над пустотой нельзя.
func CanStandInCell(cfg *Config, m *world.BlockMapDefinition, cell vec.Vec3) bool {
	_ = cfg.orDefault()
	return isBlocking(m, cell.Down())
}

// CanTraverse проверяет, допустим ли одиночный шаг из стартовой
// колонки в целевую: перепад высот поверхностей не должен превышать
// maxStepHeight (при maxStepHeight <= 0 берётся значение из настроек).
//
// Свободное место в целевой колонке здесь не проверяется - это
// отдельная композируемая проверка CanOccupy.
func CanTraverse(cfg *Config, m *world.BlockMapDefinition, startPos, targetPos vec.Vec3Float, maxStepHeight float64) bool {
	cfg = cfg.orDefault()
	if maxStepHeight <= 0 {
		maxStepHeight = cfg.MaxStepHeight
	}

	startHeight, ok := SurfaceHeight(cfg, m, startPos)
	if !ok {
		return false
	}
	targetHeight, ok := SurfaceHeight(cfg, m, targetPos)
	if !ok {
		return false
	}

	return math.Abs(targetHeight-startHeight) <= maxStepHeight
}

// isBlocking возвращает true, если в ячейке размещён блок с коллизией.
// Блок, чей BlockTypeID отсутствует в палитре, считается пустым:
// одна битая ссылка не должна делать карту неопрашиваемой.
func isBlocking(m *world.BlockMapDefinition, cell vec.Vec3) bool {
	pb, ok := m.GetBlock(cell)
	if !ok {
		return false
	}
	bt, ok := m.BlockTypeByID(pb.BlockTypeID)
	if !ok {
		return false
	}
	return bt.CollisionType == block.CollisionBox
}
