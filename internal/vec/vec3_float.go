package vec

import "math"

// Vec3Float представляет позицию в мировых координатах
type Vec3Float struct {
	X, Y, Z float64
}

// FromVec3 создает Vec3Float из центра ячейки
func FromVec3(v Vec3, cellSize float64) Vec3Float {
	return Vec3Float{
		X: (float64(v.X) + 0.5) * cellSize,
		Y: (float64(v.Y) + 0.5) * cellSize,
		Z: (float64(v.Z) + 0.5) * cellSize,
	}
}

// WorldToCell преобразует мировую позицию в координаты ячейки.
// Каждая координата делится на размер ячейки с округлением вниз,
// поэтому отрицательные позиции попадают в отрицательные ячейки.
func WorldToCell(p Vec3Float, cellSize float64) Vec3 {
	return Vec3{
		X: int(math.Floor(p.X / cellSize)),
		Y: int(math.Floor(p.Y / cellSize)),
		Z: int(math.Floor(p.Z / cellSize)),
	}
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Mul умножает вектор на скаляр
func (v Vec3Float) Mul(scalar float64) Vec3Float {
	return Vec3Float{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// Length возвращает длину вектора
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec3Float) DistanceTo(other Vec3Float) float64 {
	return v.Sub(other).Length()
}
