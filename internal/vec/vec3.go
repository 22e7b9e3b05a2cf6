package vec

// Vec3 представляет координаты ячейки карты (целочисленная сетка)
type Vec3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Down возвращает ячейку непосредственно под текущей
func (v Vec3) Down() Vec3 {
	return Vec3{X: v.X, Y: v.Y - 1, Z: v.Z}
}

// Up возвращает ячейку непосредственно над текущей
func (v Vec3) Up() Vec3 {
	return Vec3{X: v.X, Y: v.Y + 1, Z: v.Z}
}

// WithY возвращает копию вектора с заменённой координатой Y
func (v Vec3) WithY(y int) Vec3 {
	return Vec3{X: v.X, Y: y, Z: v.Z}
}
