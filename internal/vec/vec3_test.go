package vec

import "testing"

func TestWorldToCellFloor(t *testing.T) {
	cases := []struct {
		pos      Vec3Float
		cellSize float64
		want     Vec3
	}{
		{Vec3Float{X: 0.5, Y: 0.5, Z: 0.5}, 1.0, Vec3{X: 0, Y: 0, Z: 0}},
		{Vec3Float{X: 1.0, Y: 2.0, Z: 3.0}, 1.0, Vec3{X: 1, Y: 2, Z: 3}},
		{Vec3Float{X: 1.99, Y: 0, Z: 0}, 1.0, Vec3{X: 1, Y: 0, Z: 0}},
		// Отрицательные позиции округляются вниз, а не к нулю
		{Vec3Float{X: -0.5, Y: -1.5, Z: -2.0}, 1.0, Vec3{X: -1, Y: -2, Z: -2}},
		{Vec3Float{X: 3.0, Y: 0, Z: 5.0}, 2.0, Vec3{X: 1, Y: 0, Z: 2}},
	}

	for _, c := range cases {
		got := WorldToCell(c.pos, c.cellSize)
		if !got.Equals(c.want) {
			t.Errorf("WorldToCell(%+v, %v): ожидалось %+v, получено %+v", c.pos, c.cellSize, c.want, got)
		}
	}
}

func TestFromVec3CellCenter(t *testing.T) {
	p := FromVec3(Vec3{X: 2, Y: 0, Z: -1}, 1.0)
	want := Vec3Float{X: 2.5, Y: 0.5, Z: -0.5}
	if p != want {
		t.Errorf("Ожидался центр ячейки %+v, получено %+v", want, p)
	}

	// Центр ячейки всегда попадает обратно в ту же ячейку
	cells := []Vec3{{X: 0, Y: 0, Z: 0}, {X: 3, Y: 7, Z: 2}, {X: -2, Y: 1, Z: -5}}
	for _, cell := range cells {
		if got := WorldToCell(FromVec3(cell, 1.0), 1.0); !got.Equals(cell) {
			t.Errorf("Round-trip ячейки %+v дал %+v", cell, got)
		}
	}
}

func TestVec3Neighbors(t *testing.T) {
	v := Vec3{X: 1, Y: 2, Z: 3}

	if got := v.Down(); !got.Equals(Vec3{X: 1, Y: 1, Z: 3}) {
		t.Errorf("Down: получено %+v", got)
	}
	if got := v.Up(); !got.Equals(Vec3{X: 1, Y: 3, Z: 3}) {
		t.Errorf("Up: получено %+v", got)
	}
	if got := v.WithY(0); !got.Equals(Vec3{X: 1, Y: 0, Z: 3}) {
		t.Errorf("WithY: получено %+v", got)
	}
	if got := v.Add(Vec3{X: 1, Y: 1, Z: 1}); !got.Equals(Vec3{X: 2, Y: 3, Z: 4}) {
		t.Errorf("Add: получено %+v", got)
	}
}

func TestVec3FloatDistance(t *testing.T) {
	a := Vec3Float{X: 0, Y: 0, Z: 0}
	b := Vec3Float{X: 3, Y: 4, Z: 0}
	if d := a.DistanceTo(b); d != 5 {
		t.Errorf("Ожидалось расстояние 5, получено %v", d)
	}
}
