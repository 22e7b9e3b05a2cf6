package gen

import (
	"github.com/annel0/blockmap/internal/vec"
	"github.com/annel0/blockmap/internal/world"
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	noiseAlpha   = 2.0 // сглаживание шума
	noiseBeta    = 2.0 // частота шума
	noiseOctaves = 3   // количество октав
)

// Generator заполняет пустую карту стартовым рельефом, чтобы редактору
// было с чем работать: колонны твёрдых блоков с высотой по шуму Перлина.
type Generator struct {
	Seed       int64   // сид для генерации шума
	NoiseScale float64 // масштаб шума высот (меньше - плавнее рельеф)
	Amplitude  float64 // доля высоты карты, занимаемая рельефом (0..1)

	noise *perlin.Perlin
}

// NewGenerator создаёт генератор с настройками по умолчанию
func NewGenerator(seed int64) *Generator {
	return &Generator{
		Seed:       seed,
		NoiseScale: 0.1,
		Amplitude:  0.5,
		noise:      perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
	}
}

// Generate добавляет в карту архетип "Terrain", его коллизионный
// вариант и заполняет объём колоннами по карте высот. Точка спауна
// ставится на поверхность центральной колонки.
func (g *Generator) Generate(m *world.BlockMapDefinition) {
	archID := m.NewArchetype("Terrain", "models/terrain_block", "terrain")
	solidID, ok := m.GetOrCreateVariantID(archID, true)
	if !ok {
		return
	}

	for x := 0; x < m.Width; x++ {
		for z := 0; z < m.Depth; z++ {
			h := g.columnHeight(x, z, m.Height)
			for y := 0; y < h; y++ {
				m.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, solidID)
			}
		}
	}

	spawnX, spawnZ := m.Width/2, m.Depth/2
	m.AddObject(world.MapObject{
		Kind: "spawn",
		Name: "default",
		Cell: vec.Vec3{X: spawnX, Y: g.columnHeight(spawnX, spawnZ, m.Height), Z: spawnZ},
	})
}

// columnHeight возвращает высоту колонки в ячейках (минимум 1)
func (g *Generator) columnHeight(x, z, mapHeight int) int {
	// Noise2D возвращает значение в диапазоне [-1; 1]
	n := (g.noise.Noise2D(float64(x)*g.NoiseScale, float64(z)*g.NoiseScale) + 1.0) / 2.0

	h := int(n * g.Amplitude * float64(mapHeight))
	if h < 1 {
		h = 1
	}
	if h > mapHeight {
		h = mapHeight
	}
	return h
}
