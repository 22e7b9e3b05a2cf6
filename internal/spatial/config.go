package spatial

import "github.com/annel0/blockmap/internal/world"

// Config содержит настройки движения и коллизий для запросов.
// Нулевой указатель в любом запросе означает правила по умолчанию.
type Config struct {
	CellSize      float64 // размер ячейки в мировых единицах
	MaxStepHeight float64 // максимальная высота одиночного шага
}

// DefaultConfig возвращает настройки по умолчанию
func DefaultConfig() *Config {
	return &Config{
		CellSize:      world.CellSize,
		MaxStepHeight: world.CellSize,
	}
}

// orDefault подставляет настройки по умолчанию вместо nil
func (c *Config) orDefault() *Config {
	if c == nil {
		return DefaultConfig()
	}
	return c
}
