package eventbus

import (
	"encoding/json"
	"time"

	"github.com/annel0/blockmap/internal/vec"
	"github.com/annel0/blockmap/internal/world/block"
	"github.com/google/uuid"
)

// Типы событий редактирования карт
const (
	EventMapCreated      = "map.created"
	EventMapSaved        = "map.saved"
	EventMapDeleted      = "map.deleted"
	EventBlockPlaced     = "map.block_placed"
	EventBlockRemoved    = "map.block_removed"
	EventVariantCreated  = "map.variant_created"
	EventArchetypeEffect = "map.archetype_effect_set"
)

// MapEventPayload описывает событие уровня карты
type MapEventPayload struct {
	MapKey string `json:"map_key"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Depth  int    `json:"depth,omitempty"`
}

// BlockEventPayload описывает событие размещения/удаления блока
type BlockEventPayload struct {
	MapKey      string            `json:"map_key"`
	Cell        vec.Vec3          `json:"cell"`
	BlockTypeID block.BlockTypeID `json:"block_type_id,omitempty"`
}

// VariantEventPayload описывает появление нового варианта в палитре
type VariantEventPayload struct {
	MapKey      string            `json:"map_key"`
	ArchetypeID block.BlockTypeID `json:"archetype_id"`
	VariantID   block.BlockTypeID `json:"variant_id"`
	VariantKey  string            `json:"variant_key"`
}

// NewEnvelope собирает конверт события с сериализованным payload.
// Ошибки сериализации собственных структур невозможны, поэтому
// payload кодируется без возврата ошибки.
func NewEnvelope(eventType, source string, payload interface{}) *Envelope {
	data, _ := json.Marshal(payload)
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Priority:  3,
		Payload:   data,
	}
}
