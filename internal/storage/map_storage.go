package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/annel0/blockmap/internal/world"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// ErrMapNotFound возвращается при запросе несуществующей карты
var ErrMapNotFound = errors.New("карта не найдена")

const mapKeyPrefix = "map:"

// MapStorage представляет собой хранилище определений карт.
// Значения сжимаются zstd перед записью в BadgerDB.
type MapStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewMapStorage создает новое хранилище карт
func NewMapStorage(dataPath string) (*MapStorage, error) {
	dbPath := filepath.Join(dataPath, "maps")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	return &MapStorage{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Close закрывает хранилище данных
func (ms *MapStorage) Close() error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	if !ms.isReady {
		return nil
	}

	ms.isReady = false
	ms.encoder.Close()
	ms.decoder.Close()
	return ms.db.Close()
}

// SaveMap сохраняет определение карты под её ключом
func (ms *MapStorage) SaveMap(m *world.BlockMapDefinition) error {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	if !ms.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	if m.Key == "" {
		return fmt.Errorf("у карты отсутствует ключ")
	}

	data, err := EncodeMap(m)
	if err != nil {
		return err
	}

	compressed := ms.encoder.EncodeAll(data, nil)
	key := []byte(mapKeyPrefix + m.Key)

	err = ms.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, compressed)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	return nil
}

// LoadMap загружает карту по ключу.
// Палитра нормализуется внутри DecodeMap, поэтому вызывающий получает
// карту с восстановленными инвариантами архетипов.
func (ms *MapStorage) LoadMap(key string) (*world.BlockMapDefinition, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	if !ms.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var compressed []byte
	err := ms.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(mapKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			compressed = append([]byte{}, val...)
			return nil
		})
	})

	if err == badger.ErrKeyNotFound {
		return nil, ErrMapNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	data, err := ms.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки карты: %w", err)
	}

	return DecodeMap(data)
}

// DeleteMap удаляет карту из хранилища
func (ms *MapStorage) DeleteMap(key string) error {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	if !ms.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	err := ms.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(mapKeyPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	return nil
}

// ListMaps возвращает ключи всех сохранённых карт
func (ms *MapStorage) ListMaps() ([]string, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	if !ms.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var keys []string
	err := ms.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(mapKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), mapKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка перечисления карт: %w", err)
	}
	return keys, nil
}
