package repositories

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const (
	// PostKeyPrefix prefixes every stored post. Ids are zero padded so that
	// badger's lexical key order is also numeric id order.
	PostKeyPrefix = "post:"

	// PostSeqKey holds the last id handed out. It only ever grows, so deleted
	// ids are never reused.
	PostSeqKey = "seq:post"

	idWidth = 20
)

func postKey(id int) []byte {
	if id < 0 {
		id = 0
	}
	return []byte(fmt.Sprintf("%s%0*d", PostKeyPrefix, idWidth, id))
}

func idFromKey(key []byte) (int, error) {
	raw := strings.TrimPrefix(string(key), PostKeyPrefix)
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("malformed post key %q: %w", key, err)
	}
	return id, nil
}

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (int, error) {
	var id uint64
	item, err := txn.Get([]byte(seqKey))
	if err == badger.ErrKeyNotFound {
		id = 1
	} else if err != nil {
		return 0, fmt.Errorf("failed to get sequence: %w", err)
	} else {
		err = item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("failed to parse sequence: %d bytes", len(val))
			}
			id = binary.BigEndian.Uint64(val) + 1
			return nil
		})
		if err != nil {
			return 0, err
		}
	}

	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, id)
	if err := txn.Set([]byte(seqKey), idBytes); err != nil {
		return 0, fmt.Errorf("failed to update sequence: %w", err)
	}

	return int(id), nil
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}
