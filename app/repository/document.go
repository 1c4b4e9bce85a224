package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

func loadDocument(ctx context.Context, store KVStore, key string, out interface{}) (bool, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, key, err)
	}
	return true, nil
}

func saveDocument(ctx context.Context, store KVStore, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, raw)
}
