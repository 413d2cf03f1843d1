package ldc

import (
	"bytes"
	"encoding/gob"
	"hash/fnv"
	"io"
	"reflect"
	"strings"
	"sync"
)

// Codec converts cached values to stored bytes and back.
type Codec[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// GobCodec encodes values with encoding/gob.
//
// Interface values must have their concrete types registered with GobRegister.
type GobCodec[V any] struct{}

var _ Codec[int] = GobCodec[int]{}

type gobEnvelope[V any] struct {
	Value V
}

// Marshal encodes value.
func (GobCodec[V]) Marshal(v V) ([]byte, error) {
	buf := bytes.Buffer{}

	if err := gob.NewEncoder(&buf).Encode(gobEnvelope[V]{Value: v}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes value.
func (GobCodec[V]) Unmarshal(data []byte) (V, error) {
	e := gobEnvelope[V]{}

	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&e)

	return e.Value, err
}

var gobTypes struct {
	sync.Mutex
	hash uint64
}

// GobTypesHash returns a fingerprint of registered types.
//
// Stores can keep it next to persisted data to detect incompatible schema changes.
func GobTypesHash() uint64 {
	gobTypes.Lock()
	defer gobTypes.Unlock()

	return gobTypes.hash
}

// GobRegister enables transfer of values behind interfaces.
func GobRegister(values ...interface{}) {
	gobTypes.Lock()
	defer gobTypes.Unlock()

	for _, value := range values {
		h := fnv.New64()
		t := reflect.TypeOf(value)
		_, _ = h.Write([]byte(t.PkgPath() + t.String())) //nolint:errcheck // fnv.Write never fails.
		typeHash(t, h, map[reflect.Type]bool{})
		gobTypes.hash ^= h.Sum64()

		gob.Register(value)
	}
}

// typeHash feeds exported structure of a type into h.
func typeHash(t reflect.Type, h io.Writer, met map[reflect.Type]bool) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if met[t] {
		return
	}

	met[t] = true

	switch t.Kind() {
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)

			if f.Name != "" && f.Name[0:1] == strings.ToLower(f.Name[0:1]) {
				continue
			}

			if !f.Anonymous {
				_, _ = h.Write([]byte(f.Name)) //nolint:errcheck // fnv.Write never fails.
			}

			typeHash(f.Type, h, met)
		}
	case reflect.Slice, reflect.Array:
		typeHash(t.Elem(), h, met)
	case reflect.Map:
		typeHash(t.Key(), h, met)
		typeHash(t.Elem(), h, met)
	default:
		_, _ = h.Write([]byte(t.String())) //nolint:errcheck // fnv.Write never fails.
	}
}
