package proxy

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/goliatone/go-repository-proxy/metadata"
	"github.com/goliatone/go-repository-proxy/store"
)

// KeySeparator defines the delimiter between the type and identifier segments of a key.
const KeySeparator = "::"

// Key identifies an entity within a session. Type is the hierarchy root, so a reference to a
// Customer and the DomesticCustomer it turns out to be share one key.
type Key struct {
	Type string
	ID   any
}

// NewKey builds the key of the entity of type t identified by id.
func NewKey(t *metadata.EntityType, id any) Key {
	return Key{Type: t.Root().Name(), ID: store.NormalizeValue(id)}
}

// String renders a stable form of the key, used to index the identity map.
func (k Key) String() string {
	return k.Type + KeySeparator + formatIdentifier(k.ID)
}

// Equal reports whether both keys name the same entity.
func (k Key) Equal(other Key) bool {
	return k.String() == other.String()
}

// formatIdentifier renders identifiers deterministically, prefixed by their normalized type so
// that 1 and "1" never share a key. Composite identifiers (structs, slices) fall back to JSON.
func formatIdentifier(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "nil"
		}
		return formatIdentifier(rv.Elem().Interface())
	}

	switch rv.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		n := store.NormalizeValue(v)
		return fmt.Sprintf("%T:%v", n, n)
	}

	if s, ok := v.(fmt.Stringer); ok {
		return fmt.Sprintf("%T:%s", v, s.String())
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "fallback:" + reflect.TypeOf(v).String()
	}
	return "json:" + strings.TrimSpace(string(data))
}
