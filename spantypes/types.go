/*
Generic structured values shared by every codec.

Codecs never work on application object graphs directly. They read and produce values
built from:

• nil, bool, string, int64, float64, time.Time and BinData / []byte scalars

• []interface{} ordered lists

• *ObjectMap ordered maps with string keys

Plain Go maps with string keys, typed slices, other numeric kinds and pointers are
accepted on input and read through Entries(), Elements() and Indirect(). Plain maps
are walked in sorted key order so output stays deterministic.
*/
package spantypes

import (
	"reflect"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/xerrors"
)

// BinData is used to hold raw binary blob information for structs that need to support
// encoding to and from JSON / BSON. The json encoder will hexify this data for
// transport, while BSON will transform it to a BSON Binary primitive.
type BinData []byte

// ObjectMap is an insertion-ordered map with string keys.
type ObjectMap = orderedmap.OrderedMap[string, interface{}]

// NewObjectMap returns an empty ObjectMap.
func NewObjectMap() *ObjectMap {
	return orderedmap.New[string, interface{}]()
}

// MapOf builds an ObjectMap from alternating keys and values. It panics on an odd
// argument count or a non-string key, so it is meant for literals.
func MapOf(keyValues ...interface{}) *ObjectMap {
	if len(keyValues)%2 != 0 {
		panic(xerrors.New("MapOf requires key/value pairs"))
	}
	objectMap := NewObjectMap()
	for index := 0; index < len(keyValues); index += 2 {
		key, ok := keyValues[index].(string)
		if !ok {
			panic(xerrors.Errorf("MapOf key %v is not a string", keyValues[index]))
		}
		objectMap.Set(key, keyValues[index+1])
	}
	return objectMap
}

// Entry is one key/value pair of a map-like value.
type Entry struct {
	Key   string
	Value interface{}
}

// Indirect follows pointers and interfaces down to the underlying value. A nil
// pointer yields nil. *ObjectMap is returned as-is.
func Indirect(value interface{}) interface{} {
	for {
		switch value.(type) {
		case nil, *ObjectMap:
			return value
		}

		reflected := reflect.ValueOf(value)
		if reflected.Kind() != reflect.Ptr && reflected.Kind() != reflect.Interface {
			return value
		}
		if reflected.IsNil() {
			return nil
		}
		value = reflected.Elem().Interface()
	}
}

// Entries returns the key/value pairs of an *ObjectMap or a string-keyed Go map.
// ObjectMaps keep insertion order; Go maps are sorted by key.
func Entries(value interface{}) ([]Entry, bool) {
	value = Indirect(value)

	if objectMap, ok := value.(*ObjectMap); ok {
		if objectMap == nil {
			return nil, true
		}
		entries := make([]Entry, 0, objectMap.Len())
		for pair := objectMap.Oldest(); pair != nil; pair = pair.Next() {
			entries = append(entries, Entry{Key: pair.Key, Value: pair.Value})
		}
		return entries, true
	}

	reflected := reflect.ValueOf(value)
	if !reflected.IsValid() || reflected.Kind() != reflect.Map ||
		reflected.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	entries := make([]Entry, 0, reflected.Len())
	iterator := reflected.MapRange()
	for iterator.Next() {
		entries = append(entries, Entry{
			Key:   iterator.Key().String(),
			Value: iterator.Value().Interface(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, true
}

// Elements returns the items of a slice or array. Byte slices are scalars, not lists.
func Elements(value interface{}) ([]interface{}, bool) {
	value = Indirect(value)

	switch typed := value.(type) {
	case []interface{}:
		return typed, true
	case []byte, BinData:
		return nil, false
	}

	reflected := reflect.ValueOf(value)
	if !reflected.IsValid() {
		return nil, false
	}
	if reflected.Kind() != reflect.Slice && reflected.Kind() != reflect.Array {
		return nil, false
	}

	elements := make([]interface{}, reflected.Len())
	for index := range elements {
		elements[index] = reflected.Index(index).Interface()
	}
	return elements, true
}

// IsMap reports whether value is map-like.
func IsMap(value interface{}) bool {
	_, ok := Entries(value)
	return ok
}

// IsList reports whether value is list-like.
func IsList(value interface{}) bool {
	_, ok := Elements(value)
	return ok
}
