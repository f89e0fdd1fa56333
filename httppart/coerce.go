package httppart

import (
	"reflect"
	"strconv"
	"time"

	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	"golang.org/x/xerrors"
)

var (
	timeType      = reflect.TypeOf(time.Time{})
	objectMapType = reflect.TypeOf(spantypes.ObjectMap{})
)

func targetName(target interface{}) string {
	targetType := reflect.TypeOf(target)
	if targetType == nil {
		return "nil"
	}
	if targetType.Kind() == reflect.Ptr {
		targetType = targetType.Elem()
	}
	return targetType.String()
}

// Store copies a structured value into the pointer target, converting scalars and
// containers the same way Parse does. Body codecs without a native typed decoder use
// it to fill typed receivers.
func Store(value interface{}, target interface{}) error {
	return coerce(value, target)
}

// Stores a decoded structured value into the pointer target.
func coerce(value interface{}, target interface{}) error {
	pointer := reflect.ValueOf(target)
	if pointer.Kind() != reflect.Ptr || pointer.IsNil() {
		return xerrors.Errorf("target must be a non-nil pointer, got %T", target)
	}
	return coerceValue(value, pointer.Elem())
}

func coerceValue(value interface{}, destination reflect.Value) error {
	if value == nil {
		destination.Set(reflect.Zero(destination.Type()))
		return nil
	}

	if destination.Kind() == reflect.Interface && destination.NumMethod() == 0 {
		destination.Set(reflect.ValueOf(value))
		return nil
	}

	reflected := reflect.ValueOf(value)
	if reflected.Type().AssignableTo(destination.Type()) {
		destination.Set(reflected)
		return nil
	}

	switch destination.Kind() {
	case reflect.Ptr:
		if destination.IsNil() {
			destination.Set(reflect.New(destination.Type().Elem()))
		}
		return coerceValue(value, destination.Elem())
	case reflect.String:
		return coerceString(value, destination)
	case reflect.Bool:
		boolean, ok := toBool(value)
		if !ok {
			return cannotStore(value, destination)
		}
		destination.SetBool(boolean)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		integer, ok := toInt64(value)
		if !ok || destination.OverflowInt(integer) {
			return cannotStore(value, destination)
		}
		destination.SetInt(integer)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		integer, ok := toInt64(value)
		if !ok || integer < 0 || destination.OverflowUint(uint64(integer)) {
			return cannotStore(value, destination)
		}
		destination.SetUint(uint64(integer))
		return nil
	case reflect.Float32, reflect.Float64:
		number, ok := toFloat64(value)
		if !ok || destination.OverflowFloat(number) {
			return cannotStore(value, destination)
		}
		destination.SetFloat(number)
		return nil
	case reflect.Struct:
		return coerceStruct(value, destination)
	case reflect.Slice:
		return coerceSlice(value, destination)
	case reflect.Array:
		return coerceArray(value, destination)
	case reflect.Map:
		return coerceMap(value, destination)
	}
	return cannotStore(value, destination)
}

func cannotStore(value interface{}, destination reflect.Value) error {
	return xerrors.Errorf("cannot store %T in %v", value, destination.Type())
}

func coerceString(value interface{}, destination reflect.Value) error {
	switch typed := value.(type) {
	case []byte:
		destination.SetString(string(typed))
		return nil
	case *spantypes.ObjectMap, []interface{}:
		return cannotStore(value, destination)
	}
	destination.SetString(scalarString(value))
	return nil
}

func coerceStruct(value interface{}, destination reflect.Value) error {
	switch destination.Type() {
	case timeType:
		switch typed := value.(type) {
		case time.Time:
			destination.Set(reflect.ValueOf(typed))
			return nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, typed)
			if err != nil {
				parsed, err = time.Parse(dateLayout, typed)
			}
			if err != nil {
				return cannotStore(value, destination)
			}
			destination.Set(reflect.ValueOf(parsed))
			return nil
		}
	case objectMapType:
		entries, ok := spantypes.Entries(value)
		if !ok {
			return cannotStore(value, destination)
		}
		objectMap := destination.Addr().Interface().(*spantypes.ObjectMap)
		*objectMap = *spantypes.NewObjectMap()
		for _, entry := range entries {
			objectMap.Set(entry.Key, entry.Value)
		}
		return nil
	}
	return cannotStore(value, destination)
}

func coerceSlice(value interface{}, destination reflect.Value) error {
	if destination.Type().Elem().Kind() == reflect.Uint8 {
		switch typed := value.(type) {
		case []byte:
			destination.SetBytes(append([]byte(nil), typed...))
			return nil
		case spantypes.BinData:
			destination.SetBytes(append([]byte(nil), typed...))
			return nil
		case string:
			destination.SetBytes([]byte(typed))
			return nil
		}
	}

	elements, ok := spantypes.Elements(value)
	if !ok {
		elements = []interface{}{value}
	}

	slice := reflect.MakeSlice(destination.Type(), len(elements), len(elements))
	for index, element := range elements {
		if err := coerceValue(element, slice.Index(index)); err != nil {
			return xerrors.Errorf("item %v: %w", strconv.Itoa(index), err)
		}
	}
	destination.Set(slice)
	return nil
}

func coerceArray(value interface{}, destination reflect.Value) error {
	elements, ok := spantypes.Elements(value)
	if !ok {
		elements = []interface{}{value}
	}
	if len(elements) > destination.Len() {
		return xerrors.Errorf(
			"%v items do not fit in %v", len(elements), destination.Type(),
		)
	}

	for index, element := range elements {
		if err := coerceValue(element, destination.Index(index)); err != nil {
			return xerrors.Errorf("item %v: %w", strconv.Itoa(index), err)
		}
	}
	return nil
}

func coerceMap(value interface{}, destination reflect.Value) error {
	if destination.Type().Key().Kind() != reflect.String {
		return cannotStore(value, destination)
	}
	entries, ok := spantypes.Entries(value)
	if !ok {
		return cannotStore(value, destination)
	}

	mapType := destination.Type()
	result := reflect.MakeMapWithSize(mapType, len(entries))
	for _, entry := range entries {
		element := reflect.New(mapType.Elem()).Elem()
		if err := coerceValue(entry.Value, element); err != nil {
			return xerrors.Errorf("key %v: %w", entry.Key, err)
		}
		key := reflect.ValueOf(entry.Key).Convert(mapType.Key())
		result.SetMapIndex(key, element)
	}
	destination.Set(result)
	return nil
}
