package encoding

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/illuscio-dev/spanmarshal-go/httppart"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	uuid "github.com/satori/go.uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

var (
	interfacePointerType = reflect.TypeOf((*interface{})(nil))
	objectMapPointerType = reflect.TypeOf((*spantypes.ObjectMap)(nil))
)

// Receivers the generic structured model is decoded into instead of the codec's own
// typed decoding.
func isStructuredReceiver(receiver interface{}) bool {
	receiverType := reflect.TypeOf(receiver)
	return receiverType == interfacePointerType || receiverType == objectMapPointerType
}

// Builds the codec specific ordered representation of a map.
type orderedBuilder func(entries []spantypes.Entry) interface{}

// Replaces every ObjectMap found in nested lists and maps by the value build returns,
// so codecs that only understand their own ordered type keep insertion order. Other
// values are returned untouched.
func withOrderedMaps(value interface{}, build orderedBuilder) interface{} {
	switch typed := value.(type) {
	case *spantypes.ObjectMap:
		if typed == nil {
			return nil
		}
		return buildOrdered(typed, build)
	case spantypes.ObjectMap:
		return buildOrdered(&typed, build)
	case []interface{}:
		converted := make([]interface{}, len(typed))
		for index, element := range typed {
			converted[index] = withOrderedMaps(element, build)
		}
		return converted
	case map[string]interface{}:
		converted := make(map[string]interface{}, len(typed))
		for key, element := range typed {
			converted[key] = withOrderedMaps(element, build)
		}
		return converted
	}
	return value
}

func buildOrdered(objectMap *spantypes.ObjectMap, build orderedBuilder) interface{} {
	entries, _ := spantypes.Entries(objectMap)
	for index := range entries {
		entries[index].Value = withOrderedMaps(entries[index].Value, build)
	}
	return build(entries)
}

/*
Converts the result of a codec's untyped decode into the generic structured model:

• maps become *ObjectMap, keeping the order of ordered inputs (yaml.MapSlice, bson.D)
and sorting plain Go maps by key

• lists become []interface{}

• integers become int64, floats float64

• bson binaries become BinData, or uuid.UUID for subtype 0x3, and bson datetimes
time.Time
*/
func toStructured(value interface{}) interface{} {
	switch typed := value.(type) {
	case nil, bool, string, int64, float64, time.Time, spantypes.BinData, uuid.UUID:
		return value
	case *spantypes.ObjectMap:
		return typed
	case int:
		return int64(typed)
	case int8:
		return int64(typed)
	case int16:
		return int64(typed)
	case int32:
		return int64(typed)
	case uint:
		return unsignedStructured(uint64(typed))
	case uint8:
		return int64(typed)
	case uint16:
		return int64(typed)
	case uint32:
		return int64(typed)
	case uint64:
		return unsignedStructured(typed)
	case float32:
		return float64(typed)
	case []byte:
		return spantypes.BinData(typed)
	case []interface{}:
		return structuredList(typed)
	case primitive.A:
		return structuredList(typed)
	case map[string]interface{}:
		objectMap := spantypes.NewObjectMap()
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			objectMap.Set(key, toStructured(typed[key]))
		}
		return objectMap
	case map[interface{}]interface{}:
		converted := make(map[string]interface{}, len(typed))
		for key, element := range typed {
			converted[fmt.Sprint(key)] = element
		}
		return toStructured(converted)
	case primitive.M:
		return toStructured(map[string]interface{}(typed))
	case yaml.MapSlice:
		objectMap := spantypes.NewObjectMap()
		for _, item := range typed {
			objectMap.Set(fmt.Sprint(item.Key), toStructured(item.Value))
		}
		return objectMap
	case primitive.D:
		objectMap := spantypes.NewObjectMap()
		for _, element := range typed {
			objectMap.Set(element.Key, toStructured(element.Value))
		}
		return objectMap
	case primitive.Binary:
		if typed.Subtype == 0x3 {
			if parsed, err := uuid.FromBytes(typed.Data); err == nil {
				return parsed
			}
		}
		return spantypes.BinData(typed.Data)
	case primitive.DateTime:
		milliseconds := int64(typed)
		return time.Unix(
			milliseconds/1000, (milliseconds%1000)*int64(time.Millisecond),
		).UTC()
	case primitive.ObjectID:
		return typed.Hex()
	}
	return value
}

func unsignedStructured(value uint64) interface{} {
	if value > math.MaxInt64 {
		return float64(value)
	}
	return int64(value)
}

func structuredList(list []interface{}) []interface{} {
	converted := make([]interface{}, len(list))
	for index, element := range list {
		converted[index] = toStructured(element)
	}
	return converted
}

// Stores a decoded value in receiver: the structured model for *interface{} and
// *ObjectMap receivers, httppart coercion for anything else.
func storeStructured(value interface{}, receiver interface{}) error {
	value = toStructured(value)

	switch typed := receiver.(type) {
	case *interface{}:
		*typed = value
		return nil
	case *spantypes.ObjectMap:
		objectMap, ok := value.(*spantypes.ObjectMap)
		if !ok {
			return xerrors.Errorf("cannot decode %T into an object map", value)
		}
		*typed = *objectMap
		return nil
	}

	return httppart.Store(value, receiver)
}
