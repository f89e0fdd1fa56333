package encoding

import (
	"io"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	"github.com/illuscio-dev/spanmarshal-go/uon"
	"golang.org/x/xerrors"
)

// Key used for a body that is a single scalar instead of a map.
const urlEncodingValueKey = "_value"

/*
URLEncodingCodec reads and writes application/x-www-form-urlencoded bodies. Each
top-level map entry becomes one key=value pair with the value written as UON, so
nested maps and lists survive:

	name=John&tags=@(a,b)&address=(city=Paris)

Lists use their indexes as keys and scalars are written under the "_value" key.
*/
type URLEncodingCodec struct{}

func NewURLEncodingCodec() *URLEncodingCodec {
	return &URLEncodingCodec{}
}

func (urlCodec *URLEncodingCodec) MediaTypes() []mimetype.MediaType {
	return []mimetype.MediaType{mimetype.URLENCODING}
}

func (urlCodec *URLEncodingCodec) Serialize(
	session *SerializerSession, writer io.Writer, content interface{},
) error {
	content = spantypes.Indirect(content)
	if content == nil {
		return nil
	}

	entries, ok := spantypes.Entries(content)
	if !ok {
		if elements, isList := spantypes.Elements(content); isList {
			entries = make([]spantypes.Entry, len(elements))
			for index, element := range elements {
				entries[index] = spantypes.Entry{Key: strconv.Itoa(index), Value: element}
			}
		} else {
			entries = []spantypes.Entry{{Key: urlEncodingValueKey, Value: content}}
		}
	}

	pairs := make([]string, len(entries))
	for index, entry := range entries {
		value, err := uon.Marshal(entry.Value)
		if err != nil {
			return xerrors.Errorf("key %v: %w", entry.Key, err)
		}
		pairs[index] = url.QueryEscape(entry.Key) + "=" + url.QueryEscape(value)
	}

	_, err := io.WriteString(writer, strings.Join(pairs, "&"))
	return err
}

func (urlCodec *URLEncodingCodec) Parse(
	session *ParserSession, reader io.Reader, receiver interface{},
) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	objectMap := spantypes.NewObjectMap()
	for _, pair := range strings.Split(strings.TrimSpace(string(data)), "&") {
		if pair == "" {
			continue
		}

		rawKey, rawValue, hasValue := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return xerrors.Errorf("key %q: %w", rawKey, err)
		}
		if !hasValue {
			objectMap.Set(key, nil)
			continue
		}

		text, err := url.QueryUnescape(rawValue)
		if err != nil {
			return xerrors.Errorf("key %v: %w", key, err)
		}
		value, err := uon.Unmarshal(text)
		if err != nil {
			return xerrors.Errorf("key %v: %w", key, err)
		}
		objectMap.Set(key, value)
	}

	if value, ok := objectMap.Get(urlEncodingValueKey); ok && objectMap.Len() == 1 {
		return storeStructured(value, receiver)
	}
	if wantsList(receiver) {
		if list, ok := indexedList(objectMap); ok {
			return storeStructured(list, receiver)
		}
	}
	return storeStructured(objectMap, receiver)
}

func wantsList(receiver interface{}) bool {
	receiverType := reflect.TypeOf(receiver)
	if receiverType == nil || receiverType.Kind() != reflect.Ptr {
		return false
	}
	kind := receiverType.Elem().Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

// Returns the values of a map keyed "0", "1", ... in order.
func indexedList(objectMap *spantypes.ObjectMap) ([]interface{}, bool) {
	list := make([]interface{}, 0, objectMap.Len())
	for pair := objectMap.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key != strconv.Itoa(len(list)) {
			return nil, false
		}
		list = append(list, pair.Value)
	}
	return list, true
}
