package encoding

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	uuid "github.com/satori/go.uuid"
	"golang.org/x/xerrors"
)

// Element and attribute names of the structured XML representation.
const (
	xmlTypeAttr  = "_type"
	xmlNameAttr  = "_name"
	xmlEntryName = "_entry"

	xmlObject  = "object"
	xmlArray   = "array"
	xmlString  = "string"
	xmlNumber  = "number"
	xmlBoolean = "boolean"
	xmlNull    = "null"
	xmlStruct  = "struct"
)

/*
XMLCodec reads and writes text/xml. Go structs go through encoding/xml as usual.
Structured values are written with one element per value:

	<object><name>John</name><age _type="number">21</age><tags _type="array">
	<string>a</string></tags></object>

Root and list elements are named after their type. Map entries are named after their
key, or "_entry" with a "_name" attribute when the key is not a valid XML name, and
carry a "_type" attribute unless they hold a string.
*/
type XMLCodec struct{}

func NewXMLCodec() *XMLCodec {
	return &XMLCodec{}
}

func (xmlCodec *XMLCodec) MediaTypes() []mimetype.MediaType {
	return []mimetype.MediaType{mimetype.XML, mimetype.Parse("application/xml")}
}

func (xmlCodec *XMLCodec) Serialize(
	session *SerializerSession, writer io.Writer, content interface{},
) error {
	if _, err := io.WriteString(writer, xml.Header); err != nil {
		return err
	}

	encoder := xml.NewEncoder(writer)
	value := spantypes.Indirect(content)
	typeName := xmlType(value)
	if typeName == xmlStruct {
		return encoder.Encode(content)
	}

	start := xml.StartElement{Name: xml.Name{Local: typeName}}
	if err := writeXMLElement(encoder, start, value, false); err != nil {
		return err
	}
	return encoder.Flush()
}

func xmlType(value interface{}) string {
	switch value.(type) {
	case nil:
		return xmlNull
	case string, time.Time, []byte, spantypes.BinData, uuid.UUID:
		return xmlString
	case bool:
		return xmlBoolean
	case *spantypes.ObjectMap, spantypes.ObjectMap:
		return xmlObject
	}
	if spantypes.IsMap(value) {
		return xmlObject
	}
	if spantypes.IsList(value) {
		return xmlArray
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return xmlNumber
	case reflect.Struct:
		return xmlStruct
	}
	return xmlString
}

func xmlText(value interface{}) string {
	switch typed := value.(type) {
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case time.Time:
		return typed.Format(time.RFC3339Nano)
	case []byte:
		return base64.StdEncoding.EncodeToString(typed)
	case spantypes.BinData:
		return base64.StdEncoding.EncodeToString(typed)
	}

	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(reflected.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(reflected.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(reflected.Float(), 'g', -1, 64)
	}
	return fmt.Sprint(value)
}

func validXMLName(name string) bool {
	if name == "" || strings.HasPrefix(strings.ToLower(name), "xml") {
		return false
	}
	for index, char := range name {
		switch {
		case unicode.IsLetter(char) || char == '_':
		case index > 0 && (unicode.IsDigit(char) || char == '-' || char == '.'):
		default:
			return false
		}
	}
	return true
}

func entryElement(key string) xml.StartElement {
	if validXMLName(key) {
		return xml.StartElement{Name: xml.Name{Local: key}}
	}
	return xml.StartElement{
		Name: xml.Name{Local: xmlEntryName},
		Attr: []xml.Attr{{Name: xml.Name{Local: xmlNameAttr}, Value: key}},
	}
}

// Writes value as start. typed adds the _type attribute for non-string values.
func writeXMLElement(
	encoder *xml.Encoder, start xml.StartElement, value interface{}, typed bool,
) error {
	value = spantypes.Indirect(value)
	if objectMap, ok := value.(spantypes.ObjectMap); ok {
		value = &objectMap
	}
	typeName := xmlType(value)

	if typed && typeName != xmlString {
		attrType := typeName
		if typeName == xmlStruct {
			attrType = xmlObject
		}
		start.Attr = append(start.Attr, xml.Attr{
			Name: xml.Name{Local: xmlTypeAttr}, Value: attrType,
		})
	}

	if typeName == xmlStruct {
		return encoder.EncodeElement(value, start)
	}
	if err := encoder.EncodeToken(start); err != nil {
		return err
	}

	switch typeName {
	case xmlObject:
		entries, _ := spantypes.Entries(value)
		for _, entry := range entries {
			if err := writeXMLElement(encoder, entryElement(entry.Key), entry.Value, true); err != nil {
				return err
			}
		}
	case xmlArray:
		elements, _ := spantypes.Elements(value)
		for _, element := range elements {
			name := xmlType(spantypes.Indirect(element))
			if name == xmlStruct {
				name = xmlObject
			}
			child := xml.StartElement{Name: xml.Name{Local: name}}
			if err := writeXMLElement(encoder, child, element, false); err != nil {
				return err
			}
		}
	case xmlNull:
	default:
		if err := encoder.EncodeToken(xml.CharData(xmlText(value))); err != nil {
			return err
		}
	}

	return encoder.EncodeToken(start.End())
}

func (xmlCodec *XMLCodec) Parse(
	session *ParserSession, reader io.Reader, receiver interface{},
) error {
	decoder := xml.NewDecoder(reader)
	// Bodies reach codecs as UTF-8 whatever the declaration says.
	decoder.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	if !isStructuredReceiver(receiver) {
		return decoder.Decode(receiver)
	}

	root, err := nextStartElement(decoder)
	if err != nil {
		return err
	}

	typeName := xmlAttrValue(root, xmlTypeAttr)
	if typeName == "" {
		typeName = root.Name.Local
	}
	value, err := readXMLContent(decoder, typeName)
	if err != nil {
		return err
	}
	return storeStructured(value, receiver)
}

func nextStartElement(decoder *xml.Decoder) (xml.StartElement, error) {
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return xml.StartElement{}, xerrors.New("xml document has no root element")
		}
		if err != nil {
			return xml.StartElement{}, err
		}
		if start, ok := token.(xml.StartElement); ok {
			return start, nil
		}
	}
}

func xmlAttrValue(element xml.StartElement, name string) string {
	for _, attr := range element.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}

// Reads the content of the current element up to its end. Elements with children
// are objects unless typed as arrays.
func readXMLContent(decoder *xml.Decoder, typeName string) (interface{}, error) {
	var (
		text   strings.Builder
		object *spantypes.ObjectMap
		list   []interface{}
	)
	switch typeName {
	case xmlObject:
		object = spantypes.NewObjectMap()
	case xmlArray:
		list = make([]interface{}, 0)
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		switch typed := token.(type) {
		case xml.CharData:
			text.Write(typed)
		case xml.StartElement:
			childType := xmlAttrValue(typed, xmlTypeAttr)
			if list != nil {
				if childType == "" {
					childType = typed.Name.Local
				}
				value, err := readXMLContent(decoder, childType)
				if err != nil {
					return nil, err
				}
				list = append(list, value)
				continue
			}

			if object == nil {
				object = spantypes.NewObjectMap()
			}
			key := xmlAttrValue(typed, xmlNameAttr)
			if key == "" {
				key = typed.Name.Local
			}
			value, err := readXMLContent(decoder, childType)
			if err != nil {
				return nil, err
			}
			object.Set(key, value)
		case xml.EndElement:
			switch {
			case list != nil:
				return list, nil
			case object != nil:
				return object, nil
			}
			return xmlScalar(typeName, text.String())
		}
	}
}

func xmlScalar(typeName string, text string) (interface{}, error) {
	switch typeName {
	case xmlNull:
		return nil, nil
	case xmlBoolean:
		value, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, xerrors.Errorf("bad boolean %q", text)
		}
		return value, nil
	case xmlNumber:
		trimmed := strings.TrimSpace(text)
		if integer, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return integer, nil
		}
		number, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, xerrors.Errorf("bad number %q", text)
		}
		return number, nil
	}
	return text, nil
}
