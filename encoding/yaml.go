package encoding

import (
	"bytes"
	"io"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	"gopkg.in/yaml.v2"
)

func mapSliceFromEntries(entries []spantypes.Entry) interface{} {
	mapSlice := make(yaml.MapSlice, 0, len(entries))
	for _, entry := range entries {
		mapSlice = append(mapSlice, yaml.MapItem{Key: entry.Key, Value: entry.Value})
	}
	return mapSlice
}

// YAMLCodec reads and writes YAML documents with gopkg.in/yaml.v2. Mappings decoded
// into the structured model keep their document order.
type YAMLCodec struct{}

func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

func (yamlCodec *YAMLCodec) MediaTypes() []mimetype.MediaType {
	return []mimetype.MediaType{
		mimetype.YAML,
		mimetype.Parse("application/x-yaml"),
		mimetype.Parse("text/yaml"),
	}
}

func (yamlCodec *YAMLCodec) Serialize(
	session *SerializerSession, writer io.Writer, content interface{},
) error {
	encoder := yaml.NewEncoder(writer)
	if err := encoder.Encode(orderedContent(content, mapSliceFromEntries)); err != nil {
		return err
	}
	return encoder.Close()
}

func (yamlCodec *YAMLCodec) Parse(
	session *ParserSession, reader io.Reader, receiver interface{},
) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if !isStructuredReceiver(receiver) {
		return yaml.Unmarshal(data, receiver)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return storeStructured(nil, receiver)
	}

	// Mapping documents decode into MapSlices all the way down. Anything else falls
	// back to plain values.
	var mapping yaml.MapSlice
	if err := yaml.Unmarshal(data, &mapping); err == nil {
		return storeStructured(mapping, receiver)
	}

	var decoded interface{}
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return err
	}
	return storeStructured(decoded, receiver)
}
