package encoding

import (
	"html"
	"io"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
)

// HTMLSerializer renders content for browsers: maps as two column tables, lists as
// unordered lists and scalars as escaped text. There is no HTML parser.
type HTMLSerializer struct{}

func NewHTMLSerializer() *HTMLSerializer {
	return &HTMLSerializer{}
}

func (serializer *HTMLSerializer) MediaTypes() []mimetype.MediaType {
	return []mimetype.MediaType{mimetype.HTML}
}

func (serializer *HTMLSerializer) Serialize(
	session *SerializerSession, writer io.Writer, content interface{},
) error {
	builder := &strings.Builder{}
	writeHTML(builder, content)
	_, err := io.WriteString(writer, builder.String())
	return err
}

func writeHTML(builder *strings.Builder, value interface{}) {
	value = spantypes.Indirect(value)
	if objectMap, ok := value.(spantypes.ObjectMap); ok {
		value = &objectMap
	}

	if value == nil {
		builder.WriteString("<null/>")
		return
	}

	if entries, ok := spantypes.Entries(value); ok {
		builder.WriteString("<table>")
		for _, entry := range entries {
			builder.WriteString("<tr><th>")
			builder.WriteString(html.EscapeString(entry.Key))
			builder.WriteString("</th><td>")
			writeHTML(builder, entry.Value)
			builder.WriteString("</td></tr>")
		}
		builder.WriteString("</table>")
		return
	}

	if elements, ok := spantypes.Elements(value); ok && xmlType(value) == xmlArray {
		builder.WriteString("<ul>")
		for _, element := range elements {
			builder.WriteString("<li>")
			writeHTML(builder, element)
			builder.WriteString("</li>")
		}
		builder.WriteString("</ul>")
		return
	}

	builder.WriteString(html.EscapeString(xmlText(value)))
}
