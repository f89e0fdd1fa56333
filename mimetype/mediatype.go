package mimetype

import (
	"strings"
)

// Parameter is a single name=value media type parameter. Names are lower-cased on
// parse; values are kept as sent, with surrounding quotes removed.
type Parameter struct {
	Name  string
	Value string
}

/*
MediaType is an immutable "type/subtype" pair with ordered parameters. Build one with
Parse(); the zero value is the UNKNOWN media type.

Type and subtype are lower-cased, so equality and matching are case-insensitive. A
type of "*" always carries a subtype of "*".
*/
type MediaType struct {
	typ     string
	subtype string
	params  []Parameter
}

/*
Parse reads a media type such as "text/plain; charset=utf-8". Parse never fails:
malformed client headers produce a best-effort value instead.

• A token without "/" is taken as the type with a "*" subtype.

• "*" as the type forces a "*" subtype.

• Parameters without "=" are dropped.
*/
func Parse(text string) MediaType {
	segments := splitQuoted(text, ';')
	head := strings.ToLower(strings.TrimSpace(segments[0]))
	if head == "" {
		return MediaType{}
	}

	mediaType := MediaType{}
	if slash := strings.IndexByte(head, '/'); slash < 0 {
		mediaType.typ = head
		mediaType.subtype = "*"
	} else {
		mediaType.typ = strings.TrimSpace(head[:slash])
		mediaType.subtype = strings.TrimSpace(head[slash+1:])
	}

	if mediaType.typ == "" || mediaType.typ == "*" {
		mediaType.typ = "*"
		mediaType.subtype = "*"
	}
	if mediaType.subtype == "" {
		mediaType.subtype = "*"
	}

	mediaType.params = parseParameters(segments[1:])
	return mediaType
}

// Parses "name=value" segments. Returns nil when there are none so parsed values
// compare equal with reflect.DeepEqual.
func parseParameters(segments []string) []Parameter {
	var params []Parameter
	for _, segment := range segments {
		param, ok := parseParameter(segment)
		if !ok {
			continue
		}
		params = append(params, param)
	}
	return params
}

func parseParameter(segment string) (Parameter, bool) {
	equals := strings.IndexByte(segment, '=')
	if equals < 0 {
		return Parameter{}, false
	}
	name := strings.ToLower(strings.TrimSpace(segment[:equals]))
	if name == "" {
		return Parameter{}, false
	}
	return Parameter{Name: name, Value: unquote(strings.TrimSpace(segment[equals+1:]))}, true
}

// Type is the top level type, "text" in "text/plain".
func (mediaType MediaType) Type() string {
	return mediaType.typ
}

// Subtype is "plain" in "text/plain".
func (mediaType MediaType) Subtype() string {
	return mediaType.subtype
}

// Essence returns "type/subtype" without parameters.
func (mediaType MediaType) Essence() string {
	if mediaType.IsEmpty() {
		return ""
	}
	return mediaType.typ + "/" + mediaType.subtype
}

// Returns a copy of the parameters in declared order.
func (mediaType MediaType) Parameters() []Parameter {
	if len(mediaType.params) == 0 {
		return nil
	}
	params := make([]Parameter, len(mediaType.params))
	copy(params, mediaType.params)
	return params
}

// Returns the value of parameter name and whether it was declared.
func (mediaType MediaType) Parameter(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, param := range mediaType.params {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

// Charset returns the charset parameter, or "" when not declared.
func (mediaType MediaType) Charset() string {
	charset, _ := mediaType.Parameter("charset")
	return strings.ToLower(charset)
}

// WithParameter returns a copy of the media type with parameter name set to value.
func (mediaType MediaType) WithParameter(name string, value string) MediaType {
	name = strings.ToLower(name)
	params := make([]Parameter, 0, len(mediaType.params)+1)
	replaced := false
	for _, param := range mediaType.params {
		if param.Name == name {
			param.Value = value
			replaced = true
		}
		params = append(params, param)
	}
	if !replaced {
		params = append(params, Parameter{Name: name, Value: value})
	}

	return MediaType{typ: mediaType.typ, subtype: mediaType.subtype, params: params}
}

// WithoutParameters returns the bare "type/subtype".
func (mediaType MediaType) WithoutParameters() MediaType {
	return MediaType{typ: mediaType.typ, subtype: mediaType.subtype}
}

// IsEmpty reports whether this is the UNKNOWN media type.
func (mediaType MediaType) IsEmpty() bool {
	return mediaType.typ == ""
}

// IsWildcard reports whether the type or subtype is "*".
func (mediaType MediaType) IsWildcard() bool {
	return mediaType.typ == "*" || mediaType.subtype == "*"
}

// Specificity ranks how exact a media type pattern is: 2 for "type/subtype", 1 for
// "type/*" and 0 for "*/*".
func (mediaType MediaType) Specificity() int {
	switch {
	case mediaType.typ == "*":
		return 0
	case mediaType.subtype == "*":
		return 1
	default:
		return 2
	}
}

// Equals compares type and subtype only.
func (mediaType MediaType) Equals(other MediaType) bool {
	return mediaType.typ == other.typ && mediaType.subtype == other.subtype
}

/*
Includes reports whether other satisfies this media type used as a pattern. Wildcards
on either side match any value. Parameters only matter when both sides declare the
same parameter (charset excepted), in which case the values must be equal.
*/
func (mediaType MediaType) Includes(other MediaType) bool {
	if mediaType.IsEmpty() || other.IsEmpty() {
		return false
	}
	if !wildcardEqual(mediaType.typ, other.typ) {
		return false
	}
	if !wildcardEqual(mediaType.subtype, other.subtype) {
		return false
	}
	return parametersCompatible(mediaType.params, other.params)
}

func wildcardEqual(left string, right string) bool {
	return left == "*" || right == "*" || left == right
}

func parametersCompatible(pattern []Parameter, other []Parameter) bool {
	for _, param := range pattern {
		if param.Name == "charset" {
			continue
		}
		for _, otherParam := range other {
			if otherParam.Name == param.Name && !strings.EqualFold(otherParam.Value, param.Value) {
				return false
			}
		}
	}
	return true
}

// String renders the media type in header syntax.
func (mediaType MediaType) String() string {
	if mediaType.IsEmpty() {
		return ""
	}
	builder := strings.Builder{}
	builder.WriteString(mediaType.Essence())
	writeParameters(&builder, mediaType.params)
	return builder.String()
}

func writeParameters(builder *strings.Builder, params []Parameter) {
	for _, param := range params {
		builder.WriteByte(';')
		builder.WriteString(param.Name)
		builder.WriteByte('=')
		builder.WriteString(quoteIfNeeded(param.Value))
	}
}
