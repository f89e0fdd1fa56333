package encoding

import (
	"sort"
	"sync"

	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"golang.org/x/xerrors"
)

// Built-in format tags.
const (
	FormatJSON        = "json"
	FormatXML         = "xml"
	FormatHTML        = "html"
	FormatURLEncoding = "urlencoding"
	FormatUON         = "uon"
	FormatMsgpack     = "msgpack"
	FormatText        = "text"
	FormatOpenAPI     = "openapi"
	FormatYAML        = "yaml"
	FormatBSON        = "bson"
)

// DefaultSerializerFormats is the serializer order used when none is configured. The
// first entry answers "*/*".
var DefaultSerializerFormats = []string{
	FormatJSON,
	FormatYAML,
	FormatMsgpack,
	FormatBSON,
	FormatXML,
	FormatHTML,
	FormatUON,
	FormatURLEncoding,
	FormatOpenAPI,
	FormatText,
}

// DefaultParserFormats is the parser order used when none is configured. It is also
// the order bodies without a Content-Type are sniffed in.
var DefaultParserFormats = []string{
	FormatJSON,
	FormatYAML,
	FormatMsgpack,
	FormatBSON,
	FormatXML,
	FormatUON,
	FormatURLEncoding,
	FormatOpenAPI,
	FormatText,
}

type (
	SerializerFactory func() (Serializer, error)
	ParserFactory     func() (Parser, error)
)

/*
Registry maps format tags to codec factories. Each factory runs at most once per
registry; the codec it returns is cached and shared by every group resolving the tag.

Registries are meant to be owned by the configuration root of an application rather
than shared globally. Lookups are safe for concurrent use.
*/
type Registry struct {
	lock        sync.Mutex
	serializers map[string]SerializerFactory
	parsers     map[string]ParserFactory

	serializerCache map[string]Serializer
	parserCache     map[string]Parser
}

// NewEmptyRegistry returns a registry with no formats.
func NewEmptyRegistry() *Registry {
	return &Registry{
		serializers:     make(map[string]SerializerFactory),
		parsers:         make(map[string]ParserFactory),
		serializerCache: make(map[string]Serializer),
		parserCache:     make(map[string]Parser),
	}
}

// NewRegistry returns a registry holding every built-in format.
func NewRegistry() *Registry {
	registry := NewEmptyRegistry()

	registry.RegisterFormat(FormatJSON, func() (Codec, error) { return NewJSONCodec(), nil })
	registry.RegisterFormat(FormatXML, func() (Codec, error) { return NewXMLCodec(), nil })
	registry.RegisterSerializer(
		FormatHTML, func() (Serializer, error) { return NewHTMLSerializer(), nil },
	)
	registry.RegisterFormat(
		FormatURLEncoding, func() (Codec, error) { return NewURLEncodingCodec(), nil },
	)
	registry.RegisterFormat(FormatUON, func() (Codec, error) { return NewUONCodec(), nil })
	registry.RegisterFormat(FormatMsgpack, func() (Codec, error) { return NewMsgpackCodec(), nil })
	registry.RegisterFormat(FormatText, func() (Codec, error) { return NewTextCodec(), nil })
	registry.RegisterFormat(FormatOpenAPI, func() (Codec, error) { return NewOpenAPICodec(), nil })
	registry.RegisterFormat(FormatYAML, func() (Codec, error) { return NewYAMLCodec(), nil })
	registry.RegisterFormat(FormatBSON, func() (Codec, error) { return NewBSONCodec(), nil })

	return registry
}

// RegisterFormat registers a factory for a codec that is both a Serializer and a
// Parser. The factory runs once even when both sides are resolved.
func (registry *Registry) RegisterFormat(tag string, factory func() (Codec, error)) {
	var (
		once     sync.Once
		codec    Codec
		buildErr error
	)
	shared := func() (Codec, error) {
		once.Do(func() { codec, buildErr = factory() })
		return codec, buildErr
	}

	registry.RegisterSerializer(tag, func() (Serializer, error) {
		built, err := shared()
		if err != nil {
			return nil, err
		}
		serializer, ok := built.(Serializer)
		if !ok {
			return nil, xerrors.Errorf("codec %T is not a serializer", built)
		}
		return serializer, nil
	})
	registry.RegisterParser(tag, func() (Parser, error) {
		built, err := shared()
		if err != nil {
			return nil, err
		}
		parser, ok := built.(Parser)
		if !ok {
			return nil, xerrors.Errorf("codec %T is not a parser", built)
		}
		return parser, nil
	})
}

// RegisterSerializer registers or replaces the serializer factory for tag.
func (registry *Registry) RegisterSerializer(tag string, factory SerializerFactory) {
	registry.lock.Lock()
	defer registry.lock.Unlock()
	registry.serializers[tag] = factory
	delete(registry.serializerCache, tag)
}

// RegisterParser registers or replaces the parser factory for tag.
func (registry *Registry) RegisterParser(tag string, factory ParserFactory) {
	registry.lock.Lock()
	defer registry.lock.Unlock()
	registry.parsers[tag] = factory
	delete(registry.parserCache, tag)
}

// Serializer returns the cached serializer for tag, building it on first use.
func (registry *Registry) Serializer(tag string) (Serializer, error) {
	registry.lock.Lock()
	defer registry.lock.Unlock()

	if cached, ok := registry.serializerCache[tag]; ok {
		return cached, nil
	}
	factory, ok := registry.serializers[tag]
	if !ok {
		return nil, unknownFormat(tag, "serializer")
	}
	serializer, err := factory()
	if err != nil {
		return nil, factoryFailed(tag, err)
	}
	registry.serializerCache[tag] = serializer
	return serializer, nil
}

// Parser returns the cached parser for tag, building it on first use.
func (registry *Registry) Parser(tag string) (Parser, error) {
	registry.lock.Lock()
	defer registry.lock.Unlock()

	if cached, ok := registry.parserCache[tag]; ok {
		return cached, nil
	}
	factory, ok := registry.parsers[tag]
	if !ok {
		return nil, unknownFormat(tag, "parser")
	}
	parser, err := factory()
	if err != nil {
		return nil, factoryFailed(tag, err)
	}
	registry.parserCache[tag] = parser
	return parser, nil
}

// Formats lists the registered tags, sorted.
func (registry *Registry) Formats() []string {
	registry.lock.Lock()
	defer registry.lock.Unlock()

	seen := make(map[string]bool)
	for tag := range registry.serializers {
		seen[tag] = true
	}
	for tag := range registry.parsers {
		seen[tag] = true
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func unknownFormat(tag string, side string) error {
	return spanerrors.ConfigurationError.New(
		"no "+side+" registered for format '"+tag+"'",
		map[string]interface{}{"format": tag},
		nil,
	)
}

func factoryFailed(tag string, err error) error {
	return spanerrors.ConfigurationError.New(
		"factory for format '"+tag+"' failed: "+err.Error(),
		map[string]interface{}{"format": tag},
		err,
	)
}
