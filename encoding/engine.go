package encoding

import (
	"bytes"
	"io"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/httppart"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"go.uber.org/zap"
	textencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/xerrors"
)

const defaultCharset = "utf-8"

// Interface for object used to fetch headers such as http.Request.Header or
// http.Response.Header
type headerFetcher interface {
	Get(string) string
}

/*
Engine marshals request and response bodies. It negotiates the codec to use from the
HTTP headers, then runs it with a fresh session.

Instantiation

Use NewContentEngine() for the default formats, NewEngine() for custom groups, or
NewEngineFromConfig() to build one from a YAML configuration.

Negotiation

Encode matches the Accept header against the serializer group and Decode matches
Content-Type against the parser group. Ties go to the codec declared first, so the
first serializer answers a full wildcard range and an absent Accept header.

Charsets

Text bodies are transcoded with golang.org/x/text: Encode picks the charset from
Accept-Charset and Decode honours the charset parameter of Content-Type. Codecs only
ever see UTF-8.

Type Sniffing

If created with sniffing enabled, bodies without a Content-Type are offered to each
parser in group order until one succeeds.

Panics

If a codec panics during execution, that panic is caught and returned as an error.

An Engine is immutable once built and safe for concurrent use.
*/
type Engine struct {
	serializers *SerializerGroup
	parsers     *ParserGroup

	partSerializer *httppart.Serializer
	partParser     *httppart.Parser

	sniffMimeType  bool
	defaultCharset string
	debug          bool
	logger         *zap.Logger
	metrics        *Metrics
}

// EngineOption configures an Engine at construction.
type EngineOption func(engine *Engine)

// WithSniffing sets whether bodies without a Content-Type are sniffed.
func WithSniffing(sniff bool) EngineOption {
	return func(engine *Engine) {
		engine.sniffMimeType = sniff
	}
}

// WithLogger sets the logger negotiation outcomes are logged to at debug level.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(engine *Engine) {
		if logger != nil {
			engine.logger = logger
		}
	}
}

// WithMetrics sets the counters the engine records to.
func WithMetrics(metrics *Metrics) EngineOption {
	return func(engine *Engine) {
		engine.metrics = metrics
	}
}

// WithDefaultCharset sets the charset used when Accept-Charset does not pick one.
func WithDefaultCharset(charset string) EngineOption {
	return func(engine *Engine) {
		if charset != "" {
			engine.defaultCharset = strings.ToLower(charset)
		}
	}
}

// WithDebug sets the debug flag of every session.
func WithDebug(debug bool) EngineOption {
	return func(engine *Engine) {
		engine.debug = debug
	}
}

// NewEngine returns an engine over the given groups. Either group may be nil when the
// engine is only used in one direction.
func NewEngine(
	serializers *SerializerGroup, parsers *ParserGroup, options ...EngineOption,
) *Engine {
	if serializers == nil {
		serializers = newGroup[Serializer](nil)
	}
	if parsers == nil {
		parsers = newGroup[Parser](nil)
	}

	engine := &Engine{
		serializers:    serializers,
		parsers:        parsers,
		partSerializer: httppart.NewSerializer(),
		partParser:     httppart.NewParser(),
		defaultCharset: defaultCharset,
		logger:         zap.NewNop(),
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// NewContentEngine returns an engine with every built-in format, in the default
// order.
func NewContentEngine(allowSniff bool, options ...EngineOption) (*Engine, error) {
	registry := NewRegistry()

	serializers, err := NewSerializerGroupBuilder(registry).
		AppendFormat(DefaultSerializerFormats...).
		Build()
	if err != nil {
		return nil, xerrors.Errorf("error building default serializers: %w", err)
	}

	parsers, err := NewParserGroupBuilder(registry).
		AppendFormat(DefaultParserFormats...).
		Build()
	if err != nil {
		return nil, xerrors.Errorf("error building default parsers: %w", err)
	}

	options = append([]EngineOption{WithSniffing(allowSniff)}, options...)
	return NewEngine(serializers, parsers, options...), nil
}

// Serializers returns the serializer group.
func (engine *Engine) Serializers() *SerializerGroup {
	return engine.serializers
}

// Parsers returns the parser group.
func (engine *Engine) Parsers() *ParserGroup {
	return engine.parsers
}

// Whether the Engine will attempt to decode bodies without a Content-Type.
func (engine *Engine) SniffType() bool {
	return engine.sniffMimeType
}

// Produces lists the media types the engine can write.
func (engine *Engine) Produces() []mimetype.MediaType {
	return engine.serializers.SupportedMediaTypes()
}

// Consumes lists the media types the engine can read.
func (engine *Engine) Consumes() []mimetype.MediaType {
	return engine.parsers.SupportedMediaTypes()
}

// Serializer returns the serializer an Accept header selects and the media type it
// matched.
func (engine *Engine) Serializer(accept string) (Serializer, mimetype.MediaType, bool) {
	match, ok := engine.serializers.Negotiate(mimetype.ParseRanges(accept))
	if !ok {
		return nil, mimetype.UNKNOWN, false
	}
	return match.Codec, match.MediaType, true
}

// Parser returns the parser handling a Content-Type header.
func (engine *Engine) Parser(contentType string) (Parser, bool) {
	mediaType := mimetype.FromString(contentType)
	if mediaType.IsEmpty() {
		return nil, false
	}
	return engine.parsers.CodecFor(mediaType)
}

// Handles reports whether the engine can both write and read mediaType.
func (engine *Engine) Handles(mediaType mimetype.MediaType) bool {
	_, canWrite := engine.serializers.CodecFor(mediaType)
	_, canRead := engine.parsers.CodecFor(mediaType)
	return canWrite && canRead
}

func (engine *Engine) newSession(
	mediaType mimetype.MediaType, charset string, locale string, options []SessionOption,
) session {
	state := session{
		MediaType: mediaType,
		Charset:   charset,
		Locale:    locale,
		Debug:     engine.debug,
		Logger:    engine.logger,
	}
	for _, option := range options {
		option(&state)
	}
	return state
}

// Uses a serializer while catching panics to return as errors
func safeEncode(
	serializer Serializer, session *SerializerSession, writer io.Writer, content interface{},
) (err error) {
	defer func() {
		recovered := recover()
		if spanErr, ok := recovered.(*spanerrors.SpanError); ok {
			// Codecs abort with SpanErrorType.Panic to return a typed error.
			err = spanErr
		} else if recovered != nil {
			err = xerrors.Errorf("panic during encode: %v", recovered)
		}
	}()

	return serializer.Serialize(session, writer, content)
}

// Uses a parser while catching panics to return as errors
func safeDecode(
	parser Parser, session *ParserSession, reader io.Reader, receiver interface{},
) (err error) {
	defer func() {
		recovered := recover()
		if spanErr, ok := recovered.(*spanerrors.SpanError); ok {
			// Codecs abort with SpanErrorType.Panic to return a typed error.
			err = spanErr
		} else if recovered != nil {
			err = xerrors.Errorf("panic during decode: %v", recovered)
		}
	}()

	return parser.Parse(session, reader, receiver)
}

/*
Encode writes content to writer with the serializer the Accept header of headers
selects and returns the Content-Type to send, charset included for text formats.

headers may be nil, which accepts anything. When no serializer is acceptable a
NotAcceptableError listing the supported media types is returned and nothing is
written. Serializer failures are returned wrapped; part validation failures of the
text/openapi format keep their SchemaValidationError type.
*/
func (engine *Engine) Encode(
	headers headerFetcher, content interface{}, writer io.Writer, options ...SessionOption,
) (mimetype.MediaType, error) {
	accept := headerValue(headers, "Accept")
	match, ok := engine.serializers.Negotiate(mimetype.ParseRanges(accept))
	if !ok {
		engine.metrics.RecordNegotiation(labelNone, resultNoMatch)
		engine.logger.Debug("no acceptable serializer", zap.String("accept", accept))
		return mimetype.UNKNOWN, spanerrors.NotAcceptableError.New(
			"no serializer for accept '"+accept+"'",
			map[string]interface{}{
				"accept":    accept,
				"supported": mediaTypeStrings(engine.Produces()),
			},
			nil,
		)
	}

	mediaType := match.MediaType.WithoutParameters()
	contentType := mediaType.String()
	engine.metrics.RecordNegotiation(contentType, resultSuccess)

	charset := ""
	var charsetEncoding textencoding.Encoding
	if !isBinary(match.Codec) {
		charset, charsetEncoding = engine.pickCharset(headerValue(headers, "Accept-Charset"))
		mediaType = mediaType.WithParameter("charset", charset)
	}

	engine.logger.Debug(
		"negotiated serializer",
		zap.String("accept", accept),
		zap.String("media_type", mediaType.String()),
		zap.String("range", match.Range.String()),
	)

	session := &SerializerSession{
		session: engine.newSession(
			mediaType, charset, pickLocale(headerValue(headers, "Accept-Language")), options,
		),
		Parts: engine.partSerializer,
	}

	err := engine.encodeCharset(match.Codec, session, writer, content, charsetEncoding)
	if err != nil {
		engine.metrics.RecordEncode(contentType, resultError)
		engine.metrics.RecordError(contentType, operationEncode)
		engine.logFailure("encode failed", err)
		if isSpanError(err) {
			return mediaType, err
		}
		return mediaType, xerrors.Errorf("encode err: %w", err)
	}

	engine.metrics.RecordEncode(contentType, resultSuccess)
	return mediaType, nil
}

func (engine *Engine) encodeCharset(
	serializer Serializer,
	session *SerializerSession,
	writer io.Writer,
	content interface{},
	charsetEncoding textencoding.Encoding,
) error {
	if charsetEncoding == nil {
		return safeEncode(serializer, session, writer, content)
	}

	transcoder := transform.NewWriter(writer, charsetEncoding.NewEncoder())
	if err := safeEncode(serializer, session, transcoder, content); err != nil {
		return err
	}
	return transcoder.Close()
}

// Picks the charset to write with. A nil encoding means UTF-8, written as-is.
func (engine *Engine) pickCharset(acceptCharset string) (string, textencoding.Encoding) {
	fallback := engine.defaultCharset
	if strings.TrimSpace(acceptCharset) != "" {
		ranges := mimetype.ParseStringRanges(acceptCharset)

		candidates := []string{fallback}
		for _, charsetRange := range ranges.Ranges() {
			value := strings.ToLower(charsetRange.Value())
			if value == "*" || value == fallback {
				continue
			}
			if _, err := htmlindex.Get(value); err == nil {
				candidates = append(candidates, value)
			}
		}

		if index := ranges.Match(candidates); index != mimetype.NoMatch {
			fallback = candidates[index]
		} else {
			engine.logger.Debug(
				"no acceptable charset, using default",
				zap.String("accept_charset", acceptCharset),
				zap.String("charset", fallback),
			)
		}
	}

	charsetEncoding, err := htmlindex.Get(fallback)
	if err != nil || isUTF8(fallback) {
		return fallback, nil
	}
	return fallback, charsetEncoding
}

/*
Decode reads the body from reader into receiver with the parser the Content-Type of
headers selects, and returns the media type that was decoded. The reader is closed
when it is an io.ReadCloser.

A missing Content-Type fails with UnsupportedMediaTypeError unless sniffing is
enabled, in which case the parsers are tried in group order. *string receivers of
bodies without a Content-Type are read as text/plain. A Content-Type no parser handles,
or an unknown charset, also fails with UnsupportedMediaTypeError. Bodies the parser
rejects fail with ParseError.
*/
func (engine *Engine) Decode(
	headers headerFetcher, receiver interface{}, reader io.Reader, options ...SessionOption,
) (mimetype.MediaType, error) {
	// Close the reader if it's a closer.
	if readCloser, ok := reader.(io.ReadCloser); ok {
		defer func() {
			_ = readCloser.Close()
		}()
	}

	rawContentType := headerValue(headers, "Content-Type")
	mediaType := mimetype.FromString(rawContentType)
	locale := pickLocale(headerValue(headers, "Content-Language"))

	if mediaType.IsEmpty() {
		if _, isString := receiver.(*string); isString {
			if _, ok := engine.parsers.CodecFor(mimetype.TEXT); ok {
				mediaType = mimetype.TEXT
			}
		}
	}

	if mediaType.IsEmpty() {
		if !engine.sniffMimeType {
			engine.metrics.RecordDecode(labelNone, resultNoMatch)
			return mimetype.UNKNOWN, spanerrors.UnsupportedMediaTypeError.New(
				"mimetype is unknown and sniffing is disabled",
				map[string]interface{}{"supported": mediaTypeStrings(engine.Consumes())},
				nil,
			)
		}
		return engine.sniffContent(receiver, reader, locale, options)
	}

	if mediaType.IsWildcard() {
		engine.metrics.RecordNegotiation(labelNone, resultNoMatch)
		return mediaType, spanerrors.UnsupportedMediaTypeError.New(
			"content type '"+rawContentType+"' is a media range",
			map[string]interface{}{
				"content_type": rawContentType,
				"supported":    mediaTypeStrings(engine.Consumes()),
			},
			nil,
		)
	}

	parser, ok := engine.parsers.CodecFor(mediaType)
	if !ok {
		engine.metrics.RecordNegotiation(labelNone, resultNoMatch)
		engine.logger.Debug("no parser for content type", zap.String("content_type", rawContentType))
		return mediaType, spanerrors.UnsupportedMediaTypeError.New(
			"no parser for content type '"+rawContentType+"'",
			map[string]interface{}{
				"content_type": rawContentType,
				"supported":    mediaTypeStrings(engine.Consumes()),
			},
			nil,
		)
	}
	// Label with the declared type so client text never becomes a series.
	label := codecLabel(parser)
	engine.metrics.RecordNegotiation(label, resultSuccess)

	charset := strings.ToLower(mediaType.Charset())
	if charset != "" && !isUTF8(charset) && !isBinary(parser) {
		charsetEncoding, err := htmlindex.Get(charset)
		if err != nil {
			return mediaType, spanerrors.UnsupportedMediaTypeError.New(
				"unsupported charset '"+charset+"'",
				map[string]interface{}{"content_type": rawContentType},
				err,
			)
		}
		reader = transform.NewReader(reader, charsetEncoding.NewDecoder())
	}

	engine.logger.Debug(
		"negotiated parser",
		zap.String("content_type", rawContentType),
		zap.String("media_type", mediaType.String()),
	)

	session := &ParserSession{
		session: engine.newSession(mediaType, charset, locale, options),
		Parts:   engine.partParser,
	}
	if err := safeDecode(parser, session, reader, receiver); err != nil {
		engine.metrics.RecordDecode(label, resultError)
		engine.metrics.RecordError(label, operationDecode)
		err = engine.parseError(mediaType, err)
		engine.logFailure("decode failed", err)
		return mediaType, err
	}

	engine.metrics.RecordDecode(label, resultSuccess)
	return mediaType, nil
}

// Attempts to decode content with all registered parsers until one succeeds or all
// fail.
func (engine *Engine) sniffContent(
	receiver interface{}, reader io.Reader, locale string, options []SessionOption,
) (mimetype.MediaType, error) {
	// We need to read the content multiple times, so lets load the bytes into a var.
	// This will cause a slight performance hit, which is why this is a separate process
	// from loading a KNOWN mimetype.
	contentBuffer := bytes.NewBuffer(make([]byte, 0))
	if _, err := contentBuffer.ReadFrom(reader); err != nil {
		return mimetype.UNKNOWN, spanerrors.ParseError.New(
			"error reading body", nil, err,
		)
	}

	var decoderErr error
	for _, parser := range engine.parsers.codecs {
		mediaType, _ := primaryMediaType(parser)
		session := &ParserSession{
			session: engine.newSession(mediaType, "", locale, options),
			Parts:   engine.partParser,
		}

		// Make a buffer for this attempt, otherwise we'll run out of bytes.
		thisReader := bytes.NewReader(contentBuffer.Bytes())
		thisErr := safeDecode(parser, session, thisReader, receiver)
		if thisErr == nil {
			engine.metrics.RecordDecode(mediaType.Essence(), resultSniffed)
			engine.logger.Debug("sniffed body", zap.String("media_type", mediaType.String()))
			return mediaType, nil
		}

		if decoderErr == nil {
			decoderErr = thisErr
		} else {
			decoderErr = xerrors.Errorf("decoding error: %v after: %w", thisErr, decoderErr)
		}
	}

	engine.metrics.RecordDecode(labelNone, resultError)
	engine.metrics.RecordError(labelNone, operationDecode)
	if decoderErr == nil {
		decoderErr = xerrors.New("no parsers to sniff with")
	}
	return mimetype.UNKNOWN, spanerrors.ParseError.New(
		"body could not be decoded by any parser", nil, decoderErr,
	)
}

func (engine *Engine) parseError(mediaType mimetype.MediaType, err error) error {
	if isSpanError(err) {
		return err
	}
	return spanerrors.ParseError.New(
		"decode err: "+err.Error(),
		map[string]interface{}{"content_type": mediaType.String()},
		err,
	)
}

// Logs the detailed message of a failure, stack included, when the engine is in debug
// mode.
func (engine *Engine) logFailure(message string, err error) {
	if !engine.debug {
		return
	}
	spanErr := new(spanerrors.SpanError)
	if xerrors.As(err, &spanErr) {
		engine.logger.Debug(message, zap.String("detail", spanErr.LogMessage()))
		return
	}
	engine.logger.Debug(message, zap.Error(err))
}

func isSpanError(err error) bool {
	spanErr := new(spanerrors.SpanError)
	return xerrors.As(err, &spanErr)
}

func headerValue(headers headerFetcher, name string) string {
	if headers == nil {
		return ""
	}
	return headers.Get(name)
}

func isUTF8(charset string) bool {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8":
		return true
	}
	return false
}

// Picks the preferred language of an Accept-Language or Content-Language header.
func pickLocale(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	for _, languageRange := range mimetype.ParseStringRanges(header).Ranges() {
		if languageRange.QValue() > 0 && languageRange.Value() != "*" {
			return languageRange.Value()
		}
	}
	return ""
}

func mediaTypeStrings(mediaTypes []mimetype.MediaType) []string {
	strs := make([]string, len(mediaTypes))
	for index, mediaType := range mediaTypes {
		strs[index] = mediaType.String()
	}
	return strs
}
