package spanerrors

// Base Error. Used when generic error is returned by route handler.
var APIError = NewSpanErrorType(
	"APIError",
	1000,
	502,
)

// Route does not implement HTTP method (GET, POST, PUT, etc.)
var InvalidMethodError = NewSpanErrorType(
	"InvalidMethodError",
	1001,
	405,
)

// No media to return.
var NothingToReturnError = NewSpanErrorType(
	"NothingToReturnError",
	1002,
	400,
)

// Error Occurred when Reading / validating Request Data.
var RequestValidationError = NewSpanErrorType(
	"RequestValidationError",
	1003,
	400,
)

// Request Exceeds API limit.
var APILimitError = NewSpanErrorType(
	"APILimitError",
	1004,
	400,
)

// Error occurred when writing Response.
var ResponseValidationError = NewSpanErrorType(
	"ResponseValidationError",
	1005,
	400,
)

// Sent back when the server framework raises an error that it does not handle.
// This type SHOULD NOT be invoked by app logic.
var ServerError = NewSpanErrorType(
	"ServerError",
	1006,
	-1,
)

// Codec groups, registries or part schemas were declared inconsistently. Raised at
// build time, never per request.
var ConfigurationError = NewSpanErrorType(
	"ConfigurationError",
	1100,
	500,
)

// No serializer satisfies the Accept header.
var NotAcceptableError = NewSpanErrorType(
	"NotAcceptableError",
	1101,
	406,
)

// No parser handles the Content-Type header.
var UnsupportedMediaTypeError = NewSpanErrorType(
	"UnsupportedMediaTypeError",
	1102,
	415,
)

// An HTTP part is missing, empty, malformed or out of its schema's bounds.
var SchemaValidationError = NewSpanErrorType(
	"SchemaValidationError",
	1103,
	400,
)

// A body could not be decoded by the parser picked for it.
var ParseError = NewSpanErrorType(
	"ParseError",
	1104,
	400,
)

// List of default SpanError definitions.
var ErrorList = [12]*SpanErrorType{
	APIError,
	InvalidMethodError,
	NothingToReturnError,
	RequestValidationError,
	APILimitError,
	ResponseValidationError,
	ServerError,
	ConfigurationError,
	NotAcceptableError,
	UnsupportedMediaTypeError,
	SchemaValidationError,
	ParseError,
}

// Used to make ErrorTypeCodeIndex.
func makeDefaultErrorCodeIndex() map[int]*SpanErrorType {
	index := make(map[int]*SpanErrorType)
	for _, errorType := range ErrorList {
		index[errorType.apiCode] = errorType
	}
	return index
}

// ApiCode:*ErrorType indexing of default errors.
var ErrorTypeCodeIndex = makeDefaultErrorCodeIndex()
