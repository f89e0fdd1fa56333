/*
Span error model definition and default span errors.

Every failure the marshalling core reports is a SpanError, so callers at the request
boundary can turn it into a structured HTTP response without inspecting strings.

This module defines two main objects for handing errors:

• SpanErrorType defines an error type with a unique name, API code and HTTP code.

• SpanError is an instance of an error which contains a SpanErrorType.

Default SpanErrorType Variables

Several pointers to SpanErrorType definitions are included in this package. The
marshalling core raises:

• ConfigurationError when codec groups or part schemas cannot be built.

• NotAcceptableError when no serializer matches an Accept header.

• UnsupportedMediaTypeError when no parser matches a Content-Type header.

• SchemaValidationError when an HTTP part violates its schema.

• ParseError when a body cannot be decoded by the selected parser.

Use errors.Is(err, spanerrors.NotAcceptableError) to test the type of a returned error.
*/
package spanerrors
