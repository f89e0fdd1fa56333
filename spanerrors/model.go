package spanerrors

import (
	"bytes"
	"fmt"
	"runtime/debug"
	"strconv"

	uuid "github.com/satori/go.uuid"
	"github.com/ugorji/go/codec"
	"golang.org/x/xerrors"
)

// http.Header and anything else with a Set(key, value) method.
type headerSetter interface {
	Set(key string, value string)
}

/*
SpanErrorType is a kind of error a service can return, identified across the API
ecosystem by a unique name and API code. Codes 1000-1999 belong to the definitions in
this package.

Fields are private so a shared *SpanErrorType cannot be changed by its importers.
Declare new types with NewSpanErrorType().
*/
type SpanErrorType struct {
	name     string
	apiCode  int
	httpCode int
}

// New returns an error of this type. source, when set, is reachable through
// errors.Unwrap.
func (errorType *SpanErrorType) New(
	message string,
	errorData map[string]interface{},
	source error,
) *SpanError {
	return errorType.newError(message, errorData, source)
}

/*
Panic panics with a new error of this type. Code running under the Engine, such as a
codec, can abort this way and the Engine returns the error unchanged rather than
reporting a panic.
*/
func (errorType *SpanErrorType) Panic(
	message string,
	errorData map[string]interface{},
	source error,
) {
	panic(errorType.newError(message, errorData, source))
}

// Must be called directly by New or Panic so the recorded frame is their caller.
func (errorType *SpanErrorType) newError(
	message string,
	errorData map[string]interface{},
	source error,
) *SpanError {
	return &SpanError{
		SpanErrorType: errorType,
		Message:       message,
		ID:            uuid.NewV4(),
		ErrorData:     errorData,
		sourceErr:     source,
		sourceStack:   debug.Stack(),
		frame:         xerrors.Caller(2),
	}
}

func (errorType *SpanErrorType) Name() string {
	return errorType.name
}

func (errorType *SpanErrorType) ApiCode() int {
	return errorType.apiCode
}

// HttpCode is the status to respond with, -1 when the handler decides it per error.
func (errorType *SpanErrorType) HttpCode() int {
	return errorType.httpCode
}

// WithHttpCode copies the type with another http code. The copy still matches the
// original through errors.Is and IsType.
func (errorType *SpanErrorType) WithHttpCode(newHttpCode int) *SpanErrorType {
	return &SpanErrorType{
		name:     errorType.name,
		apiCode:  errorType.apiCode,
		httpCode: newHttpCode,
	}
}

// Error renders "Name (code)", which lets a type serve as an errors.Is target.
func (errorType *SpanErrorType) Error() string {
	return errorType.name + " (" + strconv.Itoa(errorType.apiCode) + ")"
}

// SpanError is one occurrence of a SpanErrorType.
type SpanError struct {
	*SpanErrorType

	Message string

	// Unique per occurrence, sent to clients so logs can be matched to responses.
	ID uuid.UUID

	// Sent to clients as JSON.
	ErrorData map[string]interface{}

	sourceErr   error
	sourceStack []byte
	frame       xerrors.Frame
}

// IsType compares by name and code, so copies made by WithHttpCode match.
func (spanError *SpanError) IsType(errorType *SpanErrorType) bool {
	return spanError.SpanErrorType.Error() == errorType.Error()
}

// Is lets errors.Is match a SpanError against its *SpanErrorType.
func (spanError *SpanError) Is(target error) bool {
	errorType, ok := target.(*SpanErrorType)
	if !ok {
		return false
	}
	return spanError.IsType(errorType)
}

func (spanError *SpanError) Error() string {
	return spanError.SpanErrorType.Error() + " - " + spanError.Message
}

func (spanError *SpanError) Unwrap() error {
	return spanError.sourceErr
}

// FormatError implements xerrors.Formatter. "%v" prints Error() alone, "%+v" adds the
// creation frame and the source chain.
func (spanError *SpanError) FormatError(printer xerrors.Printer) error {
	printer.Print(spanError.Error())
	if !printer.Detail() {
		return nil
	}
	spanError.frame.Format(printer)
	return spanError.sourceErr
}

// Format routes fmt verbs through FormatError.
func (spanError *SpanError) Format(state fmt.State, verb rune) {
	xerrors.FormatError(spanError, state, verb)
}

// LogMessage adds the source error and the creation stack to Error(). It is meant for
// server logs only and must not reach clients.
func (spanError *SpanError) LogMessage() string {
	return fmt.Sprint(
		"\nMESSAGE: ", spanError.Error(),
		"\nORIGINAL: ", spanError.sourceErr,
		"\nPANIC STACK:\n", string(spanError.sourceStack),
	)
}

// ToHeader writes the error to error-* headers, read back by ErrorFromHeaders.
func (spanError *SpanError) ToHeader(setter headerSetter) error {
	setter.Set("error-name", spanError.name)
	setter.Set("error-code", strconv.Itoa(spanError.apiCode))
	setter.Set("error-message", spanError.Message)
	setter.Set("error-id", spanError.ID.String())

	if spanError.ErrorData == nil {
		return nil
	}

	data := bytes.Buffer{}
	if err := codec.NewEncoder(&data, jsonHandle).Encode(spanError.ErrorData); err != nil {
		return xerrors.Errorf("error encoding error data: %w", err)
	}
	setter.Set("error-data", data.String())
	return nil
}
