package uon

import (
	"strconv"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/spantypes"
)

// SyntaxError describes malformed UON input.
type SyntaxError struct {
	// Byte offset in the input where decoding failed.
	Offset  int
	Message string
}

func (syntaxErr *SyntaxError) Error() string {
	return "uon: " + syntaxErr.Message + " at offset " + strconv.Itoa(syntaxErr.Offset)
}

/*
Unmarshal decodes UON text into a structured value: nil, bool, int64, float64,
string, []interface{} or *spantypes.ObjectMap.

A bare value at the top level runs to the end of the input, so "a,b" decodes to the
string "a,b". Integers that overflow int64 decode as float64.
*/
func Unmarshal(text string) (interface{}, error) {
	decoder := &decoder{text: text}
	value, err := decoder.value(true)
	if err != nil {
		return nil, err
	}

	decoder.skipSpace()
	if decoder.pos < len(decoder.text) {
		return nil, decoder.errorf("unexpected trailing characters")
	}
	return value, nil
}

type decoder struct {
	text string
	pos  int
}

func (decoder *decoder) errorf(message string) error {
	return &SyntaxError{Offset: decoder.pos, Message: message}
}

func (decoder *decoder) skipSpace() {
	for decoder.pos < len(decoder.text) {
		switch decoder.text[decoder.pos] {
		case ' ', '\t', '\n', '\r':
			decoder.pos++
		default:
			return
		}
	}
}

func (decoder *decoder) peek() byte {
	if decoder.pos >= len(decoder.text) {
		return 0
	}
	return decoder.text[decoder.pos]
}

func (decoder *decoder) hasPrefix(prefix string) bool {
	return strings.HasPrefix(decoder.text[decoder.pos:], prefix)
}

func (decoder *decoder) value(topLevel bool) (interface{}, error) {
	decoder.skipSpace()

	switch {
	case decoder.hasPrefix("@("):
		decoder.pos += 2
		return decoder.list()
	case decoder.peek() == '(':
		decoder.pos++
		return decoder.object()
	case decoder.peek() == '\'':
		return decoder.quoted()
	}

	terminators := ",)"
	if topLevel {
		terminators = ""
	}
	return classify(decoder.bare(terminators)), nil
}

// Reads an unquoted token up to one of terminators, resolving ~ escapes.
func (decoder *decoder) bare(terminators string) string {
	builder := strings.Builder{}
	for decoder.pos < len(decoder.text) {
		char := decoder.text[decoder.pos]
		if strings.IndexByte(terminators, char) >= 0 {
			break
		}
		if char == '~' && decoder.pos+1 < len(decoder.text) {
			decoder.pos++
			char = decoder.text[decoder.pos]
		}
		builder.WriteByte(char)
		decoder.pos++
	}
	return strings.TrimSpace(builder.String())
}

func (decoder *decoder) quoted() (string, error) {
	start := decoder.pos
	decoder.pos++

	builder := strings.Builder{}
	for decoder.pos < len(decoder.text) {
		char := decoder.text[decoder.pos]
		switch {
		case char == '~' && decoder.pos+1 < len(decoder.text):
			decoder.pos++
			builder.WriteByte(decoder.text[decoder.pos])
		case char == '\'':
			decoder.pos++
			return builder.String(), nil
		default:
			builder.WriteByte(char)
		}
		decoder.pos++
	}

	decoder.pos = start
	return "", decoder.errorf("unterminated quoted string")
}

func (decoder *decoder) list() (interface{}, error) {
	elements := make([]interface{}, 0)

	decoder.skipSpace()
	if decoder.peek() == ')' {
		decoder.pos++
		return elements, nil
	}

	for {
		element, err := decoder.value(false)
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)

		if done, err := decoder.separator(); err != nil || done {
			return elements, err
		}
	}
}

func (decoder *decoder) object() (interface{}, error) {
	objectMap := spantypes.NewObjectMap()

	decoder.skipSpace()
	if decoder.peek() == ')' {
		decoder.pos++
		return objectMap, nil
	}

	for {
		key, err := decoder.key()
		if err != nil {
			return nil, err
		}

		decoder.skipSpace()
		if decoder.peek() != '=' {
			return nil, decoder.errorf("expected '=' after key " + Quote(key))
		}
		decoder.pos++

		value, err := decoder.value(false)
		if err != nil {
			return nil, err
		}
		objectMap.Set(key, value)

		if done, err := decoder.separator(); err != nil || done {
			return objectMap, err
		}
	}
}

// Keys are always strings, so "(1=a)" has the key "1".
func (decoder *decoder) key() (string, error) {
	decoder.skipSpace()
	if decoder.peek() == '\'' {
		return decoder.quoted()
	}
	return decoder.bare(",)="), nil
}

// Consumes "," or ")" after a list element or map entry. done is true on ")".
func (decoder *decoder) separator() (done bool, err error) {
	decoder.skipSpace()
	switch decoder.peek() {
	case ',':
		decoder.pos++
		return false, nil
	case ')':
		decoder.pos++
		return true, nil
	case 0:
		return false, decoder.errorf("unexpected end of input")
	default:
		return false, decoder.errorf("expected ',' or ')'")
	}
}

// Turns a bare token into its literal, number or string value.
func classify(token string) interface{} {
	switch token {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}

	if !looksLikeNumber(token) {
		return token
	}
	if !strings.ContainsAny(token, ".eE") {
		if integer, err := strconv.ParseInt(token, 10, 64); err == nil {
			return integer
		}
	}
	number, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return token
	}
	return number
}
