// Media types, Accept-style header ranges and content negotiation.
package mimetype

import (
	"strings"
)

/*
Default media types for the formats the encoding package ships with. Non default
media types can be used by parsing a custom string:

	mimetype.Parse("text/csv")

MediaType values are immutable, so these can be shared freely, but Go has no struct
constants: the variables themselves must never be reassigned. Derive a variant with
WithParameter instead.
*/
var (
	JSON        = Parse("application/json")
	XML         = Parse("text/xml")
	HTML        = Parse("text/html")
	TEXT        = Parse("text/plain")
	UON         = Parse("text/uon")
	URLENCODING = Parse("application/x-www-form-urlencoded")
	MSGPACK     = Parse("application/msgpack")
	OPENAPI     = Parse("text/openapi")
	YAML        = Parse("application/yaml")
	BSON        = Parse("application/bson")
	// WILDCARD matches any media type.
	WILDCARD = Parse("*/*")
	// UNKNOWN is used when the incoming string is blank
	UNKNOWN = MediaType{}
)

// List of default media types that are encoded to / from objects (as opposed to raw
// text). Used to resolve shorthand names like "json" or "x-yaml".
var objectMediaTypes = []MediaType{JSON, XML, YAML, BSON, MSGPACK, UON, HTML}

// Interface for object used to fetch headers such as http.Request.Header or
// http.Response.Header
type headerFetcher interface {
	Get(string) string
}

// Extract content type from a message / request header.
func FromHeader(headers headerFetcher) MediaType {
	return FromString(headers.Get("Content-Type"))
}

/*
Convert MediaType from a string. Ignores case. Shorthand names of the default object
media types are resolved, so all of the following will yield "mimetype.JSON":

• "application/json"

• "application/JSON"

• "application/x-json"

• "json"

• "x-json"

Anything else is parsed as-is with Parse().
*/
func FromString(incoming string) MediaType {
	incoming = strings.ToLower(strings.TrimSpace(incoming))

	if incoming == "" {
		return UNKNOWN
	}
	if incoming == "text" {
		return TEXT
	}

	parsed := Parse(incoming)
	for _, mediaType := range objectMediaTypes {
		if parsed.subtype == mediaType.subtype && parsed.typ == mediaType.typ {
			return parsed
		}
	}

	// Shorthand or vendor-prefixed names only: keep parameters of real media types.
	name := parsed.subtype
	if parsed.subtype == "*" && !strings.Contains(incoming, "/") {
		name = parsed.typ
	}
	name = strings.TrimPrefix(name, "x-")

	for _, mediaType := range objectMediaTypes {
		if name == mediaType.subtype {
			return mediaType
		}
	}

	return parsed
}
