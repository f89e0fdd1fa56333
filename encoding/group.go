package encoding

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
)

// Group is an ordered, immutable set of codecs. Earlier codecs win ties during
// negotiation.
type Group[C Codec] struct {
	codecs     []C
	mediaTypes []mimetype.MediaType
	// owner[i] is the index in codecs of the codec offering mediaTypes[i].
	owner []int
}

type (
	SerializerGroup = Group[Serializer]
	ParserGroup     = Group[Parser]
)

// Match is the outcome of negotiating a group against request ranges.
type Match[C Codec] struct {
	Codec C
	// The codec media type that satisfied the range.
	MediaType mimetype.MediaType
	Range     mimetype.MediaRange
}

// Codecs returns the group's codecs in order.
func (group *Group[C]) Codecs() []C {
	codecs := make([]C, len(group.codecs))
	copy(codecs, group.codecs)
	return codecs
}

func (group *Group[C]) Len() int {
	return len(group.codecs)
}

// SupportedMediaTypes lists every media type of every codec, first seen order,
// without duplicates.
func (group *Group[C]) SupportedMediaTypes() []mimetype.MediaType {
	supported := make([]mimetype.MediaType, 0, len(group.mediaTypes))
	seen := make(map[string]bool, len(group.mediaTypes))
	for _, mediaType := range group.mediaTypes {
		key := mediaType.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		supported = append(supported, mediaType)
	}
	return supported
}

// CodecFor returns the first codec with a media type that includes mediaType.
func (group *Group[C]) CodecFor(mediaType mimetype.MediaType) (codec C, ok bool) {
	for index, candidate := range group.mediaTypes {
		if candidate.Includes(mediaType) {
			return group.codecs[group.owner[index]], true
		}
	}
	return codec, false
}

// Negotiate picks the codec the client prefers according to ranges.
func (group *Group[C]) Negotiate(ranges *mimetype.MediaRanges) (match Match[C], ok bool) {
	index, mediaRange := mimetype.MatchRange(ranges, group.mediaTypes)
	if index == mimetype.NoMatch {
		return match, false
	}
	return Match[C]{
		Codec:     group.codecs[group.owner[index]],
		MediaType: group.mediaTypes[index],
		Range:     mediaRange,
	}, true
}

func newGroup[C Codec](codecs []C) *Group[C] {
	group := &Group[C]{codecs: codecs}
	for codecIndex, codec := range codecs {
		for _, mediaType := range codec.MediaTypes() {
			group.mediaTypes = append(group.mediaTypes, mediaType)
			group.owner = append(group.owner, codecIndex)
		}
	}
	return group
}

type groupEntry[C Codec] struct {
	codec    C
	override bool
}

// GroupBuilder assembles a Group. Builders are not safe for concurrent use. Problems
// are collected and reported together by Build.
type GroupBuilder[C Codec] struct {
	entries  []groupEntry[C]
	problems []string
	resolve  func(tag string) (C, error)
}

// NewGroupBuilder returns a builder that resolves format tags with resolve. resolve may
// be nil when AppendFormat is not used.
func NewGroupBuilder[C Codec](resolve func(tag string) (C, error)) *GroupBuilder[C] {
	return &GroupBuilder[C]{resolve: resolve}
}

// NewSerializerGroupBuilder returns a builder resolving format tags through registry.
func NewSerializerGroupBuilder(registry *Registry) *GroupBuilder[Serializer] {
	return NewGroupBuilder[Serializer](registry.Serializer)
}

// NewParserGroupBuilder returns a builder resolving format tags through registry.
func NewParserGroupBuilder(registry *Registry) *GroupBuilder[Parser] {
	return NewGroupBuilder[Parser](registry.Parser)
}

// Append adds codecs to the end of the group. A codec of the same type and primary
// media type as an earlier one replaces it in place.
func (builder *GroupBuilder[C]) Append(codecs ...C) *GroupBuilder[C] {
	for _, codec := range codecs {
		builder.add(codec, false)
	}
	return builder
}

// Override adds codecs that replace whatever codec already owns their primary media
// type, whatever its type.
func (builder *GroupBuilder[C]) Override(codecs ...C) *GroupBuilder[C] {
	for _, codec := range codecs {
		builder.add(codec, true)
	}
	return builder
}

// AppendFormat adds the codecs registered under each format tag.
func (builder *GroupBuilder[C]) AppendFormat(tags ...string) *GroupBuilder[C] {
	for _, tag := range tags {
		if builder.resolve == nil {
			builder.problems = append(
				builder.problems, fmt.Sprintf("format '%v': builder has no registry", tag),
			)
			continue
		}
		codec, err := builder.resolve(tag)
		if err != nil {
			builder.problems = append(builder.problems, fmt.Sprintf("format '%v': %v", tag, err))
			continue
		}
		builder.add(codec, false)
	}
	return builder
}

// AppendFactory adds the codec built by factory.
func (builder *GroupBuilder[C]) AppendFactory(factory func() (C, error)) *GroupBuilder[C] {
	codec, err := factory()
	if err != nil {
		builder.problems = append(builder.problems, fmt.Sprintf("factory: %v", err))
		return builder
	}
	builder.add(codec, false)
	return builder
}

// AppendGroup adds every codec of group, in order.
func (builder *GroupBuilder[C]) AppendGroup(group *Group[C]) *GroupBuilder[C] {
	if group == nil {
		return builder
	}
	return builder.Append(group.codecs...)
}

func (builder *GroupBuilder[C]) add(codec C, override bool) {
	if reflect.ValueOf(codec).Kind() == reflect.Invalid {
		builder.problems = append(builder.problems, "nil codec")
		return
	}

	primary, ok := primaryMediaType(codec)
	if !ok {
		builder.problems = append(
			builder.problems, fmt.Sprintf("codec %T declares no media types", codec),
		)
		return
	}

	override = override || overridesPrimary(codec)
	for index, existing := range builder.entries {
		existingPrimary, _ := primaryMediaType(existing.codec)
		if !existingPrimary.Equals(primary) {
			continue
		}

		switch {
		case override:
			builder.entries[index] = groupEntry[C]{codec: codec, override: true}
		case reflect.TypeOf(existing.codec) == reflect.TypeOf(codec):
			// Same type replaces in place and inherits the claim on the media type.
			builder.entries[index] = groupEntry[C]{codec: codec, override: existing.override}
		case existing.override:
			// The earlier codec explicitly claimed this media type.
		default:
			builder.problems = append(builder.problems, fmt.Sprintf(
				"codecs %T and %T both claim %v",
				existing.codec,
				codec,
				primary.Essence(),
			))
		}
		return
	}

	builder.entries = append(builder.entries, groupEntry[C]{codec: codec, override: override})
}

// Build returns the immutable group. Any problem recorded while appending yields a
// ConfigurationError listing all of them.
func (builder *GroupBuilder[C]) Build() (*Group[C], error) {
	if len(builder.problems) > 0 {
		return nil, spanerrors.ConfigurationError.New(
			"invalid codec group: "+strings.Join(builder.problems, "; "),
			map[string]interface{}{"problems": builder.problems},
			nil,
		)
	}

	codecs := make([]C, len(builder.entries))
	for index, entry := range builder.entries {
		codecs[index] = entry.codec
	}
	return newGroup(codecs), nil
}
