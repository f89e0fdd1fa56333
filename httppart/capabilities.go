package httppart

// Source is anything that carries part constraints. SchemaBuilder.Apply copies every
// capability a source implements. PartSchema, Tag and the go-openapi adapters are all
// sources.
type Source interface{}

type HasName interface {
	Name() string
}

type HasLocation interface {
	In() Location
}

type HasType interface {
	Type() Type
}

type HasFormat interface {
	Format() Format
}

type HasCollectionFormat interface {
	CollectionFormat() CollectionFormat
}

type HasRequired interface {
	Required() bool
}

type HasAllowEmpty interface {
	AllowEmptyValue() bool
}

type HasPattern interface {
	Pattern() string
}

type HasEnum interface {
	Enum() []string
}

type HasNumericRange interface {
	Minimum() *float64
	Maximum() *float64
	ExclusiveMinimum() bool
	ExclusiveMaximum() bool
	MultipleOf() *float64
}

type HasLength interface {
	MinLength() *int64
	MaxLength() *int64
}

type HasItemCount interface {
	MinItems() *int64
	MaxItems() *int64
	UniqueItems() bool
}

// HasItems sources carry a nested element source for arrays.
type HasItems interface {
	ItemSource() Source
}

type HasDefault interface {
	Default() (string, bool)
}

/*
Apply copies the constraints of each source into the builder, in order. Only values
a source actually declares are copied: empty strings, nil pointers, false flags and
empty enums leave the builder untouched, so later sources refine earlier ones instead
of resetting them.
*/
func (builder *SchemaBuilder) Apply(sources ...Source) *SchemaBuilder {
	for _, source := range sources {
		if source == nil {
			continue
		}
		builder.applyOne(source)
	}
	return builder
}

func (builder *SchemaBuilder) applyOne(source Source) {
	if named, ok := source.(HasName); ok && named.Name() != "" {
		builder.name = named.Name()
	}
	if located, ok := source.(HasLocation); ok && located.In() != "" {
		builder.in = located.In()
	}
	if typed, ok := source.(HasType); ok && typed.Type() != TypeNone {
		builder.partType = typed.Type()
	}
	if formatted, ok := source.(HasFormat); ok && formatted.Format() != FormatNone {
		builder.format = formatted.Format()
	}
	if collected, ok := source.(HasCollectionFormat); ok &&
		collected.CollectionFormat() != CollectionNone {
		builder.collectionFormat = collected.CollectionFormat()
	}
	if required, ok := source.(HasRequired); ok && required.Required() {
		builder.required = true
	}
	if allowEmpty, ok := source.(HasAllowEmpty); ok && allowEmpty.AllowEmptyValue() {
		builder.allowEmptyValue = true
	}
	if patterned, ok := source.(HasPattern); ok && patterned.Pattern() != "" {
		builder.pattern = patterned.Pattern()
	}
	if enumerated, ok := source.(HasEnum); ok && len(enumerated.Enum()) > 0 {
		builder.enum = append([]string(nil), enumerated.Enum()...)
	}

	if ranged, ok := source.(HasNumericRange); ok {
		if minimum := ranged.Minimum(); minimum != nil {
			builder.Minimum(*minimum, ranged.ExclusiveMinimum())
		}
		if maximum := ranged.Maximum(); maximum != nil {
			builder.Maximum(*maximum, ranged.ExclusiveMaximum())
		}
		if multipleOf := ranged.MultipleOf(); multipleOf != nil {
			builder.MultipleOf(*multipleOf)
		}
	}

	if lengthed, ok := source.(HasLength); ok {
		if minLength := lengthed.MinLength(); minLength != nil {
			builder.MinLength(*minLength)
		}
		if maxLength := lengthed.MaxLength(); maxLength != nil {
			builder.MaxLength(*maxLength)
		}
	}

	if counted, ok := source.(HasItemCount); ok {
		if minItems := counted.MinItems(); minItems != nil {
			builder.MinItems(*minItems)
		}
		if maxItems := counted.MaxItems(); maxItems != nil {
			builder.MaxItems(*maxItems)
		}
		if counted.UniqueItems() {
			builder.uniqueItems = true
		}
	}

	if itemed, ok := source.(HasItems); ok {
		if itemSource := itemed.ItemSource(); itemSource != nil {
			if builder.items == nil {
				builder.items = NewSchemaBuilder()
			}
			builder.items.Apply(itemSource)
		}
	}

	if defaulted, ok := source.(HasDefault); ok {
		if value, ok := defaulted.Default(); ok {
			builder.Default(value)
		}
	}

	if schema, ok := source.(*PartSchema); ok {
		for _, name := range schema.propertyNames {
			builder.Property(name, NewSchemaBuilder().Apply(schema.properties[name]))
		}
		if schema.additionalProperties != nil {
			builder.AdditionalProperties(
				NewSchemaBuilder().Apply(schema.additionalProperties),
			)
		}
	}
}
