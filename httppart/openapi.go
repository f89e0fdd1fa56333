package httppart

import (
	"fmt"

	"github.com/go-openapi/spec"
)

// Adapts go-openapi simple schemas to the capability interfaces.
type openAPISource struct {
	name            string
	in              Location
	required        bool
	allowEmptyValue bool
	simple          spec.SimpleSchema
	validations     spec.CommonValidations
}

// FromParameter returns a constraint source reading an OpenAPI 2.0 parameter.
func FromParameter(parameter spec.Parameter) Source {
	return &openAPISource{
		name:            parameter.Name,
		in:              Location(parameter.In),
		required:        parameter.Required,
		allowEmptyValue: parameter.AllowEmptyValue,
		simple:          parameter.SimpleSchema,
		validations:     parameter.CommonValidations,
	}
}

// FromHeader returns a constraint source reading an OpenAPI 2.0 response header.
func FromHeader(name string, header spec.Header) Source {
	return &openAPISource{
		name:        name,
		in:          InHeader,
		simple:      header.SimpleSchema,
		validations: header.CommonValidations,
	}
}

func fromItems(items *spec.Items) Source {
	return &openAPISource{
		simple:      items.SimpleSchema,
		validations: items.CommonValidations,
	}
}

func (source *openAPISource) Name() string           { return source.name }
func (source *openAPISource) In() Location           { return source.in }
func (source *openAPISource) Type() Type             { return Type(source.simple.Type) }
func (source *openAPISource) Format() Format         { return Format(source.simple.Format) }
func (source *openAPISource) Required() bool         { return source.required }
func (source *openAPISource) AllowEmptyValue() bool  { return source.allowEmptyValue }
func (source *openAPISource) Pattern() string        { return source.validations.Pattern }
func (source *openAPISource) Minimum() *float64      { return source.validations.Minimum }
func (source *openAPISource) Maximum() *float64      { return source.validations.Maximum }
func (source *openAPISource) ExclusiveMinimum() bool { return source.validations.ExclusiveMinimum }
func (source *openAPISource) ExclusiveMaximum() bool { return source.validations.ExclusiveMaximum }
func (source *openAPISource) MultipleOf() *float64   { return source.validations.MultipleOf }
func (source *openAPISource) MinLength() *int64      { return source.validations.MinLength }
func (source *openAPISource) MaxLength() *int64      { return source.validations.MaxLength }
func (source *openAPISource) MinItems() *int64       { return source.validations.MinItems }
func (source *openAPISource) MaxItems() *int64       { return source.validations.MaxItems }
func (source *openAPISource) UniqueItems() bool      { return source.validations.UniqueItems }

func (source *openAPISource) CollectionFormat() CollectionFormat {
	return CollectionFormat(source.simple.CollectionFormat)
}

func (source *openAPISource) Enum() []string {
	if len(source.validations.Enum) == 0 {
		return nil
	}
	values := make([]string, len(source.validations.Enum))
	for index, value := range source.validations.Enum {
		values[index] = fmt.Sprint(value)
	}
	return values
}

func (source *openAPISource) ItemSource() Source {
	if source.simple.Items == nil {
		return nil
	}
	return fromItems(source.simple.Items)
}

func (source *openAPISource) Default() (string, bool) {
	if source.simple.Default == nil {
		return "", false
	}
	return fmt.Sprint(source.simple.Default), true
}

// ToParameter exports the schema as an OpenAPI 2.0 parameter for doc generators.
func (schema *PartSchema) ToParameter() spec.Parameter {
	parameter := spec.Parameter{
		ParamProps: spec.ParamProps{
			Name:            schema.name,
			In:              string(schema.in),
			Required:        schema.required,
			AllowEmptyValue: schema.allowEmptyValue,
		},
		SimpleSchema:      schema.simpleSchema(),
		CommonValidations: schema.commonValidations(),
	}
	return parameter
}

// ToHeader exports the schema as an OpenAPI 2.0 response header.
func (schema *PartSchema) ToHeader() spec.Header {
	return spec.Header{
		SimpleSchema:      schema.simpleSchema(),
		CommonValidations: schema.commonValidations(),
	}
}

func (schema *PartSchema) toItems() *spec.Items {
	return &spec.Items{
		SimpleSchema:      schema.simpleSchema(),
		CommonValidations: schema.commonValidations(),
	}
}

func (schema *PartSchema) simpleSchema() spec.SimpleSchema {
	simple := spec.SimpleSchema{
		Type:             string(schema.partType),
		Format:           string(schema.format),
		CollectionFormat: string(schema.collectionFormat),
	}
	if schema.items != nil {
		simple.Items = schema.items.toItems()
	}
	if defaultValue, ok := schema.Default(); ok {
		simple.Default = defaultValue
	}
	return simple
}

func (schema *PartSchema) commonValidations() spec.CommonValidations {
	validations := spec.CommonValidations{
		Maximum:          schema.Maximum(),
		ExclusiveMaximum: schema.exclusiveMaximum,
		Minimum:          schema.Minimum(),
		ExclusiveMinimum: schema.exclusiveMinimum,
		MaxLength:        schema.MaxLength(),
		MinLength:        schema.MinLength(),
		Pattern:          schema.Pattern(),
		MaxItems:         schema.MaxItems(),
		MinItems:         schema.MinItems(),
		UniqueItems:      schema.uniqueItems,
		MultipleOf:       schema.MultipleOf(),
	}
	if len(schema.enum) > 0 {
		validations.Enum = make([]interface{}, len(schema.enum))
		for index, value := range schema.enum {
			validations.Enum[index] = value
		}
	}
	return validations
}
