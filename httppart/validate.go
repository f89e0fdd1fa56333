package httppart

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

type validateConfig struct {
	accumulate bool
}

// ValidateOption tunes Validate.
type ValidateOption func(config *validateConfig)

// Accumulate makes validation collect every violation instead of stopping at the
// first one.
func Accumulate() ValidateOption {
	return func(config *validateConfig) {
		config.accumulate = true
	}
}

/*
Validate checks a raw part value against the schema. A nil raw value means the part
is absent. Checks run in this order:

1. required: an absent part fails with ErrRequired

2. empty: "" fails with ErrEmptyValue unless allowEmptyValue is set. Boolean and
numeric parts report ErrTypeMismatch instead.

3. pattern: ErrPattern

4. enum: ErrEnum

5. type and numeric range: text that is not a boolean, integer or number fails with
ErrTypeMismatch, and minimum, maximum and multipleOf failures with ErrRange

6. length: ErrRange

7. items: arrays are split by their collection format, then checked for item count and
uniqueness (ErrRange) and each item is validated against the items schema

Validation stops at the first violation unless Accumulate is passed. The returned
error is a spanerrors.SchemaValidationError wrapping a *ValidationError.
*/
func (schema *PartSchema) Validate(raw *string, options ...ValidateOption) error {
	schema = schema.orUntyped()
	violations := schema.check(raw, newValidateConfig(options))
	if len(violations) == 0 {
		return nil
	}
	return newSchemaError(schema, violations)
}

// ValidateAll validates the raw occurrences of a multi array. Other schemas validate
// the first occurrence, or an absent part when there is none.
func (schema *PartSchema) ValidateAll(raws []string, options ...ValidateOption) error {
	schema = schema.orUntyped()
	config := newValidateConfig(options)

	var violations []Violation
	if schema.isMulti() {
		violations = schema.checkMulti(raws, config)
	} else {
		violations = schema.check(firstRaw(raws), config)
	}

	if len(violations) == 0 {
		return nil
	}
	return newSchemaError(schema, violations)
}

func newValidateConfig(options []ValidateOption) validateConfig {
	config := validateConfig{}
	for _, option := range options {
		option(&config)
	}
	return config
}

func (schema *PartSchema) isMulti() bool {
	return schema.partType == TypeArray && schema.collectionFormat == CollectionMulti
}

func firstRaw(raws []string) *string {
	if len(raws) == 0 {
		return nil
	}
	return &raws[0]
}

// Collects violations, reporting whether validation should stop.
type violationList struct {
	violations []Violation
	accumulate bool
}

func (list *violationList) add(rule error, expected string, actual string) bool {
	list.violations = append(
		list.violations,
		Violation{Rule: rule, Expected: expected, Actual: actual},
	)
	return !list.accumulate
}

func (list *violationList) addNested(path string, nested []Violation) bool {
	for _, violation := range nested {
		violation.Path = path + joinViolationPath(violation.Path)
		list.violations = append(list.violations, violation)
	}
	return len(nested) > 0 && !list.accumulate
}

func (schema *PartSchema) check(raw *string, config validateConfig) []Violation {
	if raw == nil {
		if schema.required {
			return []Violation{{Rule: ErrRequired, Expected: "value", Actual: ""}}
		}
		return nil
	}

	text := *raw
	if text == "" {
		if schema.allowEmptyValue {
			return nil
		}
		if schema.partType == TypeBoolean || schema.partType.IsNumeric() {
			return []Violation{
				{Rule: ErrTypeMismatch, Expected: string(schema.partType), Actual: ""},
			}
		}
		return []Violation{{Rule: ErrEmptyValue, Expected: "non-empty value", Actual: ""}}
	}

	list := &violationList{accumulate: config.accumulate}
	switch schema.partType {
	case TypeArray:
		schema.checkArray(text, list, config)
	case TypeObject:
		schema.checkObject(text, list, config)
	default:
		schema.checkScalar(text, list)
	}
	return list.violations
}

func (schema *PartSchema) checkScalar(text string, list *violationList) {
	if schema.pattern != nil && !schema.pattern.MatchString(text) {
		if list.add(ErrPattern, schema.pattern.String(), text) {
			return
		}
	}

	if !schema.inEnum(text) {
		if list.add(ErrEnum, strings.Join(schema.enum, "|"), text) {
			return
		}
	}

	if stop := schema.checkType(text, list); stop {
		return
	}

	schema.checkLength(text, list)
}

// Returns true when validation must stop.
func (schema *PartSchema) checkType(text string, list *violationList) bool {
	switch schema.partType {
	case TypeBoolean:
		if !isBool(text) {
			return list.add(ErrTypeMismatch, "boolean", text)
		}
		return false
	case TypeInteger:
		return schema.checkInteger(text, ErrTypeMismatch, list)
	case TypeNumber:
		return schema.checkNumber(text, ErrTypeMismatch, list)
	case TypeNone:
		// Untyped parts with a numeric format only fail once they are parsed.
		switch schema.format {
		case FormatInt32, FormatInt64:
			return schema.checkInteger(text, nil, list)
		case FormatFloat, FormatDouble:
			return schema.checkNumber(text, nil, list)
		}
	}
	return false
}

func isBool(text string) bool {
	return strings.EqualFold(text, "true") || strings.EqualFold(text, "false")
}

// mismatch is the rule reported for non-numeric text, nil to skip the check.
func (schema *PartSchema) checkInteger(
	text string, mismatch error, list *violationList,
) bool {
	integer, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return list.add(ErrRange, "int64", text)
		}
		if mismatch == nil {
			return false
		}
		return list.add(mismatch, "integer", text)
	}

	if schema.format == FormatInt32 && (integer < math.MinInt32 || integer > math.MaxInt32) {
		if list.add(ErrRange, "int32", text) {
			return true
		}
	}
	return schema.checkRange(float64(integer), text, list)
}

func (schema *PartSchema) checkNumber(
	text string, mismatch error, list *violationList,
) bool {
	number, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		if mismatch == nil {
			return false
		}
		return list.add(mismatch, "number", text)
	}

	if schema.format == FormatFloat && math.Abs(number) > math.MaxFloat32 {
		if list.add(ErrRange, "float", text) {
			return true
		}
	}
	return schema.checkRange(number, text, list)
}

func (schema *PartSchema) checkRange(number float64, text string, list *violationList) bool {
	if schema.minimum != nil {
		minimum := *schema.minimum
		if schema.exclusiveMinimum && number <= minimum {
			if list.add(ErrRange, "> "+formatBound(minimum), text) {
				return true
			}
		} else if !schema.exclusiveMinimum && number < minimum {
			if list.add(ErrRange, ">= "+formatBound(minimum), text) {
				return true
			}
		}
	}

	if schema.maximum != nil {
		maximum := *schema.maximum
		if schema.exclusiveMaximum && number >= maximum {
			if list.add(ErrRange, "< "+formatBound(maximum), text) {
				return true
			}
		} else if !schema.exclusiveMaximum && number > maximum {
			if list.add(ErrRange, "<= "+formatBound(maximum), text) {
				return true
			}
		}
	}

	if schema.multipleOf != nil && !isMultiple(number, *schema.multipleOf) {
		if list.add(ErrRange, "multiple of "+formatBound(*schema.multipleOf), text) {
			return true
		}
	}
	return false
}

func isMultiple(number float64, multipleOf float64) bool {
	quotient := number / multipleOf
	return math.Abs(quotient-math.Round(quotient)) < 1e-9
}

func formatBound(bound float64) string {
	return strconv.FormatFloat(bound, 'f', -1, 64)
}

func (schema *PartSchema) checkLength(text string, list *violationList) {
	if schema.partType != TypeString && schema.partType != TypeNone {
		return
	}

	length := int64(utf8.RuneCountInString(text))
	if schema.minLength != nil && length < *schema.minLength {
		if list.add(ErrRange, "length >= "+strconv.FormatInt(*schema.minLength, 10), text) {
			return
		}
	}
	if schema.maxLength != nil && length > *schema.maxLength {
		list.add(ErrRange, "length <= "+strconv.FormatInt(*schema.maxLength, 10), text)
	}
}

func (schema *PartSchema) checkArray(text string, list *violationList, config validateConfig) {
	items, err := schema.splitArray(text)
	if err != nil {
		list.add(ErrTypeMismatch, "array", text)
		return
	}
	schema.checkItems(items, text, list, config)
}

func (schema *PartSchema) checkMulti(raws []string, config validateConfig) []Violation {
	if len(raws) == 0 {
		return schema.check(nil, config)
	}

	items := make([]partValue, len(raws))
	for index, raw := range raws {
		items[index] = textValue(raw)
	}

	list := &violationList{accumulate: config.accumulate}
	schema.checkItems(items, strings.Join(raws, ","), list, config)
	return list.violations
}

func (schema *PartSchema) checkItems(
	items []partValue, text string, list *violationList, config validateConfig,
) {
	count := int64(len(items))
	if schema.minItems != nil && count < *schema.minItems {
		expected := "at least " + strconv.FormatInt(*schema.minItems, 10) + " items"
		if list.add(ErrRange, expected, text) {
			return
		}
	}
	if schema.maxItems != nil && count > *schema.maxItems {
		expected := "at most " + strconv.FormatInt(*schema.maxItems, 10) + " items"
		if list.add(ErrRange, expected, text) {
			return
		}
	}

	if schema.uniqueItems {
		seen := make(map[string]struct{}, len(items))
		for _, item := range items {
			key := "\x00null"
			if item.text != nil {
				key = *item.text
			}
			if _, duplicate := seen[key]; duplicate {
				if list.add(ErrRange, "unique items", key) {
					return
				}
				break
			}
			seen[key] = struct{}{}
		}
	}

	itemSchema := schema.items.orUntyped()
	for index, item := range items {
		nested := itemSchema.check(item.text, config)
		if list.addNested("["+strconv.Itoa(index)+"]", nested) {
			return
		}
	}
}

func (schema *PartSchema) checkObject(text string, list *violationList, config validateConfig) {
	entries, err := schema.splitObject(text)
	if err != nil {
		list.add(ErrTypeMismatch, "object", text)
		return
	}

	present := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		present[entry.key] = struct{}{}
		property := schema.Property(entry.key)
		if property == nil {
			continue
		}
		if list.addNested("."+entry.key, property.check(entry.text, config)) {
			return
		}
	}

	for _, name := range schema.propertyNames {
		if _, ok := present[name]; ok {
			continue
		}
		if list.addNested("."+name, schema.properties[name].check(nil, config)) {
			return
		}
	}
}
