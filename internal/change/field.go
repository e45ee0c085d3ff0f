// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package change

import (
	"fmt"
	"strings"

	"github.com/wneessen/guia-turistico/internal/geocode"
)

// Field is an address component that is tracked for changes.
type Field string

const (
	FieldLogradouro Field = "logradouro"
	FieldBairro     Field = "bairro"
	FieldMunicipio  Field = "municipio"
)

// DefaultPriority is the default field order, highest priority first.
var DefaultPriority = []Field{FieldMunicipio, FieldBairro, FieldLogradouro}

// String returns the name of the field.
func (f Field) String() string {
	return string(f)
}

// ParseField returns the Field for the given name. The name is case-insensitive.
func ParseField(name string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(name))); f {
	case FieldLogradouro, FieldBairro, FieldMunicipio:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
}

// ParsePriority parses a list of field names into a priority order.
func ParsePriority(names []string) ([]Field, error) {
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		f, err := ParseField(name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, validatePriority(fields)
}

// Value returns the value of the field in the address.
func (f Field) Value(addr geocode.Address) string {
	switch f {
	case FieldLogradouro:
		return addr.Logradouro
	case FieldBairro:
		return addr.Bairro
	case FieldMunicipio:
		return addr.Municipio
	default:
		return ""
	}
}

func validatePriority(fields []Field) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields given", ErrInvalidPriority)
	}
	seen := make(map[Field]struct{}, len(fields))
	for _, f := range fields {
		if _, err := ParseField(string(f)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPriority, err)
		}
		if _, ok := seen[f]; ok {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidPriority, f)
		}
		seen[f] = struct{}{}
	}
	return nil
}
