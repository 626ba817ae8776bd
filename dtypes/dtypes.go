// Package dtypes defines the element types device kernels operate on, with
// size and conversion helpers.
package dtypes

import (
	"strings"

	"github.com/x448/float16"
)

// DType is the element type of the values a device kernel processes.
type DType int

//go:generate go tool enumer -type=DType dtypes.go

const (
	InvalidDType DType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float16
	Float32
	Float64
	Complex64
	Complex128
)

// Aliases usable with FromName, in addition to the canonical names.
var aliases = map[string]DType{
	"pred": Bool,
	"i8":   Int8,
	"i16":  Int16,
	"i32":  Int32,
	"i64":  Int64,
	"u8":   Uint8,
	"u16":  Uint16,
	"u32":  Uint32,
	"u64":  Uint64,
	"f16":  Float16,
	"f32":  Float32,
	"f64":  Float64,
	"c64":  Complex64,
	"c128": Complex128,
}

// MapOfNames maps canonical names, lowercase names and short aliases (like
// "f32") to their DType.
var MapOfNames = func() map[string]DType {
	m := make(map[string]DType, 4*len(aliases))
	for _, dt := range DTypeValues() {
		if dt == InvalidDType {
			continue
		}
		m[dt.String()] = dt
		m[strings.ToLower(dt.String())] = dt
	}
	for alias, dt := range aliases {
		m[alias] = dt
		m[strings.ToUpper(alias)] = dt
	}
	return m
}()

// FromName converts a canonical name, a lowercase name or a short alias
// ("f32", "u8", ...) to its DType. Returns InvalidDType for unknown names.
func FromName(name string) DType {
	dt, found := MapOfNames[name]
	if !found {
		return InvalidDType
	}
	return dt
}

// Size returns the size in bytes of one element. Zero for InvalidDType.
func (dt DType) Size() int {
	switch dt {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16, Float16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64, Complex64:
		return 8
	case Complex128:
		return 16
	}
	return 0
}

// IsFloat returns whether dt is a floating point type, including Float16.
func (dt DType) IsFloat() bool {
	return dt == Float16 || dt == Float32 || dt == Float64
}

// IsComplex returns whether dt is a complex number type.
func (dt DType) IsComplex() bool {
	return dt == Complex64 || dt == Complex128
}

// IsInt returns whether dt is an integer type, signed or unsigned.
func (dt DType) IsInt() bool {
	return dt >= Int8 && dt <= Uint64
}

// Supported lists the Go types with a corresponding DType.
type Supported interface {
	bool | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 |
		float16.Float16 | float32 | float64 | complex64 | complex128
}

// FromGoType returns the DType corresponding to the Go type given as the
// generic parameter: FromGoType[float32]() == Float32.
func FromGoType[T Supported]() DType {
	var v T
	switch any(v).(type) {
	case bool:
		return Bool
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float16.Float16:
		return Float16
	case float32:
		return Float32
	case float64:
		return Float64
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	}
	return InvalidDType
}
