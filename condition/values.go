// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package condition

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"
)

var (
	bigIntType  = reflect.TypeOf((*big.Int)(nil))
	decimalType = reflect.TypeOf((*apd.Decimal)(nil))
	timeType    = reflect.TypeOf(time.Time{})
	bytesType   = reflect.TypeOf([]byte(nil))
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// normalize brings a value into the form used for comparisons. Pointers
// are dereferenced, driver.Valuers are replaced by their driver value and
// nil pointers become nil. *big.Int and *apd.Decimal are kept as they are.
func normalize(v any) (any, error) {
	for range 8 {
		if v == nil {
			return nil, nil
		}
		rv := reflect.ValueOf(v)
		switch {
		case rv.Type() == bigIntType || rv.Type() == decimalType:
			if rv.IsNil() {
				return nil, nil
			}
			return v, nil
		case rv.Kind() == reflect.Pointer:
			if rv.IsNil() {
				return nil, nil
			}
			if rv.Type().Implements(valuerType) {
				dv, err := v.(driver.Valuer).Value()
				if err != nil {
					return nil, err
				}
				v = dv
				continue
			}
			v = rv.Elem().Interface()
		case rv.Type().Implements(valuerType) && rv.Type() != timeType:
			dv, err := v.(driver.Valuer).Value()
			if err != nil {
				return nil, err
			}
			if reflect.TypeOf(dv) == rv.Type() {
				return dv, nil
			}
			v = dv
		default:
			return v, nil
		}
	}
	return nil, fmt.Errorf("cannot resolve value of type %T", v)
}

// numeric classifies values that take part in numeric comparison.
type numeric int

const (
	notNumeric numeric = iota
	numInt
	numUint
	numFloat
	numBig
	numDecimal
)

func classify(v any) numeric {
	switch v.(type) {
	case *big.Int:
		return numBig
	case *apd.Decimal:
		return numDecimal
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return numInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return numUint
	case reflect.Float32, reflect.Float64:
		return numFloat
	}
	return notNumeric
}

// toDecimal converts a numeric value to an exact decimal.
func toDecimal(v any, kind numeric) (*apd.Decimal, error) {
	switch kind {
	case numInt:
		return apd.New(reflect.ValueOf(v).Int(), 0), nil
	case numUint:
		d, _, err := apd.NewFromString(strconv.FormatUint(reflect.ValueOf(v).Uint(), 10))
		return d, err
	case numFloat:
		return new(apd.Decimal).SetFloat64(reflect.ValueOf(v).Float())
	case numBig:
		d, _, err := apd.NewFromString(v.(*big.Int).String())
		return d, err
	case numDecimal:
		return v.(*apd.Decimal), nil
	}
	return nil, fmt.Errorf("%T is not a number", v)
}

// compareNumbers orders two numbers of any Go numeric type exactly. NaN is
// not ordered.
func compareNumbers(a, b any, ka, kb numeric) (int, error) {
	if ka == numFloat || kb == numFloat {
		fa, fb := asFloat(a, ka), asFloat(b, kb)
		if math.IsNaN(fa) || math.IsNaN(fb) {
			return 0, fmt.Errorf("cannot compare %v with %v", a, b)
		}
		if math.IsInf(fa, 0) || math.IsInf(fb, 0) {
			switch {
			case fa < fb:
				return -1, nil
			case fa > fb:
				return 1, nil
			}
			return 0, nil
		}
	}
	da, err := toDecimal(a, ka)
	if err != nil {
		return 0, err
	}
	db, err := toDecimal(b, kb)
	if err != nil {
		return 0, err
	}
	return da.Cmp(db), nil
}

func asFloat(v any, kind numeric) float64 {
	switch kind {
	case numFloat:
		return reflect.ValueOf(v).Float()
	case numInt:
		return float64(reflect.ValueOf(v).Int())
	case numUint:
		return float64(reflect.ValueOf(v).Uint())
	case numBig:
		f, _ := new(big.Float).SetInt(v.(*big.Int)).Float64()
		return f
	case numDecimal:
		f, _ := v.(*apd.Decimal).Float64()
		return f
	}
	return math.NaN()
}

// compareValues orders two non-null normalized values. Numbers compare
// across Go types, strings by bytes, times chronologically and false sorts
// before true. Any other pair is an error.
func compareValues(a, b any) (int, error) {
	ka, kb := classify(a), classify(b)
	if ka != notNumeric && kb != notNumeric {
		return compareNumbers(a, b, ka, kb)
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case va.Kind() == reflect.String && vb.Kind() == reflect.String:
		return strings.Compare(va.String(), vb.String()), nil
	case va.Kind() == reflect.Bool && vb.Kind() == reflect.Bool:
		x, y := va.Bool(), vb.Bool()
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		}
		return 1, nil
	case va.Type() == bytesType && vb.Type() == bytesType:
		return bytes.Compare(va.Bytes(), vb.Bytes()), nil
	}
	ta, okA := a.(time.Time)
	tb, okB := b.(time.Time)
	if okA && okB {
		return ta.Compare(tb), nil
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}

// valuesEqual reports whether two non-null normalized values are equal.
// Values of unrelated types are never equal.
func valuesEqual(a, b any) bool {
	if c, err := compareValues(a, b); err == nil {
		return c == 0
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if reflect.TypeOf(a).Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// text returns the string held by a value of any string kind.
func text(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// castTypes are the Go types produced by each target.
var castTypes = map[CastTarget]reflect.Type{
	CastString:  reflect.TypeOf(""),
	CastInt64:   reflect.TypeOf(int64(0)),
	CastInt32:   reflect.TypeOf(int32(0)),
	CastInt16:   reflect.TypeOf(int16(0)),
	CastInt8:    reflect.TypeOf(int8(0)),
	CastFloat64: reflect.TypeOf(float64(0)),
	CastFloat32: reflect.TypeOf(float32(0)),
	CastBigInt:  bigIntType,
	CastDecimal: decimalType,
	CastRune:    reflect.TypeOf(rune(0)),
}

var intBits = map[CastTarget]int{CastInt64: 64, CastInt32: 32, CastInt16: 16, CastInt8: 8}

// castValue converts a normalized value to target. A null stays null and a
// value that already has the target type is returned unchanged. Conversions
// that would lose information fail.
func castValue(v any, target CastTarget) (any, error) {
	if v == nil {
		return nil, nil
	}
	typ, ok := castTypes[target]
	if !ok {
		return nil, fmt.Errorf("unknown cast target %s", target)
	}
	if reflect.TypeOf(v) == typ {
		return v, nil
	}
	kind := classify(v)
	s, isText := text(v)

	var res any
	var err error
	switch target {
	case CastString:
		res, err = castString(v, kind, isText, s)
	case CastInt64, CastInt32, CastInt16, CastInt8:
		res, err = castInt(v, kind, isText, s, intBits[target])
	case CastFloat64, CastFloat32:
		res, err = castFloat(v, kind, isText, s, target == CastFloat32)
	case CastBigInt:
		res, err = castBigInt(v, kind, isText, s)
	case CastDecimal:
		res, err = castDecimal(v, kind, isText, s)
	case CastRune:
		if !isText {
			err = errNoConversion
			break
		}
		r, _ := utf8.DecodeRuneInString(s)
		if s == "" {
			r = 0
		}
		res = r
	}
	if err != nil {
		return nil, fmt.Errorf("cannot cast %T value %v to %s: %w", v, v, target, err)
	}
	return res, nil
}

var errNoConversion = errors.New("no conversion")

func castString(v any, kind numeric, isText bool, s string) (any, error) {
	switch {
	case isText:
		return s, nil
	case kind == numInt:
		return strconv.FormatInt(reflect.ValueOf(v).Int(), 10), nil
	case kind == numUint:
		return strconv.FormatUint(reflect.ValueOf(v).Uint(), 10), nil
	case kind == numFloat:
		bits := 64
		if reflect.ValueOf(v).Kind() == reflect.Float32 {
			bits = 32
		}
		return strconv.FormatFloat(reflect.ValueOf(v).Float(), 'g', -1, bits), nil
	case kind == numBig:
		return v.(*big.Int).String(), nil
	case kind == numDecimal:
		return v.(*apd.Decimal).String(), nil
	}
	switch v := v.(type) {
	case bool:
		return strconv.FormatBool(v), nil
	case []byte:
		return string(v), nil
	}
	return nil, errNoConversion
}

func castInt(v any, kind numeric, isText bool, s string, bits int) (any, error) {
	var i int64
	switch {
	case isText:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, bits)
		if err != nil {
			return nil, err
		}
		i = n
	case kind == numInt:
		i = reflect.ValueOf(v).Int()
	case kind == numUint:
		u := reflect.ValueOf(v).Uint()
		if u > math.MaxInt64 {
			return nil, errOutOfRange
		}
		i = int64(u)
	case kind == numFloat || kind == numBig || kind == numDecimal:
		d, err := toDecimal(v, kind)
		if err != nil {
			return nil, err
		}
		if i, err = d.Int64(); err != nil {
			return nil, err
		}
	default:
		return nil, errNoConversion
	}
	switch bits {
	case 8:
		if i < math.MinInt8 || i > math.MaxInt8 {
			return nil, errOutOfRange
		}
		return int8(i), nil
	case 16:
		if i < math.MinInt16 || i > math.MaxInt16 {
			return nil, errOutOfRange
		}
		return int16(i), nil
	case 32:
		if i < math.MinInt32 || i > math.MaxInt32 {
			return nil, errOutOfRange
		}
		return int32(i), nil
	}
	return i, nil
}

var errOutOfRange = errors.New("value out of range")

func castFloat(v any, kind numeric, isText bool, s string, single bool) (any, error) {
	bits := 64
	if single {
		bits = 32
	}
	var f float64
	switch {
	case isText:
		n, err := strconv.ParseFloat(strings.TrimSpace(s), bits)
		if err != nil {
			return nil, err
		}
		f = n
	case kind != notNumeric:
		f = asFloat(v, kind)
	default:
		return nil, errNoConversion
	}
	if single {
		return float32(f), nil
	}
	return f, nil
}

func castBigInt(v any, kind numeric, isText bool, s string) (any, error) {
	switch {
	case isText:
		b, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		return b, nil
	case kind == numInt:
		return big.NewInt(reflect.ValueOf(v).Int()), nil
	case kind == numUint:
		return new(big.Int).SetUint64(reflect.ValueOf(v).Uint()), nil
	case kind == numFloat || kind == numDecimal:
		d, err := toDecimal(v, kind)
		if err != nil {
			return nil, err
		}
		var integ, frac apd.Decimal
		d.Modf(&integ, &frac)
		if !frac.IsZero() {
			return nil, fmt.Errorf("%s is not an integer", d)
		}
		b, ok := new(big.Int).SetString(integ.Text('f'), 10)
		if !ok {
			return nil, fmt.Errorf("%s is not an integer", d)
		}
		return b, nil
	}
	return nil, errNoConversion
}

func castDecimal(v any, kind numeric, isText bool, s string) (any, error) {
	if isText {
		d, _, err := apd.NewFromString(strings.TrimSpace(s))
		return d, err
	}
	if kind == notNumeric {
		return nil, errNoConversion
	}
	return toDecimal(v, kind)
}
