package datatype

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrUnknownDatatype is returned by Lookup for unregistered names.
var ErrUnknownDatatype = errors.New("datatype: unknown datatype")

// ConversionError reports a submitted string that could not be converted.
type ConversionError struct {
	Datatype string
	Input    string
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("datatype: cannot convert %q to %s", e.Input, e.Datatype)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Datatype converts and formats widget values.
type Datatype interface {
	// Name is the registry name, e.g. "integer".
	Name() string

	// Convert parses s. An empty string converts to a nil value.
	Convert(s string, tag language.Tag) (any, error)

	// Format renders v for output. A nil value formats as "".
	Format(v any, tag language.Tag) string

	// Accepts reports whether v may be assigned as a value.
	Accepts(v any) bool
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Datatype{}
)

func init() {
	for _, dt := range []Datatype{String(), Integer(), Decimal(), Boolean(), Date("2006-01-02")} {
		Register(dt)
	}
}

// Register makes dt available through Lookup, replacing any previous
// datatype with the same name.
func Register(dt Datatype) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[dt.Name()] = dt
}

// Lookup returns the datatype registered under name.
func Lookup(name string) (Datatype, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	dt, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatatype, name)
	}
	return dt, nil
}

type stringType struct{}

// String returns the identity datatype.
func String() Datatype { return stringType{} }

func (stringType) Name() string { return "string" }

func (stringType) Convert(s string, _ language.Tag) (any, error) {
	if s == "" {
		return nil, nil
	}
	return s, nil
}

func (stringType) Format(v any, _ language.Tag) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (stringType) Accepts(v any) bool {
	_, ok := v.(string)
	return v == nil || ok
}

type integerType struct{}

// Integer parses int64 values, tolerating the locale's grouping separator.
func Integer() Datatype { return integerType{} }

func (integerType) Name() string { return "integer" }

func (integerType) Convert(s string, tag language.Tag) (any, error) {
	if s == "" {
		return nil, nil
	}
	sep := separatorsFor(tag)
	n, err := strconv.ParseInt(strings.ReplaceAll(s, sep.group, ""), 10, 64)
	if err != nil {
		return nil, &ConversionError{Datatype: "integer", Input: s, Err: err}
	}
	return n, nil
}

func (integerType) Format(v any, tag language.Tag) string {
	if v == nil {
		return ""
	}
	return message.NewPrinter(tag).Sprintf("%d", v)
}

func (integerType) Accepts(v any) bool {
	switch v.(type) {
	case nil, int, int64, int32:
		return true
	}
	return false
}

type decimalType struct{}

// Decimal parses arbitrary precision decimals as *big.Rat using the locale's
// decimal and grouping separators.
func Decimal() Datatype { return decimalType{} }

func (decimalType) Name() string { return "decimal" }

func (decimalType) Convert(s string, tag language.Tag) (any, error) {
	if s == "" {
		return nil, nil
	}
	sep := separatorsFor(tag)
	norm := strings.ReplaceAll(s, sep.group, "")
	if sep.decimal != "." {
		if strings.Contains(norm, ".") {
			return nil, &ConversionError{Datatype: "decimal", Input: s}
		}
		norm = strings.ReplaceAll(norm, sep.decimal, ".")
	}
	r, ok := new(big.Rat).SetString(norm)
	if !ok || strings.ContainsAny(norm, "/eE") {
		return nil, &ConversionError{Datatype: "decimal", Input: s}
	}
	return r, nil
}

func (decimalType) Format(v any, tag language.Tag) string {
	var r *big.Rat
	switch x := v.(type) {
	case nil:
		return ""
	case *big.Rat:
		r = x
	case float64:
		r = new(big.Rat).SetFloat64(x)
	default:
		return fmt.Sprint(v)
	}
	s := r.FloatString(decimals(r))
	sep := separatorsFor(tag)
	if sep.decimal != "." {
		s = strings.Replace(s, ".", sep.decimal, 1)
	}
	return s
}

func (decimalType) Accepts(v any) bool {
	switch v.(type) {
	case nil, *big.Rat, float64:
		return true
	}
	return false
}

// decimals returns the number of fractional digits needed to show r exactly,
// capped for non-terminating fractions.
func decimals(r *big.Rat) int {
	const maxDigits = 20
	if r.IsInt() {
		return 0
	}
	d := new(big.Int).Set(r.Denom())
	two, five := big.NewInt(2), big.NewInt(5)
	twos, fives := 0, 0
	mod := new(big.Int)
	for mod.Mod(d, two).Sign() == 0 {
		d.Div(d, two)
		twos++
	}
	for mod.Mod(d, five).Sign() == 0 {
		d.Div(d, five)
		fives++
	}
	if d.Cmp(big.NewInt(1)) != 0 {
		return maxDigits
	}
	return max(twos, fives)
}

type booleanType struct{}

// Boolean parses "true"/"false" style values.
func Boolean() Datatype { return booleanType{} }

func (booleanType) Name() string { return "boolean" }

func (booleanType) Convert(s string, _ language.Tag) (any, error) {
	if s == "" {
		return nil, nil
	}
	switch strings.ToLower(s) {
	case "true", "on", "yes", "1":
		return true, nil
	case "false", "off", "no", "0":
		return false, nil
	}
	return nil, &ConversionError{Datatype: "boolean", Input: s}
}

func (booleanType) Format(v any, _ language.Tag) string {
	b, ok := v.(bool)
	if !ok {
		return ""
	}
	return strconv.FormatBool(b)
}

func (booleanType) Accepts(v any) bool {
	_, ok := v.(bool)
	return v == nil || ok
}

type dateType struct {
	layout string
}

// Date parses time.Time values with the given layout.
func Date(layout string) Datatype { return dateType{layout: layout} }

func (d dateType) Name() string {
	if d.layout == "2006-01-02" {
		return "date"
	}
	return "date:" + d.layout
}

func (d dateType) Convert(s string, _ language.Tag) (any, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(d.layout, s)
	if err != nil {
		return nil, &ConversionError{Datatype: d.Name(), Input: s, Err: err}
	}
	return t, nil
}

func (d dateType) Format(v any, _ language.Tag) string {
	t, ok := v.(time.Time)
	if !ok {
		return ""
	}
	return t.Format(d.layout)
}

func (dateType) Accepts(v any) bool {
	_, ok := v.(time.Time)
	return v == nil || ok
}
