package ledger

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal is a fixed-precision signed decimal value. Unlike the bare
// shopspring/decimal.Decimal it wraps, it tracks an explicit display
// precision (the number of digits after the point) so formatting and
// tolerance checks don't have to re-infer it from the underlying
// coefficient on every call.
type Decimal struct {
	value     decimal.Decimal
	precision int32
}

// NewDecimalFromInt builds a Decimal with precision 0.
func NewDecimalFromInt(i int64) Decimal {
	return Decimal{value: decimal.NewFromInt(i), precision: 0}
}

// NewDecimalFromFloat builds a Decimal from a float64, inferring the
// minimal precision (up to 9 digits) that reproduces the float within
// 1e-9.
func NewDecimalFromFloat(f float64) Decimal {
	for prec := int32(0); prec <= 9; prec++ {
		rounded := math.Round(f*math.Pow10(int(prec))) / math.Pow10(int(prec))
		if math.Abs(rounded-f) <= 1e-9 {
			return Decimal{value: decimal.NewFromFloat(rounded), precision: prec}
		}
	}
	return Decimal{value: decimal.NewFromFloat(f), precision: 9}
}

// ParseDecimal parses a textual amount. Embedded thousands-separator commas
// are stripped silently; at least one digit is required before any '.'.
func ParseDecimal(s string) (Decimal, error) {
	clean := strings.ReplaceAll(s, ",", "")

	dotIdx := strings.IndexByte(clean, '.')
	intPart := clean
	if dotIdx >= 0 {
		intPart = clean[:dotIdx]
	}
	trimmedSign := strings.TrimPrefix(strings.TrimPrefix(intPart, "-"), "+")
	if trimmedSign == "" {
		return Decimal{}, fmt.Errorf("invalid decimal %q: missing digit before point", s)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}

	precision := int32(0)
	if dotIdx >= 0 {
		precision = int32(len(clean) - dotIdx - 1)
	}

	return Decimal{value: d, precision: precision}, nil
}

// Precision returns the number of digits tracked after the decimal point.
func (d Decimal) Precision() int32 { return d.precision }

// Raw returns the underlying shopspring/decimal.Decimal, for interop with
// the rest of the ledger package that hasn't adopted the wrapper.
func (d Decimal) Raw() decimal.Decimal { return d.value }

// Float64 converts to a float64, losing precision for very large values.
func (d Decimal) Float64() float64 {
	f, _ := d.value.Float64()
	return f
}

func maxPrecision(a, b Decimal) int32 {
	if a.precision > b.precision {
		return a.precision
	}
	return b.precision
}

// Add adds two decimals, propagating the larger of the two precisions.
func (d Decimal) Add(other Decimal) Decimal {
	return Decimal{value: d.value.Add(other.value), precision: maxPrecision(d, other)}
}

// Sub subtracts other from d, propagating the larger of the two precisions.
func (d Decimal) Sub(other Decimal) Decimal {
	return Decimal{value: d.value.Sub(other.value), precision: maxPrecision(d, other)}
}

// Mul multiplies two decimals, propagating the sum of their precisions.
func (d Decimal) Mul(other Decimal) Decimal {
	return Decimal{value: d.value.Mul(other.value), precision: d.precision + other.precision}
}

// Div divides d by other. Returns an error if other is zero.
func (d Decimal) Div(other Decimal) (Decimal, error) {
	if other.value.IsZero() {
		return Decimal{}, fmt.Errorf("division by zero")
	}
	return Decimal{value: d.value.Div(other.value), precision: maxPrecision(d, other)}, nil
}

// Neg negates d, preserving precision.
func (d Decimal) Neg() Decimal {
	return Decimal{value: d.value.Neg(), precision: d.precision}
}

// Abs returns the absolute value of d, preserving precision.
func (d Decimal) Abs() Decimal {
	return Decimal{value: d.value.Abs(), precision: d.precision}
}

// Min returns the smaller of d and other, preserving the winner's precision.
func (d Decimal) Min(other Decimal) Decimal {
	if d.value.LessThanOrEqual(other.value) {
		return d
	}
	return other
}

// Cmp compares d to other: -1, 0, or 1.
func (d Decimal) Cmp(other Decimal) int {
	return d.value.Cmp(other.value)
}

// IsZero reports whether d is zero.
func (d Decimal) IsZero() bool { return d.value.IsZero() }

// IsPositive reports whether d is strictly greater than zero.
func (d Decimal) IsPositive() bool { return d.value.IsPositive() }

// IsNegative reports whether d is strictly less than zero.
func (d Decimal) IsNegative() bool { return d.value.IsNegative() }

// RoundTo rounds d to precision digits after the point using truncate,
// then half-up by sign (5 always rounds away from zero, never to even).
func (d Decimal) RoundTo(precision int32) Decimal {
	shift := decimal.New(1, precision)
	scaled := d.value.Mul(shift)

	truncated := scaled.Truncate(0)
	frac := scaled.Sub(truncated).Abs()
	half := decimal.NewFromFloat(0.5)

	if frac.GreaterThanOrEqual(half) {
		if d.value.IsNegative() {
			truncated = truncated.Sub(decimal.NewFromInt(1))
		} else {
			truncated = truncated.Add(decimal.NewFromInt(1))
		}
	}

	result := truncated.Div(shift)
	return Decimal{value: result, precision: precision}
}

// Normalize strips trailing zero digits from the tracked precision,
// recomputing it from the value's own minimal representation.
func (d Decimal) Normalize() Decimal {
	normalized := d.value.Truncate(d.precision)
	str := normalized.String()
	dotIdx := strings.IndexByte(str, '.')
	if dotIdx < 0 {
		return Decimal{value: normalized, precision: 0}
	}
	frac := strings.TrimRight(str[dotIdx+1:], "0")
	return Decimal{value: normalized, precision: int32(len(frac))}
}

// IsWithinTolerance reports whether |d-other| is at most one ulp of d's
// own tracked precision (10^-precision).
func (d Decimal) IsWithinTolerance(other Decimal) bool {
	ulp := decimal.New(1, -d.precision)
	diff := d.value.Sub(other.value).Abs()
	return diff.LessThanOrEqual(ulp)
}

// Format renders d with displayPrecision digits after the point and
// thousands-grouped integer digits, using '.' as the decimal separator.
func (d Decimal) Format(displayPrecision int32) string {
	rounded := d.RoundTo(displayPrecision)
	str := rounded.value.StringFixed(displayPrecision)

	neg := strings.HasPrefix(str, "-")
	str = strings.TrimPrefix(str, "-")

	intPart := str
	fracPart := ""
	if dotIdx := strings.IndexByte(str, '.'); dotIdx >= 0 {
		intPart = str[:dotIdx]
		fracPart = str[dotIdx:]
	}

	grouped := groupThousands(intPart)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(grouped)
	b.WriteString(fracPart)
	return b.String()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	return strings.Join(parts, ",")
}

func (d Decimal) String() string {
	return d.Format(d.precision)
}
