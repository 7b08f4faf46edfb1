package datasource

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spektr-org/nexus/engine"
)

// ============================================================================
// VALUE NORMALIZATION — driver values → engine values
// ============================================================================
// Integers and floats become float64. Exact numerics (NUMERIC / DECIMAL,
// HUGEINT) go through shopspring/decimal. Times become RFC 3339 text.
// Everything else is stringified.
// ============================================================================

type floater interface{ Float64() float64 }

// isExactNumeric reports whether a database type name is an exact numeric.
func isExactNumeric(dbType string) bool {
	t := strings.ToUpper(dbType)
	return strings.HasPrefix(t, "NUMERIC") || strings.HasPrefix(t, "DECIMAL")
}

// normalizeValue converts one scanned cell.
func normalizeValue(v any, dbType string) engine.Value {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		return x
	case float64:
		return finiteOrNil(x)
	case float32:
		return finiteOrNil(float64(x))
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int16:
		return float64(x)
	case int8:
		return float64(x)
	case int:
		return float64(x)
	case uint64:
		return float64(x)
	case uint32:
		return float64(x)
	case uint16:
		return float64(x)
	case uint8:
		return float64(x)
	case *big.Int:
		if x == nil {
			return nil
		}
		return decimal.NewFromBigInt(x, 0).InexactFloat64()
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case []byte:
		return textValue(string(x), dbType)
	case string:
		return textValue(x, dbType)
	}

	if f, ok := asFloater(v); ok {
		return finiteOrNil(f.Float64())
	}
	if s, ok := v.(fmt.Stringer); ok {
		return textValue(s.String(), dbType)
	}
	return fmt.Sprint(v)
}

// textValue keeps text as text unless the column is an exact numeric.
func textValue(s, dbType string) engine.Value {
	if !isExactNumeric(dbType) {
		return s
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return d.InexactFloat64()
}

// asFloater finds a Float64 method on v or on a pointer to a copy of v.
// Driver decimal types declare it on the pointer receiver.
func asFloater(v any) (floater, bool) {
	if f, ok := v.(floater); ok {
		return f, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	f, ok := p.Interface().(floater)
	return f, ok
}

func finiteOrNil(f float64) engine.Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
