package worm

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	dsql "github.com/syssam/worm/dialect/sql"
)

var (
	// ErrColumnMissing is returned when a row lacks a column of the record.
	ErrColumnMissing = errors.New("worm: column missing from row")
	// ErrNullValue is returned when NULL is read into a non-nullable field.
	ErrNullValue = errors.New("worm: NULL value for non-nullable field")
)

// RowReader reads the columns of one fetched row by name.
type RowReader interface {
	// Value stores the value of the named column, coerced to the type dest
	// points to.
	Value(column string, dest any) error
}

// FromRow decodes a row into a new record. Columns are read in declaration
// order; the first failing column is reported in a *DecodeError.
func (m *Model[T]) FromRow(row RowReader) (*T, error) {
	rec := new(T)
	v := reflect.ValueOf(rec).Elem()
	for _, c := range m.columns {
		if err := row.Value(c.desc.Name, v.FieldByIndex(c.index).Addr().Interface()); err != nil {
			return nil, &DecodeError{Table: m.label(), Column: c.desc.Name, Err: err}
		}
	}
	return rec, nil
}

// Row is a RowReader over the current row of a result set.
type Row struct {
	index  map[string]int
	values []any
}

// ScanRow scans the current row of rows. columns are the result columns
// as returned by rows.Columns.
func ScanRow(rows dsql.ColumnScanner, columns []string) (*Row, error) {
	r := &Row{
		index:  make(map[string]int, len(columns)),
		values: make([]any, len(columns)),
	}
	ptrs := make([]any, len(columns))
	for i, c := range columns {
		ptrs[i] = &r.values[i]
		// The first column of a name wins, as in "select a.*, b.*".
		if _, ok := r.index[c]; !ok {
			r.index[c] = i
		}
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Value implements RowReader.
func (r *Row) Value(column string, dest any) error {
	i, ok := r.index[column]
	if !ok {
		for c, j := range r.index {
			if strings.EqualFold(c, column) {
				i, ok = j, true
				break
			}
		}
	}
	if !ok {
		return ErrColumnMissing
	}
	return Assign(dest, r.values[i])
}

// Assign stores a driver value in the value dest points to, converting it
// to the destination type. sql.Scanner destinations scan src themselves.
// RowReader implementations use it to coerce their values.
func Assign(dest, src any) error {
	if s, ok := dest.(sql.Scanner); ok {
		return s.Scan(src)
	}
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("worm: invalid destination %T", dest)
	}
	dv = dv.Elem()
	if src == nil {
		if dv.Kind() != reflect.Pointer {
			return ErrNullValue
		}
		dv.SetZero()
		return nil
	}
	if dv.Kind() == reflect.Pointer {
		nv := reflect.New(dv.Type().Elem())
		if err := Assign(nv.Interface(), src); err != nil {
			return err
		}
		dv.Set(nv)
		return nil
	}
	if b, ok := src.([]byte); ok && dv.Kind() != reflect.Slice {
		src = string(b)
	}
	if dv.Type() == reflect.TypeFor[time.Time]() {
		t, err := cast.ToTimeE(src)
		if err != nil {
			return err
		}
		dv.Set(reflect.ValueOf(t))
		return nil
	}
	switch dv.Kind() {
	case reflect.Bool:
		b, err := toBool(src)
		if err != nil {
			return err
		}
		dv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(src)
		if err != nil {
			return err
		}
		if dv.OverflowInt(n) {
			return fmt.Errorf("worm: value %d overflows %s", n, dv.Type())
		}
		dv.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(src)
		if err != nil {
			return err
		}
		dv.SetFloat(f)
	case reflect.String:
		s, err := cast.ToStringE(src)
		if err != nil {
			return err
		}
		dv.SetString(s)
	case reflect.Slice:
		if dv.Type().Elem().Kind() != reflect.Uint8 {
			return fmt.Errorf("worm: unsupported destination %s", dv.Type())
		}
		switch s := src.(type) {
		case []byte:
			dv.SetBytes(append([]byte(nil), s...))
		case string:
			dv.SetBytes([]byte(s))
		default:
			return fmt.Errorf("worm: cannot convert %T to %s", src, dv.Type())
		}
	default:
		sv := reflect.ValueOf(src)
		if !sv.Type().AssignableTo(dv.Type()) {
			return fmt.Errorf("worm: cannot convert %T to %s", src, dv.Type())
		}
		dv.Set(sv)
	}
	return nil
}

// toInt64 accepts integers, integral floats and base 10 text.
func toInt64(src any) (int64, error) {
	switch v := src.(type) {
	case int64:
		return v, nil
	case int, int8, int16, int32:
		return reflect.ValueOf(v).Int(), nil
	case uint, uint8, uint16, uint32, uint64:
		u := reflect.ValueOf(v).Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("worm: value %d overflows int64", u)
		}
		return int64(u), nil
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("worm: cannot convert %v to an integer", v)
		}
		return int64(v), nil
	case float32:
		return toInt64(float64(v))
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("worm: cannot convert %q to an integer: %w", v, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("worm: cannot convert %T to an integer", src)
	}
}

// toBool accepts booleans, integers and the text forms of strconv.ParseBool.
func toBool(src any) (bool, error) {
	switch v := src.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int, int8, int16, int32, uint, uint8, uint16, uint32, uint64:
		n, err := toInt64(v)
		return n != 0, err
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("worm: cannot convert %q to a boolean: %w", v, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("worm: cannot convert %T to a boolean", src)
	}
}

// scanAll decodes every row of rows and closes them.
func (m *Model[T]) scanAll(rows *dsql.Rows) (recs []*T, err error) {
	defer func() { err = errors.Join(err, rows.Close()) }()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	recs = []*T{}
	for rows.Next() {
		row, err := ScanRow(rows, columns)
		if err != nil {
			return nil, err
		}
		rec, err := m.FromRow(row)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}
