package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/risor-io/risor/object"
)

// makeDBQueryFn creates the "db_query" host function.
//
// db_query(store, sql, args...) → []map[string]any
//
// Only SELECT statements are accepted.
func makeDBQueryFn(stores map[string]*sql.DB) *object.Builtin {
	return object.NewBuiltin("db_query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 2 {
			return object.Errorf("db_query: expected at least 2 arguments (store, sql), got %d", len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("db_query: store: %v", err)
		}
		db, ok := stores[name]
		if !ok {
			return object.Errorf("db_query: unknown store %q", name)
		}
		sqlStr, err := toString(args[1])
		if err != nil {
			return object.Errorf("db_query: sql: %v", err)
		}

		trimmed := strings.TrimSpace(strings.ToUpper(sqlStr))
		if !strings.HasPrefix(trimmed, "SELECT") {
			return object.Errorf("db_query: only SELECT queries are allowed")
		}

		var queryArgs []any
		for _, arg := range args[2:] {
			queryArgs = append(queryArgs, objectToArg(arg))
		}

		rows, queryErr := db.QueryContext(ctx, sqlStr, queryArgs...)
		if queryErr != nil {
			return object.Errorf("db_query: %v", queryErr)
		}
		defer rows.Close()

		cols, colErr := rows.Columns()
		if colErr != nil {
			return object.Errorf("db_query: columns: %v", colErr)
		}

		var results []object.Object
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return object.Errorf("db_query: scan: %v", err)
			}
			row := make(map[string]object.Object, len(cols))
			for i, col := range cols {
				row[col] = sqlValueToObject(values[i])
			}
			results = append(results, object.NewMap(row))
		}
		if err := rows.Err(); err != nil {
			return object.Errorf("db_query: rows: %v", err)
		}
		if results == nil {
			results = []object.Object{}
		}
		return object.NewList(results)
	})
}

// makeReportFn creates the "report" host function.
//
// report(key, value)
func makeReportFn(rep *reporter) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("report", 2, len(args))
		}
		key, err := toString(args[0])
		if err != nil {
			return object.Errorf("report: key: %v", err)
		}
		rep.set(key, objectToGo(args[1]))
		return object.Nil
	})
}

func objectToArg(obj object.Object) any {
	switch v := obj.(type) {
	case *object.Int:
		return v.Value()
	case *object.Float:
		return v.Value()
	case *object.String:
		return v.Value()
	case *object.Bool:
		return v.Value()
	case *object.NilType:
		return nil
	default:
		return fmt.Sprintf("%v", obj)
	}
}

// objectToGo converts a reported Risor value to a plain Go value. Lists are
// converted element-wise; anything unrecognised is kept as its inspect form.
func objectToGo(obj object.Object) any {
	switch v := obj.(type) {
	case *object.List:
		items := v.Value()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = objectToGo(item)
		}
		return out
	case *object.NilType:
		return nil
	case *object.String:
		return v.Value()
	case *object.Int:
		return v.Value()
	case *object.Float:
		return v.Value()
	case *object.Bool:
		return v.Value()
	default:
		return obj.Inspect()
	}
}

// sqlValueToObject converts a database value to a Risor object.
func sqlValueToObject(v any) object.Object {
	if v == nil {
		return object.Nil
	}
	switch val := v.(type) {
	case int64:
		return object.NewInt(val)
	case float64:
		return object.NewFloat(val)
	case string:
		return object.NewString(val)
	case bool:
		return object.NewBool(val)
	case []byte:
		return object.NewString(string(val))
	default:
		return object.NewString(fmt.Sprintf("%v", val))
	}
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

// storeNames returns the store names, sorted, for the "stores" global.
func storeNames(stores map[string]*sql.DB) []any {
	names := make([]string, 0, len(stores))
	for name := range stores {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg)
}
