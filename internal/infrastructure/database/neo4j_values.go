package database

import (
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4j returns nil for absent properties; these helpers map nil and
// unexpected types to zero values instead of panicking on type assertions.

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%.0f", s)
	case int64:
		return fmt.Sprintf("%d", s)
	}
	return fmt.Sprint(v)
}

func int64Value(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func boolValue(v any) bool {
	b, _ := v.(bool)
	return b
}

func timeValue(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case neo4j.LocalDateTime:
		return t.Time()
	case neo4j.Date:
		return t.Time()
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func valueAt(values []any, i int) any {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}
