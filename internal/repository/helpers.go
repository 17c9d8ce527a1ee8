package repository

import (
	"encoding/json"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// extractRecordID normalizes the various shapes SurrealDB returns for a
// record id into the "table:id" string form used throughout the bridge.
func extractRecordID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return v.String()
	case *models.RecordID:
		if v != nil {
			return v.String()
		}
	case map[string]interface{}:
		if tb, ok := v["tb"].(string); ok {
			if id, ok := v["id"].(string); ok {
				return tb + ":" + id
			}
		}
	}

	// Fallback through JSON for anything else the driver hands back.
	if data, err := json.Marshal(id); err == nil {
		var recordID models.RecordID
		if err := json.Unmarshal(data, &recordID); err == nil {
			return recordID.String()
		}
	}

	return ""
}

// extractQueryResults unwraps the {"status": "OK", "result": [...]} shape
// produced by the database layer into the raw record array.
func extractQueryResults(result interface{}) ([]interface{}, bool) {
	if results, ok := result.([]interface{}); ok {
		if len(results) > 0 {
			if first, ok := results[0].(map[string]interface{}); ok {
				if arr, ok := first["result"].([]interface{}); ok {
					return arr, true
				}
			}
			return results, true
		}
	}
	return nil, false
}

// extractCount pulls the value of a `count()` aggregate out of a QueryOne
// result.
func extractCount(result interface{}) int {
	if m, ok := result.(map[string]interface{}); ok {
		if status, ok := m["status"].(string); ok && status == "OK" {
			if arr, ok := m["result"].([]interface{}); ok && len(arr) > 0 {
				if row, ok := arr[0].(map[string]interface{}); ok {
					return toInt(row["count"])
				}
			}
		}
		return toInt(m["count"])
	}
	return toInt(result)
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case float32:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	}
	return 0
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	return toInt(m[key])
}

func getFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// getFloatPtr distinguishes "absent" from zero for optional metrics.
func getFloatPtr(m map[string]interface{}, key string) *float64 {
	if _, present := m[key]; !present {
		return nil
	}
	if m[key] == nil {
		return nil
	}
	v := getFloat(m, key)
	return &v
}

// getTime parses the driver's assorted timestamp encodings.
func getTime(m map[string]interface{}, key string) time.Time {
	switch t := m[key].(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t != nil {
			return t.Time
		}
	}
	return time.Time{}
}

// getTimePtr is getTime for optional timestamps, nil when absent.
func getTimePtr(m map[string]interface{}, key string) *time.Time {
	if m[key] == nil {
		return nil
	}
	t := getTime(m, key)
	if t.IsZero() {
		return nil
	}
	return &t
}
