package changes

import (
	"sort"
	"strconv"
)

// MergePlan is the canonical-record update derived from approved staged data.
type MergePlan struct {
	// Fields is merged into the descriptive payload. A nil value deletes the key.
	Fields map[string]any
	// Classification is set when the staged data changes the heritage tag.
	Classification    string
	HasClassification bool
}

// PlanMerge prepares staged data for merging into a church record.
// Nested coordinates are flattened into root-level latitude and longitude;
// a half that parses is written on its own, and a value with neither half is
// kept as-is under "coordinates". The classification is lifted out because it
// is stored beside the payload.
func PlanMerge(data map[string]any) MergePlan {
	plan := MergePlan{Fields: make(map[string]any, len(data))}

	for field, value := range data {
		switch field {
		case "coordinates":
			lat, okLat, lng, okLng := extractCoordinates(value)
			if okLat {
				plan.Fields["latitude"] = lat
			}
			if okLng {
				plan.Fields["longitude"] = lng
			}
			if okLat || okLng {
				plan.Fields["coordinates"] = nil
			} else {
				plan.Fields["coordinates"] = value
			}
		case "classification":
			if s, ok := Normalize(value).(string); ok {
				plan.Classification = s
				plan.HasClassification = true
			}
		default:
			if _, set := plan.Fields[field]; set && (field == "latitude" || field == "longitude") {
				// flattened coordinates win over stale root values
				continue
			}
			plan.Fields[field] = value
		}
	}

	return plan
}

// MergeStaged overlays new sensitive changes on an existing staged edit and
// returns the combined data with a sorted, de-duplicated field list.
func MergeStaged(existing map[string]any, existingFields []string, changes map[string]any) (map[string]any, []string) {
	merged := make(map[string]any, len(existing)+len(changes))
	for k, v := range existing {
		merged[k] = v
	}

	seen := make(map[string]bool, len(existingFields)+len(changes))
	fields := make([]string, 0, len(existingFields)+len(changes))
	for _, f := range existingFields {
		if !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	for k, v := range changes {
		merged[k] = v
		if !seen[k] {
			seen[k] = true
			fields = append(fields, k)
		}
	}

	sort.Strings(fields)
	return merged, fields
}

// ChangedFields lists the keys of data in sorted order.
func ChangedFields(data map[string]any) []string {
	fields := make([]string, 0, len(data))
	for k := range data {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

func extractCoordinates(v any) (lat float64, okLat bool, lng float64, okLng bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return 0, false, 0, false
	}
	lat, okLat = toFloat(firstOf(m, "latitude", "lat", "_latitude"))
	lng, okLng = toFloat(firstOf(m, "longitude", "lng", "lon", "_longitude"))
	return lat, okLat, lng, okLng
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
