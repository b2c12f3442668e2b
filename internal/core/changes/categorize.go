package changes

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
)

// ChangeSet splits an edit into fields that need review and fields that publish now.
type ChangeSet struct {
	HasSensitiveChanges  bool
	SensitiveChanges     map[string]any
	SensitiveFields      []string
	DirectPublishChanges map[string]any
	DirectPublishFields  []string
}

// IsEmpty reports whether the edit changed nothing.
func (c ChangeSet) IsEmpty() bool {
	return len(c.SensitiveFields) == 0 && len(c.DirectPublishFields) == 0
}

// CategorizeChanges compares every key of updated against original and buckets
// the ones that differ. Field lists are sorted so the result does not depend on
// map iteration order.
func CategorizeChanges(original, updated map[string]any) ChangeSet {
	cs := ChangeSet{
		SensitiveChanges:     map[string]any{},
		SensitiveFields:      []string{},
		DirectPublishChanges: map[string]any{},
		DirectPublishFields:  []string{},
	}

	for field, newValue := range updated {
		if Equal(original[field], newValue) {
			continue
		}
		switch Classify(field) {
		case DirectPublish:
			cs.DirectPublishChanges[field] = newValue
			cs.DirectPublishFields = append(cs.DirectPublishFields, field)
		default:
			cs.SensitiveChanges[field] = newValue
			cs.SensitiveFields = append(cs.SensitiveFields, field)
		}
	}

	sort.Strings(cs.SensitiveFields)
	sort.Strings(cs.DirectPublishFields)
	cs.HasSensitiveChanges = len(cs.SensitiveFields) > 0
	return cs
}

// Normalize maps every "no value" representation to nil: nil, the empty string,
// and empty slices or maps.
func Normalize(v any) any {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return nil
		}
		return s
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		if rv.Len() == 0 {
			return nil
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	}
	return v
}

// Equal compares two field values after normalization. Values are compared by
// their JSON encoding so that 3 and 3.0 decoded from different sources match.
func Equal(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ja, jb)
}
