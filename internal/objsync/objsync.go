// Package objsync implements the recursive diff/merge used to keep
// local JSON config files and on-board configuration cards in sync.
// Values follow encoding/json's generic mapping: objects are
// map[string]any, arrays []any, numbers float64.
package objsync

import (
	"encoding/json"
	"fmt"
	"time"
)

// Obj is a decoded JSON object.
type Obj = map[string]any

// RemovalInfo records a property (or array element) present in the old
// document but absent from the new one.
type RemovalInfo struct {
	Path      []string
	Timestamp time.Time
	PrevValue any
}

// LiteralUpdate records a scalar whose value changed, addressed by its
// dot path from the document root.
type LiteralUpdate struct {
	DotPath []string
	Value   any
}

// DetectRemovals walks oldObj and reports every property or array
// element that no longer exists in newObj. Array elements are compared
// by string rendering, and their path ends with the element's index in
// the old array.
func DetectRemovals(newObj, oldObj Obj) []RemovalInfo {
	return detectRemovals(newObj, oldObj, nil)
}

func detectRemovals(newObj, oldObj Obj, pathSoFar []string) []RemovalInfo {
	var removals []RemovalInfo
	timestamp := time.Now().AddDate(0, 0, -10)

	for key, oldValue := range oldObj {
		newValue, present := newObj[key]
		if !present {
			removals = append(removals, RemovalInfo{
				Path:      appendPath(pathSoFar, key),
				Timestamp: timestamp,
				PrevValue: oldValue,
			})
			continue
		}

		switch oldTyped := oldValue.(type) {
		case []any:
			newArray, _ := newValue.([]any)
			for i, item := range oldTyped {
				if !containsByString(newArray, item) {
					removals = append(removals, RemovalInfo{
						Path:      appendPath(pathSoFar, key, fmt.Sprintf("%d", i)),
						Timestamp: timestamp,
						PrevValue: item,
					})
				}
			}
		case Obj:
			if newTyped, ok := newValue.(Obj); ok {
				removals = append(removals, detectRemovals(newTyped, oldTyped, appendPath(pathSoFar, key))...)
			}
		}
	}
	return removals
}

// DetectLiteralChanges walks newObj and reports every string or number
// whose value differs from oldObj at the same path. Keys absent from
// oldObj are not changes; arrays are not descended into.
func DetectLiteralChanges(newObj, oldObj Obj) []LiteralUpdate {
	return detectLiteralChanges(newObj, oldObj, nil)
}

func detectLiteralChanges(newObj, oldObj Obj, pathSoFar []string) []LiteralUpdate {
	var updates []LiteralUpdate
	for key, newValue := range newObj {
		oldValue, present := oldObj[key]
		if !present {
			continue
		}
		switch newTyped := newValue.(type) {
		case string, float64:
			if _, sameKind := kindMatch(newValue, oldValue); sameKind {
				if newValue != oldValue {
					updates = append(updates, LiteralUpdate{DotPath: appendPath(pathSoFar, key), Value: newValue})
				}
			} else {
				updates = append(updates, LiteralUpdate{DotPath: appendPath(pathSoFar, key), Value: newValue})
			}
		case Obj:
			if oldTyped, ok := oldValue.(Obj); ok {
				updates = append(updates, detectLiteralChanges(newTyped, oldTyped, appendPath(pathSoFar, key))...)
			}
		}
	}
	return updates
}

// UpdateLiteralsByDotPath applies literal updates to target in place.
// Only paths that already exist in target are touched.
func UpdateLiteralsByDotPath(target Obj, updates []LiteralUpdate) {
	for _, update := range updates {
		applyLiteral(target, update.DotPath, update.Value)
	}
}

func applyLiteral(target Obj, path []string, value any) {
	if len(path) == 0 {
		return
	}
	current, present := target[path[0]]
	if !present {
		return
	}
	if nested, ok := current.(Obj); ok {
		applyLiteral(nested, path[1:], value)
		return
	}
	if len(path) == 1 {
		target[path[0]] = value
	}
}

// RemovePropsByDotPath deletes the addressed properties from target in
// place. A path ending inside an array removes the array elements whose
// string rendering or index matches the path's final segment.
func RemovePropsByDotPath(target Obj, dotPaths [][]string) {
	for _, path := range dotPaths {
		removeProp(target, path)
	}
}

func removeProp(target Obj, path []string) {
	if len(path) == 0 {
		return
	}
	current, present := target[path[0]]
	if !present {
		return
	}
	switch typed := current.(type) {
	case []any:
		if len(path) == 1 {
			delete(target, path[0])
			return
		}
		filtered := make([]any, 0, len(typed))
		for i, item := range typed {
			if fmt.Sprint(item) == path[1] || fmt.Sprintf("%d", i) == path[1] {
				continue
			}
			filtered = append(filtered, item)
		}
		target[path[0]] = filtered
	case Obj:
		if len(path) == 1 {
			delete(target, path[0])
			return
		}
		removeProp(typed, path[1:])
	default:
		delete(target, path[0])
	}
}

// SyncWithPreference merges two documents. Scalars from preferred win,
// arrays take every unique item from both sources (preferred items
// first), objects merge recursively, and keys only present in secondary
// are carried over.
func SyncWithPreference(preferred, secondary Obj) Obj {
	result := make(Obj, len(preferred))

	for key, preferredValue := range preferred {
		switch typed := preferredValue.(type) {
		case string, float64, bool:
			result[key] = preferredValue
		case []any:
			if secondaryArray, ok := secondary[key].([]any); ok {
				result[key] = unionByString(typed, secondaryArray)
			} else {
				result[key] = typed
			}
		case Obj:
			if secondaryObj, ok := secondary[key].(Obj); ok {
				result[key] = SyncWithPreference(typed, secondaryObj)
			} else {
				result[key] = typed
			}
		default:
			result[key] = preferredValue
		}
	}

	for key, secondaryValue := range secondary {
		if _, present := preferred[key]; !present {
			result[key] = secondaryValue
		}
	}
	return result
}

// IsJSONString reports whether s parses as a JSON document.
func IsJSONString(s string) bool {
	var v any
	return json.Unmarshal([]byte(s), &v) == nil
}

func appendPath(base []string, segments ...string) []string {
	path := make([]string, 0, len(base)+len(segments))
	path = append(path, base...)
	return append(path, segments...)
}

func containsByString(haystack []any, needle any) bool {
	target := fmt.Sprint(needle)
	for _, item := range haystack {
		if fmt.Sprint(item) == target {
			return true
		}
	}
	return false
}

func unionByString(a, b []any) []any {
	var result []any
	for _, source := range [][]any{a, b} {
		for _, item := range source {
			if !containsByString(result, item) {
				result = append(result, item)
			}
		}
	}
	return result
}

func kindMatch(a, b any) (any, bool) {
	switch a.(type) {
	case string:
		_, ok := b.(string)
		return b, ok
	case float64:
		_, ok := b.(float64)
		return b, ok
	}
	return b, false
}
