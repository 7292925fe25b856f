package helpers

import "reflect"

// StrPanic panics with panicMessage when s is empty, otherwise returns s.
// Used by constructors to fail fast on required strings (base URL, service name).
func StrPanic(s string, panicMessage string) string {
	if s == "" {
		panic(panicMessage)
	}
	return s
}

// NilPanic panics with panicMessage when v is nil (including typed nil pointers, funcs, maps, slices, chans
// and interfaces), otherwise returns v unchanged.
func NilPanic[T any](v T, panicMessage string) T {
	if isNil(v) {
		panic(panicMessage)
	}
	return v
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
