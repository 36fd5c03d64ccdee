package tester

import (
	"errors"
	"reflect"
	"testing"
)

// Eq asserts that got == want using reflect.DeepEqual for non-comparable types.
func Eq[T any](t *testing.T, got, want T, msgAndArgs ...any) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		if len(msgAndArgs) > 0 {
			t.Fatalf("%v: got=%v want=%v", msgAndArgs[0], got, want)
		}
		t.Fatalf("got=%v want=%v", got, want)
	}
}

// True asserts that cond is true.
func True(t *testing.T, cond bool, msgAndArgs ...any) {
	t.Helper()
	if !cond {
		if len(msgAndArgs) > 0 {
			t.Fatalf("%v", msgAndArgs[0])
		}
		t.Fatalf("expected condition to be true")
	}
}

// False asserts that cond is false.
func False(t *testing.T, cond bool, msgAndArgs ...any) {
	t.Helper()
	if cond {
		if len(msgAndArgs) > 0 {
			t.Fatalf("%v", msgAndArgs[0])
		}
		t.Fatalf("expected condition to be false")
	}
}

// NoErr asserts that err is nil.
func NoErr(t *testing.T, err error, msgAndArgs ...any) {
	t.Helper()
	if err != nil {
		if len(msgAndArgs) > 0 {
			t.Fatalf("%v: %v", msgAndArgs[0], err)
		}
		t.Fatalf("unexpected error: %v", err)
	}
}

// ErrIs asserts that errors.Is(err, target).
func ErrIs(t *testing.T, err, target error, msgAndArgs ...any) {
	t.Helper()
	if !errors.Is(err, target) {
		if len(msgAndArgs) > 0 {
			t.Fatalf("%v: got err=%v want %v", msgAndArgs[0], err, target)
		}
		t.Fatalf("got err=%v want %v", err, target)
	}
}

// ErrAs asserts that errors.As(err, target) and returns the match.
func ErrAs[T error](t *testing.T, err error, msgAndArgs ...any) T {
	t.Helper()
	var target T
	if !errors.As(err, &target) {
		if len(msgAndArgs) > 0 {
			t.Fatalf("%v: got err=%v want %T", msgAndArgs[0], err, target)
		}
		t.Fatalf("got err=%v want %T", err, target)
	}
	return target
}
