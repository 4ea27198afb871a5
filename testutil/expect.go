// Package testutil holds the assertion helpers shared by the package tests.
package testutil

import (
	"errors"
	"os"
	"reflect"
	"testing"
)

func ExpectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("expected err=nil, got %s", err)
		t.FailNow()
	}
}

func ExpectHasError(t *testing.T, err error) {
	t.Helper()
	if errors.Is(err, nil) {
		t.Error("expected err not nil")
		t.FailNow()
	}
}

func ExpectError(t *testing.T, expected error, err error) {
	t.Helper()
	if !errors.Is(err, expected) {
		t.Errorf("expected err %s, got %v", expected, err)
		t.FailNow()
	}
}

func ExpectErrorT[T error](t *testing.T, err error) T {
	t.Helper()
	var errAs T
	if !errors.As(err, &errAs) {
		t.Errorf("expected err %T, got %v", errAs, err)
		t.FailNow()
	}
	return errAs
}

func ExpectEqual[T comparable](t *testing.T, got T, want T) {
	t.Helper()
	if got != want {
		t.Errorf("expected:\n%v, got\n%v", want, got)
		t.FailNow()
	}
}

func ExpectDeepEqual[T any](t *testing.T, got T, want T) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected:\n%v, got\n%v", want, got)
		t.FailNow()
	}
}

func ExpectTrue(t *testing.T, got bool) {
	t.Helper()
	if !got {
		t.Error("expected true")
		t.FailNow()
	}
}

func ExpectFalse(t *testing.T, got bool) {
	t.Helper()
	if got {
		t.Error("expected false")
		t.FailNow()
	}
}

// ReadFile returns the file content, failing the test when it cannot be read.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	ExpectNoError(t, err)
	return string(b)
}

// ExpectNotExist fails unless path is absent.
func ExpectNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected %s to not exist, stat err: %v", path, err)
		t.FailNow()
	}
}
