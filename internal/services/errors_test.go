package services_test

import (
	"errors"
	"strings"
	"testing"

	"grimoire/internal/services"
)

func TestWrapPreservesMarker(t *testing.T) {
	cause := errors.New("row missing")
	err := services.Wrap(services.ErrNotFound, "engine", "get-card-details", "printing absent", cause)

	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if errors.Is(err, services.ErrExternalService) {
		t.Fatal("markers must not cross-match")
	}
	for _, fragment := range []string{"engine", "get-card-details", "printing absent"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in message, got %q", fragment, err.Error())
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "engine", "validate-id", "catalog id is required", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation marker, got %v", err)
	}
}

func TestMarkersAreDistinct(t *testing.T) {
	markers := []error{services.ErrNotFound, services.ErrExternalService, services.ErrValidation}
	for i, a := range markers {
		for j, b := range markers {
			if i != j && errors.Is(a, b) {
				t.Fatalf("markers %v and %v must be distinct", a, b)
			}
		}
	}
}
