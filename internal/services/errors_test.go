package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"assetopt/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "optimize", "quantize", "pngquant failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"optimize", "quantize", "pngquant failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransformFailure) {
		t.Fatalf("expected transform failure marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestDispositionFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want services.Disposition
	}{
		{"invalid asset", services.Wrap(services.ErrInvalidAsset, "assets", "inspect", "zero area", nil), services.DispositionSkip},
		{"transform", services.Wrap(services.ErrTransformFailure, "optimize", "write", "", errors.New("io")), services.DispositionSkip},
		{"backup", services.Wrap(services.ErrBackupFailure, "archive", "copy", "", nil), services.DispositionAbort},
		{"configuration", services.Wrap(services.ErrConfiguration, "policy", "", "", nil), services.DispositionAbort},
		{"canceled", fmt.Errorf("resize: %w", context.Canceled), services.DispositionAbort},
		{"nil", nil, services.DispositionSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.DispositionFor(tt.err); got != tt.want {
				t.Fatalf("DispositionFor(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}
