package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"not found", NewImageNotFoundError("missing", nil), ErrorTypeImageNotFound, http.StatusNotFound},
		{"decode", NewImageDecodeError("corrupt", io.ErrUnexpectedEOF), ErrorTypeImageDecode, http.StatusUnprocessableEntity},
		{"layout", NewUnsupportedChannelLayoutError("2 channels", nil), ErrorTypeUnsupportedChannelLayout, http.StatusUnprocessableEntity},
		{"empty", NewEmptyImageError("0x0", nil), ErrorTypeEmptyImage, http.StatusUnprocessableEntity},
		{"metric", NewMetricComputationError("nan", nil), ErrorTypeMetricComputation, http.StatusUnprocessableEntity},
		{"dimensions", NewDimensionMismatchError("10x10 vs 5x5", nil), ErrorTypeDimensionMismatch, http.StatusBadRequest},
		{"timeout", NewTimeoutError("slow", nil), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"validation", NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"network", NewNetworkError("down", nil), ErrorTypeNetwork, http.StatusBadGateway},
		{"internal", NewInternalError("oops", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, tt.err.Type)
			}
			if GetStatusCode(tt.err) != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, GetStatusCode(tt.err))
			}
		})
	}
}

func TestWrappedAppError(t *testing.T) {
	base := NewImageDecodeError("corrupt png", io.ErrUnexpectedEOF)
	wrapped := fmt.Errorf("load photo.png: %w", base)

	if !IsType(wrapped, ErrorTypeImageDecode) {
		t.Error("Expected IsType to see through wrapping")
	}
	if GetStatusCode(wrapped) != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", GetStatusCode(wrapped))
	}
	if GetType(io.EOF) != ErrorTypeInternal {
		t.Errorf("Expected internal for foreign errors, got %s", GetType(io.EOF))
	}
	if base.Unwrap() != io.ErrUnexpectedEOF {
		t.Error("Expected Unwrap to return the cause")
	}
	want := "image_decode: corrupt png (caused by: unexpected EOF)"
	if base.Error() != want {
		t.Errorf("Expected %q, got %q", want, base.Error())
	}
}
