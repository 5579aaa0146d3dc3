package validation

import (
	"errors"
	"testing"

	apperrors "go-tamper-inspector/internal/errors"
)

func appMessage(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected AppError, got: %T", err)
	}
	return appErr.Message
}

func TestNewURLValidator(t *testing.T) {
	validator := NewURLValidator()
	if validator == nil {
		t.Fatal("Expected non-nil URL validator")
	}

	expectedSchemes := []string{"http", "https", "azblob", "data"}
	if len(validator.allowedSchemes) != len(expectedSchemes) {
		t.Fatalf("Expected %d schemes, got %d", len(expectedSchemes), len(validator.allowedSchemes))
	}
	for i, scheme := range expectedSchemes {
		if validator.allowedSchemes[i] != scheme {
			t.Errorf("Expected scheme %s, got %s", scheme, validator.allowedSchemes[i])
		}
	}
}

func TestValidateImageURL_ValidReferences(t *testing.T) {
	validator := NewURLValidator()

	validRefs := []string{
		"http://example.com/image.jpg",
		"https://example.com/image.png",
		"https://subdomain.example.com/path/to/image.gif",
		"http://192.168.1.1/image.jpg",
		"azblob://screenshots/2024/shot.png",
		"data:image/png;base64,iVBORw0KGgo=",
		"DATA:image/jpeg;base64,/9j/",
	}

	for _, ref := range validRefs {
		if err := validator.ValidateImageURL(ref); err != nil {
			t.Errorf("Expected valid reference %s to pass validation, got error: %v", ref, err)
		}
	}
}

func TestValidateImageURL_Invalid(t *testing.T) {
	validator := NewURLValidator()

	tests := []struct {
		ref     string
		message string
	}{
		{"", "URL cannot be empty"},
		{"   ", "URL cannot be empty"},
		{"\t\n", "URL cannot be empty"},
		{"not-a-url", "URL scheme not allowed"},
		{"ftp://example.com/image.jpg", "URL scheme not allowed"},
		{"file://local/path/image.jpg", "URL scheme not allowed"},
		{"http://", "URL must have a valid host"},
		{"https://", "URL must have a valid host"},
		{"http:///path", "URL must have a valid host"},
		{"azblob://screenshots", "blob reference must name a blob"},
		{"azblob:///shot.png", "URL must have a valid host"},
		{"data:text/plain;base64,aGVsbG8=", "data URL must carry an image media type"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			err := validator.ValidateImageURL(tt.ref)
			if err == nil {
				t.Fatalf("Expected %q to fail validation", tt.ref)
			}
			if msg := appMessage(t, err); msg != tt.message {
				t.Errorf("Expected %q, got %q", tt.message, msg)
			}
			if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error type, got %v", err)
			}
		})
	}
}

func TestValidateImageURL_RestrictedSchemes(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"https"}, nil)

	if err := validator.ValidateImageURL("https://example.com/a.png"); err != nil {
		t.Errorf("Expected https to pass, got %v", err)
	}
	for _, ref := range []string{"http://example.com/a.png", "data:image/png;base64,AAAA", "azblob://c/b.png"} {
		err := validator.ValidateImageURL(ref)
		if err == nil {
			t.Errorf("Expected %s to be rejected", ref)
			continue
		}
		if msg := appMessage(t, err); msg != "URL scheme not allowed" {
			t.Errorf("Expected 'URL scheme not allowed' for %s, got %q", ref, msg)
		}
	}
}

func TestValidateImageURL_RestrictedHosts(t *testing.T) {
	allowedHosts := []string{"example.com", "trusted.com"}
	validator := NewURLValidatorWithOptions([]string{"http", "https", "azblob"}, allowedHosts)

	allowedURLs := []string{
		"http://example.com/image.jpg",
		"https://trusted.com/image.png",
		"https://EXAMPLE.com:8443/image.png",
		// Host restrictions do not apply to blob containers
		"azblob://screenshots/shot.png",
	}
	for _, ref := range allowedURLs {
		if err := validator.ValidateImageURL(ref); err != nil {
			t.Errorf("Expected allowed reference '%s' to pass validation, got error: %v", ref, err)
		}
	}

	disallowedURLs := []string{
		"http://malicious.com/image.jpg",
		"https://untrusted.com/image.png",
	}
	for _, ref := range disallowedURLs {
		err := validator.ValidateImageURL(ref)
		if err == nil {
			t.Errorf("Expected disallowed host URL '%s' to fail validation", ref)
			continue
		}
		if msg := appMessage(t, err); msg != "URL host not allowed" {
			t.Errorf("Expected 'URL host not allowed' error, got: %s", msg)
		}
	}
}

func TestIsHostAllowed(t *testing.T) {
	validator := NewURLValidator()
	if !validator.isHostAllowed("example.com") {
		t.Error("Expected any host to be allowed when no restrictions")
	}

	restrictedValidator := NewURLValidatorWithOptions([]string{"http", "https"}, []string{"example.com", "trusted.com"})
	if !restrictedValidator.isHostAllowed("trusted.com") {
		t.Error("Expected trusted.com to be allowed")
	}
	if restrictedValidator.isHostAllowed("malicious.com") {
		t.Error("Expected malicious.com to be disallowed")
	}
}
