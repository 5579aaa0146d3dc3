package validation

import (
	"net/url"
	"strings"

	apperrors "go-tamper-inspector/internal/errors"
)

// Schemes accepted for image references
const (
	SchemeHTTP   = "http"
	SchemeHTTPS  = "https"
	SchemeAzBlob = "azblob"
	SchemeData   = "data"
)

// URLValidator handles image reference validation
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator creates a validator accepting http, https, azblob and data references
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{SchemeHTTP, SchemeHTTPS, SchemeAzBlob, SchemeData},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a validator with custom options.
// allowedHosts only restricts http and https references.
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateImageURL validates if the provided reference is acceptable for verification
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	// data: URLs carry the payload inline; avoid a full URL parse of it
	if scheme, _, ok := strings.Cut(imageURL, ":"); ok && strings.EqualFold(scheme, SchemeData) {
		if !v.isSchemeAllowed(SchemeData) {
			return apperrors.NewValidationError("URL scheme not allowed", nil)
		}
		if !strings.HasPrefix(strings.ToLower(imageURL), "data:image/") {
			return apperrors.NewValidationError("data URL must carry an image media type", nil)
		}
		return nil
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if parsedURL.Scheme == SchemeAzBlob {
		if strings.Trim(parsedURL.Path, "/") == "" {
			return apperrors.NewValidationError("blob reference must name a blob", nil)
		}
		return nil
	}

	if len(v.allowedHosts) > 0 && !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	return nil
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the URL host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
