package validate

import (
	"path/filepath"
	"regexp"
	"strings"

	"storefront/internal/domain"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	// single DNS label: letters, digits, inner hyphens
	reLabel = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
	reEvent = regexp.MustCompile(`^(page_view|click)$`)
)

// MaxImageBytes is the upload limit for product images.
const MaxImageBytes = 5 << 20

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a simple resource identifier (product/image/user ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Name validates a displayable person name.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 60 {
		return "", false
	}
	return s, true
}

// ProductName allows longer titles than Name.
func ProductName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 120 {
		return "", false
	}
	return s, true
}

// Text trims free text and caps it at max bytes.
func Text(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		s = s[:max]
	}
	return s
}

// Subdomain lower-cases s and checks it is a single DNS label.
func Subdomain(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, reLabel.MatchString(s)
}

func Role(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return domain.RoleUser, true
	}
	return s, s == domain.RoleUser || s == domain.RoleAdmin
}

func Status(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, s == domain.StatusDraft || s == domain.StatusPublished
}

func EventType(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reEvent.MatchString(s)
}

// ImageFile checks an upload's extension and size and returns the
// normalised extension with its content type.
func ImageFile(filename string, size int64) (ext, contentType string, ok bool) {
	ext = strings.ToLower(filepath.Ext(filename))
	contentType, ok = imageTypes[ext]
	if !ok || size <= 0 || size > MaxImageBytes {
		return "", "", false
	}
	return ext, contentType, true
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
