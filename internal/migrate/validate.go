package migrate

import (
	"regexp"
	"strings"
)

// emailPattern is a simplified RFC 5322 check: printable local part, dotted
// domain labels, final label of at least two letters.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@([A-Za-z0-9-]+\.)+[A-Za-z]{2,}$`)

// ValidEmail reports whether addr satisfies the email syntax contract.
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}

// CleanAddresses trims the given list and drops blank entries. Blank
// grantees are an empty-optional, not an error.
func CleanAddresses(addrs []string) []string {
	var out []string
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// ValidateRequest checks the request shape before any gateway call is made.
// It fails fast on the first invalid address encountered.
func ValidateRequest(req Request) error {
	if strings.TrimSpace(req.Email) == "" {
		return &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if !ValidEmail(req.Email) {
		return &ValidationError{Field: "email", Value: req.Email, Reason: "not a valid email address"}
	}
	for _, a := range CleanAddresses(req.FullAccessEmails) {
		if !ValidEmail(a) {
			return &ValidationError{Field: "full-access grantee", Value: a, Reason: "not a valid email address"}
		}
	}
	for _, a := range CleanAddresses(req.ReviewerEmails) {
		if !ValidEmail(a) {
			return &ValidationError{Field: "reviewer grantee", Value: a, Reason: "not a valid email address"}
		}
	}
	if req.RedirectEmail != "" && !ValidEmail(req.RedirectEmail) {
		return &ValidationError{Field: "redirect address", Value: req.RedirectEmail, Reason: "not a valid email address"}
	}
	if req.ProxyFilter != "" {
		if _, err := regexp.Compile(req.ProxyFilter); err != nil {
			return &ValidationError{Field: "proxy filter", Value: req.ProxyFilter, Reason: err.Error()}
		}
	}
	if req.MaxWait < 0 {
		return &ValidationError{Field: "max wait", Reason: "must not be negative"}
	}
	return nil
}

// FilterAddresses returns the addresses matching the compiled filter,
// preserving order. Filtering is idempotent: applying the same filter to an
// already-filtered set returns the same set.
func FilterAddresses(addrs []string, filter *regexp.Regexp) []string {
	if filter == nil {
		return addrs
	}
	var out []string
	for _, a := range addrs {
		if filter.MatchString(a) {
			out = append(out, a)
		}
	}
	return out
}
