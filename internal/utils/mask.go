package utils

import (
	"net/url"
	"regexp"
	"strings"
)

var keywordPassword = regexp.MustCompile(`(?i)(password=)(\S+)`)

// MaskDSN hides the password part of a connection string. It understands
// URL style DSNs (postgres://, oracle://), key=value DSNs and user/pass@host.
func MaskDSN(dsn string) string {
	if dsn == "" {
		return "--- EMPTY ---"
	}
	if strings.Contains(dsn, "://") {
		if u, err := url.Parse(dsn); err == nil && u.User != nil {
			if _, has := u.User.Password(); has {
				u.User = url.UserPassword(u.User.Username(), "xxxxx")
				return strings.Replace(u.String(), "xxxxx", "***MASKED***", 1)
			}
			return dsn
		}
	}
	if keywordPassword.MatchString(dsn) {
		return keywordPassword.ReplaceAllString(dsn, "${1}***MASKED***")
	}
	if at := strings.Index(dsn, "@"); at > 0 {
		auth := dsn[:at]
		if slash := strings.Index(auth, "/"); slash > 0 {
			return auth[:slash] + "/***MASKED***" + dsn[at:]
		}
	}
	return dsn
}

// MaskSecret describes a secret without revealing it.
func MaskSecret(secret string) string {
	switch {
	case secret == "":
		return "--- EMPTY ---"
	case len(secret) < 16:
		return "*** MASKED (short secret) ***"
	default:
		return "*** MASKED ***"
	}
}
