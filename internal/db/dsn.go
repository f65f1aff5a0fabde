package db

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	kvPairRegex   = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)
	passwordRegex = regexp.MustCompile(`(password=)([^\s]+)`)
)

// NormalizeDSN accepts either a URL style DSN (postgres://...) or a key=value list.
// Quotes and extra whitespace are removed and sslmode defaults to disable.
func NormalizeDSN(raw string) string {
	s := strings.Trim(strings.TrimSpace(raw), "\"'")
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	if !kvPairRegex.MatchString(s) {
		return s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}

// ToURLDSN converts a key=value DSN into URL form, which golang-migrate requires.
// Incomplete input comes back unchanged.
func ToURLDSN(kvDSN string) string {
	lower := strings.ToLower(kvDSN)
	if kvDSN == "" || strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return kvDSN
	}
	m := map[string]string{}
	for _, part := range strings.Fields(kvDSN) {
		if k, v, ok := strings.Cut(part, "="); ok {
			m[strings.ToLower(k)] = v
		}
	}
	host, user, dbname := m["host"], m["user"], m["dbname"]
	if host == "" || user == "" || dbname == "" {
		return kvDSN
	}
	u := &url.URL{Scheme: "postgres", Host: host, Path: "/" + dbname}
	if port := m["port"]; port != "" {
		u.Host = host + ":" + port
	}
	if pass := m["password"]; pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	if sslmode, ok := m["sslmode"]; ok {
		u.RawQuery = url.Values{"sslmode": {sslmode}}.Encode()
	}
	return u.String()
}

// MaskDSN hides the password of a DSN for logging.
func MaskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
			return u.String()
		}
	}
	return passwordRegex.ReplaceAllString(dsn, `${1}***`)
}
