package util

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// MaxURLLength предельная длина целевого URL.
const MaxURLLength = 8 << 10

// IsValidURL проверяет, что строка является абсолютным http(s) URL с корректным хостом.
func IsValidURL(candidate string) bool {
	if candidate == "" || len(candidate) > MaxURLLength || strings.ContainsAny(candidate, " \t\r\n") {
		return false
	}

	u, err := url.ParseRequestURI(candidate)
	if err != nil {
		return false
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}

	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return false
		}
	} else if strings.HasSuffix(u.Host, ":") {
		return false
	}

	return isValidHost(u.Hostname())
}

func isValidHost(host string) bool {
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}

	host = strings.TrimSuffix(host, ".")
	if len(host) > 253 {
		return false
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if !isValidLabel(label) {
			return false
		}
	}

	// TLD не может быть числовым
	tld := labels[len(labels)-1]
	if _, err := strconv.Atoi(tld); err == nil {
		return false
	}
	return true
}

func isValidLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, c := range label {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}
