package utils

import (
	"errors"
	"net/url"
	"strings"
)

// ErrNoHostname is returned when a URL does not carry a hostname.
var ErrNoHostname = errors.New("no hostname in url")

// Hostname extracts the lowercase hostname of an absolute URL, without port.
func Hostname(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", ErrNoHostname
	}
	return host, nil
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}
