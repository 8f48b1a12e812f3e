// Package secrets resolves "!secret name" references in configuration
// values against files under /run/secrets, the convention used by container
// secret mounts.
package secrets

import (
	"bytes"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Dir is the directory secrets are read from. It is a variable so tests can
// point it elsewhere.
var Dir = "/run/secrets"

// Prefix marks a config value for secret substitution. For example:
//
//	"!secret backend_token" -> /run/secrets/backend_token
const Prefix = "!secret "

// CutPrefix is equivalent to [strings.CutPrefix](s, [Prefix]).
func CutPrefix(s string) (secret string, ok bool) {
	return strings.CutPrefix(s, Prefix)
}

// Read returns the trimmed value of the secret file <Dir>/<secret>.
func Read(secret string) (string, error) {
	var buf [256]byte
	fd, err := unix.Open(filepath.Join(Dir, secret), unix.O_RDONLY, 0)
	if err != nil {
		return "", err
	}
	defer unix.Close(fd)
	n, err := unix.Read(fd, buf[:])
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(buf[:n])), nil
}

// MustRead returns the value of the secret, or fallback if the secret cannot
// be read.
func MustRead(secret, fallback string) string {
	s, err := Read(secret)
	if err != nil {
		return fallback
	}
	return s
}
