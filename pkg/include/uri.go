// SPDX-License-Identifier: MPL-2.0

package include

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// ProtocolFile is the protocol reported for local includes.
const ProtocolFile = "file"

// absoluteURL matches references that carry their own scheme.
var absoluteURL = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// Include is a resolved reference to an included source. Two includes are the
// same include iff their URIs render to the same string.
type Include struct {
	URI      *url.URL
	Protocol string
}

func newInclude(u *url.URL) Include {
	protocol := u.Scheme
	if protocol == "" || strings.EqualFold(protocol, "file") {
		protocol = ProtocolFile
	}
	return Include{URI: u, Protocol: protocol}
}

// String returns the canonical URI.
func (i Include) String() string {
	return i.URI.String()
}

// IsLocal reports whether the include was read from the local file system.
func (i Include) IsLocal() bool {
	return i.Protocol == ProtocolFile
}

// FileURI converts a local path into an absolute file:// URI.
func FileURI(path string) (*url.URL, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		// Windows drive paths: file:///C:/dir/file.kts
		slashed = "/" + slashed
	}
	return &url.URL{Scheme: "file", Path: slashed}, nil
}

// LocalPath returns the file system path of a file:// URI.
func LocalPath(u *url.URL) string {
	p := u.Path
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

// IsURL reports whether target is an absolute URL with its own scheme.
func IsURL(target string) bool {
	return absoluteURL.MatchString(target)
}

// resolveTarget canonicalizes an include target relative to base, the URI of
// the including source.
func resolveTarget(base *url.URL, target string) (*url.URL, error) {
	if IsURL(target) {
		return url.Parse(target)
	}
	if filepath.IsAbs(target) || strings.HasPrefix(target, "/") {
		return FileURI(target)
	}
	if base == nil {
		return FileURI(target)
	}
	return base.ResolveReference(&url.URL{Path: filepath.ToSlash(target)}), nil
}
