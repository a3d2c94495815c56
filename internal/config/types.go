// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultSupportLibrary is the annotation support library appended to the
	// dependencies of scripts that use @file annotations.
	DefaultSupportLibrary LibraryCoordinate = "com.github.holgerbrandl:kscript-annotations:1.4"

	// DefaultIncludeTimeout bounds a single remote include download.
	DefaultIncludeTimeout = 30 * time.Second
	// DefaultIncludeMaxSize is the largest accepted include (5 MiB).
	DefaultIncludeMaxSize int64 = 5 << 20
	// DefaultIncludeCacheEntries is the number of remote sources kept in memory per run.
	DefaultIncludeCacheEntries = 64
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidCacheDirPath is returned when a CacheDirPath value is whitespace-only.
	ErrInvalidCacheDirPath = errors.New("invalid cache dir path")
	// ErrInvalidLibraryCoordinate is returned when a LibraryCoordinate is not group:artifact:version.
	ErrInvalidLibraryCoordinate = errors.New("invalid library coordinate")
	// ErrInvalidIncludesConfig is the sentinel error wrapped by InvalidIncludesConfigError.
	ErrInvalidIncludesConfig = errors.New("invalid includes config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// CacheDirPath is the directory merged scripts are written to.
	// The zero value ("") is valid and means "use the per-user cache directory".
	CacheDirPath string

	// InvalidCacheDirPathError is returned when a CacheDirPath value is
	// non-empty but whitespace-only.
	InvalidCacheDirPathError struct {
		Value CacheDirPath
	}

	// LibraryCoordinate is a group:artifact:version[:classifier] coordinate.
	LibraryCoordinate string

	// InvalidLibraryCoordinateError is returned when a LibraryCoordinate is malformed.
	InvalidLibraryCoordinateError struct {
		Value LibraryCoordinate
	}

	// InvalidIncludesConfigError is returned when an IncludesConfig has invalid fields.
	// It wraps ErrInvalidIncludesConfig and collects field-level validation errors.
	InvalidIncludesConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// CacheDir overrides where merged scripts are written.
		CacheDir CacheDirPath `json:"cache_dir" toml:"cache_dir" mapstructure:"cache_dir"`
		// Annotations configures annotation-style directive handling.
		Annotations AnnotationsConfig `json:"annotations" toml:"annotations" mapstructure:"annotations"`
		// Includes configures how include targets are fetched.
		Includes IncludesConfig `json:"includes" toml:"includes" mapstructure:"includes"`
		// UI configures the user interface
		UI UIConfig `json:"ui" toml:"ui" mapstructure:"ui"`
	}

	// AnnotationsConfig configures annotation-style directive handling.
	AnnotationsConfig struct {
		// SupportLibrary is appended to the dependencies of annotated scripts.
		SupportLibrary LibraryCoordinate `json:"support_library" toml:"support_library" mapstructure:"support_library"`
	}

	// IncludesConfig configures how include targets are fetched.
	IncludesConfig struct {
		// Timeout bounds one remote download.
		Timeout time.Duration `json:"timeout" toml:"timeout" mapstructure:"timeout"`
		// MaxSize is the largest accepted include, in bytes.
		MaxSize int64 `json:"max_size" toml:"max_size" mapstructure:"max_size"`
		// CacheEntries is the number of remote sources kept in memory. Every cached
		// source is also stored below the cache dir; 0 disables both.
		CacheEntries int `json:"cache_entries" toml:"cache_entries" mapstructure:"cache_entries"`
		// UserAgent overrides the User-Agent header of remote requests.
		UserAgent string `json:"user_agent" toml:"user_agent" mapstructure:"user_agent"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" toml:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" toml:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Annotations: AnnotationsConfig{
			SupportLibrary: DefaultSupportLibrary,
		},
		Includes: IncludesConfig{
			Timeout:      DefaultIncludeTimeout,
			MaxSize:      DefaultIncludeMaxSize,
			CacheEntries: DefaultIncludeCacheEntries,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.CacheDir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Annotations.SupportLibrary.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Includes.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid returns whether the IncludesConfig has valid fields.
// A zero CacheEntries is valid and disables the remote cache.
func (c IncludesConfig) IsValid() (bool, []error) {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("includes.timeout must be positive, got %s", c.Timeout))
	}
	if c.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("includes.max_size must be positive, got %d", c.MaxSize))
	}
	if c.CacheEntries < 0 {
		errs = append(errs, fmt.Errorf("includes.cache_entries must not be negative, got %d", c.CacheEntries))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidIncludesConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidIncludesConfigError.
func (e *InvalidIncludesConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidIncludesConfig for errors.Is() compatibility.
func (e *InvalidIncludesConfigError) Unwrap() error { return ErrInvalidIncludesConfig }

// String returns the string representation of the CacheDirPath.
func (p CacheDirPath) String() string { return string(p) }

// IsValid returns whether the CacheDirPath is valid.
// The zero value ("") is valid (means "use default cache directory").
// Non-zero values must not be whitespace-only.
func (p CacheDirPath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidCacheDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCacheDirPathError.
func (e *InvalidCacheDirPathError) Error() string {
	return fmt.Sprintf("invalid cache dir path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidCacheDirPath for errors.Is() compatibility.
func (e *InvalidCacheDirPathError) Unwrap() error { return ErrInvalidCacheDirPath }

// String returns the coordinate.
func (c LibraryCoordinate) String() string { return string(c) }

// IsValid reports whether the coordinate has three or four non-empty,
// colon-separated parts without whitespace.
func (c LibraryCoordinate) IsValid() (bool, []error) {
	parts := strings.Split(string(c), ":")
	valid := len(parts) == 3 || len(parts) == 4
	for _, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\r\n") {
			valid = false
		}
	}
	if !valid {
		return false, []error{&InvalidLibraryCoordinateError{Value: c}}
	}
	return true, nil
}

// Error implements the error interface for InvalidLibraryCoordinateError.
func (e *InvalidLibraryCoordinateError) Error() string {
	return fmt.Sprintf("invalid library coordinate %q (expected group:artifact:version[:classifier])", e.Value)
}

// Unwrap returns ErrInvalidLibraryCoordinate for errors.Is() compatibility.
func (e *InvalidLibraryCoordinateError) Unwrap() error { return ErrInvalidLibraryCoordinate }

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}
