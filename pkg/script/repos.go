// SPDX-License-Identifier: MPL-2.0

package script

import "fmt"

// MavenRepo describes a custom package repository declared with
// @file:MavenRepository. User and Password are either both set or both empty.
// The struct is comparable; equality is structural.
type MavenRepo struct {
	ID       string
	URL      string
	User     string
	Password string
}

// HasCredentials reports whether the repository carries credentials.
func (r MavenRepo) HasCredentials() bool {
	return r.User != "" || r.Password != ""
}

// String renders the repository without its password.
func (r MavenRepo) String() string {
	if r.HasCredentials() {
		return fmt.Sprintf("%s %s (user %s)", r.ID, r.URL, r.User)
	}
	return fmt.Sprintf("%s %s", r.ID, r.URL)
}

// CollectRepos returns the repositories declared by @file:MavenRepository
// annotations in encounter order. There is no line-form equivalent.
func (s *Script) CollectRepos() ([]MavenRepo, error) {
	var repos []MavenRepo
	for i, line := range s.lines {
		a, ok, err := findAnnotation(line, AnnotationMavenRepository)
		if !ok {
			continue
		}
		if err != nil {
			return nil, withLine(err, i+1)
		}
		repo, err := parseRepo(a)
		if err != nil {
			return nil, withLine(err, i+1)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// parseRepo maps annotation arguments onto a MavenRepo. Positional arguments
// fill id then url; keyword arguments may name any field in any order.
func parseRepo(a annotation) (MavenRepo, error) {
	const (
		fieldID       = "id"
		fieldURL      = "url"
		fieldUser     = "user"
		fieldPassword = "password"
	)

	values := make(map[string]string, 4)
	positionalOrder := []string{fieldID, fieldURL}
	next := 0

	for _, arg := range a.args {
		if !arg.quoted {
			return MavenRepo{}, a.malformed("argument %s must be a string literal", arg.value)
		}
		field := arg.key
		if field == "" {
			if next >= len(positionalOrder) {
				return MavenRepo{}, a.malformed("too many positional arguments")
			}
			field = positionalOrder[next]
			next++
		}
		switch field {
		case fieldID, fieldURL, fieldUser, fieldPassword:
		default:
			return MavenRepo{}, a.malformed("unknown argument %q", field)
		}
		if _, dup := values[field]; dup {
			return MavenRepo{}, a.malformed("argument %q given more than once", field)
		}
		values[field] = arg.value
	}

	for _, required := range positionalOrder {
		if _, ok := values[required]; !ok {
			return MavenRepo{}, a.malformed("missing repository %s", required)
		}
	}

	_, hasUser := values[fieldUser]
	_, hasPassword := values[fieldPassword]
	if hasUser != hasPassword {
		mde := a.malformed("user and password must be given together")
		mde.Cause = ErrCredentialMismatch
		return MavenRepo{}, mde
	}

	return MavenRepo{
		ID:       values[fieldID],
		URL:      values[fieldURL],
		User:     values[fieldUser],
		Password: values[fieldPassword],
	}, nil
}
