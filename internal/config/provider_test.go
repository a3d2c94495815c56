// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kscriptgo/kscript/internal/testutil"
)

func TestProviderLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), `includes: user_agent: "provider-test"`+"\n")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Includes.UserAgent != "provider-test" {
		t.Errorf("user agent = %q", cfg.Includes.UserAgent)
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if got, err := ResolvePath(LoadOptions{ConfigDirPath: dir}); err != nil || got != "" {
		t.Errorf("ResolvePath() without file = (%q, %v)", got, err)
	}

	path := filepath.Join(dir, "config.cue")
	testutil.MustWriteFile(t, path, "\n")
	if got, err := ResolvePath(LoadOptions{ConfigDirPath: dir}); err != nil || got != path {
		t.Errorf("ResolvePath() = (%q, %v), want %q", got, err, path)
	}
}
