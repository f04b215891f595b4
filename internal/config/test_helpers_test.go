package config

import (
	"os"
	"path/filepath"
	"testing"
)

func emptyEnvDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

func envDirWith(t *testing.T, vars map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for key, value := range vars {
		if err := os.WriteFile(filepath.Join(dir, key), []byte(value), 0o600); err != nil {
			t.Fatalf("写入环境目录失败: %v", err)
		}
	}
	return dir
}
