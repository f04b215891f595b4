package envdir

import (
	"os"
	"path/filepath"
	"testing"
)

func writeVar(t *testing.T, dir, key, value string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, key), []byte(value), 0o644); err != nil {
		t.Fatalf("写入变量文件失败: %v", err)
	}
}

func TestLoadReadsFilesAsVariables(t *testing.T) {
	dir := t.TempDir()
	writeVar(t, dir, "STACK", "heroku-22\n")
	writeVar(t, dir, "NODE_VERBOSE", "true")

	env, err := Load(dir)
	if err != nil {
		t.Fatalf("加载环境目录失败: %v", err)
	}

	if v, ok := env.Lookup("STACK"); !ok || v != "heroku-22" {
		t.Fatalf("STACK 变量解析错误: %q, %v", v, ok)
	}
	if v, ok := env.Lookup("NODE_VERBOSE"); !ok || v != "true" {
		t.Fatalf("NODE_VERBOSE 变量解析错误: %q, %v", v, ok)
	}
}

func TestLoadMissingDirReturnsEmptyEnv(t *testing.T) {
	env, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("缺失目录不应报错: %v", err)
	}
	if len(env) != 0 {
		t.Fatalf("缺失目录应返回空 Env, got %v", env)
	}
}

func TestLoadSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeVar(t, dir, "KEY", "value")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("创建子目录失败: %v", err)
	}

	env, err := Load(dir)
	if err != nil {
		t.Fatalf("加载环境目录失败: %v", err)
	}
	if len(env) != 1 {
		t.Fatalf("子目录不应被当作变量, got %v", env)
	}
}

func TestLookupMissingKey(t *testing.T) {
	env := Env{}
	if _, ok := env.Lookup("ABSENT"); ok {
		t.Fatalf("不存在的变量 Lookup 应返回 false")
	}
}

func TestBool(t *testing.T) {
	env := Env{
		"ON":    "true",
		"ONE":   "1",
		"OFF":   "false",
		"ZERO":  "0",
		"NO":    "no",
		"BLANK": "",
		"WORD":  "anything",
	}

	for _, key := range []string{"ON", "ONE", "WORD"} {
		if !env.Bool(key) {
			t.Fatalf("%s 应解析为 true", key)
		}
	}
	for _, key := range []string{"OFF", "ZERO", "NO", "BLANK", "ABSENT"} {
		if env.Bool(key) {
			t.Fatalf("%s 应解析为 false", key)
		}
	}
}
