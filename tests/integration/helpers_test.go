package integration

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/modprep/modprep/internal/buildlog"
	"github.com/modprep/modprep/internal/config"
	"github.com/modprep/modprep/internal/orchestrator"
	"github.com/modprep/modprep/internal/runner"
	"github.com/modprep/modprep/internal/signature"
)

// writeProject lays out a build directory with the given package.json and
// optional extra files (paths relative to the build dir).
func writeProject(t *testing.T, manifest string, extras map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest error: %v", err)
	}
	for rel, content := range extras {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir error: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s error: %v", rel, err)
		}
	}
	return dir
}

// writeEnvDir materializes platform configuration as one file per key.
func writeEnvDir(t *testing.T, entries map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for key, value := range entries {
		if err := os.WriteFile(filepath.Join(dir, key), []byte(value+"\n"), 0o644); err != nil {
			t.Fatalf("write env entry error: %v", err)
		}
	}
	return dir
}

// armProbes scripts the toolchain version probes every build performs.
func armProbes(fake *runner.Fake, nodeVersion, npmVersion string) {
	fake.Script("node --version", runner.Response{Output: []string{nodeVersion}})
	fake.Script("npm --version", runner.Response{Output: []string{npmVersion}})
	fake.Script("yarn --version", runner.Response{Output: []string{"1.22.22"}})
}

// failResponse builds a non-zero scripted reply with one output line per
// message, the way a real package manager streams its error banner.
func failResponse(exitCode int, lines ...string) runner.Response {
	return runner.Response{ExitCode: exitCode, Output: lines}
}

func sigFor(stack, nodeVersion, managerKey, managerVersion string) signature.Signature {
	return signature.Compute(signature.Toolchain{
		RuntimeVersion: nodeVersion,
		ManagerKey:     managerKey,
		ManagerVersion: managerVersion,
		Stack:          stack,
	})
}

// buildFixture wires a full orchestrator invocation around a fake runner.
type buildFixture struct {
	opts   orchestrator.Options
	fake   *runner.Fake
	buf    *buildlog.Buffer
	logOut *bytes.Buffer
}

func newBuildFixture(t *testing.T, buildDir, cacheDir, envDir string) *buildFixture {
	t.Helper()

	settings, err := config.Load(envDir)
	if err != nil {
		t.Fatalf("config load error: %v", err)
	}

	logOut := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(logOut)
	logger.SetLevel(logrus.DebugLevel)

	buf := buildlog.NewBuffer()
	fake := runner.NewFake(buf)
	armProbes(fake, "v20.11.1", "10.2.4")

	return &buildFixture{
		opts: orchestrator.Options{
			BuildDir: buildDir,
			CacheDir: cacheDir,
			EnvDir:   envDir,
			Settings: settings,
			Logger:   logger,
			Runner:   fake,
			Buffer:   buf,
			Stdout:   logOut,
		},
		fake:   fake,
		buf:    buf,
		logOut: logOut,
	}
}
