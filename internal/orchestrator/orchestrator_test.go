package orchestrator

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/modprep/modprep/internal/buildlog"
	"github.com/modprep/modprep/internal/cachestore"
	"github.com/modprep/modprep/internal/config"
	"github.com/modprep/modprep/internal/runner"
	"github.com/modprep/modprep/internal/signature"
)

const plainManifest = `{"name":"orders-api","dependencies":{"express":"^4.18.0"}}`

func testSettings() *config.Settings {
	return &config.Settings{
		CacheSaveEnabled: true,
		Stack:            "modprep-24",
		LogLevel:         "info",
		LogMaxSize:       10,
		LogMaxBackups:    2,
		InstallTimeout:   config.Duration(time.Minute),
	}
}

func testLogger() (*logrus.Logger, *bytes.Buffer) {
	var out bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&out)
	logger.SetLevel(logrus.DebugLevel)
	return logger, &out
}

// scriptedFake pre-arms the version probes every build performs.
func scriptedFake(buf *buildlog.Buffer) *runner.Fake {
	fake := runner.NewFake(buf)
	fake.Script("node --version", runner.Response{Output: []string{"v20.11.1"}})
	fake.Script("npm --version", runner.Response{Output: []string{"10.2.4"}})
	fake.Script("yarn --version", runner.Response{Output: []string{"1.22.22"}})
	return fake
}

func buildDirWith(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return dir
}

func testOptions(t *testing.T, buildDir string) (Options, *runner.Fake, *bytes.Buffer) {
	t.Helper()
	buf := buildlog.NewBuffer()
	fake := scriptedFake(buf)
	logger, logOut := testLogger()
	opts := Options{
		BuildDir: buildDir,
		CacheDir: t.TempDir(),
		Settings: testSettings(),
		Logger:   logger,
		Runner:   fake,
		Buffer:   buf,
		Stdout:   io.Discard,
	}
	return opts, fake, logOut
}

func TestRunFreshInstallSucceeds(t *testing.T) {
	opts, fake, logOut := testOptions(t, buildDirWith(t, plainManifest))
	fake.Script("npm install", runner.Response{Output: []string{"added 120 packages"}})

	if code := Run(context.Background(), opts); code != 0 {
		t.Fatalf("expected exit 0, got %d\nlogs:\n%s", code, logOut.String())
	}
	if !fake.Invoked("npm install") {
		t.Fatal("expected npm install to run")
	}
	if !strings.Contains(logOut.String(), "dependencies staged") {
		t.Fatal("expected success log entry")
	}
	if !strings.Contains(logOut.String(), "engines.node") {
		t.Fatal("expected missing engines.node warning to be logged")
	}
}

func TestRunWritesCacheSignatureOnSuccess(t *testing.T) {
	opts, _, _ := testOptions(t, buildDirWith(t, plainManifest))

	if code := Run(context.Background(), opts); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}

	store, err := cachestore.NewStore(opts.CacheDir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	sig := signature.Compute(signature.Toolchain{
		RuntimeVersion: "v20.11.1",
		ManagerKey:     "npm",
		ManagerVersion: "10.2.4",
		Stack:          "modprep-24",
	})
	if got := store.Status(sig); got != cachestore.StatusValid {
		t.Fatalf("expected valid cache after successful build, got %s", got)
	}
}

func TestRunCacheSaveDisabled(t *testing.T) {
	opts, _, logOut := testOptions(t, buildDirWith(t, plainManifest))
	opts.Settings.CacheSaveEnabled = false

	if code := Run(context.Background(), opts); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}

	store, err := cachestore.NewStore(opts.CacheDir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	sig := signature.Compute(signature.Toolchain{
		RuntimeVersion: "v20.11.1",
		ManagerKey:     "npm",
		ManagerVersion: "10.2.4",
		Stack:          "modprep-24",
	})
	if got := store.Status(sig); got != cachestore.StatusAbsent {
		t.Fatalf("expected no cache record when save disabled, got %s", got)
	}
	if !strings.Contains(logOut.String(), "cache save disabled") {
		t.Fatal("expected disabled-save log entry")
	}
}

func TestRunRestoresValidCache(t *testing.T) {
	buildDir := buildDirWith(t, plainManifest)
	opts, _, logOut := testOptions(t, buildDir)

	// Seed the store the way a previous build with the same toolchain would.
	store, err := cachestore.NewStore(opts.CacheDir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	sig := signature.Compute(signature.Toolchain{
		RuntimeVersion: "v20.11.1",
		ManagerKey:     "npm",
		ManagerVersion: "10.2.4",
		Stack:          "modprep-24",
	})
	seed := t.TempDir()
	if err := os.MkdirAll(filepath.Join(seed, "node_modules", "express"), 0o755); err != nil {
		t.Fatalf("seed modules: %v", err)
	}
	if err := os.WriteFile(filepath.Join(seed, "node_modules", "express", "index.js"), []byte("module.exports = {}\n"), 0o644); err != nil {
		t.Fatalf("seed module file: %v", err)
	}
	if _, err := store.Save(context.Background(), seed, []string{"node_modules"}, sig); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	if code := Run(context.Background(), opts); code != 0 {
		t.Fatalf("expected exit 0, got %d\nlogs:\n%s", code, logOut.String())
	}
	if _, err := os.Stat(filepath.Join(buildDir, "node_modules", "express", "index.js")); err != nil {
		t.Fatalf("expected restored module in build dir: %v", err)
	}
	if !strings.Contains(logOut.String(), "cache restored") {
		t.Fatal("expected restore log entry")
	}
}

func TestRunInstallFailureClassified(t *testing.T) {
	opts, fake, logOut := testOptions(t, buildDirWith(t, plainManifest))
	fake.Script("npm install", runner.Response{
		ExitCode: 1,
		Output:   []string{"npm ERR! code EBADENGINE", "npm ERR! Unsupported engine for node"},
	})

	if code := Run(context.Background(), opts); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	logs := logOut.String()
	if !strings.Contains(logs, "engine-unsupported") {
		t.Fatal("expected engine diagnostic in logs")
	}
	if !strings.Contains(logs, "install pipeline failed") {
		t.Fatal("expected pipeline failure log entry")
	}
	if strings.Contains(logs, "dependencies staged") {
		t.Fatal("failed build must not log success")
	}
}

func TestRunFailedBuildNeverSavesCache(t *testing.T) {
	opts, fake, _ := testOptions(t, buildDirWith(t, plainManifest))
	fake.Script("npm install", runner.Response{ExitCode: 1, Output: []string{"npm ERR! boom"}})

	if code := Run(context.Background(), opts); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}

	store, err := cachestore.NewStore(opts.CacheDir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	sig := signature.Compute(signature.Toolchain{
		RuntimeVersion: "v20.11.1",
		ManagerKey:     "npm",
		ManagerVersion: "10.2.4",
		Stack:          "modprep-24",
	})
	if got := store.Status(sig); got != cachestore.StatusAbsent {
		t.Fatalf("failed build must not persist a cache record, got %s", got)
	}
}

func TestRunPreconditionFailureRunsNothing(t *testing.T) {
	opts, fake, logOut := testOptions(t, t.TempDir()) // no package.json

	if code := Run(context.Background(), opts); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if len(fake.Calls()) != 0 {
		t.Fatalf("expected no subprocesses, got %d calls", len(fake.Calls()))
	}
	if !strings.Contains(logOut.String(), "failed preconditions") {
		t.Fatal("expected precondition log entry")
	}
}

func TestRunVerboseListing(t *testing.T) {
	opts, fake, _ := testOptions(t, buildDirWith(t, plainManifest))
	opts.Settings.VerboseListing = true

	if code := Run(context.Background(), opts); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !fake.Invoked("npm ls") {
		t.Fatal("expected dependency listing to run")
	}
}

func TestRunListingFailureIgnored(t *testing.T) {
	opts, fake, _ := testOptions(t, buildDirWith(t, plainManifest))
	opts.Settings.VerboseListing = true
	fake.Script("npm ls", runner.Response{ExitCode: 1, Output: []string{"npm ERR! extraneous"}})

	if code := Run(context.Background(), opts); code != 0 {
		t.Fatalf("listing problems must not fail the build, got %d", code)
	}
}

func TestDetectReportsWithoutRunning(t *testing.T) {
	manifest := `{"name":"orders-api","scripts":{"modprep-prebuild":"true"}}`
	opts, fake, logOut := testOptions(t, buildDirWith(t, manifest))

	if code := Detect(opts); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if len(fake.Calls()) != 0 {
		t.Fatalf("detect must not spawn subprocesses, got %d calls", len(fake.Calls()))
	}
	logs := logOut.String()
	if !strings.Contains(logs, "project detected") || !strings.Contains(logs, "fresh-install") {
		t.Fatalf("expected detection report in logs:\n%s", logs)
	}
}

func TestDetectRejectsNonProject(t *testing.T) {
	opts, _, _ := testOptions(t, t.TempDir())
	if code := Detect(opts); code != 1 {
		t.Fatalf("expected exit 1 for non-project dir, got %d", code)
	}
}

func TestRunValidatesOptions(t *testing.T) {
	logger, _ := testLogger()
	code := Run(context.Background(), Options{BuildDir: t.TempDir(), Logger: logger})
	if code != 1 {
		t.Fatalf("expected exit 1 for incomplete options, got %d", code)
	}
}
