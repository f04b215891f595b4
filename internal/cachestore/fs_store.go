package cachestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/modprep/modprep/internal/fsutil"
	"github.com/modprep/modprep/internal/signature"
)

const (
	platformDirName   = "modprep"
	storeDirName      = "store"
	signatureFileName = "signature"
)

// NewStore 以 cacheDir 为根目录构建持久缓存,每次构建复用同一份实例。
func NewStore(cacheDir string) (Store, error) {
	if cacheDir == "" {
		return nil, errors.New("cache dir required")
	}

	abs, err := filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}

	root := filepath.Join(abs, platformDirName)
	if err := os.MkdirAll(filepath.Join(root, storeDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &fileStore{root: root}, nil
}

// fileStore 假设同一缓存目录同一时刻只有一个构建在写,不做跨进程锁。
type fileStore struct {
	root string
}

func (s *fileStore) Status(sig signature.Signature) Status {
	data, err := os.ReadFile(filepath.Join(s.root, signatureFileName))
	if err != nil {
		return StatusAbsent
	}

	recorded := signature.Signature(strings.TrimSpace(string(data)))
	if recorded != sig {
		return StatusInvalid
	}
	return StatusValid
}

func (s *fileStore) Restore(ctx context.Context, buildDir string, names []string) error {
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := cleanName(name)
		if err != nil {
			return err
		}

		src := filepath.Join(s.root, storeDirName, filepath.FromSlash(rel))
		if !fsutil.DirExists(src) {
			continue
		}

		dst := filepath.Join(buildDir, filepath.FromSlash(rel))
		if fsutil.DirExists(dst) {
			continue
		}
		if err := fsutil.CopyTree(src, dst); err != nil {
			return fmt.Errorf("restore %s: %w", rel, err)
		}
	}
	return nil
}

func (s *fileStore) Save(ctx context.Context, buildDir string, names []string, sig signature.Signature) (*SaveReport, error) {
	report := &SaveReport{Failed: map[string]error{}}

	// 先作废旧指纹再动内容,中途崩溃时旧记录不会为新内容背书。
	if err := os.Remove(filepath.Join(s.root, signatureFileName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return report, fmt.Errorf("drop stale signature: %w", err)
	}
	if err := fsutil.ClearDir(filepath.Join(s.root, storeDirName)); err != nil {
		return report, fmt.Errorf("clear cache store: %w", err)
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rel, err := cleanName(name)
		if err != nil {
			report.Failed[name] = err
			continue
		}

		src := filepath.Join(buildDir, filepath.FromSlash(rel))
		if !fsutil.DirExists(src) {
			report.Skipped = append(report.Skipped, rel)
			continue
		}

		dst := filepath.Join(s.root, storeDirName, filepath.FromSlash(rel))
		if err := fsutil.CopyTree(src, dst); err != nil {
			report.Failed[name] = err
			continue
		}
		report.Saved = append(report.Saved, rel)
	}

	if err := s.writeRecord(sig); err != nil {
		return report, err
	}
	return report, nil
}

// writeRecord 通过临时文件 + rename 发布指纹,记录要么完整出现要么不出现。
func (s *fileStore) writeRecord(sig signature.Signature) error {
	tempFile, err := os.CreateTemp(s.root, ".signature-*")
	if err != nil {
		return fmt.Errorf("write signature record: %w", err)
	}
	tempName := tempFile.Name()

	_, err = tempFile.WriteString(string(sig) + "\n")
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return fmt.Errorf("write signature record: %w", err)
	}

	if err := os.Rename(tempName, filepath.Join(s.root, signatureFileName)); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("publish signature record: %w", err)
	}
	return nil
}

// cleanName 将缓存目录名规范成相对路径,越界引用在这里被磨平,
// 保证 store 与构建目录两侧都不会被写出根之外。
func cleanName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("cache directory name required")
	}

	rel := path.Clean("/" + filepath.ToSlash(name))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == "." {
		return "", errors.New("cache directory name required")
	}
	return rel, nil
}
