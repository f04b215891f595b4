package buildlog

import (
	"bytes"
	"io"
	"sync"
)

// LineWriter 将字节流切分为行并写入 Buffer，可选地镜像到另一个 Writer
// （通常是操作者可见的构建输出）。stdout 与 stderr 共享同一个实例，
// 内部锁保证两条拷贝 goroutine 的写入不会交错损坏行。
type LineWriter struct {
	mu      sync.Mutex
	buf     *Buffer
	echo    io.Writer
	pending bytes.Buffer
}

// NewLineWriter 构造行切分写入器；echo 为 nil 时仅写入 Buffer。
func NewLineWriter(buf *Buffer, echo io.Writer) *LineWriter {
	return &LineWriter{buf: buf, echo: echo}
}

// Write 实现 io.Writer。未终结的半行会暂存，直到遇到下一个换行符。
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.echo != nil {
		if _, err := w.echo.Write(p); err != nil {
			return 0, err
		}
	}

	w.pending.Write(p)
	for {
		raw := w.pending.Bytes()
		idx := bytes.IndexByte(raw, '\n')
		if idx < 0 {
			break
		}
		line := string(bytes.TrimSuffix(raw[:idx], []byte("\r")))
		w.buf.Append(line)
		w.pending.Next(idx + 1)
	}
	return len(p), nil
}

// Flush 将残留的半行落入 Buffer，子进程退出后调用一次。
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending.Len() == 0 {
		return
	}
	w.buf.Append(w.pending.String())
	w.pending.Reset()
}
