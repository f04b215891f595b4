// Package diagnose 在安装失败后扫描输出缓冲,把已知的失败形态翻译成
// 给开发者的解释。分类是只读的事后咨询:不重跑命令,不改变退出码,
// 识别不出时宁可沉默也不猜测。
package diagnose

import "github.com/modprep/modprep/internal/buildlog"

// Severity 区分诊断的确信程度。
type Severity string

const (
	// SeverityFailure 表示该形态足以解释这次失败。
	SeverityFailure Severity = "failure"
	// SeverityWarning 表示可疑但不一定是根因,比如网络抖动。
	SeverityWarning Severity = "warning"
)

// Diagnostic 是一条面向开发者的诊断结论。
type Diagnostic struct {
	Name     string
	Severity Severity
	Title    string
	Advice   string
}

// pattern 的 anyOf 里命中任意子串即触发。表按优先级排列,越靠前的
// 形态越具体,输出顺序跟随表序。
type pattern struct {
	name     string
	severity Severity
	anyOf    []string
	title    string
	advice   string
}

var patterns = []pattern{
	{
		name:     "lockfile-outdated",
		severity: SeverityFailure,
		anyOf: []string{
			"Your lockfile needs to be updated",
			"can only install packages when your package.json and package-lock.json",
		},
		title:  "Outdated lockfile",
		advice: "The lockfile no longer matches package.json. Regenerate it locally with your package manager, commit the result, and rebuild.",
	},
	{
		name:     "engine-unsupported",
		severity: SeverityFailure,
		anyOf:    []string{"Unsupported engine", "EBADENGINE"},
		title:    "Unsupported toolchain version",
		advice:   "A dependency requires a different node or package manager version than this build provides. Align the engines field in package.json with the runtime you deploy on.",
	},
	{
		name:     "module-not-found",
		severity: SeverityFailure,
		anyOf:    []string{"Cannot find module"},
		title:    "Module not found",
		advice:   "A required module could not be resolved. Make sure it is declared in dependencies and not only installed globally on your machine.",
	},
	{
		name:     "out-of-memory",
		severity: SeverityFailure,
		anyOf:    []string{"JavaScript heap out of memory"},
		title:    "Out of memory",
		advice:   "The install outgrew the available memory. Trim install-time scripts or raise the memory limit of the build sandbox.",
	},
	{
		name:     "registry-unreachable",
		severity: SeverityWarning,
		anyOf:    []string{"ECONNRESET", "ETIMEDOUT", "ENOTFOUND"},
		title:    "Registry connectivity problems",
		advice:   "The package registry was unreachable during the install. This is usually transient, retry the build before digging deeper.",
	},
	{
		name:     "permission-denied",
		severity: SeverityWarning,
		anyOf:    []string{"EACCES"},
		title:    "Permission denied",
		advice:   "A file operation was denied inside the sandbox. Check for install scripts that write outside the build directory.",
	},
}

// Classify 对整个输出缓冲评估全部形态。多个形态可以同时命中,结果
// 按优先级排列;一个都不认识时返回空。
func Classify(buf *buildlog.Buffer) []Diagnostic {
	var out []Diagnostic
	for _, p := range patterns {
		for _, needle := range p.anyOf {
			if buf.Contains(needle) {
				out = append(out, Diagnostic{
					Name:     p.name,
					Severity: p.severity,
					Title:    p.title,
					Advice:   p.advice,
				})
				break
			}
		}
	}
	return out
}
