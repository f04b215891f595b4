// Package signature 把一次构建的工具链浓缩成单个指纹字符串。缓存的
// 信任判断只做指纹的逐字节比较,任何组件都不得回头解析指纹内容。
package signature

import "fmt"

// Signature 是工具链指纹,对外当作不透明值使用。
type Signature string

// Toolchain 描述参与指纹计算的三个输入:运行时版本、包管理器及其
// 版本、平台标识。任何一项变化都会让既有缓存失效。
type Toolchain struct {
	RuntimeVersion string
	ManagerKey     string
	ManagerVersion string
	Stack          string
}

// Compute 由工具链生成指纹。纯函数,同样的输入永远得到同样的指纹。
func Compute(tc Toolchain) Signature {
	return Signature(fmt.Sprintf("node=%s;pm=%s@%s;stack=%s",
		tc.RuntimeVersion, tc.ManagerKey, tc.ManagerVersion, tc.Stack))
}
