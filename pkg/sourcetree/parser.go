// Package sourcetree 把浏览器返回的原始源码载荷归一化为 相对路径 -> 文件内容 的映射
package sourcetree

import (
	"encoding/json"
	"strings"
)

// Kind 载荷类型
type Kind string

const (
	KindEmpty      Kind = "empty"       // 空输入
	KindStandard   Kind = "standard"    // solc 标准 JSON 输入（带 sources 键）
	KindFlat       Kind = "flat"        // 扁平 JSON 对象：路径 -> 内容
	KindSingleFile Kind = "single-file" // 纯文本单文件
)

// DefaultFileName 无法得知合约名时单文件载荷的约定文件名
const DefaultFileName = "contract.sol"

// Tree 归一化后的源码树。Files 的键为正斜杠分隔的相对路径，互不重复
type Tree struct {
	Files    map[string]string
	Language string
	Settings json.RawMessage
	Kind     Kind
}

// standardInput solc 标准 JSON 输入的消费子集
type standardInput struct {
	Language string                    `json:"language"`
	Sources  map[string]standardSource `json:"sources"`
	Settings json.RawMessage           `json:"settings"`
}

type standardSource struct {
	Content string `json:"content"`
}

// Parse 归一化原始源码载荷。纯函数，不做任何 I/O
//
// 浏览器对多文件工程会做双重大括号包装（{{...}}），解析前恰好剥一层
func Parse(raw string) Tree {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Tree{Files: map[string]string{}, Kind: KindEmpty}
	}

	unwrapped := unwrapDoubleBraces(trimmed)

	// 优先按 solc 标准输入解析
	var std standardInput
	if err := json.Unmarshal([]byte(unwrapped), &std); err == nil && len(std.Sources) > 0 {
		files := make(map[string]string, len(std.Sources))
		for path, src := range std.Sources {
			files[normalizePath(path)] = src.Content
		}
		return Tree{
			Files:    files,
			Language: std.Language,
			Settings: std.Settings,
			Kind:     KindStandard,
		}
	}

	// 其次按扁平 JSON 对象解析：值为字符串或带 content 的对象，其余形状忽略
	var flat map[string]json.RawMessage
	if err := json.Unmarshal([]byte(unwrapped), &flat); err == nil {
		files := make(map[string]string, len(flat))
		for path, value := range flat {
			var text string
			if err := json.Unmarshal(value, &text); err == nil {
				files[normalizePath(path)] = text
				continue
			}
			var obj standardSource
			if err := json.Unmarshal(value, &obj); err == nil && obj.Content != "" {
				files[normalizePath(path)] = obj.Content
			}
		}
		return Tree{Files: files, Kind: KindFlat}
	}

	// 非 JSON：整个载荷就是一个源文件
	return Tree{
		Files: map[string]string{DefaultFileName: raw},
		Kind:  KindSingleFile,
	}
}

// unwrapDoubleBraces 恰好剥一层 {{...}} 包装
func unwrapDoubleBraces(s string) string {
	if strings.HasPrefix(s, "{{") && strings.HasSuffix(s, "}}") {
		return s[1 : len(s)-1]
	}
	return s
}

// normalizePath 统一为正斜杠相对路径
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return strings.TrimLeft(p, "/")
}
