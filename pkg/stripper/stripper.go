// Package stripper 从源文件中剥离注释，保持字符串字面量与代码语义不变
package stripper

import (
	"strings"
)

// 扫描状态：代码 / 单引号字符串 / 双引号字符串 / 行注释 / 块注释
// 单趟左到右扫描，不回溯；字符串内带反斜杠转义跟踪，
// 保证字符串里的 // 与 /* 永远不会被当成注释
type state int

const (
	stateCode state = iota
	stateSingleQuote
	stateDoubleQuote
	stateLineComment
	stateBlockComment
)

// Strip 移除 text 中的行注释与块注释（含 /** */ 文档注释）
// 未闭合的块注释丢弃到输入结尾；行注释保留行尾换行符
func Strip(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	st := stateCode
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch st {
		case stateCode:
			switch {
			case c == '/' && i+1 < len(text) && text[i+1] == '*':
				st = stateBlockComment
				i++ // 跳过 '*'
			case c == '/' && i+1 < len(text) && text[i+1] == '/':
				st = stateLineComment
				i++
			case c == '\'':
				st = stateSingleQuote
				escaped = false
				out.WriteByte(c)
			case c == '"':
				st = stateDoubleQuote
				escaped = false
				out.WriteByte(c)
			default:
				out.WriteByte(c)
			}

		case stateSingleQuote:
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '\'' {
				st = stateCode
			}

		case stateDoubleQuote:
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				st = stateCode
			}

		case stateLineComment:
			if c == '\n' {
				out.WriteByte(c)
				st = stateCode
			}

		case stateBlockComment:
			// 在首个 */ 处结束，注释内容全部丢弃
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				i++
				st = stateCode
			}
		}
	}

	return out.String()
}

// Normalize 剥离注释后的空白整理：
// 连续 3 个以上换行压成一个空行，去掉每行行尾空白，
// 修剪整个文件首尾空白并保证恰好一个结尾换行
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}

	var out []string
	blankRun := 0
	for _, line := range lines {
		if line == "" {
			blankRun++
			if blankRun > 1 {
				continue
			}
		} else {
			blankRun = 0
		}
		out = append(out, line)
	}

	result := strings.TrimSpace(strings.Join(out, "\n"))
	if result == "" {
		return ""
	}
	return result + "\n"
}

// StripAndNormalize 组合剥离与整理，用于合约语言源文件；其余文件应原样透传
func StripAndNormalize(text string) string {
	return Normalize(Strip(text))
}
