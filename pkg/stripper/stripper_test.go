package stripper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestStripLineComment 行注释移除，行尾换行保留
func TestStripLineComment(t *testing.T) {
	in := "uint a; // comment\nuint b;\n"
	assert.Equal(t, "uint a; \nuint b;\n", Strip(in))
}

// TestStripBlockComment 块注释在首个 */ 处结束，内容全部丢弃
func TestStripBlockComment(t *testing.T) {
	assert.Equal(t, " code ", Strip("/* a */ code /* b */"))
	assert.Equal(t, "x;y;", Strip("x;/** doc\n * lines\n */y;"))
}

// TestStripStringLiterals 字符串里的注释标记永远不会被当成注释
func TestStripStringLiterals(t *testing.T) {
	in := `string s = "a // b"; string u = "c /* d */";`
	assert.Equal(t, in, Strip(in))

	// 单引号与转义引号
	in2 := `char c = '\''; string s = "quote \" // not a comment";`
	assert.Equal(t, in2, Strip(in2))
}

// TestStripUnterminatedBlock 未闭合块注释丢弃到输入结尾，不报错
func TestStripUnterminatedBlock(t *testing.T) {
	assert.Equal(t, "code ", Strip("code /* never closed..."))
}

// TestNormalize 换行压缩、行尾空白清理、恰好一个结尾换行
func TestNormalize(t *testing.T) {
	in := "a;   \n\n\n\n\nb;\t\n\n\n"
	assert.Equal(t, "a;\n\nb;\n", Normalize(in))

	assert.Equal(t, "", Normalize("   \n\n  \n"))
	assert.Equal(t, "x\n", Normalize("x"))
}

// TestStripAndNormalize 注释剥离后留下的空行一并收敛
func TestStripAndNormalize(t *testing.T) {
	in := `pragma solidity ^0.8.0;

// SPDX 注释行
/**
 * @title Doc
 */


contract C {
    // noop
    function f() external {} // inline
}
`
	want := `pragma solidity ^0.8.0;

contract C {

    function f() external {}
}
`
	assert.Equal(t, want, StripAndNormalize(in))
}
