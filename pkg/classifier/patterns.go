// Package classifier 对解析后的源码树做审计分诊：
// 必读文件、可安全排除的文件、以及绝不能排除的 red flag 文件
package classifier

import (
	"regexp"
)

// Category 文件分类，每个路径恰好对应一个
type Category string

const (
	CategoryMain        Category = "main"
	CategoryCritical    Category = "critical"
	CategoryRedFlag     Category = "redFlag"
	CategoryInterface   Category = "interface"
	CategoryBuildOutput Category = "excludedBuildArtifact"
	CategoryDevTooling  Category = "excludedDevTooling"
	CategoryVendor      Category = "excludedVendor"
	CategoryBlacklisted Category = "excludedBlacklisted"
)

// Excluded 报告该分类是否属于排除桶（不进入人工审计）
func (c Category) Excluded() bool {
	switch c {
	case CategoryBuildOutput, CategoryDevTooling, CategoryVendor, CategoryBlacklisted:
		return true
	}
	return false
}

// pathRule 路径模式 + 分类，按表序自上而下求值，保证优先级可审计
type pathRule struct {
	pattern  *regexp.Regexp
	category Category
}

// redFlagRules 项目自有的 vendor 风格目录：被拷进项目控制目录的第三方代码
// 不能假定未被改动，必须保留并标记为"需审计，疑似修改过的 vendor 代码"
var redFlagRules = []pathRule{
	{regexp.MustCompile(`(?i)(^|/)(contracts?|src)/(lib|libs|vendor|external|utils)(/|$)`), CategoryRedFlag},
	{regexp.MustCompile(`(?i)^(lib|libs|vendor|external)(/|$)`), CategoryRedFlag},
}

// exclusionRules 无条件排除的路径模式，表序即优先级：
// 构建产物在前，开发工具目录次之，最后是角色化文件名
var exclusionRules = []pathRule{
	// 构建产物：编译输出、缓存、生成的 typings、依赖管理目录
	{regexp.MustCompile(`(?i)(^|/)(artifacts|build|out|cache|cache_forge|cache_hardhat)(/|$)`), CategoryBuildOutput},
	{regexp.MustCompile(`(?i)(^|/)(typechain|typechain-types|types/generated)(/|$)`), CategoryBuildOutput},
	{regexp.MustCompile(`(?i)(^|/)(\.deps|dist|coverage)(/|$)`), CategoryBuildOutput},

	// 依赖管理器目录树：包管理器原样拉取的第三方代码，已被广泛审计
	{regexp.MustCompile(`(?i)(^|/)node_modules(/|$)`), CategoryVendor},
	{regexp.MustCompile(`(?i)^@[\w.-]+/`), CategoryVendor},

	// 开发工具：测试、脚本、部署、mock、示例、基准、第三方测试框架
	{regexp.MustCompile(`(?i)(^|/)(test|tests|testing)(/|$)`), CategoryDevTooling},
	{regexp.MustCompile(`(?i)(^|/)(script|scripts|deploy|deployments|deployment|migrations|tasks)(/|$)`), CategoryDevTooling},
	{regexp.MustCompile(`(?i)(^|/)(mock|mocks|example|examples|benchmark|benchmarks|fixtures|fixture)(/|$)`), CategoryDevTooling},
	{regexp.MustCompile(`(?i)(^|/)(forge-std|ds-test|hardhat|truffle)(/|$)`), CategoryDevTooling},

	// 角色化文件名：不论所在目录，名字就标明了测试/部署/辅助角色
	{regexp.MustCompile(`(?i)\.t\.sol$`), CategoryDevTooling},
	{regexp.MustCompile(`(?i)\.s\.sol$`), CategoryDevTooling},
	{regexp.MustCompile(`(?i)(^|/)[^/]*(\.test\.|\.spec\.)[^/]*$`), CategoryDevTooling},
	{regexp.MustCompile(`(?i)(^|/)(test|mock)[^/]*\.sol$`), CategoryDevTooling},
	{regexp.MustCompile(`(?i)(^|/)[^/]*(test|tests|mock|mocks|harness)\.sol$`), CategoryDevTooling},
	{regexp.MustCompile(`(?i)(^|/)deploy[^/]*\.(sol|js|ts)$`), CategoryDevTooling},
	{regexp.MustCompile(`(?i)(^|/)[^/]*(helper|helpers)\.(sol)$`), CategoryDevTooling},
}

// 源码内容探测用的模式
var (
	// interface Foo { ... } 声明
	reInterfaceDecl = regexp.MustCompile(`(?m)^\s*interface\s+\w+`)

	// 带函数体的函数声明（签名后跟 { 而不是 ;）
	reFunctionWithBody = regexp.MustCompile(`function\s+\w*\s*\([^)]*\)[^;{]*\{`)

	// external/public 函数声明（主文件探测的文本计数用）
	reExternalFunction = regexp.MustCompile(`function\s+\w+\s*\([^)]*\)[^;{]*\b(external|public)\b`)
)
