package classifier

import (
	"log"
	"path"
	"regexp"
	"sort"
	"strings"
)

// Classifier 审计分诊器。黑名单加载一次后注入，不在调用期间重读
type Classifier struct {
	blacklist *Blacklist
}

// Result 分诊结果。Categories 对输入树的键集是全函数：每个路径恰好一个分类
type Result struct {
	MainContract string              // 主合约名（可为空）
	MainPath     string              // 主合约文件路径（可为空，软警告而非错误）
	Categories   map[string]Category // 路径 -> 分类
}

// New 创建分诊器；blacklist 可为 nil（等价于空黑名单）
func New(blacklist *Blacklist) *Classifier {
	return &Classifier{blacklist: blacklist}
}

// Classify 对 files（路径 -> 已剥离注释的内容）做分诊
// declaredName / declaredFile 来自注册表记录，均可为空
//
// 分类优先级（高到低）：red flag > 黑名单 > 主文件 > 构建产物 >
// 开发工具 > 角色化文件名 > 纯接口 > critical
// red flag 与黑名单同时命中时分类记 redFlag，持久化层会另行跳过黑名单路径
func (c *Classifier) Classify(files map[string]string, declaredName, declaredFile string) Result {
	res := Result{
		MainContract: declaredName,
		Categories:   make(map[string]Category, len(files)),
	}

	res.MainPath = c.detectMainContract(files, declaredName, declaredFile)
	if res.MainPath == "" {
		log.Printf("警告: 未能确定主合约文件 (declaredName=%q declaredFile=%q)", declaredName, declaredFile)
	}

	for p, content := range files {
		res.Categories[p] = c.classifyOne(p, content, res.MainPath)
	}
	return res
}

func (c *Classifier) classifyOne(p, content, mainPath string) Category {
	if matchAny(redFlagRules, p) {
		return CategoryRedFlag
	}
	if c.blacklist.Match(p) {
		return CategoryBlacklisted
	}
	// 主文件永远保留，不落入任何排除桶
	if p == mainPath {
		return CategoryMain
	}
	if cat, ok := matchExclusion(p); ok {
		return cat
	}
	if isPureInterface(content) {
		return CategoryInterface
	}
	return CategoryCritical
}

// detectMainContract 主文件探测，首个命中的策略胜出：
//  1. 注册表声明的主文件名（路径后缀或基名精确匹配）
//  2. 声明的合约名（基名匹配或文本含同名 contract/library 声明）
//  3. 未被排除文件中字节数最大者
//  4. 未被排除文件中 external/public 函数声明最多者
func (c *Classifier) detectMainContract(files map[string]string, declaredName, declaredFile string) string {
	paths := sortedPaths(files)

	if declaredFile != "" {
		for _, p := range paths {
			if strings.HasSuffix(p, "/"+declaredFile) || p == declaredFile || path.Base(p) == declaredFile {
				return p
			}
		}
	}

	if declaredName != "" {
		for _, p := range paths {
			base := strings.TrimSuffix(path.Base(p), path.Ext(p))
			if base == declaredName {
				return p
			}
		}
		reDecl := regexp.MustCompile(`(?m)\b(contract|library)\s+` + regexp.QuoteMeta(declaredName) + `\b`)
		for _, p := range paths {
			if reDecl.MatchString(files[p]) {
				return p
			}
		}
	}

	candidates := c.auditCandidates(paths)

	best, bestSize := "", -1
	for _, p := range candidates {
		if len(files[p]) > bestSize {
			best, bestSize = p, len(files[p])
		}
	}
	if best != "" && bestSize > 0 {
		return best
	}

	best, bestCount := "", 0
	for _, p := range candidates {
		n := len(reExternalFunction.FindAllString(files[p], -1))
		if n > bestCount {
			best, bestCount = p, n
		}
	}
	return best
}

// auditCandidates 过滤掉按规则会被排除的路径（主文件探测只在保留文件中挑选）
func (c *Classifier) auditCandidates(paths []string) []string {
	var out []string
	for _, p := range paths {
		if c.blacklist.Match(p) && !matchAny(redFlagRules, p) {
			continue
		}
		if _, excluded := matchExclusion(p); excluded {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchAny(rules []pathRule, p string) bool {
	for _, r := range rules {
		if r.pattern.MatchString(p) {
			return true
		}
	}
	return false
}

func matchExclusion(p string) (Category, bool) {
	for _, r := range exclusionRules {
		if r.pattern.MatchString(p) {
			return r.category, true
		}
	}
	return "", false
}

// isPureInterface 纯接口判定：声明了 interface 且没有任何函数带函数体
// 已知局限：混有已实现与未实现函数的 abstract contract 可能被误判，按启发式保留
func isPureInterface(content string) bool {
	if !reInterfaceDecl.MatchString(content) {
		return false
	}
	return !reFunctionWithBody.MatchString(content)
}

func sortedPaths(files map[string]string) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
