package classifier

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Blacklist 外部提供的字面路径子串列表
// 命中黑名单的文件在持久化层被整个跳过，根本不会落盘，
// 区别于"先写入再删除"的普通排除
type Blacklist struct {
	substrings []string
}

// LoadBlacklist 从 yaml 文件加载黑名单；文件不存在不是错误，退化为空黑名单
//
//	blacklist:
//	  - "openzeppelin-contracts/"
//	  - "solmate/"
func LoadBlacklist(path string) (*Blacklist, error) {
	bl := &Blacklist{}
	if strings.TrimSpace(path) == "" {
		return bl, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("黑名单文件不存在，按空黑名单处理: %s", path)
			return bl, nil
		}
		return nil, fmt.Errorf("failed to read blacklist %s: %w", path, err)
	}

	var parsed struct {
		Blacklist []string `yaml:"blacklist"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse blacklist %s: %w", path, err)
	}

	for _, s := range parsed.Blacklist {
		s = strings.TrimSpace(s)
		if s != "" {
			bl.substrings = append(bl.substrings, s)
		}
	}
	return bl, nil
}

// NewBlacklist 直接由子串列表构造（测试与程序内组装用）
func NewBlacklist(substrings []string) *Blacklist {
	bl := &Blacklist{}
	for _, s := range substrings {
		s = strings.TrimSpace(s)
		if s != "" {
			bl.substrings = append(bl.substrings, s)
		}
	}
	return bl
}

// Match 路径是否命中任一黑名单子串
func (b *Blacklist) Match(path string) bool {
	if b == nil {
		return false
	}
	for _, s := range b.substrings {
		if strings.Contains(path, s) {
			return true
		}
	}
	return false
}

// Len 黑名单条目数
func (b *Blacklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.substrings)
}
