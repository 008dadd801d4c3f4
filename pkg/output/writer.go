// Package output 把分诊后的文件与最小清单持久化到目录布局
package output

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"auditprep/pkg/classifier"
)

// ContractType 清单中记录的合约角色
type ContractType string

const (
	TypeMain           ContractType = "main"
	TypeProxy          ContractType = "proxy"
	TypeImplementation ContractType = "implementation"
)

// ManifestFileName 每个合约目录下的清单文件名
const ManifestFileName = "audit-manifest.json"

// Manifest 每个合约实例持久化的唯一元数据，派生数据，每次运行整体重建
type Manifest struct {
	MainContract     string       `json:"mainContract"`
	MainContractPath string       `json:"mainContractPath"`
	ContractType     ContractType `json:"contractType"`
}

// Writer 输出写入器。黑名单在持久化边界独立生效：
// 命中黑名单的路径永远不落盘，即使分类层因 red flag 优先保留了它
type Writer struct {
	blacklist *classifier.Blacklist
}

// NewWriter 创建写入器；blacklist 可为 nil
func NewWriter(blacklist *classifier.Blacklist) *Writer {
	return &Writer{blacklist: blacklist}
}

// SavePass 一次合约保存流程：写入全部非黑名单文件，再删除排除文件，
// 最后写清单并清理空目录。写/删失败只告警，不中断剩余流程
//
// 排除文件先写后删，保持保存与清理两条路径对称；
// 目标目录被本次运行独占，重复运行幂等覆盖
func (w *Writer) SavePass(baseDir string, files map[string]string, categories map[string]classifier.Category, manifest Manifest) error {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", baseDir, err)
	}

	var toDelete []string
	for _, relPath := range sortedKeys(files) {
		cat := categories[relPath]

		if cat == classifier.CategoryBlacklisted {
			// 黑名单文件根本不写盘
			continue
		}
		if w.blacklist.Match(relPath) {
			// red flag 与黑名单同时命中：分类保留为 redFlag，
			// 但持久化边界上黑名单获胜——跳过写入并显式告警，不静默丢弃
			log.Printf("警告: red flag 文件命中黑名单，跳过写盘: %s", relPath)
			continue
		}

		dest := filepath.Join(baseDir, filepath.FromSlash(relPath))
		if !strings.HasPrefix(dest, filepath.Clean(baseDir)+string(os.PathSeparator)) {
			log.Printf("警告: 路径越出输出目录，跳过: %s", relPath)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			log.Printf("警告: 创建目录失败 %s: %v", filepath.Dir(dest), err)
			continue
		}
		if err := os.WriteFile(dest, []byte(files[relPath]), 0o644); err != nil {
			log.Printf("警告: 写入文件失败 %s: %v", dest, err)
			continue
		}

		if cat.Excluded() {
			toDelete = append(toDelete, dest)
		}
	}

	for _, dest := range toDelete {
		if err := os.Remove(dest); err != nil {
			log.Printf("警告: 删除排除文件失败 %s: %v", dest, err)
		}
	}

	if err := w.writeManifest(baseDir, manifest); err != nil {
		log.Printf("警告: 写入清单失败: %v", err)
	}

	pruneEmptyDirs(baseDir)
	return nil
}

// writeManifest 重建 audit-manifest.json（不与历史运行合并）
func (w *Writer) writeManifest(baseDir string, manifest Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	dest := filepath.Join(baseDir, ManifestFileName)
	if err := os.WriteFile(dest, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", dest, err)
	}
	return nil
}

// pruneEmptyDirs 自底向上清理删除后留下的空目录
// baseDir 本身以及 proxy/implementation 子目录即使为空也保留
func pruneEmptyDirs(baseDir string) {
	var dirs []string
	filepath.Walk(baseDir, func(p string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() || p == baseDir {
			return nil
		}
		dirs = append(dirs, p)
		return nil
	})

	// 深目录在前，保证父目录能在子目录清空后被判空
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })

	for _, d := range dirs {
		base := filepath.Base(d)
		if base == string(TypeProxy) || base == string(TypeImplementation) {
			continue
		}
		entries, err := os.ReadDir(d)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(d); err != nil {
			log.Printf("警告: 清理空目录失败 %s: %v", d, err)
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
