// Package chains 维护受支持链的静态配置表
package chains

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// ErrUnsupportedChain 请求的链不在支持列表中
var ErrUnsupportedChain = fmt.Errorf("unsupported chain")

// Handle 一条链的不可变句柄：链ID、RPC入口与浏览器API入口
type Handle struct {
	Name        string `yaml:"name"`
	ChainID     int64  `yaml:"chain_id"`
	RPCURL      string `yaml:"rpc_url"`
	ExplorerAPI string `yaml:"explorer_api"`
}

// Table 链配置表，启动时构造一次，之后只读
type Table struct {
	handles map[string]Handle
}

// builtin 内置链表（Etherscan v2 多链 API 共用同一入口，按 chainid 区分）
var builtin = []Handle{
	{Name: "ethereum", ChainID: 1, RPCURL: "https://eth.llamarpc.com", ExplorerAPI: "https://api.etherscan.io/v2/api"},
	{Name: "sepolia", ChainID: 11155111, RPCURL: "https://ethereum-sepolia-rpc.publicnode.com", ExplorerAPI: "https://api.etherscan.io/v2/api"},
	{Name: "bsc", ChainID: 56, RPCURL: "https://bsc-dataseed.bnbchain.org", ExplorerAPI: "https://api.etherscan.io/v2/api"},
	{Name: "polygon", ChainID: 137, RPCURL: "https://polygon-rpc.com", ExplorerAPI: "https://api.etherscan.io/v2/api"},
	{Name: "arbitrum", ChainID: 42161, RPCURL: "https://arb1.arbitrum.io/rpc", ExplorerAPI: "https://api.etherscan.io/v2/api"},
	{Name: "optimism", ChainID: 10, RPCURL: "https://mainnet.optimism.io", ExplorerAPI: "https://api.etherscan.io/v2/api"},
	{Name: "base", ChainID: 8453, RPCURL: "https://mainnet.base.org", ExplorerAPI: "https://api.etherscan.io/v2/api"},
}

// Load 构建链配置表；path 非空时用 yaml 覆盖文件合并内置表
// 覆盖文件格式:
//
//	chains:
//	  - name: ethereum
//	    chain_id: 1
//	    rpc_url: http://localhost:8545
//	    explorer_api: https://api.etherscan.io/v2/api
func Load(path string) (*Table, error) {
	t := &Table{handles: make(map[string]Handle, len(builtin))}
	for _, h := range builtin {
		t.handles[h.Name] = h
	}

	if strings.TrimSpace(path) == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chains config %s: %w", path, err)
	}

	var override struct {
		Chains []Handle `yaml:"chains"`
	}
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse chains config %s: %w", path, err)
	}

	for _, h := range override.Chains {
		name := strings.ToLower(strings.TrimSpace(h.Name))
		if name == "" {
			continue
		}
		// 覆盖文件可以只写部分字段，缺失字段沿用内置表
		merged, ok := t.handles[name]
		if !ok {
			merged = Handle{Name: name}
		}
		if h.ChainID != 0 {
			merged.ChainID = h.ChainID
		}
		if h.RPCURL != "" {
			merged.RPCURL = h.RPCURL
		}
		if h.ExplorerAPI != "" {
			merged.ExplorerAPI = h.ExplorerAPI
		}
		t.handles[name] = merged
	}

	return t, nil
}

// Lookup 按名称查找链句柄，未知链返回 ErrUnsupportedChain
func (t *Table) Lookup(name string) (Handle, error) {
	h, ok := t.handles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Handle{}, fmt.Errorf("%w: %s", ErrUnsupportedChain, name)
	}
	return h, nil
}

// Names 返回所有受支持的链名（用于错误提示）
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.handles))
	for name := range t.handles {
		names = append(names, name)
	}
	return names
}
