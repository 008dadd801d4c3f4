// Package resolver 实现代理合约解析引擎：判定地址是否为代理并定位真实实现地址
package resolver

import (
	"errors"
)

// Method 标识命中代理的解析方法
type Method string

const (
	MethodEtherscanAPI Method = "etherscan-api"
	MethodEIP1967      Method = "eip1967"
	MethodEIP1967Bcn   Method = "eip1967-beacon"
	MethodOZSlot       Method = "openzeppelin-slot"
	MethodEIP1822      Method = "eip1822"
	MethodEIP1167      Method = "eip1167-bytecode"
	MethodEIP897Call   Method = "eip897-call"
	MethodGnosisSafe   Method = "gnosis-safe"
	MethodSourceScan   Method = "source-analysis"
	MethodNone         Method = "none"
)

// ErrNoContractCode 目标地址没有已部署代码（前置条件失败，区别于"不是代理"）
var ErrNoContractCode = errors.New("no contract code at address")

// Resolution 一次解析调用的结果，返回后不可变
type Resolution struct {
	IsProxy        bool   `json:"isProxy"`
	ProxyAddress   string `json:"proxyAddress"`
	Implementation string `json:"implementationAddress,omitempty"` // EIP-55 校验和格式
	Method         Method `json:"method"`
	Err            string `json:"error,omitempty"`
}
