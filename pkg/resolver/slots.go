package resolver

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// 各代理标准使用的固定存储槽
// 槽位值均为规范文档中的确定性常量（keccak256 推导），直接硬编码
var (
	// EIP-1967 逻辑槽: keccak256("eip1967.proxy.implementation") - 1
	slotEIP1967Logic = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")

	// EIP-1967 beacon 槽: keccak256("eip1967.proxy.beacon") - 1
	slotEIP1967Beacon = common.HexToHash("0xa3f0ad74e5423aebfd80d3ef4346578335a9a72aeaee59ff6cb3582b35133d50")

	// 旧版 OpenZeppelin 可升级代理: keccak256("org.zeppelinos.proxy.implementation")
	slotOZLegacy = common.HexToHash("0x7050c9e0f4ca769c69bd3a8ef740bc37934f8e2c036e5a723fd8ee048ed3f8c3")

	// EIP-1822 UUPS: keccak256("PROXIABLE")
	slotEIP1822 = common.HexToHash("0xc5f16f0fcc639fa48a6947836d9850f504798523bf8c9a3a87d5876cf622bcf7")
)

// 只读调用探针使用的 4 字节选择器
var (
	selImplementation      = selector("implementation()")
	selMasterCopy          = selector("masterCopy()")
	selChildImplementation = selector("childImplementation()")
)

func selector(sig string) []byte {
	return crypto.Keccak256([]byte(sig))[:4]
}
