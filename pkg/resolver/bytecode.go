package resolver

import (
	"github.com/ethereum/go-ethereum/common"
)

// EIP-1167 最小代理字节码模板（https://eips.ethereum.org/EIPS/eip-1167）
//
//	363d3d373d3d3d363d73 <20字节实现地址> 5af43d82803e903d91602b57fd5bf3
//
// 编译器可能用更窄的 PUSH 指令内联去掉前导零的地址，
// 因此第 10 字节允许 PUSH1(0x60)~PUSH20(0x73)，地址按指令宽度右对齐还原
var (
	eip1167Prefix = []byte{0x36, 0x3d, 0x3d, 0x37, 0x3d, 0x3d, 0x3d, 0x36, 0x3d}
	eip1167Suffix = []byte{0x5a, 0xf4, 0x3d, 0x82, 0x80, 0x3e, 0x90, 0x3d, 0x91, 0x60, 0x2b, 0x57, 0xfd, 0x5b, 0xf3}
)

// matchMinimalProxy 将字节码与 EIP-1167 模板比对，命中时抽取嵌入的实现地址
func matchMinimalProxy(bytecode []byte) (common.Address, bool) {
	if len(bytecode) < len(eip1167Prefix)+1+len(eip1167Suffix) {
		return common.Address{}, false
	}

	for i, b := range eip1167Prefix {
		if bytecode[i] != b {
			return common.Address{}, false
		}
	}

	push := bytecode[len(eip1167Prefix)]
	if push < 0x60 || push > 0x73 {
		return common.Address{}, false
	}
	addrLen := int(push-0x60) + 1

	addrStart := len(eip1167Prefix) + 1
	addrEnd := addrStart + addrLen
	if len(bytecode) < addrEnd+len(eip1167Suffix) {
		return common.Address{}, false
	}

	for i, b := range eip1167Suffix {
		if bytecode[addrEnd+i] != b {
			return common.Address{}, false
		}
	}

	var addr common.Address
	copy(addr[20-addrLen:], bytecode[addrStart:addrEnd])
	if addr == (common.Address{}) {
		return common.Address{}, false
	}
	return addr, true
}
