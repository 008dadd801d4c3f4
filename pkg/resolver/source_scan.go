package resolver

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// sourceSignals 源码文本中暗示自定义代理实现的信号
type sourceSignals struct {
	inheritsProxy bool        // 继承了名称含 "Proxy" 的合约
	hasAccessor   bool        // 覆写了按约定命名的实现地址访问器
	customSlot    common.Hash // 自定义 STORAGE SLOT 常量的 32 字节字面量
	hasCustomSlot bool
}

func (s sourceSignals) any() bool {
	return s.inheritsProxy || s.hasAccessor || s.hasCustomSlot
}

var (
	// contract Foo is BaseProxy, Other { ... }
	reProxyInheritance = regexp.MustCompile(`(?m)\bcontract\s+\w+\s+is\s+([^{]*)`)

	// function _implementation() internal view [virtual] override returns (address)
	reImplAccessor = regexp.MustCompile(`function\s+_?implementation\s*\(\s*\)\s+[^{;]*returns\s*\(\s*address`)

	// bytes32 ... constant ..STORAGE..SLOT.. = 0x<64 hex>
	reSlotConstant = regexp.MustCompile(`bytes32\s+(?:private\s+|internal\s+|public\s+)?constant\s+(\w+)\s*=\s*(0x[0-9a-fA-F]{64})`)
)

// scanSourceSignals 扫描已验证源码文本，收集代理信号
// 这是最低优先级的推测性手段，只用于标准方法全部落空的自定义代理
func scanSourceSignals(source string) sourceSignals {
	var sig sourceSignals

	for _, m := range reProxyInheritance.FindAllStringSubmatch(source, -1) {
		if strings.Contains(m[1], "Proxy") {
			sig.inheritsProxy = true
			break
		}
	}

	if reImplAccessor.MatchString(source) {
		sig.hasAccessor = true
	}

	for _, m := range reSlotConstant.FindAllStringSubmatch(source, -1) {
		name := strings.ToUpper(m[1])
		if strings.Contains(name, "STORAGE") && strings.Contains(name, "SLOT") {
			sig.customSlot = common.HexToHash(m[2])
			sig.hasCustomSlot = true
			break
		}
	}

	return sig
}

// constructorArgAddresses 从构造参数字节串中按 32 字节字对齐抽取地址形状的值
// ABI 编码的 address 参数占一个字、高 12 字节为零
func constructorArgAddresses(argsHex string) []common.Address {
	argsHex = strings.TrimPrefix(strings.TrimSpace(argsHex), "0x")
	raw, err := hex.DecodeString(argsHex)
	if err != nil || len(raw) < 32 {
		return nil
	}

	var out []common.Address
	seen := make(map[common.Address]bool)
	for i := 0; i+32 <= len(raw); i += 32 {
		word := raw[i : i+32]
		zeroPrefix := true
		for _, b := range word[:12] {
			if b != 0 {
				zeroPrefix = false
				break
			}
		}
		if !zeroPrefix {
			continue
		}
		addr := common.BytesToAddress(word[12:])
		if addr == (common.Address{}) || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}
