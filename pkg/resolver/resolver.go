package resolver

import (
	"context"
	"log"

	"auditprep/pkg/chain"
	"auditprep/pkg/registry"

	"github.com/ethereum/go-ethereum/common"
)

// Resolver 按可靠性降序尝试一组探针，首个返回非空实现地址的探针胜出
// 优先级：注册表声明 > 标准存储槽 > 字节码模板 > 只读调用 > beacon > 源码启发式
type Resolver struct {
	reader chain.Reader
	probes []probe
}

// probeContext 一次解析调用内各探针共享的输入
type probeContext struct {
	addr     common.Address
	bytecode []byte
	record   *registry.SourceRecord
}

// probe 探针策略对象：返回候选实现地址与命中方法标签
// 任何探针内部失败（网络、revert、解码）都表现为 ok=false，绝不上抛
type probe struct {
	name string
	run  func(ctx context.Context, pc *probeContext) (common.Address, Method, bool)
}

// NewResolver 创建代理解析器
func NewResolver(reader chain.Reader) *Resolver {
	r := &Resolver{reader: reader}
	r.probes = []probe{
		{name: "declared-proxy", run: r.probeDeclared},
		{name: "eip1967-logic-slot", run: r.probeEIP1967},
		{name: "openzeppelin-slot", run: r.probeOZLegacy},
		{name: "eip1822-slot", run: r.probeEIP1822},
		{name: "eip1167-bytecode", run: r.probeMinimalProxy},
		{name: "implementation-call", run: r.probeImplementationCall},
		{name: "mastercopy-call", run: r.probeMasterCopy},
		{name: "eip1967-beacon", run: r.probeBeacon},
		{name: "source-analysis", run: r.probeSourceHeuristic},
	}
	return r
}

// Resolve 判定 addr 是否为代理。"不是代理"是正常结果而非错误；
// 只有目标地址完全没有已部署代码时返回 ErrNoContractCode
func (r *Resolver) Resolve(ctx context.Context, addr common.Address, bytecode []byte, record *registry.SourceRecord) (Resolution, error) {
	res := Resolution{
		ProxyAddress: addr.Hex(),
		Method:       MethodNone,
	}

	if len(bytecode) == 0 {
		res.Err = ErrNoContractCode.Error()
		return res, ErrNoContractCode
	}

	pc := &probeContext{addr: addr, bytecode: bytecode, record: record}
	for _, p := range r.probes {
		impl, method, ok := p.run(ctx, pc)
		if !ok {
			continue
		}
		if impl == (common.Address{}) || impl == addr {
			// 自指或零地址不是有效实现
			continue
		}
		res.IsProxy = true
		res.Implementation = impl.Hex()
		res.Method = method
		return res, nil
	}

	return res, nil
}

// probeDeclared 注册表声明的代理捷径：已验证元数据里给出的实现地址可信度最高，
// 但格式必须重新校验，非法值记日志后继续走后续探针
func (r *Resolver) probeDeclared(_ context.Context, pc *probeContext) (common.Address, Method, bool) {
	if pc.record == nil || !pc.record.DeclaredProxy {
		return common.Address{}, "", false
	}
	declared := pc.record.DeclaredImplementation
	if declared == "" {
		return common.Address{}, "", false
	}
	if !common.IsHexAddress(declared) {
		log.Printf("注册表声明的实现地址格式非法，忽略: %q (proxy=%s)", declared, pc.addr.Hex())
		return common.Address{}, "", false
	}
	return common.HexToAddress(declared), MethodEtherscanAPI, true
}

func (r *Resolver) probeEIP1967(ctx context.Context, pc *probeContext) (common.Address, Method, bool) {
	impl, ok := chain.SlotAddress(ctx, r.reader, pc.addr, slotEIP1967Logic)
	return impl, MethodEIP1967, ok
}

func (r *Resolver) probeOZLegacy(ctx context.Context, pc *probeContext) (common.Address, Method, bool) {
	impl, ok := chain.SlotAddress(ctx, r.reader, pc.addr, slotOZLegacy)
	return impl, MethodOZSlot, ok
}

func (r *Resolver) probeEIP1822(ctx context.Context, pc *probeContext) (common.Address, Method, bool) {
	impl, ok := chain.SlotAddress(ctx, r.reader, pc.addr, slotEIP1822)
	return impl, MethodEIP1822, ok
}

func (r *Resolver) probeMinimalProxy(_ context.Context, pc *probeContext) (common.Address, Method, bool) {
	impl, ok := matchMinimalProxy(pc.bytecode)
	return impl, MethodEIP1167, ok
}

func (r *Resolver) probeImplementationCall(ctx context.Context, pc *probeContext) (common.Address, Method, bool) {
	impl, ok := chain.CallAddress(ctx, r.reader, pc.addr, selImplementation)
	return impl, MethodEIP897Call, ok
}

func (r *Resolver) probeMasterCopy(ctx context.Context, pc *probeContext) (common.Address, Method, bool) {
	impl, ok := chain.CallAddress(ctx, r.reader, pc.addr, selMasterCopy)
	return impl, MethodGnosisSafe, ok
}

// probeBeacon EIP-1967 beacon 间接寻址：beacon 槽 → beacon 合约上
// 依次调 implementation() / childImplementation()，先非空者胜出
func (r *Resolver) probeBeacon(ctx context.Context, pc *probeContext) (common.Address, Method, bool) {
	beacon, ok := chain.SlotAddress(ctx, r.reader, pc.addr, slotEIP1967Beacon)
	if !ok {
		return common.Address{}, "", false
	}
	if impl, ok := chain.CallAddress(ctx, r.reader, beacon, selImplementation); ok {
		return impl, MethodEIP1967Bcn, true
	}
	if impl, ok := chain.CallAddress(ctx, r.reader, beacon, selChildImplementation); ok {
		return impl, MethodEIP1967Bcn, true
	}
	return common.Address{}, "", false
}

// probeSourceHeuristic 源码启发式，仅在有已验证源码且前面全部落空时尝试：
//  1. 直接调约定访问器 implementation()
//  2. 读自定义槽；槽值若是已部署合约再对其调访问器
//  3. 扫构造参数中按字对齐的地址，对其中已部署的合约调访问器
func (r *Resolver) probeSourceHeuristic(ctx context.Context, pc *probeContext) (common.Address, Method, bool) {
	if pc.record == nil || !pc.record.Verified {
		return common.Address{}, "", false
	}

	sig := scanSourceSignals(pc.record.SourceText)
	if !sig.any() {
		// 没有任何文本信号，认定不是代理
		return common.Address{}, "", false
	}

	if impl, ok := chain.CallAddress(ctx, r.reader, pc.addr, selImplementation); ok && impl != pc.addr {
		return impl, MethodSourceScan, true
	}

	if sig.hasCustomSlot {
		if stored, ok := chain.SlotAddress(ctx, r.reader, pc.addr, sig.customSlot); ok {
			if chain.HasCode(ctx, r.reader, stored) {
				if impl, ok := chain.CallAddress(ctx, r.reader, stored, selImplementation); ok && impl != pc.addr {
					return impl, MethodSourceScan, true
				}
			}
		}
	}

	for _, candidate := range constructorArgAddresses(pc.record.ConstructorArgs) {
		if candidate == pc.addr || !chain.HasCode(ctx, r.reader, candidate) {
			continue
		}
		if impl, ok := chain.CallAddress(ctx, r.reader, candidate, selImplementation); ok && impl != pc.addr {
			return impl, MethodSourceScan, true
		}
	}

	return common.Address{}, "", false
}
