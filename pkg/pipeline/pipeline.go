// Package pipeline 串联 注册表查询 → 代理解析 → 源码树解析 →
// 注释剥离 → 审计分诊 → 落盘 的完整流程
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path"
	"path/filepath"
	"strings"

	"auditprep/pkg/chain"
	"auditprep/pkg/classifier"
	"auditprep/pkg/output"
	"auditprep/pkg/registry"
	"auditprep/pkg/resolver"
	"auditprep/pkg/sourcetree"
	"auditprep/pkg/stripper"

	"github.com/ethereum/go-ethereum/common"
)

// SourceFetcher 注册表查询面，测试注入 fake
type SourceFetcher interface {
	GetSource(ctx context.Context, address string) (*registry.SourceRecord, error)
}

// AddressResult 单个地址单个角色的处理结果
// 可恢复的失败（未验证、无代码）记录原因后继续兄弟地址，不中断整个批次
type AddressResult struct {
	Address      string
	ContractType output.ContractType
	Success      bool
	Reason       string
	OutputDir    string
	Resolution   *resolver.Resolution
}

// Pipeline 单链审计准备流水线
type Pipeline struct {
	chainName  string
	reader     chain.Reader
	registry   SourceFetcher
	resolver   *resolver.Resolver
	classifier *classifier.Classifier
	writer     *output.Writer
	outDir     string
}

// New 组装流水线
func New(chainName string, reader chain.Reader, reg SourceFetcher, blacklist *classifier.Blacklist, outDir string) *Pipeline {
	return &Pipeline{
		chainName:  chainName,
		reader:     reader,
		registry:   reg,
		resolver:   resolver.NewResolver(reader),
		classifier: classifier.New(blacklist),
		writer:     output.NewWriter(blacklist),
		outDir:     outDir,
	}
}

// Run 依次处理每个地址；返回全部结果
// 只有提供方网络级不可达（目标地址字节码都取不到）才作为错误向上传播
func (p *Pipeline) Run(ctx context.Context, addresses []string) ([]AddressResult, error) {
	var results []AddressResult
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		rs, err := p.ProcessAddress(ctx, addr)
		results = append(results, rs...)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// ProcessAddress 处理单个地址：前置条件检查 → 注册表 → 代理解析 →
// 代理/实现两条相互独立的保存流程
func (p *Pipeline) ProcessAddress(ctx context.Context, addrStr string) ([]AddressResult, error) {
	if !common.IsHexAddress(addrStr) {
		return []AddressResult{{
			Address: addrStr,
			Success: false,
			Reason:  "invalid address format",
		}}, nil
	}
	addr := common.HexToAddress(addrStr)

	// 前置条件：目标地址必须有已部署代码；取码的网络错误是顶层硬失败
	bytecode, err := p.reader.CodeAt(ctx, addr, nil)
	if err != nil {
		return []AddressResult{{
			Address: addr.Hex(),
			Success: false,
			Reason:  fmt.Sprintf("bytecode fetch failed: %v", err),
		}}, fmt.Errorf("bytecode fetch failed for %s: %w", addr.Hex(), err)
	}
	if len(bytecode) == 0 {
		log.Printf("地址没有已部署代码: %s", addr.Hex())
		return []AddressResult{{
			Address:    addr.Hex(),
			Success:    false,
			Reason:     resolver.ErrNoContractCode.Error(),
			Resolution: &resolver.Resolution{ProxyAddress: addr.Hex(), Method: resolver.MethodNone, Err: resolver.ErrNoContractCode.Error()},
		}}, nil
	}

	record, err := p.registry.GetSource(ctx, addr.Hex())
	if err != nil {
		log.Printf("注册表查询失败 %s: %v", addr.Hex(), err)
		record = &registry.SourceRecord{Address: addr.Hex()}
	}

	res, rerr := p.resolver.Resolve(ctx, addr, bytecode, record)
	if rerr != nil {
		// 解析器层面的前置条件失败（上面已查过空代码，通常到不了这里）
		return []AddressResult{{
			Address:    addr.Hex(),
			Success:    false,
			Reason:     rerr.Error(),
			Resolution: &res,
		}}, nil
	}

	if !res.IsProxy {
		r := p.savePass(ctx, addr.Hex(), record, output.TypeMain, &res)
		return []AddressResult{r}, nil
	}

	log.Printf("检测到代理: %s -> %s (method=%s)", addr.Hex(), res.Implementation, res.Method)

	// 代理与实现是两条顺序执行、互不共享可变状态的保存流程，
	// 写入不相交的子目录；任一半失败不影响另一半
	proxyResult := p.savePass(ctx, addr.Hex(), record, output.TypeProxy, &res)

	implRecord, err := p.registry.GetSource(ctx, res.Implementation)
	if err != nil {
		log.Printf("实现合约注册表查询失败 %s: %v", res.Implementation, err)
		implRecord = &registry.SourceRecord{Address: res.Implementation}
	}
	implResult := p.saveRecord(addr.Hex(), res.Implementation, implRecord, output.TypeImplementation, &res)

	return []AddressResult{proxyResult, implResult}, nil
}

// savePass 保存以 ownerAddr 自身源码记录为内容的一个角色目录
func (p *Pipeline) savePass(_ context.Context, ownerAddr string, record *registry.SourceRecord, ctype output.ContractType, res *resolver.Resolution) AddressResult {
	return p.saveRecord(ownerAddr, ownerAddr, record, ctype, res)
}

// saveRecord 对一份源码记录执行 解析→剥离→分诊→写盘
// ownerAddr 决定输出目录归属（实现合约写在代理地址目录下）
func (p *Pipeline) saveRecord(ownerAddr, subjectAddr string, record *registry.SourceRecord, ctype output.ContractType, res *resolver.Resolution) AddressResult {
	result := AddressResult{
		Address:      subjectAddr,
		ContractType: ctype,
		Resolution:   res,
	}

	if record == nil || !record.Verified {
		// 未验证源码：记录原因后返回，不影响兄弟流程；
		// 反编译属于外部协作方，这里不做
		result.Reason = "contract source not verified"
		return result
	}

	tree := sourcetree.Parse(record.SourceText)
	if len(tree.Files) == 0 {
		result.Reason = "verified source payload is empty"
		return result
	}

	files := renameSingleFile(tree.Files, record.ContractName)
	stripped := make(map[string]string, len(files))
	for pth, content := range files {
		if strings.EqualFold(path.Ext(pth), ".sol") {
			stripped[pth] = stripper.StripAndNormalize(content)
		} else {
			stripped[pth] = content
		}
	}

	cls := p.classifier.Classify(stripped, record.ContractName, record.MainFileName)

	baseDir := p.passDir(ownerAddr, ctype)
	manifest := output.Manifest{
		MainContract:     cls.MainContract,
		MainContractPath: cls.MainPath,
		ContractType:     ctype,
	}
	if err := p.writer.SavePass(baseDir, stripped, cls.Categories, manifest); err != nil {
		result.Reason = fmt.Sprintf("save failed: %v", err)
		return result
	}

	result.Success = true
	result.OutputDir = baseDir
	return result
}

// passDir main 合约平铺在地址目录下，代理对嵌套一层 proxy/ 或 implementation/
func (p *Pipeline) passDir(ownerAddr string, ctype output.ContractType) string {
	base := filepath.Join(p.outDir, p.chainName, ownerAddr)
	if ctype == output.TypeMain {
		return base
	}
	return filepath.Join(base, string(ctype))
}

// renameSingleFile 单文件树在已知合约名时改名为 <ContractName>.<ext>
// 保持与具名合约的输出一致（解析器之外的调用方职责）
func renameSingleFile(files map[string]string, contractName string) map[string]string {
	if len(files) != 1 || strings.TrimSpace(contractName) == "" {
		return files
	}
	for old, content := range files {
		ext := path.Ext(old)
		if ext == "" {
			ext = ".sol"
		}
		renamed := contractName + ext
		if renamed == old {
			return files
		}
		return map[string]string{renamed: content}
	}
	return files
}
