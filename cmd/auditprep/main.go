package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"auditprep/pkg/chain"
	"auditprep/pkg/chains"
	"auditprep/pkg/classifier"
	"auditprep/pkg/output"
	"auditprep/pkg/pipeline"
	"auditprep/pkg/registry"
)

func main() {
	// 命令行参数
	var (
		chainName     = flag.String("chain", "ethereum", "目标链名称 (ethereum/bsc/polygon/arbitrum/optimism/base/sepolia)")
		addressesCSV  = flag.String("address", "", "合约地址，逗号分隔可批量")
		outDir        = flag.String("out", "audit", "输出目录")
		rpcURL        = flag.String("rpc", "", "可选：覆盖内置 RPC URL")
		apiKey        = flag.String("etherscan-key", "", "区块浏览器 API key")
		chainsConfig  = flag.String("chains-config", "", "可选：链配置覆盖文件 (yaml)")
		blacklistPath = flag.String("blacklist", "", "可选：黑名单配置文件 (yaml)")
		timeout       = flag.Duration("timeout", 5*time.Minute, "整体超时")
	)
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if strings.TrimSpace(*addressesCSV) == "" {
		log.Fatalf("必须通过 -address 提供至少一个合约地址")
	}

	table, err := chains.Load(*chainsConfig)
	if err != nil {
		log.Fatalf("加载链配置失败: %v", err)
	}

	handle, err := table.Lookup(*chainName)
	if err != nil {
		log.Fatalf("不支持的链 %q，可用: %s", *chainName, strings.Join(table.Names(), ", "))
	}

	endpoint := handle.RPCURL
	if strings.TrimSpace(*rpcURL) != "" {
		endpoint = strings.TrimSpace(*rpcURL)
	}

	provider, err := chain.Dial(endpoint)
	if err != nil {
		log.Fatalf("连接 RPC 失败: %v", err)
	}
	defer provider.Close()
	log.Printf("已连接 %s (chainid=%d) via %s", handle.Name, handle.ChainID, endpoint)

	reg := registry.NewClient(handle.ExplorerAPI, handle.ChainID, *apiKey)
	defer reg.Close()

	blacklist, err := classifier.LoadBlacklist(*blacklistPath)
	if err != nil {
		log.Fatalf("加载黑名单失败: %v", err)
	}
	if blacklist.Len() > 0 {
		log.Printf("已加载黑名单条目: %d", blacklist.Len())
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	p := pipeline.New(handle.Name, provider, reg, blacklist, *outDir)

	addresses := strings.Split(*addressesCSV, ",")
	results, runErr := p.Run(ctx, addresses)

	printSummary(results)

	if runErr != nil {
		log.Fatalf("运行中断: %v", runErr)
	}
}

// printSummary 每个地址/角色一行的收尾汇总
func printSummary(results []pipeline.AddressResult) {
	log.Printf("处理完成，共 %d 条结果:", len(results))
	for _, r := range results {
		ctype := r.ContractType
		if ctype == "" {
			ctype = output.TypeMain
		}
		if r.Success {
			method := ""
			if r.Resolution != nil && r.Resolution.IsProxy {
				method = " method=" + string(r.Resolution.Method)
			}
			log.Printf("  ✅ %s [%s] -> %s%s", r.Address, ctype, r.OutputDir, method)
		} else {
			log.Printf("  ❌ %s [%s]: %s", r.Address, ctype, r.Reason)
		}
	}
}
