// Package registry 从区块浏览器 API 获取合约的已验证源码记录
package registry

// SourceRecord 一个地址的已验证源码记录，单次解析内只生成一次，之后只读
type SourceRecord struct {
	Address                string // 请求地址（原样）
	Verified               bool   // 浏览器是否收录了已验证源码
	ContractName           string // 声明的合约名
	MainFileName           string // 声明的主文件名（部分浏览器提供，可为空）
	SourceText             string // 原始源码载荷（单文件或 JSON 包装的多文件工程）
	CompilerVersion        string
	ABI                    string
	LicenseType            string
	DeclaredProxy          bool   // 浏览器标记的 "is proxy"
	DeclaredImplementation string // 浏览器标记的实现地址（未校验）
	ConstructorArgs        string // 构造参数字节串（hex，无 0x 前缀）
}

// etherscanResponse Etherscan getsourcecode 响应结构
type etherscanResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  []struct {
		SourceCode           string `json:"SourceCode"`
		ABI                  string `json:"ABI"`
		ContractName         string `json:"ContractName"`
		ContractFileName     string `json:"ContractFileName"`
		CompilerVersion      string `json:"CompilerVersion"`
		OptimizationUsed     string `json:"OptimizationUsed"`
		Runs                 string `json:"Runs"`
		ConstructorArguments string `json:"ConstructorArguments"`
		EVMVersion           string `json:"EVMVersion"`
		Library              string `json:"Library"`
		LicenseType          string `json:"LicenseType"`
		Proxy                string `json:"Proxy"`
		Implementation       string `json:"Implementation"`
		SwarmSource          string `json:"SwarmSource"`
	} `json:"result"`
}
