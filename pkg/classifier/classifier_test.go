package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bodyContract = `pragma solidity ^0.8.0;
contract Thing {
    function run() external { x = 1; }
    uint256 x;
}`

const bodyInterface = `pragma solidity ^0.8.0;
interface IThing {
    function run() external;
    function stop() external view returns (bool);
}`

// TestClassifyTotal 每个输入路径恰好得到一个分类
func TestClassifyTotal(t *testing.T) {
	files := map[string]string{
		"contracts/Main.sol":     bodyContract,
		"contracts/IThing.sol":   bodyInterface,
		"test/Main.t.sol":        bodyContract,
		"node_modules/dep/D.sol": bodyContract,
	}

	res := New(nil).Classify(files, "Main", "")
	require.Len(t, res.Categories, len(files))
	for p := range files {
		assert.Contains(t, res.Categories, p)
	}
}

// TestClassifyRedFlagDirectories 项目控制目录下的 vendor 风格代码
// 必须标记为 redFlag，绝不落入 excludedVendor
func TestClassifyRedFlagDirectories(t *testing.T) {
	files := map[string]string{
		"contracts/vendor/Foo.sol":   bodyContract,
		"contracts/lib/SafeMath.sol": bodyContract,
		"src/external/Oracle.sol":    bodyContract,
		"src/utils/Helpers.sol":      bodyContract,
		"lib/forge-lib/Lib.sol":      bodyContract,
		"contracts/Main.sol":         bodyContract,
	}

	res := New(nil).Classify(files, "Main", "Main.sol")
	for _, p := range []string{
		"contracts/vendor/Foo.sol",
		"contracts/lib/SafeMath.sol",
		"src/external/Oracle.sol",
		"src/utils/Helpers.sol",
		"lib/forge-lib/Lib.sol",
	} {
		assert.Equal(t, CategoryRedFlag, res.Categories[p], p)
		assert.False(t, res.Categories[p].Excluded(), p)
	}
	assert.Equal(t, CategoryMain, res.Categories["contracts/Main.sol"])
}

// TestClassifyExclusionBuckets 构建产物 / vendor / 开发工具各入各桶
func TestClassifyExclusionBuckets(t *testing.T) {
	cases := map[string]Category{
		"artifacts/Token.json":              CategoryBuildOutput,
		"cache/solidity-files-cache.json":   CategoryBuildOutput,
		"typechain-types/Token.ts":          CategoryBuildOutput,
		"node_modules/@oz/contracts/E.sol":  CategoryVendor,
		"@openzeppelin/contracts/ERC20.sol": CategoryVendor,
		"test/TokenTest.sol":                CategoryDevTooling,
		"contracts/Token.t.sol":             CategoryDevTooling,
		"script/Deploy.s.sol":               CategoryDevTooling,
		"contracts/MockOracle.sol":          CategoryDevTooling,
		"contracts/deploy_token.ts":         CategoryDevTooling,
		"contracts/TokenHelpers.sol":        CategoryDevTooling,
	}

	files := map[string]string{"contracts/Main.sol": bodyContract}
	for p := range cases {
		files[p] = bodyContract
	}

	res := New(nil).Classify(files, "Main", "Main.sol")
	for p, want := range cases {
		assert.Equal(t, want, res.Categories[p], p)
		assert.True(t, res.Categories[p].Excluded(), p)
	}
}

// TestClassifyPureInterface 纯接口单独成桶；带函数体的不算
func TestClassifyPureInterface(t *testing.T) {
	mixed := `interface IThing { function run() external; }
contract ThingBase { function helper() internal { } }`

	files := map[string]string{
		"contracts/Main.sol":   bodyContract,
		"contracts/IThing.sol": bodyInterface,
		"contracts/Mixed.sol":  mixed,
	}

	res := New(nil).Classify(files, "Main", "Main.sol")
	assert.Equal(t, CategoryInterface, res.Categories["contracts/IThing.sol"])
	assert.Equal(t, CategoryCritical, res.Categories["contracts/Mixed.sol"])
}

// TestClassifyBlacklist 黑名单命中的文件标记为 excludedBlacklisted，
// 但 red flag 路径优先于黑名单保留分类
func TestClassifyBlacklist(t *testing.T) {
	bl := NewBlacklist([]string{"openzeppelin-contracts/", "solmate/"})
	files := map[string]string{
		"deps/openzeppelin-contracts/ERC20.sol":               bodyContract,
		"contracts/vendor/openzeppelin-contracts/Ownable.sol": bodyContract,
		"contracts/Main.sol":                                  bodyContract,
	}

	res := New(bl).Classify(files, "Main", "Main.sol")
	assert.Equal(t, CategoryBlacklisted, res.Categories["deps/openzeppelin-contracts/ERC20.sol"])
	// red flag 目录 + 黑名单同时命中：分类层 red flag 获胜
	assert.Equal(t, CategoryRedFlag, res.Categories["contracts/vendor/openzeppelin-contracts/Ownable.sol"])
}

// TestDetectMainContract 主文件探测的四级策略
func TestDetectMainContract(t *testing.T) {
	t.Run("声明的主文件名精确匹配", func(t *testing.T) {
		files := map[string]string{
			"src/Main.sol":  bodyContract,
			"src/Other.sol": bodyContract,
		}
		res := New(nil).Classify(files, "", "Main.sol")
		assert.Equal(t, "src/Main.sol", res.MainPath)
		assert.Equal(t, CategoryMain, res.Categories["src/Main.sol"])
	})

	t.Run("声明的合约名匹配文件基名", func(t *testing.T) {
		files := map[string]string{
			"src/Vault.sol": bodyContract,
			"src/Other.sol": bodyContract,
		}
		res := New(nil).Classify(files, "Vault", "")
		assert.Equal(t, "src/Vault.sol", res.MainPath)
	})

	t.Run("声明的合约名匹配文本中的合约声明", func(t *testing.T) {
		files := map[string]string{
			"src/core.sol":  "contract Vault { function f() external { } }",
			"src/other.sol": "contract Other { }",
		}
		res := New(nil).Classify(files, "Vault", "")
		assert.Equal(t, "src/core.sol", res.MainPath)
	})

	t.Run("无声明信息时取保留文件中最大者", func(t *testing.T) {
		files := map[string]string{
			"src/Big.sol":     bodyContract + "\n// extra weight that makes this file the longest one",
			"src/Small.sol":   bodyContract,
			"test/Huge.t.sol": bodyContract + bodyContract + bodyContract,
		}
		res := New(nil).Classify(files, "", "")
		// 排除文件（测试）不参与主文件竞争
		assert.Equal(t, "src/Big.sol", res.MainPath)
	})

	t.Run("全部落空时主文件为空，软警告", func(t *testing.T) {
		res := New(nil).Classify(map[string]string{}, "", "")
		assert.Empty(t, res.MainPath)
	})
}

// TestClassifyMainNeverExcluded 主文件即便名字形似辅助文件也保留
func TestClassifyMainNeverExcluded(t *testing.T) {
	files := map[string]string{
		"contracts/TokenHelpers.sol": bodyContract,
		"contracts/Other.sol":        bodyContract,
	}
	res := New(nil).Classify(files, "TokenHelpers", "TokenHelpers.sol")
	assert.Equal(t, CategoryMain, res.Categories["contracts/TokenHelpers.sol"])
}

// TestBlacklistLoad yaml 加载与空路径/缺失文件的退化行为
func TestBlacklistLoad(t *testing.T) {
	bl, err := LoadBlacklist("")
	require.NoError(t, err)
	assert.Equal(t, 0, bl.Len())

	bl, err = LoadBlacklist("/nonexistent/blacklist.yaml")
	require.NoError(t, err)
	assert.Equal(t, 0, bl.Len())

	bl = NewBlacklist([]string{" solmate/ ", "", "forge-std/"})
	assert.Equal(t, 2, bl.Len())
	assert.True(t, bl.Match("lib/solmate/src/tokens/ERC20.sol"))
	assert.False(t, bl.Match("contracts/Main.sol"))
}
