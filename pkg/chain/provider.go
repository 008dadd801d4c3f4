// Package chain provides read-only access to an EVM chain for proxy resolution.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Reader is the read-only chain surface the resolver consumes.
// *ethclient.Client satisfies it; tests supply fakes.
type Reader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Provider wraps a live RPC connection with sane timeouts.
type Provider struct {
	client         *ethclient.Client
	rpcClient      *rpc.Client
	requestTimeout time.Duration
}

// Dial connects to an RPC endpoint.
func Dial(rpcURL string) (*Provider, error) {
	rpcClient, err := rpc.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	return &Provider{
		client:         ethclient.NewClient(rpcClient),
		rpcClient:      rpcClient,
		requestTimeout: 10 * time.Second, // guard against slow public endpoints
	}, nil
}

// Close releases the underlying connection.
func (p *Provider) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

// Code fetches the deployed bytecode at addr (latest block).
func (p *Provider) Code(ctx context.Context, addr common.Address) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()
	return p.client.CodeAt(callCtx, addr, nil)
}

// CodeAt implements Reader.
func (p *Provider) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()
	return p.client.CodeAt(callCtx, account, blockNumber)
}

// StorageAt implements Reader.
func (p *Provider) StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()
	return p.client.StorageAt(callCtx, account, key, blockNumber)
}

// CallContract implements Reader.
func (p *Provider) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()
	return p.client.CallContract(callCtx, msg, blockNumber)
}

// SlotAddress reads a 32-byte storage slot and interprets it as a
// right-aligned 20-byte address. A zero or malformed value yields ok=false;
// probe failures are swallowed as "no answer".
func SlotAddress(ctx context.Context, r Reader, addr common.Address, slot common.Hash) (common.Address, bool) {
	value, err := r.StorageAt(ctx, addr, slot, nil)
	if err != nil {
		return common.Address{}, false
	}
	return wordToAddress(value)
}

// CallAddress performs a zero-argument eth_call against the given selector and
// decodes a single address return word. Reverts, missing functions and empty
// or zero results all yield ok=false.
func CallAddress(ctx context.Context, r Reader, to common.Address, selector []byte) (common.Address, bool) {
	msg := ethereum.CallMsg{To: &to, Data: selector}
	ret, err := r.CallContract(ctx, msg, nil)
	if err != nil {
		return common.Address{}, false
	}
	return wordToAddress(ret)
}

// HasCode reports whether addr has deployed code. Fetch errors count as "no".
func HasCode(ctx context.Context, r Reader, addr common.Address) bool {
	code, err := r.CodeAt(ctx, addr, nil)
	return err == nil && len(code) > 0
}

// wordToAddress decodes a 32-byte word holding a right-aligned address.
// Some clients return fewer than 32 bytes for short storage values.
func wordToAddress(word []byte) (common.Address, bool) {
	if len(word) == 0 || len(word) > 32 {
		return common.Address{}, false
	}
	padded := common.LeftPadBytes(word, 32)
	// the upper 12 bytes must be zero, otherwise this is not an address word
	for _, b := range padded[:12] {
		if b != 0 {
			return common.Address{}, false
		}
	}
	addr := common.BytesToAddress(padded[12:])
	if addr == (common.Address{}) {
		return common.Address{}, false
	}
	return addr, true
}
