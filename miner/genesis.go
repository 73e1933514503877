package miner

import (
	"bytes"
	"encoding/hex"

	"github.com/haven-protocol-org/haven-core/wire"
)

// Hasher computes a block's proof-of-work hash; the hash function is
// external to this core. GenerateGenesisBlock runs the nonce search itself,
// sequentially on the calling goroutine; it takes no thread count.
type Hasher func(header wire.BlockHeader, minerTx wire.Transaction) ([]byte, error)

// MeetsTarget reports whether a PoW hash satisfies a difficulty target;
// external, same reasoning as Hasher.
type MeetsTarget func(hash []byte) bool

// GenerateGenesisBlock parses hexTx as the pre-built coinbase, fixes the
// header fields the teacher's config.genesisBlock hard-codes inline (major/
// minor version, zero previous-id), and searches nonces starting from the
// caller-supplied seed until hash satisfies meetsTarget.
func GenerateGenesisBlock(hexTx string, nonce uint32, hash Hasher, meetsTarget MeetsTarget) (*wire.Block, error) {
	raw, err := hex.DecodeString(hexTx)
	if err != nil {
		return nil, err
	}

	var minerTx wire.Transaction
	if err := minerTx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, err
	}

	block := &wire.Block{
		Header: wire.BlockHeader{
			MajorVersion: 1,
			MinorVersion: 0,
			Nonce:        nonce,
		},
		MinerTx: minerTx,
	}

	for {
		h, err := hash(block.Header, block.MinerTx)
		if err != nil {
			return nil, err
		}
		if meetsTarget(h) {
			return block, nil
		}
		block.Header.Nonce++
	}
}
