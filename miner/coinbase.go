// Package miner assembles the one transaction every block carries whether
// or not it holds any spends: the coinbase, generalizing the teacher's
// consensus/pow.PowService.CreateCoinbaseTrx (a fixed two-output ELA/
// foundation split) into the chunked, hard-fork-gated reward decomposition
// this chain uses (spec.md §4.7).
package miner

import (
	"github.com/haven-protocol-org/haven-core/account"
	"github.com/haven-protocol-org/haven-core/asset"
	"github.com/haven-protocol-org/haven-core/classify"
	"github.com/haven-protocol-org/haven-core/crypto"
	elaerr "github.com/haven-protocol-org/haven-core/errors"
	"github.com/haven-protocol-org/haven-core/wire"
)

// Params is everything ConstructMinerTx needs (spec.md §4.7).
type Params struct {
	Height                uint64
	AlreadyGeneratedCoins uint64
	MedianWeight          uint64
	BlockWeight           uint64
	Fee                   uint64
	MinerAddress          account.Address
	ExtraNonce            []byte
	MaxOuts               int
	HFVersion             int

	// EmissionSchedule computes the pre-fee block reward for this height
	// and chain state; it is external to this core (spec.md §4.7).
	EmissionSchedule func(height, alreadyGenerated, medianWeight, blockWeight uint64) (reward uint64, err error)
}

// ConstructMinerTx builds the block's coinbase transaction.
func ConstructMinerTx(p Params) (*wire.Transaction, error) {
	if p.MaxOuts <= 0 {
		return nil, elaerr.New(elaerr.KindConfig, elaerr.ErrZeroMaxOuts, "max_outs must be positive")
	}
	if p.EmissionSchedule == nil {
		return nil, elaerr.New(elaerr.KindConfig, elaerr.ErrZeroMaxOuts, "emission schedule function required")
	}

	reward, err := p.EmissionSchedule(p.Height, p.AlreadyGeneratedCoins, p.MedianWeight, p.BlockWeight)
	if err != nil {
		return nil, err
	}
	reward += p.Fee

	if p.HFVersion >= 2 && p.HFVersion < 4 {
		reward -= reward % classify.BaseRewardClampThreshold
	}

	chunks := decomposeReward(reward, p.MaxOuts, p.HFVersion)

	version := uint64(wire.VersionPreOffshore)
	if p.HFVersion >= 4 {
		version = 2
	}

	tx := &wire.Transaction{TransactionPrefix: wire.TransactionPrefix{
		Version:    version,
		UnlockTime: p.Height + classify.CryptonoteMinedMoneyUnlockWindow,
		Extra:      append([]byte(nil), p.ExtraNonce...),
	}}
	tx.Vin = []wire.TxInV{{Kind: wire.TxInGen, Height: p.Height}}

	txSecret, txPub, err := crypto.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	tx.Extra, err = wire.AppendPubKey(tx.Extra, txPub)
	if err != nil {
		return nil, err
	}

	tx.Vout = make([]wire.Output, len(chunks))
	for i, amount := range chunks {
		d, err := crypto.GenerateKeyDerivation(p.MinerAddress.ViewPub, txSecret)
		if err != nil {
			return nil, err
		}
		outPub, err := crypto.DerivePublicKey(d, uint64(i), p.MinerAddress.SpendPub)
		if err != nil {
			return nil, err
		}

		target := wire.OutTarget{
			Kind:       wire.TxOutHavenKey,
			Key:        outPub,
			AssetType:  asset.XHV,
			UnlockTime: tx.UnlockTime,
		}
		if p.HFVersion >= classify.HFViewTags {
			target.Kind = wire.TxOutHavenTaggedKey
			target.ViewTag = crypto.DeriveViewTag(d, uint64(i))
		}
		tx.Vout[i] = wire.Output{Amount: amount, Target: target}
	}

	tx.Invalidate()
	return tx, nil
}

// decomposeReward splits amount into output chunks (spec.md §4.7): the
// pre-hf-4 "digit decomposition" breaks amount into its non-zero decimal
// digit magnitudes (the classic CryptoNote denomination scheme so outputs
// mix indistinguishably with ordinary payments); hf>=4 instead caps the
// count at maxOuts by repeatedly folding the smallest remaining chunk into
// the next-smallest and dropping it, leaving the largest chunks distinct.
func decomposeReward(amount uint64, maxOuts int, hfVersion int) []uint64 {
	if amount == 0 {
		return []uint64{0}
	}

	var digits []uint64
	for scale := uint64(1); amount > 0; scale *= 10 {
		digit := (amount % (scale * 10))
		if digit != 0 {
			digits = append(digits, digit)
		}
		amount -= digit
	}
	if len(digits) == 0 {
		digits = []uint64{0}
	}

	if hfVersion < 4 {
		return digits
	}

	collapsed := append([]uint64(nil), digits...)
	for len(collapsed) > maxOuts {
		collapsed[1] += collapsed[0]
		collapsed = collapsed[1:]
	}
	return collapsed
}
