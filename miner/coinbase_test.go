package miner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haven-protocol-org/haven-core/account"
	"github.com/haven-protocol-org/haven-core/classify"
	"github.com/haven-protocol-org/haven-core/common"
	"github.com/haven-protocol-org/haven-core/crypto"
	"github.com/haven-protocol-org/haven-core/wire"
)

func minerAddress(t *testing.T) account.Address {
	t.Helper()
	_, spendPub, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	_, viewPub, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	return account.Address{SpendPub: spendPub, ViewPub: viewPub}
}

// TestConstructMinerTxSingleChunkWithViewTag is spec §8 scenario 5.
func TestConstructMinerTxSingleChunkWithViewTag(t *testing.T) {
	const reward = 12345 * common.COIN

	tx, err := ConstructMinerTx(Params{
		Height:       100000,
		MinerAddress: minerAddress(t),
		MaxOuts:      1,
		HFVersion:    classify.HFViewTags,
		EmissionSchedule: func(height, alreadyGenerated, medianWeight, blockWeight uint64) (uint64, error) {
			return reward, nil
		},
	})
	require.NoError(t, err)

	require.Equal(t, uint64(2), tx.Version)
	require.Equal(t, uint64(100000+classify.CryptonoteMinedMoneyUnlockWindow), tx.UnlockTime)
	require.Len(t, tx.Vin, 1)
	require.Equal(t, wire.TxInGen, tx.Vin[0].Kind)
	require.Equal(t, uint64(100000), tx.Vin[0].Height)

	require.Len(t, tx.Vout, 1)
	require.Equal(t, reward, tx.Vout[0].Amount)
	require.Equal(t, wire.TxOutHavenTaggedKey, tx.Vout[0].Target.Kind)
}

func TestConstructMinerTxRejectsZeroMaxOuts(t *testing.T) {
	_, err := ConstructMinerTx(Params{
		Height:       1,
		MinerAddress: minerAddress(t),
		MaxOuts:      0,
		EmissionSchedule: func(height, alreadyGenerated, medianWeight, blockWeight uint64) (uint64, error) {
			return 1, nil
		},
	})
	require.Error(t, err)
}

func TestDecomposeRewardPreHF4DigitDecomposition(t *testing.T) {
	chunks := decomposeReward(125, 100, 3)
	require.ElementsMatch(t, []uint64{5, 20, 100}, chunks)
}

// TestDecomposeRewardHF4CollapsesSmallestChunkForward pins the collapse
// direction: the smallest digit chunks fold forward into the next-smallest,
// leaving the largest chunks distinct, not the other way around.
func TestDecomposeRewardHF4CollapsesSmallestChunkForward(t *testing.T) {
	chunks := decomposeReward(125, 2, 4)
	require.Equal(t, []uint64{25, 100}, chunks)
}

func TestDecomposeRewardHF4CollapsesThreeChunksDownToOne(t *testing.T) {
	chunks := decomposeReward(125, 1, 4)
	require.Equal(t, []uint64{125}, chunks)
}

func TestConstructMinerTxAppliesClampThresholdBelowHF4(t *testing.T) {
	const rawReward = 25000000
	tx, err := ConstructMinerTx(Params{
		Height:       1,
		MinerAddress: minerAddress(t),
		MaxOuts:      10,
		HFVersion:    2,
		EmissionSchedule: func(height, alreadyGenerated, medianWeight, blockWeight uint64) (uint64, error) {
			return rawReward, nil
		},
	})
	require.NoError(t, err)

	var total uint64
	for _, out := range tx.Vout {
		total += out.Amount
	}
	require.Equal(t, uint64(rawReward-rawReward%classify.BaseRewardClampThreshold), total)
	require.Equal(t, uint64(wire.VersionPreOffshore), tx.Version)
}
