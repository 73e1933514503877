package txbuilder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haven-protocol-org/haven-core/account"
	"github.com/haven-protocol-org/haven-core/asset"
	"github.com/haven-protocol-org/haven-core/classify"
	"github.com/haven-protocol-org/haven-core/common"
	"github.com/haven-protocol-org/haven-core/crypto"
	"github.com/haven-protocol-org/haven-core/wallet"
	"github.com/haven-protocol-org/haven-core/wire"
)

func freshAccount(t *testing.T) account.Keys {
	t.Helper()
	spendSec, spendPub, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	viewSec, viewPub, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	return account.Keys{
		Address:  account.Address{SpendPub: spendPub, ViewPub: viewPub},
		SpendSec: spendSec,
		ViewSec:  viewSec,
	}
}

// mintOwnedOutput derives a one-time output key owned by keys' main
// address, as if it had been received at a fresh tx pubkey — giving the
// test a genuine spendable source entry without round-tripping through
// the full output-scan path.
func mintOwnedOutput(t *testing.T, keys account.Keys, outputIndex uint64) (crypto.PublicKey, crypto.PublicKey) {
	t.Helper()
	r, R, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	d, err := crypto.GenerateKeyDerivation(keys.Address.ViewPub, r)
	require.NoError(t, err)
	outPub, err := crypto.DerivePublicKey(d, outputIndex, keys.Address.SpendPub)
	require.NoError(t, err)
	return R, outPub
}

func decoyPub(t *testing.T) crypto.PublicKey {
	t.Helper()
	_, pub, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	return pub
}

// TestConstructPureTransferV1RoundTrip is spec §8 scenario 1 through the
// builder: a single-input, single-output XHV transfer produces a
// conservation-respecting, ring-signature-valid v1 transaction that
// classifies as TRANSFER.
func TestConstructPureTransferV1RoundTrip(t *testing.T) {
	sender := freshAccount(t)
	recipient := freshAccount(t)

	txPub, realOutPub := mintOwnedOutput(t, sender, 0)
	source := Source{
		Amount:    10 * common.COIN,
		AssetType: asset.XHV,
		Outputs: []RingMember{
			{GlobalIndex: 100, Pub: decoyPub(t)},
			{GlobalIndex: 101, Pub: realOutPub},
		},
		RealOutputIndex:     1,
		RealOutputInTxIndex: 0,
		RealOutTxPubKey:     txPub,
	}

	txSecret, _, err := crypto.GenerateKeypair()
	require.NoError(t, err)

	result, err := Construct(Params{
		SenderKeys: sender,
		Sources:    []Source{source},
		Destinations: []Destination{
			{Address: recipient.Address, Amount: 10 * common.COIN, AssetType: asset.XHV},
		},
		TxSecretKey: txSecret,
	})
	require.NoError(t, err)

	tx := result.Tx
	require.Equal(t, uint64(wire.VersionPreOffshore), tx.Version)
	require.Len(t, tx.Vin, 1)
	require.Len(t, tx.Vout, 1)
	require.Len(t, tx.Signatures, 1)
	require.NotEqual(t, crypto.KeyImage{}, tx.Vin[0].KeyImage)

	pubs := make([]crypto.PublicKey, len(source.Outputs))
	for i, m := range source.Outputs {
		pubs[i] = m.Pub
	}
	ok, err := crypto.VerifyRingSignature(tx.Hash(), tx.Vin[0].KeyImage, pubs, &tx.Signatures[0])
	require.NoError(t, err)
	require.True(t, ok)

	got, err := classify.GetTxAssetTypes(tx, false, common.Hash{})
	require.NoError(t, err)
	require.Equal(t, classify.TxTypeTransfer, got.Type)
}

// TestConstructRejectsOutputsExceedingInputs is spec §8's conservation
// invariant (step 9): outputs may never exceed inputs.
func TestConstructRejectsOutputsExceedingInputs(t *testing.T) {
	sender := freshAccount(t)
	recipient := freshAccount(t)

	txPub, realOutPub := mintOwnedOutput(t, sender, 0)
	source := Source{
		Amount:    1 * common.COIN,
		AssetType: asset.XHV,
		Outputs: []RingMember{
			{GlobalIndex: 0, Pub: decoyPub(t)},
			{GlobalIndex: 1, Pub: realOutPub},
		},
		RealOutputIndex:     1,
		RealOutputInTxIndex: 0,
		RealOutTxPubKey:     txPub,
	}

	txSecret, _, err := crypto.GenerateKeypair()
	require.NoError(t, err)

	_, err = Construct(Params{
		SenderKeys: sender,
		Sources:    []Source{source},
		Destinations: []Destination{
			{Address: recipient.Address, Amount: 2 * common.COIN, AssetType: asset.XHV},
		},
		TxSecretKey: txSecret,
	})
	require.Error(t, err)
}

// TestConstructRctSimpleConservation builds a two-input rct transaction
// and checks the Pedersen-commitment balance identity directly:
// sum(pseudo-outs) == sum(out commitments) + Commit(fee, 0).
func TestConstructRctSimpleConservation(t *testing.T) {
	sender := freshAccount(t)
	recipient := freshAccount(t)

	var sources []Source
	for i := uint64(0); i < 2; i++ {
		txPub, realOutPub := mintOwnedOutput(t, sender, i)
		sources = append(sources, Source{
			Amount:    5 * common.COIN,
			AssetType: asset.XHV,
			Outputs: []RingMember{
				{GlobalIndex: i * 10, Pub: decoyPub(t)},
				{GlobalIndex: i*10 + 1, Pub: realOutPub},
			},
			RealOutputIndex:     1,
			RealOutputInTxIndex: i,
			RealOutTxPubKey:     txPub,
		})
	}

	txSecret, _, err := crypto.GenerateKeypair()
	require.NoError(t, err)

	result, err := Construct(Params{
		SenderKeys: sender,
		Sources:    sources,
		Destinations: []Destination{
			{Address: recipient.Address, Amount: 9 * common.COIN, AssetType: asset.XHV},
		},
		TxSecretKey: txSecret,
		RCT:         true,
	})
	require.NoError(t, err)

	tx := result.Tx
	require.NotNil(t, tx.RctSignatures)
	require.Equal(t, wire.RctTypeSimple, tx.RctSignatures.Type)
	require.Equal(t, uint64(1*common.COIN), tx.RctSignatures.TxnFee)
	for _, out := range tx.Vout {
		require.Equal(t, uint64(0), out.Amount)
	}

	rct := tx.RctSignatures
	sumPseudo := rct.PseudoOuts[0]
	for _, c := range rct.PseudoOuts[1:] {
		sumPseudo, err = crypto.AddPublicKeys(sumPseudo, c)
		require.NoError(t, err)
	}
	sumOut := rct.OutPk[0]
	for _, c := range rct.OutPk[1:] {
		sumOut, err = crypto.AddPublicKeys(sumOut, c)
		require.NoError(t, err)
	}
	feeCommit, err := crypto.Commit(rct.TxnFee, crypto.SecretKey{})
	require.NoError(t, err)
	rhs, err := crypto.AddPublicKeys(sumOut, feeCommit)
	require.NoError(t, err)
	require.Equal(t, sumPseudo, rhs)
}

// TestConstructMixedSubaddressAndStandardDestinationsScanCorrectly builds a
// transaction paying both a standard address and a subaddress in the same
// call (forcing additional tx keys, step 6) and checks the wallet-side
// scanner recovers both outputs — the round trip that exercises the
// subaddress additional-pubkey fix (r*D rather than r*G) end to end.
func TestConstructMixedSubaddressAndStandardDestinationsScanCorrectly(t *testing.T) {
	sender := freshAccount(t)
	standardRecipient := freshAccount(t)
	subOwner := freshAccount(t)
	subTable, err := account.BuildSubaddressTable(subOwner, 0, 3)
	require.NoError(t, err)
	subIdx := account.SubaddressIndex{Major: 0, Minor: 1}
	subAddr, err := account.DeriveSubaddress(subOwner, subIdx)
	require.NoError(t, err)

	txPubSrc, realOutPub := mintOwnedOutput(t, sender, 0)
	source := Source{
		Amount:    10 * common.COIN,
		AssetType: asset.XHV,
		Outputs: []RingMember{
			{GlobalIndex: 0, Pub: decoyPub(t)},
			{GlobalIndex: 1, Pub: realOutPub},
		},
		RealOutputIndex:     1,
		RealOutputInTxIndex: 0,
		RealOutTxPubKey:     txPubSrc,
	}

	txSecret, _, err := crypto.GenerateKeypair()
	require.NoError(t, err)

	result, err := Construct(Params{
		SenderKeys: sender,
		Sources:    []Source{source},
		Destinations: []Destination{
			{Address: standardRecipient.Address, Amount: 4 * common.COIN, AssetType: asset.XHV},
			{Address: subAddr, Amount: 6 * common.COIN, AssetType: asset.XHV, IsSubaddress: true},
		},
		TxSecretKey: txSecret,
	})
	require.NoError(t, err)

	tx := result.Tx
	txPub, ok, err := wire.FindPubKey(tx.Extra)
	require.NoError(t, err)
	require.True(t, ok)
	additionalPubs, ok, err := wire.FindAdditionalPubKeys(tx.Extra)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, additionalPubs, 2)

	standardOwned, err := wallet.ScanTransaction(tx, standardRecipient, nil, txPub, additionalPubs, false)
	require.NoError(t, err)
	require.Len(t, standardOwned, 1)
	require.Equal(t, uint64(4*common.COIN), standardOwned[0].Amount)

	subOwned, err := wallet.ScanTransaction(tx, subOwner, subTable, txPub, additionalPubs, false)
	require.NoError(t, err)
	require.Len(t, subOwned, 1)
	require.Equal(t, uint64(6*common.COIN), subOwned[0].Amount)
	require.Equal(t, subIdx, subOwned[0].Subaddress)
}

// TestConstructOffshoreConversionChargesFeeAndCollateral is spec §8
// scenario 2: an OFFSHORE conversion at hf >= USE_COLLATERAL classifies as
// OFFSHORE, is charged 1.5% of the converted XHV amount as its fee, and is
// rejected outright if its collateral output falls short of
// classify.GetCollateralRequirements' answer for the same pricing record.
func TestConstructOffshoreConversionChargesFeeAndCollateral(t *testing.T) {
	sender := freshAccount(t)
	recipient := freshAccount(t)

	pr := &asset.PricingRecord{Height: 100, SpotRate: common.COIN, MovingAverageRate: common.COIN}
	supply := classify.Supply{XHV: 1_000_000 * common.COIN, NonXHV: map[asset.Tag]uint64{asset.XUSD: 500_000 * common.COIN}}

	convertedAmount := uint64(100 * common.COIN)
	requiredFee := classify.GetFee(convertedAmount, classify.TxTypeOffshore, classify.HFUseCollateral, 0)
	requiredCollateral, err := classify.GetCollateralRequirements(classify.TxTypeOffshore, convertedAmount, pr, supply)
	require.NoError(t, err)
	require.Greater(t, requiredCollateral, uint64(0))

	buildParams := func(collateralAmount, currentHeight uint64) Params {
		txPub, realOutPub := mintOwnedOutput(t, sender, 0)
		source := Source{
			Amount:    convertedAmount + collateralAmount + requiredFee,
			AssetType: asset.XHV,
			Outputs: []RingMember{
				{GlobalIndex: 0, Pub: decoyPub(t)},
				{GlobalIndex: 1, Pub: realOutPub},
			},
			RealOutputIndex:     1,
			RealOutputInTxIndex: 0,
			RealOutTxPubKey:     txPub,
		}
		txSecret, _, err := crypto.GenerateKeypair()
		require.NoError(t, err)

		return Params{
			SenderKeys: sender,
			Sources:    []Source{source},
			Destinations: []Destination{
				{Address: recipient.Address, Amount: convertedAmount, AssetType: asset.XUSD, SecondaryAmount: convertedAmount},
				{Address: sender.Address, Amount: collateralAmount, AssetType: asset.XHV, IsCollateral: true},
			},
			TxSecretKey:   txSecret,
			PricingRecord: pr,
			CurrentHeight: currentHeight,
			HFVersion:     classify.HFUseCollateral,
			Supply:        supply,
		}
	}

	result, err := Construct(buildParams(requiredCollateral, pr.Height+1))
	require.NoError(t, err)

	tx := result.Tx
	require.Equal(t, convertedAmount, tx.AmountBurnt)
	require.Equal(t, convertedAmount, tx.AmountMinted)
	require.Equal(t, pr.Height, tx.PricingRecordHeight)

	got, err := classify.GetTxAssetTypes(tx, false, common.Hash{})
	require.NoError(t, err)
	require.Equal(t, classify.TxTypeOffshore, got.Type)

	actualFee := (convertedAmount + requiredCollateral + requiredFee) - (convertedAmount + requiredCollateral)
	require.Equal(t, requiredFee, actualFee)

	if requiredCollateral > 0 {
		_, err = Construct(buildParams(requiredCollateral-1, pr.Height+1))
		require.Error(t, err)
	}

	_, err = Construct(buildParams(requiredCollateral, pr.Height+asset.PricingRecordValidBlocks+2))
	require.Error(t, err)
}
