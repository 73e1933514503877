package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-protocol-org/haven-core/asset"
	"github.com/haven-protocol-org/haven-core/common"
	"github.com/haven-protocol-org/haven-core/crypto"
)

func samplePubKey(b byte) crypto.PublicKey {
	var k crypto.PublicKey
	k[0] = b
	return k
}

func sampleKeyImage(b byte) crypto.KeyImage {
	var k crypto.KeyImage
	k[0] = b
	return k
}

func TestRoundTripPreOffshoreV1(t *testing.T) {
	tx := &Transaction{
		TransactionPrefix: TransactionPrefix{
			Version:    VersionPreOffshore,
			UnlockTime: 0,
			Vin: []TxInV{{
				Kind:       TxInHavenKey,
				Amount:     5 * 1_000_000_000_000,
				AssetType:  asset.XHV,
				KeyOffsets: []uint64{10, 3, 7},
				KeyImage:   sampleKeyImage(0x11),
			}},
			Vout: []Output{{
				Amount: 5 * 1_000_000_000_000,
				Target: OutTarget{Kind: TxOutHavenKey, AssetType: asset.XHV, Key: samplePubKey(0x22)},
			}},
			Extra: []byte{0x01, 0x02, 0x03},
		},
		Signatures: []crypto.RingSignature{{
			C: []crypto.Signature32{{1}, {2}, {3}},
			R: []crypto.Signature32{{4}, {5}, {6}},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))

	decoded := &Transaction{}
	require.NoError(t, decoded.Deserialize(bytes.NewReader(buf.Bytes())))

	assert.Equal(t, tx.Version, decoded.Version)
	assert.Equal(t, tx.Vin, decoded.Vin)
	assert.Equal(t, tx.Vout, decoded.Vout)
	assert.Equal(t, tx.Extra, decoded.Extra)
	assert.Equal(t, tx.Signatures, decoded.Signatures)

	var reencoded bytes.Buffer
	require.NoError(t, decoded.Serialize(&reencoded))
	assert.Equal(t, buf.Bytes(), reencoded.Bytes())
}

// TestRoundTripLegacyToKeyOffshoreV4 is spec §8 scenario 3: a v4 transaction
// with one to_key input and one offshore output decodes into haven_key
// inputs/outputs tagged XHV/XUSD, and re-encodes byte-identical.
func TestRoundTripLegacyToKeyOffshoreV4(t *testing.T) {
	tx := &Transaction{
		TransactionPrefix: TransactionPrefix{
			Version:             VersionCollateral,
			UnlockTime:          0,
			PricingRecordHeight: 12345,
			Vin: []TxInV{{
				Kind:       TxInHavenKey,
				Amount:     10 * 1_000_000_000_000,
				AssetType:  asset.XHV,
				KeyOffsets: []uint64{42},
				KeyImage:   sampleKeyImage(0x33),
			}},
			Vout: []Output{{
				Amount: 9_900_000_000_000,
				Target: OutTarget{
					Kind:      TxOutHavenKey,
					AssetType: asset.XUSD,
					Key:       samplePubKey(0x44),
				},
			}},
			Extra: []byte{0xde, 0xad, 0xbe, 0xef},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, tx.SerializeUnsigned(&buf))

	decoded := &Transaction{}
	require.NoError(t, decoded.DeserializeUnsigned(bytes.NewReader(buf.Bytes())))

	require.Len(t, decoded.Vin, 1)
	assert.Equal(t, TxInHavenKey, decoded.Vin[0].Kind)
	assert.Equal(t, asset.XHV, decoded.Vin[0].AssetType)

	require.Len(t, decoded.Vout, 1)
	assert.Equal(t, TxOutHavenKey, decoded.Vout[0].Target.Kind)
	assert.Equal(t, asset.XUSD, decoded.Vout[0].Target.AssetType)

	var reencoded bytes.Buffer
	require.NoError(t, decoded.SerializeUnsigned(&reencoded))
	assert.Equal(t, buf.Bytes(), reencoded.Bytes())
}

func TestRoundTripHavenTypesV7WithViewTag(t *testing.T) {
	tx := &Transaction{
		TransactionPrefix: TransactionPrefix{
			Version:             VersionHavenTypes,
			PricingRecordHeight: 999,
			Vin: []TxInV{{
				Kind:       TxInHavenKey,
				Amount:     0, // zeroed by rct signing
				AssetType:  asset.XUSD,
				KeyOffsets: []uint64{5, 2},
				KeyImage:   sampleKeyImage(0x55),
			}},
			Vout: []Output{{
				Amount: 0,
				Target: OutTarget{
					Kind:         TxOutHavenTaggedKey,
					AssetType:    asset.XUSD,
					Key:          samplePubKey(0x66),
					UnlockTime:   500,
					IsCollateral: true,
					ViewTag:      0x7a,
				},
			}},
		},
		RctSignatures: &RctSignature{Type: RctTypeSimple, TxnFee: 1000},
	}
	tx.RctSignatures.PseudoOuts = []crypto.PublicKey{samplePubKey(0x01)}
	tx.RctSignatures.EcdhInfo = []EcdhInfo{{EncryptedAmount: 42}}
	tx.RctSignatures.OutPk = []crypto.PublicKey{samplePubKey(0x02)}
	tx.RctSignatures.RangeProofs = []crypto.RangeProof{{Commitment: samplePubKey(0x03), ProofData: []byte{9, 9, 9}}}
	tx.RctSignatures.RingSigs = []crypto.RingSignature{{C: []crypto.Signature32{{1}}, R: []crypto.Signature32{{2}}}}

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))

	decoded := &Transaction{}
	require.NoError(t, decoded.Deserialize(bytes.NewReader(buf.Bytes())))

	require.Len(t, decoded.Vout, 1)
	assert.Equal(t, TxOutHavenTaggedKey, decoded.Vout[0].Target.Kind)
	assert.True(t, decoded.Vout[0].Target.IsCollateral)
	assert.Equal(t, byte(0x7a), decoded.Vout[0].Target.ViewTag)
	assert.Equal(t, uint64(500), decoded.Vout[0].Target.UnlockTime)
	require.NotNil(t, decoded.RctSignatures)
	assert.Equal(t, RctTypeSimple, decoded.RctSignatures.Type)
	assert.Equal(t, uint64(1000), decoded.RctSignatures.TxnFee)
}

// TestDenormalizeReadsCurrentOutputNotScratchCopy is the regression test for
// the save-path bug spec §9 flags: the legacy reference implementation's
// save path apparently read amounts from a half-filled scratch slice.
// denormalize must read prefix.Vout[i] directly.
func TestDenormalizeReadsCurrentOutputNotScratchCopy(t *testing.T) {
	prefix := &TransactionPrefix{
		Version: VersionCollateral,
		Vout: []Output{
			{Amount: 111, Target: OutTarget{Kind: TxOutHavenKey, AssetType: asset.XHV, UnlockTime: 10}},
			{Amount: 222, Target: OutTarget{Kind: TxOutHavenKey, AssetType: asset.XUSD, UnlockTime: 20, IsCollateral: true}},
		},
	}
	_, vout, unlockTimes, collateralIndices, err := denormalize(prefix)
	require.NoError(t, err)

	require.Len(t, vout, 2)
	assert.Equal(t, uint64(111), vout[0].Amount)
	assert.Equal(t, uint64(222), vout[1].Amount)
	assert.Equal(t, []uint64{10, 20}, unlockTimes)
	assert.Equal(t, []uint64{1}, collateralIndices)
}

func TestDeserializeRejectsZeroVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, common.WriteVarint(&buf, 0))
	decoded := &Transaction{}
	assert.Error(t, decoded.DeserializeUnsigned(bytes.NewReader(buf.Bytes())))
}

func TestDeserializeRejectsFutureVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, common.WriteVarint(&buf, CurrentVersion+1))
	decoded := &Transaction{}
	assert.Error(t, decoded.DeserializeUnsigned(bytes.NewReader(buf.Bytes())))
}
