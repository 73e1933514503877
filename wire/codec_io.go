package wire

import (
	"io"

	"github.com/haven-protocol-org/haven-core/asset"
	"github.com/haven-protocol-org/haven-core/common"
	"github.com/haven-protocol-org/haven-core/crypto"
	elaerr "github.com/haven-protocol-org/haven-core/errors"
)

func writeTag(w io.Writer, tag []byte) error {
	_, err := w.Write(tag)
	return err
}

func readTag(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func writeAssetTag(w io.Writer, t asset.Tag) error {
	return common.WriteVarBytes(w, []byte(t))
}

func readAssetTag(r io.Reader) (asset.Tag, error) {
	b, err := common.ReadVarBytes(r, 16, "asset_tag")
	if err != nil {
		return "", err
	}
	return asset.Tag(b), nil
}

// writeTxIn writes in on the wire using whichever legacy or haven variant
// its Kind already denotes — denormalize has already chosen the correct
// Kind for the target version before this is called.
func writeTxIn(w io.Writer, in TxInV, version uint64) error {
	if err := writeTag(w, []byte{byte(in.Kind)}); err != nil {
		return err
	}
	switch in.Kind {
	case TxInGen:
		return common.WriteVarint(w, in.Height)
	case TxInToScript, TxInToScriptHash:
		return nil
	case TxInToKey, TxInOffshore, TxInOnshore, TxInXAsset, TxInHavenKey:
		if err := common.WriteVarint(w, in.Amount); err != nil {
			return err
		}
		if in.Kind == TxInXAsset || in.Kind == TxInHavenKey {
			if err := writeAssetTag(w, in.AssetType); err != nil {
				return err
			}
		}
		if err := common.WriteVarint(w, uint64(len(in.KeyOffsets))); err != nil {
			return err
		}
		for _, off := range in.KeyOffsets {
			if err := common.WriteVarint(w, off); err != nil {
				return err
			}
		}
		_, err := w.Write(in.KeyImage[:])
		return err
	default:
		return elaerr.Newf(elaerr.KindFormat, elaerr.ErrBadVariantTag, "unknown input variant tag 0x%02x", byte(in.Kind))
	}
}

func readTxIn(r io.Reader, version uint64) (*TxInV, error) {
	tagByte, err := readTag(r)
	if err != nil {
		return nil, err
	}
	kind := TxInKind(tagByte)
	in := &TxInV{Kind: kind}
	switch kind {
	case TxInGen:
		if in.Height, err = common.ReadVarint(r); err != nil {
			return nil, err
		}
	case TxInToScript, TxInToScriptHash:
		// no payload; legacy/unused on mainnet (spec §3)
	case TxInToKey, TxInOffshore, TxInOnshore, TxInXAsset, TxInHavenKey:
		if in.Amount, err = common.ReadVarint(r); err != nil {
			return nil, err
		}
		switch kind {
		case TxInToKey:
			in.AssetType = asset.XHV
		case TxInOffshore, TxInOnshore:
			in.AssetType = asset.XUSD
		case TxInXAsset, TxInHavenKey:
			if in.AssetType, err = readAssetTag(r); err != nil {
				return nil, err
			}
			if kind == TxInXAsset && (in.AssetType == asset.XHV || in.AssetType == asset.XUSD) {
				return nil, elaerr.Newf(elaerr.KindSemantic, elaerr.ErrXAssetCarriesReserved,
					"xasset input carries reserved tag %q", in.AssetType)
			}
		}
		count, err := common.ReadVarint(r)
		if err != nil {
			return nil, err
		}
		in.KeyOffsets = make([]uint64, count)
		for i := range in.KeyOffsets {
			if in.KeyOffsets[i], err = common.ReadVarint(r); err != nil {
				return nil, err
			}
		}
		if _, err := io.ReadFull(r, in.KeyImage[:]); err != nil {
			return nil, err
		}
	default:
		return nil, elaerr.Newf(elaerr.KindFormat, elaerr.ErrBadVariantTag, "unknown input variant tag 0x%02x", tagByte)
	}
	return in, nil
}

func writeTxOut(w io.Writer, out Output, version uint64) error {
	if err := common.WriteVarint(w, out.Amount); err != nil {
		return err
	}
	t := out.Target
	if err := writeTag(w, []byte{byte(t.Kind)}); err != nil {
		return err
	}
	switch t.Kind {
	case TxOutToScript, TxOutToScriptHash:
		return nil
	case TxOutToKey, TxOutOffshore, TxOutXAsset, TxOutHavenKey, TxOutHavenTaggedKey:
		if _, err := w.Write(t.Key[:]); err != nil {
			return err
		}
		if t.Kind == TxOutXAsset || t.Kind == TxOutHavenKey || t.Kind == TxOutHavenTaggedKey {
			if err := writeAssetTag(w, t.AssetType); err != nil {
				return err
			}
		}
		if t.Kind == TxOutHavenKey || t.Kind == TxOutHavenTaggedKey {
			if err := common.WriteVarint(w, t.UnlockTime); err != nil {
				return err
			}
			isCollateral := byte(0)
			if t.IsCollateral {
				isCollateral = 1
			}
			if err := common.WriteUint8(w, isCollateral); err != nil {
				return err
			}
		}
		if t.Kind == TxOutHavenTaggedKey {
			if err := common.WriteUint8(w, t.ViewTag); err != nil {
				return err
			}
		}
		return nil
	default:
		return elaerr.Newf(elaerr.KindFormat, elaerr.ErrBadVariantTag, "unknown output variant tag 0x%02x", byte(t.Kind))
	}
}

func readTxOut(r io.Reader, version uint64) (*Output, error) {
	amount, err := common.ReadVarint(r)
	if err != nil {
		return nil, err
	}
	tagByte, err := readTag(r)
	if err != nil {
		return nil, err
	}
	kind := TxOutKind(tagByte)
	target := OutTarget{Kind: kind}
	switch kind {
	case TxOutToScript, TxOutToScriptHash:
		// no payload; legacy/unused on mainnet (spec §3)
	case TxOutToKey, TxOutOffshore, TxOutXAsset, TxOutHavenKey, TxOutHavenTaggedKey:
		if _, err := io.ReadFull(r, target.Key[:]); err != nil {
			return nil, err
		}
		switch kind {
		case TxOutToKey:
			target.AssetType = asset.XHV
		case TxOutOffshore:
			target.AssetType = asset.XUSD
		case TxOutXAsset, TxOutHavenKey, TxOutHavenTaggedKey:
			if target.AssetType, err = readAssetTag(r); err != nil {
				return nil, err
			}
			if kind == TxOutXAsset && (target.AssetType == asset.XHV || target.AssetType == asset.XUSD) {
				return nil, elaerr.Newf(elaerr.KindSemantic, elaerr.ErrXAssetCarriesReserved,
					"xasset output carries reserved tag %q", target.AssetType)
			}
		}
		if kind == TxOutHavenKey || kind == TxOutHavenTaggedKey {
			if target.UnlockTime, err = common.ReadVarint(r); err != nil {
				return nil, err
			}
			isCollateral, err := common.ReadUint8(r)
			if err != nil {
				return nil, err
			}
			target.IsCollateral = isCollateral != 0
		}
		if kind == TxOutHavenTaggedKey {
			if target.ViewTag, err = common.ReadUint8(r); err != nil {
				return nil, err
			}
		}
	default:
		return nil, elaerr.Newf(elaerr.KindFormat, elaerr.ErrBadVariantTag, "unknown output variant tag 0x%02x", tagByte)
	}
	return &Output{Amount: amount, Target: target}, nil
}

func writeRingSignature(w io.Writer, sig crypto.RingSignature) error {
	if err := common.WriteVarint(w, uint64(len(sig.C))); err != nil {
		return err
	}
	for i := range sig.C {
		if _, err := w.Write(sig.C[i][:]); err != nil {
			return err
		}
		if _, err := w.Write(sig.R[i][:]); err != nil {
			return err
		}
	}
	return nil
}

func readRingSignature(r io.Reader, ringSize int) (*crypto.RingSignature, error) {
	n, err := common.ReadVarint(r)
	if err != nil {
		return nil, err
	}
	if ringSize > 0 && int(n) != ringSize {
		return nil, elaerr.Newf(elaerr.KindFormat, elaerr.ErrSizeMismatch,
			"ring signature size %d does not match ring size %d", n, ringSize)
	}
	sig := &crypto.RingSignature{C: make([]crypto.Signature32, n), R: make([]crypto.Signature32, n)}
	for i := range sig.C {
		if _, err := io.ReadFull(r, sig.C[i][:]); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(r, sig.R[i][:]); err != nil {
			return nil, err
		}
	}
	return sig, nil
}

func writeRctSignature(w io.Writer, rct *RctSignature, numInputs, numOutputs int) error {
	if rct == nil {
		return common.WriteUint8(w, byte(RctTypeNull))
	}
	if err := common.WriteUint8(w, byte(rct.Type)); err != nil {
		return err
	}
	if err := common.WriteVarint(w, rct.TxnFee); err != nil {
		return err
	}
	for _, p := range rct.PseudoOuts {
		if _, err := w.Write(p[:]); err != nil {
			return err
		}
	}
	for _, e := range rct.EcdhInfo {
		if _, err := w.Write(e.Mask[:]); err != nil {
			return err
		}
		if err := common.WriteUint64(w, e.EncryptedAmount); err != nil {
			return err
		}
	}
	for _, p := range rct.OutPk {
		if _, err := w.Write(p[:]); err != nil {
			return err
		}
	}
	for _, rp := range rct.RangeProofs {
		if _, err := w.Write(rp.Commitment[:]); err != nil {
			return err
		}
		if err := common.WriteVarBytes(w, rp.ProofData); err != nil {
			return err
		}
	}
	for _, ring := range rct.RingSigs {
		if err := writeRingSignature(w, ring); err != nil {
			return err
		}
	}
	return nil
}

func readRctSignature(r io.Reader, numInputs, numOutputs int) (*RctSignature, error) {
	typeByte, err := common.ReadUint8(r)
	if err != nil {
		return nil, err
	}
	rct := &RctSignature{Type: RctType(typeByte)}
	if rct.Type == RctTypeNull {
		return rct, nil
	}
	if rct.TxnFee, err = common.ReadVarint(r); err != nil {
		return nil, err
	}
	if rct.Type == RctTypeSimple || rct.Type == RctTypeBulletproof || rct.Type == RctTypeBulletproofPlus {
		rct.PseudoOuts = make([]crypto.PublicKey, numInputs)
		for i := range rct.PseudoOuts {
			if _, err := io.ReadFull(r, rct.PseudoOuts[i][:]); err != nil {
				return nil, err
			}
		}
	}
	rct.EcdhInfo = make([]EcdhInfo, numOutputs)
	for i := range rct.EcdhInfo {
		if _, err := io.ReadFull(r, rct.EcdhInfo[i].Mask[:]); err != nil {
			return nil, err
		}
		if rct.EcdhInfo[i].EncryptedAmount, err = common.ReadUint64(r); err != nil {
			return nil, err
		}
	}
	rct.OutPk = make([]crypto.PublicKey, numOutputs)
	for i := range rct.OutPk {
		if _, err := io.ReadFull(r, rct.OutPk[i][:]); err != nil {
			return nil, err
		}
	}
	rct.RangeProofs = make([]crypto.RangeProof, numOutputs)
	for i := range rct.RangeProofs {
		if _, err := io.ReadFull(r, rct.RangeProofs[i].Commitment[:]); err != nil {
			return nil, err
		}
		if rct.RangeProofs[i].ProofData, err = common.ReadVarBytes(r, maxVarBytes, "range_proof_data"); err != nil {
			return nil, err
		}
	}
	ringCount := numInputs
	if rct.Type == RctTypeFull {
		ringCount = 1
	}
	rct.RingSigs = make([]crypto.RingSignature, ringCount)
	for i := range rct.RingSigs {
		ring, err := readRingSignature(r, 0)
		if err != nil {
			return nil, err
		}
		rct.RingSigs[i] = *ring
	}
	return rct, nil
}
