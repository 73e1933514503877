package wire

import (
	"io"

	"github.com/golang/glog"

	"github.com/haven-protocol-org/haven-core/common"
	"github.com/haven-protocol-org/haven-core/crypto"
	elaerr "github.com/haven-protocol-org/haven-core/errors"
)

const maxVarBytes = 1 << 20

// Serialize writes the full signed transaction: the unsigned prefix
// followed by the era-appropriate signature data (spec §4.1, §6).
func (tx *Transaction) Serialize(w io.Writer) error {
	if err := tx.SerializeUnsigned(w); err != nil {
		return err
	}
	return tx.serializeSignatures(w)
}

func (tx *Transaction) serializeSignatures(w io.Writer) error {
	if tx.Version == VersionPreOffshore {
		for _, ring := range tx.Signatures {
			if err := writeRingSignature(w, ring); err != nil {
				return err
			}
		}
		return nil
	}
	return writeRctSignature(w, tx.RctSignatures, len(tx.Vin), len(tx.Vout))
}

// SerializeUnsigned writes the version-appropriate prefix, denormalizing
// the in-memory haven-shaped representation back into whichever legacy
// wire form `tx.Version` calls for (spec §4.1 "on save").
func (tx *Transaction) SerializeUnsigned(w io.Writer) error {
	if err := common.WriteVarint(w, tx.Version); err != nil {
		return err
	}
	if err := common.WriteVarint(w, tx.UnlockTime); err != nil {
		return err
	}

	vin, vout, unlockTimes, collateralIndices, err := denormalize(&tx.TransactionPrefix)
	if err != nil {
		return err
	}

	if err := common.WriteVarint(w, uint64(len(vin))); err != nil {
		return err
	}
	for _, in := range vin {
		if err := writeTxIn(w, in, tx.Version); err != nil {
			return err
		}
	}

	if err := common.WriteVarint(w, uint64(len(vout))); err != nil {
		return err
	}
	for _, out := range vout {
		if err := writeTxOut(w, out, tx.Version); err != nil {
			return err
		}
	}

	if err := common.WriteVarBytes(w, tx.Extra); err != nil {
		return err
	}

	if tx.Version >= VersionOffshore && tx.Version < VersionHavenTypes {
		if err := common.WriteVarint(w, tx.PricingRecordHeight); err != nil {
			return err
		}
		if err := common.WriteVarBytes(w, tx.OffshoreData); err != nil {
			return err
		}
		if err := common.WriteUint64(w, tx.AmountBurnt); err != nil {
			return err
		}
		if err := common.WriteUint64(w, tx.AmountMinted); err != nil {
			return err
		}
	}
	if tx.Version >= VersionPOU && tx.Version < VersionHavenTypes {
		if err := common.WriteVarint(w, uint64(len(unlockTimes))); err != nil {
			return err
		}
		for _, ut := range unlockTimes {
			if err := common.WriteVarint(w, ut); err != nil {
				return err
			}
		}
	}
	if tx.Version >= VersionCollateral && tx.Version < VersionHavenTypes {
		if err := common.WriteVarint(w, uint64(len(collateralIndices))); err != nil {
			return err
		}
		for _, idx := range collateralIndices {
			if err := common.WriteVarint(w, idx); err != nil {
				return err
			}
		}
	}
	if tx.Version >= VersionHavenTypes {
		if err := common.WriteVarint(w, tx.PricingRecordHeight); err != nil {
			return err
		}
		if err := common.WriteVarBytes(w, tx.OffshoreData); err != nil {
			return err
		}
		if err := common.WriteUint64(w, tx.AmountBurnt); err != nil {
			return err
		}
		if err := common.WriteUint64(w, tx.AmountMinted); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize reads a full signed transaction and normalizes it into the
// haven-shaped in-memory form (spec §4.1 "on load").
func (tx *Transaction) Deserialize(r io.Reader) (err error) {
	defer func() {
		if err != nil {
			glog.Warningf("wire: transaction deserialize failed: %v", err)
		}
	}()

	if err := tx.DeserializeUnsigned(r); err != nil {
		return err
	}
	if tx.Version == VersionPreOffshore {
		tx.Signatures = make([]crypto.RingSignature, len(tx.Vin))
		for i := range tx.Vin {
			ringSize := len(tx.Vin[i].KeyOffsets)
			ring, err := readRingSignature(r, ringSize)
			if err != nil {
				return err
			}
			tx.Signatures[i] = *ring
		}
		return nil
	}
	rct, err := readRctSignature(r, len(tx.Vin), len(tx.Vout))
	if err != nil {
		return err
	}
	tx.RctSignatures = rct
	return nil
}

// DeserializeUnsigned reads the version-appropriate prefix and normalizes
// legacy inputs/outputs into the haven_key/haven_tagged_key shape.
func (tx *Transaction) DeserializeUnsigned(r io.Reader) error {
	version, err := common.ReadVarint(r)
	if err != nil {
		return err
	}
	if version == 0 || version > CurrentVersion {
		return elaerr.Newf(elaerr.KindFormat, elaerr.ErrUnknownVersion, "unsupported transaction version %d", version)
	}
	tx.Version = version

	unlockTime, err := common.ReadVarint(r)
	if err != nil {
		return err
	}
	tx.UnlockTime = unlockTime

	vinCount, err := common.ReadVarint(r)
	if err != nil {
		return err
	}
	vin := make([]TxInV, vinCount)
	for i := range vin {
		in, err := readTxIn(r, version)
		if err != nil {
			return err
		}
		vin[i] = *in
	}

	voutCount, err := common.ReadVarint(r)
	if err != nil {
		return err
	}
	vout := make([]Output, voutCount)
	for i := range vout {
		out, err := readTxOut(r, version)
		if err != nil {
			return err
		}
		vout[i] = *out
	}

	extra, err := common.ReadVarBytes(r, maxVarBytes, "extra")
	if err != nil {
		return err
	}
	tx.Extra = extra

	var unlockTimes []uint64
	var collateralIndices []uint64

	if version >= VersionOffshore && version < VersionHavenTypes {
		if tx.PricingRecordHeight, err = common.ReadVarint(r); err != nil {
			return err
		}
		if tx.OffshoreData, err = common.ReadVarBytes(r, maxVarBytes, "offshore_data"); err != nil {
			return err
		}
		if tx.AmountBurnt, err = common.ReadUint64(r); err != nil {
			return err
		}
		if tx.AmountMinted, err = common.ReadUint64(r); err != nil {
			return err
		}
	}
	if version >= VersionPOU && version < VersionHavenTypes {
		n, err := common.ReadVarint(r)
		if err != nil {
			return err
		}
		if n != uint64(len(vout)) {
			return elaerr.Newf(elaerr.KindFormat, elaerr.ErrSizeMismatch,
				"output_unlock_times count %d does not match vout count %d", n, len(vout))
		}
		unlockTimes = make([]uint64, n)
		for i := range unlockTimes {
			if unlockTimes[i], err = common.ReadVarint(r); err != nil {
				return err
			}
		}
	}
	if version >= VersionCollateral && version < VersionHavenTypes {
		n, err := common.ReadVarint(r)
		if err != nil {
			return err
		}
		if tx.AmountBurnt != 0 && n != 2 {
			return elaerr.Newf(elaerr.KindFormat, elaerr.ErrSizeMismatch,
				"collateral_indices count must be 2 when amount_burnt != 0, got %d", n)
		}
		collateralIndices = make([]uint64, n)
		for i := range collateralIndices {
			idx, err := common.ReadVarint(r)
			if err != nil {
				return err
			}
			if idx >= uint64(len(vout)) {
				return elaerr.Newf(elaerr.KindFormat, elaerr.ErrSizeMismatch,
					"collateral index %d out of range for %d outputs", idx, len(vout))
			}
			collateralIndices[i] = idx
		}
	}
	if version >= VersionHavenTypes {
		if tx.PricingRecordHeight, err = common.ReadVarint(r); err != nil {
			return err
		}
		if tx.OffshoreData, err = common.ReadVarBytes(r, maxVarBytes, "offshore_data"); err != nil {
			return err
		}
		if tx.AmountBurnt, err = common.ReadUint64(r); err != nil {
			return err
		}
		if tx.AmountMinted, err = common.ReadUint64(r); err != nil {
			return err
		}
	}

	tx.Vin, tx.Vout = normalize(vin, vout, unlockTimes, collateralIndices)
	return nil
}
