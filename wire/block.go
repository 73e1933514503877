package wire

import (
	"io"

	"github.com/haven-protocol-org/haven-core/common"
	elaerr "github.com/haven-protocol-org/haven-core/errors"
)

// CryptoNoteMaxTxPerBlock bounds |tx_hashes| (spec §3).
const CryptoNoteMaxTxPerBlock = 0x10000000

const (
	tagTransaction = 0xcc
	tagBlock       = 0xbb
)

// BlockHeader carries the fields the core touches directly: the version
// pair and the PoW nonce/timestamp the genesis-block path fills in. Full
// difficulty-adjustment and chain-linkage fields are out of scope (spec §1
// Non-goals) and are not modeled here.
type BlockHeader struct {
	MajorVersion uint8
	MinorVersion uint8
	Timestamp    uint64
	PrevID       common.Hash
	Nonce        uint32
}

// Block is {header, miner_tx, tx_hashes[]} (spec §3).
type Block struct {
	Header  BlockHeader
	MinerTx Transaction
	TxHashes []common.Hash
}

func (b *Block) Serialize(w io.Writer) error {
	if err := writeTag(w, []byte{tagBlock}); err != nil {
		return err
	}
	if err := common.WriteUint8(w, b.Header.MajorVersion); err != nil {
		return err
	}
	if err := common.WriteUint8(w, b.Header.MinorVersion); err != nil {
		return err
	}
	if err := common.WriteVarint(w, b.Header.Timestamp); err != nil {
		return err
	}
	if err := common.WriteHash(w, b.Header.PrevID); err != nil {
		return err
	}
	var nonce [4]byte
	nonce[0] = byte(b.Header.Nonce)
	nonce[1] = byte(b.Header.Nonce >> 8)
	nonce[2] = byte(b.Header.Nonce >> 16)
	nonce[3] = byte(b.Header.Nonce >> 24)
	if _, err := w.Write(nonce[:]); err != nil {
		return err
	}
	if err := writeTag(w, []byte{tagTransaction}); err != nil {
		return err
	}
	if err := b.MinerTx.Serialize(w); err != nil {
		return err
	}
	if len(b.TxHashes) > CryptoNoteMaxTxPerBlock {
		return elaerr.Newf(elaerr.KindFormat, elaerr.ErrSizeMismatch,
			"block carries %d tx hashes, exceeds max %d", len(b.TxHashes), CryptoNoteMaxTxPerBlock)
	}
	if err := common.WriteVarint(w, uint64(len(b.TxHashes))); err != nil {
		return err
	}
	for _, h := range b.TxHashes {
		if err := common.WriteHash(w, h); err != nil {
			return err
		}
	}
	return nil
}

func (b *Block) Deserialize(r io.Reader) error {
	tag, err := readTag(r)
	if err != nil {
		return err
	}
	if tag != tagBlock {
		return elaerr.Newf(elaerr.KindFormat, elaerr.ErrBadVariantTag, "expected block tag 0x%02x, got 0x%02x", tagBlock, tag)
	}
	if b.Header.MajorVersion, err = common.ReadUint8(r); err != nil {
		return err
	}
	if b.Header.MinorVersion, err = common.ReadUint8(r); err != nil {
		return err
	}
	if b.Header.Timestamp, err = common.ReadVarint(r); err != nil {
		return err
	}
	if b.Header.PrevID, err = common.ReadHash(r); err != nil {
		return err
	}
	var nonce [4]byte
	if _, err := io.ReadFull(r, nonce[:]); err != nil {
		return err
	}
	b.Header.Nonce = uint32(nonce[0]) | uint32(nonce[1])<<8 | uint32(nonce[2])<<16 | uint32(nonce[3])<<24

	txTag, err := readTag(r)
	if err != nil {
		return err
	}
	if txTag != tagTransaction {
		return elaerr.Newf(elaerr.KindFormat, elaerr.ErrBadVariantTag, "expected transaction tag 0x%02x, got 0x%02x", tagTransaction, txTag)
	}
	if err := b.MinerTx.Deserialize(r); err != nil {
		return err
	}
	count, err := common.ReadVarint(r)
	if err != nil {
		return err
	}
	if count > CryptoNoteMaxTxPerBlock {
		return elaerr.Newf(elaerr.KindFormat, elaerr.ErrSizeMismatch,
			"block declares %d tx hashes, exceeds max %d", count, CryptoNoteMaxTxPerBlock)
	}
	b.TxHashes = make([]common.Hash, count)
	for i := range b.TxHashes {
		if b.TxHashes[i], err = common.ReadHash(r); err != nil {
			return err
		}
	}
	return nil
}
