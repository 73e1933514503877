package wire

import (
	"bytes"
	"io"
	"sort"

	"github.com/haven-protocol-org/haven-core/common"
	"github.com/haven-protocol-org/haven-core/crypto"
	elaerr "github.com/haven-protocol-org/haven-core/errors"
)

// tx_extra field tags (spec.md §4.6 steps 2, 5-8): the variable-length
// key/value blob appended to every transaction prefix that carries the tx
// public key, any additional per-destination tx public keys, and an
// optional payment id nonce.
const (
	extraTagPadding           = 0x00
	extraTagPubKey            = 0x01
	extraTagNonce             = 0x02
	extraTagAdditionalPubKeys = 0x04
)

const (
	nonceTagPaymentID          = 0x00
	nonceTagEncryptedPaymentID = 0x01
)

// TxExtraField is one decoded tag/payload pair from a transaction's extra
// blob. Padding fields carry no meaningful payload.
type TxExtraField struct {
	Tag     byte
	Payload []byte
}

// ParseExtra decodes extra into its component fields. A 0x00 tag is
// padding and is treated as consuming the remainder of the blob, matching
// this chain's convention of padding only ever appearing as a trailing
// run of zero bytes.
func ParseExtra(extra []byte) ([]TxExtraField, error) {
	var fields []TxExtraField
	r := bytes.NewReader(extra)
	for r.Len() > 0 {
		tag, err := common.ReadUint8(r)
		if err != nil {
			return nil, elaerr.Wrap(elaerr.KindFormat, elaerr.ErrMalformedVarint, err, "read extra tag")
		}
		switch tag {
		case extraTagPadding:
			fields = append(fields, TxExtraField{Tag: tag})
			return fields, nil
		case extraTagPubKey:
			var buf [crypto.KeyLength]byte
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return nil, elaerr.Wrap(elaerr.KindFormat, elaerr.ErrSizeMismatch, err, "read extra pubkey")
			}
			fields = append(fields, TxExtraField{Tag: tag, Payload: append([]byte(nil), buf[:]...)})
		case extraTagNonce:
			payload, err := common.ReadVarBytes(r, maxVarBytes, "extra nonce")
			if err != nil {
				return nil, err
			}
			fields = append(fields, TxExtraField{Tag: tag, Payload: payload})
		case extraTagAdditionalPubKeys:
			count, err := common.ReadVarint(r)
			if err != nil {
				return nil, err
			}
			payload := make([]byte, count*crypto.KeyLength)
			if _, err := io.ReadFull(r, payload); err != nil {
				return nil, elaerr.Wrap(elaerr.KindFormat, elaerr.ErrSizeMismatch, err, "read additional pubkeys")
			}
			fields = append(fields, TxExtraField{Tag: tag, Payload: payload})
		default:
			// Unknown tag: this chain has no registry of arbitrary
			// extensible fields, so an unrecognized tag ends parsing
			// rather than guessing a length.
			return fields, nil
		}
	}
	return fields, nil
}

// SerializeExtraFields re-encodes fields in the order given.
func SerializeExtraFields(fields []TxExtraField) []byte {
	buf := new(bytes.Buffer)
	for _, f := range fields {
		buf.WriteByte(f.Tag)
		switch f.Tag {
		case extraTagPubKey:
			buf.Write(f.Payload)
		case extraTagNonce:
			_ = common.WriteVarBytes(buf, f.Payload)
		case extraTagAdditionalPubKeys:
			_ = common.WriteVarint(buf, uint64(len(f.Payload)/crypto.KeyLength))
			buf.Write(f.Payload)
		}
	}
	return buf.Bytes()
}

// RemoveFieldsByTag drops every field of the given tag from extra.
func RemoveFieldsByTag(extra []byte, tag byte) ([]byte, error) {
	fields, err := ParseExtra(extra)
	if err != nil {
		return nil, err
	}
	kept := fields[:0]
	for _, f := range fields {
		if f.Tag != tag {
			kept = append(kept, f)
		}
	}
	return SerializeExtraFields(kept), nil
}

// AppendPubKey removes any existing tx pubkey field and appends a fresh
// one (spec.md §4.6 step 5: "strip any prior pubkey from extra and append
// R").
func AppendPubKey(extra []byte, pub crypto.PublicKey) ([]byte, error) {
	stripped, err := RemoveFieldsByTag(extra, extraTagPubKey)
	if err != nil {
		return nil, err
	}
	return append(stripped, append([]byte{extraTagPubKey}, pub[:]...)...), nil
}

// AppendAdditionalPubKeys removes any existing additional-pubkeys field
// and appends a fresh one (spec.md §4.6 step 6).
func AppendAdditionalPubKeys(extra []byte, pubs []crypto.PublicKey) ([]byte, error) {
	stripped, err := RemoveFieldsByTag(extra, extraTagAdditionalPubKeys)
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	buf.WriteByte(extraTagAdditionalPubKeys)
	_ = common.WriteVarint(buf, uint64(len(pubs)))
	for _, p := range pubs {
		buf.Write(p[:])
	}
	return append(stripped, buf.Bytes()...), nil
}

// AppendNonce removes any existing nonce field and appends a fresh one
// carrying payload.
func AppendNonce(extra []byte, payload []byte) ([]byte, error) {
	stripped, err := RemoveFieldsByTag(extra, extraTagNonce)
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	buf.WriteByte(extraTagNonce)
	_ = common.WriteVarBytes(buf, payload)
	return append(stripped, buf.Bytes()...), nil
}

// FindPubKey returns the transaction's main tx public key, if present.
func FindPubKey(extra []byte) (crypto.PublicKey, bool, error) {
	fields, err := ParseExtra(extra)
	if err != nil {
		return crypto.PublicKey{}, false, err
	}
	for _, f := range fields {
		if f.Tag == extraTagPubKey && len(f.Payload) == crypto.KeyLength {
			var pub crypto.PublicKey
			copy(pub[:], f.Payload)
			return pub, true, nil
		}
	}
	return crypto.PublicKey{}, false, nil
}

// FindAdditionalPubKeys returns the per-destination additional tx public
// keys, if present (spec.md §4.6 step 6).
func FindAdditionalPubKeys(extra []byte) ([]crypto.PublicKey, bool, error) {
	fields, err := ParseExtra(extra)
	if err != nil {
		return nil, false, err
	}
	for _, f := range fields {
		if f.Tag == extraTagAdditionalPubKeys {
			n := len(f.Payload) / crypto.KeyLength
			out := make([]crypto.PublicKey, n)
			for i := 0; i < n; i++ {
				copy(out[i][:], f.Payload[i*crypto.KeyLength:(i+1)*crypto.KeyLength])
			}
			return out, true, nil
		}
	}
	return nil, false, nil
}

// FindNonce returns the raw nonce field payload, if present.
func FindNonce(extra []byte) ([]byte, bool, error) {
	fields, err := ParseExtra(extra)
	if err != nil {
		return nil, false, err
	}
	for _, f := range fields {
		if f.Tag == extraTagNonce {
			return f.Payload, true, nil
		}
	}
	return nil, false, nil
}

// EncryptedPaymentIDFromNonce extracts an 8-byte encrypted short payment
// id from a nonce payload, if that's what it carries.
func EncryptedPaymentIDFromNonce(nonce []byte) ([8]byte, bool) {
	var id [8]byte
	if len(nonce) == 9 && nonce[0] == nonceTagEncryptedPaymentID {
		copy(id[:], nonce[1:])
		return id, true
	}
	return id, false
}

// PaymentIDFromNonce extracts a 32-byte long payment id from a nonce
// payload, if that's what it carries.
func PaymentIDFromNonce(nonce []byte) (common.Hash, bool) {
	var id common.Hash
	if len(nonce) == 33 && nonce[0] == nonceTagPaymentID {
		copy(id[:], nonce[1:])
		return id, true
	}
	return id, false
}

// EncryptedPaymentIDToNonce encodes an 8-byte encrypted short payment id
// as a nonce payload.
func EncryptedPaymentIDToNonce(id [8]byte) []byte {
	return append([]byte{nonceTagEncryptedPaymentID}, id[:]...)
}

// SortExtra canonicalizes field order (ascending by tag, stable) so
// independently-constructed but semantically-equal extra blobs serialize
// identically (spec.md §4.6 step 8).
func SortExtra(extra []byte) ([]byte, error) {
	fields, err := ParseExtra(extra)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Tag < fields[j].Tag })
	return SerializeExtraFields(fields), nil
}
