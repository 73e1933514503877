// Package txbuilder assembles signed transactions from a sender's account
// keys and a vector of source/destination entries (spec.md §4.6). It
// generalizes the teacher's single-payload transaction assembly
// (core/transaction's builders, which fill one concrete Payload type
// directly) into the eleven-step construction sequence this multi-asset,
// confidential-amount chain requires: input derivation, destination
// shuffling, tx-key selection, output derivation, conservation checking
// and, finally, v1 ring-signature or v2+ rct signing.
package txbuilder

import (
	"crypto/rand"
	"math/big"
	"sort"

	"github.com/golang/glog"

	"github.com/haven-protocol-org/haven-core/account"
	"github.com/haven-protocol-org/haven-core/asset"
	"github.com/haven-protocol-org/haven-core/classify"
	"github.com/haven-protocol-org/haven-core/common"
	"github.com/haven-protocol-org/haven-core/crypto"
	elaerr "github.com/haven-protocol-org/haven-core/errors"
	"github.com/haven-protocol-org/haven-core/wire"
)

// Params is every input spec.md §4.6 lists for Construct.
type Params struct {
	SenderKeys   account.Keys
	Subaddresses *account.SubaddressTable

	Sources      []Source
	Destinations []Destination
	ChangeAddr   *account.Address

	Extra      []byte
	UnlockTime uint64

	TxSecretKey           crypto.SecretKey
	AdditionalTxSecretKeys []crypto.SecretKey // one per destination, iff needed; generated if omitted

	RCT         bool
	RangeProver crypto.RangeProver
	Shuffle     bool
	UseViewTags bool

	Device Device // defaults to SoftwareDevice{} when nil

	// PricingRecord, CurrentHeight and HFVersion price a conversion leg
	// (spec.md §1 "the builder consumes the pricing record and
	// classification results"): PricingRecord is consulted for its
	// freshness and its rates, CurrentHeight is checked against the
	// record's freshness window, HFVersion selects the fee/collateral
	// schedule classify/ applies. All three are ignored for a
	// classify.TxTypeTransfer/OffshoreTransfer/XAssetTransfer build.
	PricingRecord *asset.PricingRecord
	CurrentHeight uint64
	HFVersion     int

	// Supply prices the collateral an OFFSHORE/ONSHORE conversion must
	// lock once HFVersion >= classify.HFUseCollateral; ignored otherwise.
	Supply classify.Supply
}

// Result is what Construct returns: the finished transaction plus the
// key(s) used to build it (spec.md §4.6 step 11).
type Result struct {
	Tx                     *wire.Transaction
	TxSecretKey            crypto.SecretKey
	AdditionalTxSecretKeys []crypto.SecretKey
}

// builtInput carries a source alongside the ephemeral keypair and key
// image its real output resolved to (step 3), so later steps (sorting,
// signing) can act on the triple together.
type builtInput struct {
	source    Source
	ephemeral account.Keypair
	keyImage  crypto.KeyImage
}

// Construct runs the eleven-step builder algorithm (spec.md §4.6).
func Construct(p Params) (result *Result, err error) {
	glog.V(1).Infof("txbuilder: constructing tx from %d source(s) to %d destination(s), rct=%v", len(p.Sources), len(p.Destinations), p.RCT)
	defer func() {
		if err != nil {
			glog.Warningf("txbuilder: construct failed: %v", err)
		} else {
			glog.V(1).Infof("txbuilder: constructed tx %s", result.Tx.Hash())
		}
	}()

	if len(p.Sources) == 0 {
		return nil, elaerr.New(elaerr.KindSemantic, elaerr.ErrConflictingAssetSets, "no sources supplied")
	}
	if len(p.Destinations) == 0 {
		return nil, elaerr.New(elaerr.KindSemantic, elaerr.ErrConflictingAssetSets, "no destinations supplied")
	}

	device := p.Device
	if device == nil {
		device = SoftwareDevice{}
	}
	if err := device.OpenSession(); err != nil {
		return nil, err
	}
	defer device.CloseSession()

	// Step 1: initialize.
	version := uint64(wire.VersionPreOffshore)
	if p.RCT {
		version = 2
	}
	tx := &wire.Transaction{TransactionPrefix: wire.TransactionPrefix{
		Version:    version,
		UnlockTime: p.UnlockTime,
	}}

	extra := append([]byte(nil), p.Extra...)

	// Step 2: payment-id handling. Encryption/derivation failures
	// downgrade to "no payment id" rather than aborting the build — the
	// one intentionally silent-failure path this core has (spec.md §4.6
	// step 2, §7).
	extra = handlePaymentID(extra, p.Destinations, p.ChangeAddr, p.TxSecretKey, device)
	tx.Extra = extra

	// Step 3: build inputs.
	built := make([]builtInput, len(p.Sources))
	var summaryInputsMoney uint64
	for i, src := range p.Sources {
		if src.RealOutputIndex < 0 || src.RealOutputIndex >= len(src.Outputs) {
			return nil, elaerr.Newf(elaerr.KindSemantic, elaerr.ErrConflictingAssetSets, "source %d: real output index out of range", i)
		}
		realPub := src.Outputs[src.RealOutputIndex].Pub
		ephemeral, keyImage, err := device.GenerateKeyImage(p.SenderKeys, p.Subaddresses, realPub, src.RealOutTxPubKey, src.RealOutAdditionalTxPubKeys, src.RealOutputInTxIndex)
		if err != nil {
			return nil, err
		}
		built[i] = builtInput{source: src, ephemeral: ephemeral, keyImage: keyImage}
		summaryInputsMoney += src.Amount
	}

	sortInputsByKeyImage(built)

	tx.Vin = make([]wire.TxInV, len(built))
	for i, in := range built {
		globalOffsets := make([]uint64, len(in.source.Outputs))
		for j, m := range in.source.Outputs {
			globalOffsets[j] = m.GlobalIndex
		}
		tx.Vin[i] = wire.TxInV{
			Kind:       wire.TxInHavenKey,
			Amount:     in.source.Amount,
			AssetType:  in.source.AssetType,
			KeyOffsets: wire.RelativeKeyOffsets(globalOffsets),
			KeyImage:   in.keyImage,
		}
	}

	// Step 4: shuffle destinations.
	destinations := append([]Destination(nil), p.Destinations...)
	if p.Shuffle {
		shuffleDestinations(destinations)
	}

	// Step 5: tx pubkey.
	txPub, err := deriveTxPubKey(destinations, p.TxSecretKey, device)
	if err != nil {
		return nil, err
	}
	extra, err = wire.AppendPubKey(extra, txPub)
	if err != nil {
		return nil, err
	}

	// Step 6: additional tx keys.
	needAdditional := needsAdditionalTxKeys(destinations)
	additionalSecrets := p.AdditionalTxSecretKeys
	if needAdditional && len(additionalSecrets) != len(destinations) {
		additionalSecrets = make([]crypto.SecretKey, len(destinations))
		for i := range additionalSecrets {
			s, err := crypto.RandomSecretKey()
			if err != nil {
				return nil, err
			}
			additionalSecrets[i] = s
		}
	}

	// Step 7: build outputs.
	tx.Vout = make([]wire.Output, len(destinations))
	additionalPubs := make([]crypto.PublicKey, 0, len(destinations))
	var summaryOutsMoney uint64
	outAmounts := make([]uint64, len(destinations))
	for i, dst := range destinations {
		r := p.TxSecretKey
		if needAdditional {
			r = additionalSecrets[i]
			var pub crypto.PublicKey
			var err error
			// A subaddress destination's additional pubkey is r*D (D its
			// spend pubkey), not r*G, so the receiver's a*R_i lands on the
			// same shared secret r*C_i (C_i=a*D) this output was built
			// with; a standard destination keeps the plain r*G convention.
			if dst.IsSubaddress {
				pub, err = crypto.ScalarMultKey(r, dst.Address.SpendPub)
			} else {
				pub, err = crypto.SecretToPublic(r)
			}
			if err != nil {
				return nil, err
			}
			additionalPubs = append(additionalPubs, pub)
		}
		outPub, _, viewTag, err := device.GenerateOutputEphemeralKey(dst, r, uint64(i), p.UseViewTags)
		if err != nil {
			return nil, err
		}

		target := wire.OutTarget{
			Kind:         wire.TxOutHavenKey,
			Key:          outPub,
			AssetType:    dst.AssetType,
			UnlockTime:   p.UnlockTime,
			IsCollateral: dst.IsCollateral,
		}
		if p.UseViewTags {
			target.Kind = wire.TxOutHavenTaggedKey
			target.ViewTag = viewTag
		}
		tx.Vout[i] = wire.Output{Amount: dst.Amount, Target: target}
		outAmounts[i] = dst.Amount
		summaryOutsMoney += dst.Amount
	}

	if needAdditional {
		extra, err = wire.AppendAdditionalPubKeys(extra, additionalPubs)
		if err != nil {
			return nil, err
		}
	}

	// Step 8: sort tx-extra fields canonically.
	extra, err = wire.SortExtra(extra)
	if err != nil {
		return nil, err
	}
	tx.Extra = extra

	// Step 9: conservation check.
	if summaryOutsMoney > summaryInputsMoney {
		return nil, elaerr.Newf(elaerr.KindEconomic, elaerr.ErrConservationViolated,
			"outputs (%d) exceed inputs (%d)", summaryOutsMoney, summaryInputsMoney)
	}
	fee := summaryInputsMoney - summaryOutsMoney

	// Step 9b: classification & conversion economics (spec.md §1, §4.2-§4.5).
	// The tx's own inputs/outputs are classified and priced against the
	// pricing record rather than trusting the caller-supplied destination
	// amounts: an under-paid conversion fee, a stale pricing record, or an
	// under-collateralized OFFSHORE/ONSHORE leg is rejected here, before
	// signing makes the transaction immutable.
	assetTypes, err := classify.GetTxAssetTypes(tx, false, common.Hash{})
	if err != nil {
		return nil, err
	}
	if assetTypes.Type != classify.TxTypeTransfer && assetTypes.Type != classify.TxTypeOffshoreTransfer && assetTypes.Type != classify.TxTypeXAssetTransfer {
		if p.PricingRecord == nil {
			return nil, elaerr.New(elaerr.KindEconomic, elaerr.ErrPricingRecordStale, "conversion requires a pricing record")
		}
		if !p.PricingRecord.ValidForHeight(p.CurrentHeight, common.Hash{}) {
			return nil, elaerr.New(elaerr.KindEconomic, elaerr.ErrPricingRecordStale, "pricing record stale for this transaction")
		}
		tx.PricingRecordHeight = p.PricingRecord.Height

		var convertedAmount uint64
		for _, dst := range destinations {
			convertedAmount += dst.SecondaryAmount
		}

		requiredFee := classify.GetFee(convertedAmount, assetTypes.Type, p.HFVersion, p.UnlockTime)
		if fee < requiredFee {
			return nil, elaerr.Newf(elaerr.KindEconomic, elaerr.ErrConservationViolated,
				"conversion fee %d below required %d", fee, requiredFee)
		}

		if (assetTypes.Type == classify.TxTypeOffshore || assetTypes.Type == classify.TxTypeOnshore) && p.HFVersion >= classify.HFUseCollateral {
			requiredCollateral, err := classify.GetCollateralRequirements(assetTypes.Type, convertedAmount, p.PricingRecord, p.Supply)
			if err != nil {
				return nil, err
			}
			if collateralTotal(destinations) < requiredCollateral {
				return nil, elaerr.Newf(elaerr.KindEconomic, elaerr.ErrConservationViolated,
					"conversion collateral %d below required %d", collateralTotal(destinations), requiredCollateral)
			}
		}

		tx.AmountBurnt = convertedAmount
		tx.AmountMinted = destinationAssetTotal(destinations, assetTypes.Destination)
	}

	// Step 10: sign.
	if !p.RCT {
		if !p.SenderKeys.IsWatchOnly() {
			prefixHash := tx.Hash()
			sigs, err := signV1(prefixHash, built)
			if err != nil {
				return nil, err
			}
			tx.Signatures = sigs
		}
	} else {
		prover := p.RangeProver
		if prover == nil {
			prover = crypto.ReferenceRangeProver{}
		}

		// Amounts are now hidden by the rct commitments.
		for i := range tx.Vin {
			tx.Vin[i].Amount = 0
		}
		for i := range tx.Vout {
			tx.Vout[i].Amount = 0
		}
		tx.Invalidate()
		prefixHash := tx.Hash()

		var rct *wire.RctSignature
		if !useSimpleRct(p.Sources, prover) && canUseNonSimpleRct(p.Sources) {
			rct, err = genRct(prefixHash, built, outAmounts, fee, prover)
		} else {
			rct, err = genRctSimple(prefixHash, built, outAmounts, fee, prover)
		}
		if err != nil {
			return nil, err
		}
		tx.RctSignatures = rct
	}

	// Step 11: invalidate caches.
	tx.Invalidate()

	return &Result{Tx: tx, TxSecretKey: p.TxSecretKey, AdditionalTxSecretKeys: additionalSecrets}, nil
}

// handlePaymentID implements spec.md §4.6 step 2: find an existing
// payment-id nonce and encrypt it, or synthesize and encrypt a dummy one
// when the destination count is small enough that one is expected.
// Failure anywhere in this path downgrades to "no payment id" rather than
// aborting the whole build — the sole intentionally-silent failure this
// core has.
func handlePaymentID(extra []byte, destinations []Destination, changeAddr *account.Address, txSecret crypto.SecretKey, device Device) []byte {
	viewPub, ok := destinationViewKeyPub(destinations, changeAddr)

	nonce, hasNonce, err := wire.FindNonce(extra)
	if err == nil && hasNonce {
		if shortID, isShort := wire.EncryptedPaymentIDFromNonce(nonce); isShort {
			if ok {
				if encrypted, err := device.EncryptPaymentID(shortID, viewPub, txSecret); err == nil {
					if updated, err := wire.AppendNonce(extra, wire.EncryptedPaymentIDToNonce(encrypted)); err == nil {
						return updated
					}
				}
			}
			return extra
		}
		if _, isLong := wire.PaymentIDFromNonce(nonce); isLong {
			return extra
		}
	}

	if len(destinations) > 2 || !ok {
		return extra
	}

	var dummy [8]byte
	encrypted, err := device.EncryptPaymentID(dummy, viewPub, txSecret)
	if err != nil {
		return extra
	}
	updated, err := wire.AppendNonce(extra, wire.EncryptedPaymentIDToNonce(encrypted))
	if err != nil {
		return extra
	}
	return updated
}

// destinationViewKeyPub returns the view public key of the single
// non-change destination, the only case a payment id can be meaningfully
// encrypted for.
func destinationViewKeyPub(destinations []Destination, changeAddr *account.Address) (crypto.PublicKey, bool) {
	var found crypto.PublicKey
	count := 0
	for _, d := range destinations {
		if changeAddr != nil && d.Address == *changeAddr {
			continue
		}
		found = d.Address.ViewPub
		count++
	}
	return found, count == 1
}

// sortInputsByKeyImage orders built inputs by key image descending
// (memcmp order), the wire order every implementation of this chain
// agrees on (spec.md §4.6 step 3).
func sortInputsByKeyImage(built []builtInput) {
	sort.SliceStable(built, func(i, j int) bool {
		for k := 0; k < crypto.KeyLength; k++ {
			if built[i].keyImage[k] != built[j].keyImage[k] {
				return built[i].keyImage[k] > built[j].keyImage[k]
			}
		}
		return false
	})
}

// shuffleDestinations performs an in-place Fisher-Yates shuffle using
// crypto/rand, matching the unbiased-selection spirit of every other
// source of randomness in this module (spec.md §4.6 step 4).
func shuffleDestinations(destinations []Destination) {
	for i := len(destinations) - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return
		}
		j := int(jBig.Int64())
		destinations[i], destinations[j] = destinations[j], destinations[i]
	}
}

// collateralTotal sums the amount of every destination flagged as a
// collateral output, the XHV this transaction actually locks against an
// OFFSHORE/ONSHORE conversion.
func collateralTotal(destinations []Destination) uint64 {
	var total uint64
	for _, d := range destinations {
		if d.IsCollateral {
			total += d.Amount
		}
	}
	return total
}

// destinationAssetTotal sums every destination's amount in tag, the
// conversion's minted proceeds once source and destination asset differ.
func destinationAssetTotal(destinations []Destination, tag asset.Tag) uint64 {
	var total uint64
	for _, d := range destinations {
		if d.AssetType == tag {
			total += d.Amount
		}
	}
	return total
}

// deriveTxPubKey implements spec.md §4.6 step 5: a lone subaddress
// destination gets R=s*D (binding the tx key to that subaddress alone);
// every other case gets the standard R=s*G.
func deriveTxPubKey(destinations []Destination, txSecret crypto.SecretKey, device Device) (crypto.PublicKey, error) {
	numStandard, numSub, lone := classifyDestinations(destinations)
	if numStandard == 0 && numSub == 1 {
		return crypto.ScalarMultKey(txSecret, lone.SpendPub)
	}
	return crypto.SecretToPublic(txSecret)
}

// needsAdditionalTxKeys implements spec.md §4.6 step 6: required iff
// there's at least one subaddress destination and (at least one standard
// destination, or more than one subaddress destination).
func needsAdditionalTxKeys(destinations []Destination) bool {
	numStandard, numSub, _ := classifyDestinations(destinations)
	return numSub > 0 && (numStandard > 0 || numSub > 1)
}

func classifyDestinations(destinations []Destination) (numStandard, numSub int, loneSubaddress account.Address) {
	for _, d := range destinations {
		if d.IsSubaddress {
			numSub++
			loneSubaddress = d.Address
		} else {
			numStandard++
		}
	}
	return
}
