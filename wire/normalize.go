package wire

import (
	"github.com/haven-protocol-org/haven-core/asset"
)

// normalize maps whatever wire-era inputs/outputs were just decoded into
// the uniform haven-shaped in-memory form (spec §4.1 "on load"): every
// spendable input becomes TxInHavenKey, every spendable output becomes
// TxOutHavenKey (or TxOutHavenTaggedKey if it already carried a view tag),
// with per-output unlock_time/is_collateral folded in from the legacy
// parallel arrays when the source wire era carried them separately.
func normalize(vin []TxInV, vout []Output, unlockTimes []uint64, collateralIndices []uint64) ([]TxInV, []Output) {
	collateralSet := make(map[int]struct{}, len(collateralIndices))
	for _, idx := range collateralIndices {
		collateralSet[int(idx)] = struct{}{}
	}

	normVin := make([]TxInV, len(vin))
	for i, in := range vin {
		normVin[i] = normalizeInput(in)
	}

	normVout := make([]Output, len(vout))
	for i, out := range vout {
		normVout[i] = normalizeOutput(out)
		if len(unlockTimes) == len(vout) {
			normVout[i].Target.UnlockTime = unlockTimes[i]
		}
		if _, collateral := collateralSet[i]; collateral {
			normVout[i].Target.IsCollateral = true
		}
	}
	return normVin, normVout
}

func normalizeInput(in TxInV) TxInV {
	switch in.Kind {
	case TxInToKey:
		in.Kind = TxInHavenKey
		in.AssetType = asset.XHV
	case TxInOffshore, TxInOnshore:
		in.Kind = TxInHavenKey
		in.AssetType = asset.XUSD
	case TxInXAsset:
		in.Kind = TxInHavenKey
		// AssetType already carries the xAsset tag from the wire.
	}
	return in
}

func normalizeOutput(out Output) Output {
	switch out.Target.Kind {
	case TxOutToKey:
		out.Target.Kind = TxOutHavenKey
		out.Target.AssetType = asset.XHV
	case TxOutOffshore:
		out.Target.Kind = TxOutHavenKey
		out.Target.AssetType = asset.XUSD
	case TxOutXAsset:
		out.Target.Kind = TxOutHavenKey
		// AssetType already carries the xAsset tag from the wire.
	}
	return out
}

// denormalize is the inverse of normalize, run just before writing the
// unsigned prefix (spec §4.1 "on save"): for versions before HAVEN_TYPES,
// haven_key inputs/outputs are rewritten back into whichever legacy
// variant their asset tag (and, for XUSD inputs, the presence of an XHV
// output) implies, and the per-output unlock_time/is_collateral fields are
// pulled back out into the parallel output_unlock_times/collateral_indices
// arrays those eras carried on the wire.
func denormalize(prefix *TransactionPrefix) (vin []TxInV, vout []Output, unlockTimes []uint64, collateralIndices []uint64, err error) {
	if prefix.Version >= VersionHavenTypes {
		return prefix.Vin, prefix.Vout, nil, nil, nil
	}

	hasXHVOutput := false
	for _, out := range prefix.Vout {
		if out.Target.AssetType == asset.XHV {
			hasXHVOutput = true
			break
		}
	}

	vin = make([]TxInV, len(prefix.Vin))
	for i, in := range prefix.Vin {
		vin[i] = denormalizeInput(in, hasXHVOutput)
	}

	vout = make([]Output, len(prefix.Vout))
	if prefix.Version >= VersionPOU {
		unlockTimes = make([]uint64, len(prefix.Vout))
	}
	for i, out := range prefix.Vout {
		// Read the current prefix.Vout[i], not a half-filled scratch copy:
		// the legacy reference implementation's save path read from a
		// `vout_tmp` slice still being populated at this same index, an
		// apparent read-before-write bug (spec §9 Open Question). The
		// value is already fully present on prefix.Vout here, so reading
		// it directly is correct.
		vout[i] = denormalizeOutput(out)
		if prefix.Version >= VersionPOU {
			unlockTimes[i] = out.Target.UnlockTime
		}
		if prefix.Version >= VersionCollateral && out.Target.IsCollateral {
			collateralIndices = append(collateralIndices, uint64(i))
		}
	}
	return vin, vout, unlockTimes, collateralIndices, nil
}

func denormalizeInput(in TxInV, hasXHVOutput bool) TxInV {
	if in.Kind != TxInHavenKey {
		return in
	}
	switch in.AssetType {
	case asset.XHV:
		in.Kind = TxInToKey
	case asset.XUSD:
		if hasXHVOutput {
			in.Kind = TxInOnshore
		} else {
			in.Kind = TxInOffshore
		}
	default:
		in.Kind = TxInXAsset
	}
	return in
}

func denormalizeOutput(out Output) Output {
	if out.Target.Kind != TxOutHavenKey && out.Target.Kind != TxOutHavenTaggedKey {
		return out
	}
	switch out.Target.AssetType {
	case asset.XHV:
		out.Target.Kind = TxOutToKey
	case asset.XUSD:
		out.Target.Kind = TxOutOffshore
	default:
		out.Target.Kind = TxOutXAsset
	}
	return out
}
