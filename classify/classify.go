package classify

import (
	"github.com/haven-protocol-org/haven-core/asset"
	"github.com/haven-protocol-org/haven-core/common"
	elaerr "github.com/haven-protocol-org/haven-core/errors"
	"github.com/haven-protocol-org/haven-core/wire"
)

// TxType is the semantic conversion type a transaction's asset tags imply
// (spec.md §4.2).
type TxType int

const (
	TxTypeUnknown TxType = iota
	TxTypeTransfer
	TxTypeOffshoreTransfer
	TxTypeXAssetTransfer
	TxTypeOffshore
	TxTypeOnshore
	TxTypeXUSDToXAsset
	TxTypeXAssetToXUSD
)

func (t TxType) String() string {
	switch t {
	case TxTypeTransfer:
		return "TRANSFER"
	case TxTypeOffshoreTransfer:
		return "OFFSHORE_TRANSFER"
	case TxTypeXAssetTransfer:
		return "XASSET_TRANSFER"
	case TxTypeOffshore:
		return "OFFSHORE"
	case TxTypeOnshore:
		return "ONSHORE"
	case TxTypeXUSDToXAsset:
		return "XUSD_TO_XASSET"
	case TxTypeXAssetToXUSD:
		return "XASSET_TO_XUSD"
	default:
		return "UNKNOWN"
	}
}

// AssetTypes is the result of classifying a transaction's source and
// destination asset sets (spec.md §4.2).
type AssetTypes struct {
	Source      asset.Tag
	Destination asset.Tag
	Type        TxType
}

func tagSet(tags ...asset.Tag) map[asset.Tag]struct{} {
	s := make(map[asset.Tag]struct{}, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

func sortedTags(s map[asset.Tag]struct{}) []asset.Tag {
	out := make([]asset.Tag, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	return out
}

// GetTxAssetTypes derives the source and destination asset sets from a
// transaction's inputs and outputs (spec.md §4.2). isMinerTx forces a
// destination of XHV regardless of output mix; txHash triggers the
// hard-coded XJPY exploit override.
func GetTxAssetTypes(tx *wire.Transaction, isMinerTx bool, txHash common.Hash) (*AssetTypes, error) {
	sources := make(map[asset.Tag]struct{})
	for _, in := range tx.Vin {
		switch in.Kind {
		case wire.TxInGen:
			sources[asset.XHV] = struct{}{}
		case wire.TxInHavenKey, wire.TxInToKey, wire.TxInOffshore, wire.TxInOnshore, wire.TxInXAsset:
			sources[in.AssetType] = struct{}{}
		}
	}

	if len(sources) > 2 {
		return nil, elaerr.Newf(elaerr.KindSemantic, elaerr.ErrConflictingAssetSets,
			"transaction input asset tags span %d assets", len(sources))
	}
	if len(sources) == 2 {
		if tx.Version < wire.VersionCollateral {
			return nil, elaerr.Newf(elaerr.KindSemantic, elaerr.ErrConflictingAssetSets,
				"two-asset {XHV,XUSD} source set requires version >= %d, got %d", wire.VersionCollateral, tx.Version)
		}
		if _, hasXHV := sources[asset.XHV]; !hasXHV {
			return nil, elaerr.New(elaerr.KindSemantic, elaerr.ErrConflictingAssetSets,
				"two-asset source set must be {XHV,XUSD}")
		}
		if _, hasXUSD := sources[asset.XUSD]; !hasXUSD {
			return nil, elaerr.New(elaerr.KindSemantic, elaerr.ErrConflictingAssetSets,
				"two-asset source set must be {XHV,XUSD}")
		}
	}

	destinations := make(map[asset.Tag]struct{})
	for _, out := range tx.Vout {
		switch out.Target.Kind {
		case wire.TxOutHavenKey, wire.TxOutHavenTaggedKey, wire.TxOutToKey, wire.TxOutOffshore, wire.TxOutXAsset:
			destinations[out.Target.AssetType] = struct{}{}
		}
	}

	if isMinerTx {
		destinations = tagSet(asset.XHV)
	}

	if IsXJPYExploitTx(txHash) {
		destinations = tagSet("XJPY")
	}

	if len(destinations) == 0 || len(destinations) > 2 {
		return nil, elaerr.Newf(elaerr.KindSemantic, elaerr.ErrConflictingAssetSets,
			"transaction output asset tags span %d assets", len(destinations))
	}

	source, err := pickSourceTag(sources)
	if err != nil {
		return nil, err
	}

	dest, err := pickDestinationTag(destinations, sources)
	if err != nil {
		return nil, err
	}

	txType, err := GetTxType(source, dest)
	if err != nil {
		return nil, err
	}

	return &AssetTypes{Source: source, Destination: dest, Type: txType}, nil
}

// pickSourceTag collapses a validated 1- or 2-element source set into the
// single "converting from" tag: for the {XHV,XUSD} onshore pair the source
// of the conversion is XUSD (XHV is the collateral leg).
func pickSourceTag(sources map[asset.Tag]struct{}) (asset.Tag, error) {
	if len(sources) == 0 {
		return "", elaerr.New(elaerr.KindSemantic, elaerr.ErrConflictingAssetSets, "transaction carries no input asset tag")
	}
	if len(sources) == 1 {
		for t := range sources {
			return t, nil
		}
	}
	return asset.XUSD, nil
}

// pickDestinationTag resolves the destination tag from the (size 1 or 2)
// destination set against the already-resolved source set: with size 1 it
// must equal source; with size 2 one element is the unchanged source
// (change) and the other is the real destination.
func pickDestinationTag(destinations map[asset.Tag]struct{}, sources map[asset.Tag]struct{}) (asset.Tag, error) {
	tags := sortedTags(destinations)
	source, err := pickSourceTag(sources)
	if err != nil {
		return "", err
	}
	if len(tags) == 1 {
		if tags[0] != source {
			return "", elaerr.New(elaerr.KindSemantic, elaerr.ErrConversionWithoutChange,
				"single-element destination set must equal the source asset")
		}
		return tags[0], nil
	}

	if _, ok := destinations[source]; !ok {
		return "", elaerr.New(elaerr.KindSemantic, elaerr.ErrConversionWithoutChange,
			"two-element destination set must include the source asset as change")
	}
	for t := range destinations {
		if t != source {
			return t, nil
		}
	}
	// len==2 with both equal to source cannot happen since map keys are unique.
	return source, nil
}

// GetTxType maps a resolved (source, destination) asset pair to a
// transaction type (spec.md §4.2).
func GetTxType(source, destination asset.Tag) (TxType, error) {
	switch {
	case source == destination && source == asset.XHV:
		return TxTypeTransfer, nil
	case source == destination && source == asset.XUSD:
		return TxTypeOffshoreTransfer, nil
	case source == destination && source.IsXAsset():
		return TxTypeXAssetTransfer, nil
	case source == asset.XHV && destination == asset.XUSD:
		return TxTypeOffshore, nil
	case source == asset.XUSD && destination == asset.XHV:
		return TxTypeOnshore, nil
	case source == asset.XUSD && destination.IsXAsset():
		return TxTypeXUSDToXAsset, nil
	case source.IsXAsset() && destination == asset.XUSD:
		return TxTypeXAssetToXUSD, nil
	default:
		return TxTypeUnknown, elaerr.Newf(elaerr.KindSemantic, elaerr.ErrConflictingAssetSets,
			"no transaction type for source %q destination %q", source, destination)
	}
}
