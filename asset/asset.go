// Package asset holds the closed catalog of recognized asset tags and the
// signed pricing-record snapshot that conversion economics are computed
// against. It generalizes the teacher's single fixed asset ID
// (config.ELAAssetID, checked inline wherever an output is validated) into
// a small ordered set of tags with membership validation.
package asset

import (
	elaerr "github.com/haven-protocol-org/haven-core/errors"
)

// Tag is a short ASCII asset symbol: XHV, XUSD, or an xAsset such as XBTC.
type Tag string

const (
	XHV  Tag = "XHV"
	XUSD Tag = "XUSD"
)

// Catalog is the closed, ordered set of recognized asset tags. Attempted
// use of any tag outside the catalog fails validation (spec §6).
type Catalog struct {
	order []Tag
	known map[Tag]struct{}
}

// DefaultCatalog is the mainnet-equivalent set: XHV, XUSD, plus the xAssets
// this core is aware of.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Tag{XHV, XUSD, "XBTC", "XJPY", "XEUR", "XGBP", "XAU", "XAG"})
}

func NewCatalog(tags []Tag) *Catalog {
	c := &Catalog{order: append([]Tag(nil), tags...), known: make(map[Tag]struct{}, len(tags))}
	for _, t := range tags {
		c.known[t] = struct{}{}
	}
	return c
}

func (c *Catalog) Contains(t Tag) bool {
	_, ok := c.known[t]
	return ok
}

func (c *Catalog) Validate(t Tag) error {
	if !c.Contains(t) {
		return elaerr.Newf(elaerr.KindSemantic, elaerr.ErrUnsupportedAsset, "unsupported asset tag %q", t)
	}
	return nil
}

// IsXAsset reports whether t is neither the native coin nor the stable
// quote asset — i.e. a pegged asset like XBTC or XJPY.
func (t Tag) IsXAsset() bool {
	return t != XHV && t != XUSD
}

// Tags returns the catalog in its defined order.
func (c *Catalog) Tags() []Tag {
	return append([]Tag(nil), c.order...)
}
