// Copyright (c) 2017-2020 The Elastos Foundation
// Use of this source code is governed by an MIT
// license that can be found in the LICENSE file.
//

// Package config holds the hard-fork height table and asset catalog this
// core's classify/, wire/, and txbuilder/ packages read from, mirroring the
// teacher's common/config.DefaultParams/Parameters singleton: a compiled-in
// default overridable by an optional YAML file.
package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/haven-protocol-org/haven-core/asset"
)

// HardForkHeights maps each named epoch (classify.HFPOU, classify.HFCollateral,
// ...) to the block height it activates at. Unlike classify's epoch
// *numbers* (which gate which rule applies once a height's epoch is known),
// this table is the height->epoch-number lookup a chain-state caller needs
// to translate "current height" into "current hf version" before calling
// into classify/ or txbuilder/.
type HardForkHeights struct {
	POU           uint64
	Collateral    uint64
	UseCollateral uint64
	PerOutputUnlock uint64
	XAssetFeesV2  uint64
	HavenTypes    uint64
	ViewTags      uint64
}

// Configuration is the full set of network parameters this core consults.
type Configuration struct {
	HardForks HardForkHeights
	Assets    []asset.Tag

	MaxOutsPerCoinbase int
	MaxTxPerBlock      int
}

// DefaultParams is the mainnet-equivalent parameter set, used until a
// caller loads an override file.
var DefaultParams = Configuration{
	HardForks: HardForkHeights{
		POU:             475324,
		Collateral:      524996,
		PerOutputUnlock: 568888,
		XAssetFeesV2:    568888,
		UseCollateral:   610464,
		HavenTypes:      649245,
		ViewTags:        649245,
	},
	Assets:             []asset.Tag{asset.XHV, asset.XUSD, "XBTC", "XJPY", "XEUR", "XGBP", "XAU", "XAG"},
	MaxOutsPerCoinbase: 15,
	MaxTxPerBlock:      0x10000000,
}

// Parameters is the active configuration; nil until Load or LoadDefault
// populates it, matching the teacher's package-level Parameters pointer
// that call sites dereference directly once the node has started up.
var Parameters *Configuration

// LoadDefault sets Parameters to a copy of DefaultParams.
func LoadDefault() *Configuration {
	p := DefaultParams
	Parameters = &p
	return Parameters
}

// Load reads an optional YAML override file at path over DefaultParams and
// sets Parameters to the result. A missing file is not an error: it falls
// back to compiled-in defaults, matching this core's "no long-running
// background tasks" posture (SPEC_FULL.md §6) — config is read once, at
// startup, by the caller, not watched.
func Load(path string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(path)

	cfg := DefaultParams
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound || os.IsNotExist(err) {
			Parameters = &cfg
			return Parameters, nil
		}
		return nil, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	Parameters = &cfg
	return Parameters, nil
}

// Catalog builds the asset.Catalog this configuration's asset list
// describes, for callers wiring classify/wire validation against a
// non-default asset set.
func (c *Configuration) Catalog() *asset.Catalog {
	return asset.NewCatalog(c.Assets)
}

// HFVersionAt returns the highest named hard-fork epoch number (mirroring
// classify's HFPOU..HFViewTags numbering) whose activation height is at or
// below height.
func (c *Configuration) HFVersionAt(height uint64) int {
	version := 1
	thresholds := []struct {
		height uint64
		hf     int
	}{
		{c.HardForks.POU, 3},
		{c.HardForks.Collateral, 4},
		{c.HardForks.PerOutputUnlock, 5},
		{c.HardForks.UseCollateral, 6},
		{c.HardForks.HavenTypes, 7},
	}
	for _, t := range thresholds {
		if height >= t.height {
			version = t.hf
		}
	}
	return version
}
