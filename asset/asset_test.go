package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haven-protocol-org/haven-core/common"
)

func TestCatalogValidate(t *testing.T) {
	c := DefaultCatalog()
	assert.NoError(t, c.Validate(XHV))
	assert.NoError(t, c.Validate(XUSD))
	assert.NoError(t, c.Validate(Tag("XBTC")))
	assert.Error(t, c.Validate(Tag("NOTREAL")))
}

func TestTagIsXAsset(t *testing.T) {
	assert.False(t, XHV.IsXAsset())
	assert.False(t, XUSD.IsXAsset())
	assert.True(t, Tag("XBTC").IsXAsset())
}

func TestPricingRecordDirectionalRate(t *testing.T) {
	pr := &PricingRecord{Height: 100, SpotRate: 90, MovingAverageRate: 100}
	assert.Equal(t, uint64(90), pr.OffshoreRate())
	assert.Equal(t, uint64(100), pr.OnshoreRate())
}

func TestPricingRecordValidForHeight(t *testing.T) {
	pr := &PricingRecord{Height: 1000}
	assert.True(t, pr.ValidForHeight(1001, common.Hash{}))
	assert.True(t, pr.ValidForHeight(1000+PricingRecordValidBlocks, common.Hash{}))
	assert.False(t, pr.ValidForHeight(1000+PricingRecordValidBlocks+1, common.Hash{}))
	assert.False(t, pr.ValidForHeight(1000, common.Hash{}))
}

func TestPricingRecordHistoricalException(t *testing.T) {
	pr := &PricingRecord{Height: 1000}
	var exploitHash common.Hash
	exploitHash[0] = 0xAB
	SetHistoricalException(exploitHash)
	defer SetHistoricalException(common.Hash{})

	assert.False(t, pr.ValidForHeight(999999, common.Hash{}))
	assert.True(t, pr.ValidForHeight(999999, exploitHash))
}
