package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

var vitalik = common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")

func TestEnsCache_NameOverwritesNil(t *testing.T) {
	c := NewEnsCache()
	c.Insert(vitalik, nil)
	c.Insert(vitalik, strPtr("vitalik.eth"))

	name, ok := c.Get(vitalik)
	require.True(t, ok)
	require.NotNil(t, name)
	assert.Equal(t, "vitalik.eth", *name)
}

func TestEnsCache_NilNeverOverwritesName(t *testing.T) {
	c := NewEnsCache()
	c.Insert(vitalik, strPtr("vitalik.eth"))
	c.Insert(vitalik, nil)

	assert.Equal(t, "vitalik.eth", c.Name(vitalik))
}

func TestEnsCache_NilFillsGap(t *testing.T) {
	c := NewEnsCache()
	c.Insert(vitalik, nil)

	name, ok := c.Get(vitalik)
	assert.True(t, ok)
	assert.Nil(t, name)
	assert.Equal(t, "", c.Name(vitalik))
	assert.Empty(t, c.Missing([]common.Address{vitalik}))
}

func TestEnsCache_EmptyNameIsNil(t *testing.T) {
	c := NewEnsCache()
	c.Insert(vitalik, strPtr("vitalik.eth"))
	c.Insert(vitalik, strPtr(""))
	assert.Equal(t, "vitalik.eth", c.Name(vitalik))
}

func TestEnsCache_InsertCopiesName(t *testing.T) {
	c := NewEnsCache()
	name := "a.eth"
	c.Insert(vitalik, &name)
	name = "b.eth"
	assert.Equal(t, "a.eth", c.Name(vitalik))
}

func TestEnsCache_MissingNamesClear(t *testing.T) {
	other := common.HexToAddress("0x0000000000000000000000000000000000000001")
	c := NewEnsCache()
	c.Insert(vitalik, strPtr("vitalik.eth"))
	c.Insert(other, strPtr("a.eth"))

	assert.Equal(t, []string{"a.eth", "vitalik.eth"}, c.Names())
	missing := common.HexToAddress("0x0000000000000000000000000000000000000002")
	assert.Equal(t, []common.Address{missing}, c.Missing([]common.Address{vitalik, missing}))

	clone := c.Clone()
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 2, clone.Len())
}
