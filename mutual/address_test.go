// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mutual

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	require.NoError(t, err)
	assert.Equal(t, "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", addr.String())

	same, err := ParseAddress("7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	require.NoError(t, err)
	assert.Equal(t, addr, same)

	_, err = ParseAddress("1x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.EqualError(t, err, "invalid prefix")
	_, err = ParseAddress("0x7567")
	assert.EqualError(t, err, "invalid length")
	_, err = ParseAddress("0xz567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.Error(t, err)
}

func TestAddressCompare(t *testing.T) {
	a := BytesToAddress([]byte{1})
	b := BytesToAddress([]byte{2})

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, Address{}.IsZero())
	assert.False(t, a.IsZero())
}

func TestBytes32JSON(t *testing.T) {
	b := Blake2b([]byte("claim"))
	data, err := b.MarshalJSON()
	require.NoError(t, err)

	var decoded Bytes32
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, b, decoded)
	assert.False(t, b.IsZero())
}
