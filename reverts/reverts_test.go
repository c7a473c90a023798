// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New("test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))
}

func Test_Kinds(t *testing.T) {
	err := Newf(ErrInsufficientStake, "got %d, want %d", 1, 2)
	assert.Equal(t, "insufficient stake: got 1, want 2", err.Error())
	assert.Equal(t, ErrInsufficientStake, err.Kind())

	assert.ErrorIs(t, err, ErrInsufficientStake)
	assert.NotErrorIs(t, err, ErrRegistryFull)

	wrapped := errors.Wrap(err, "stake")
	assert.ErrorIs(t, wrapped, ErrInsufficientStake)
	assert.True(t, IsRevertErr(wrapped))

	assert.ErrorIs(t, ErrDuplicateVote, ErrDuplicateVote)
	assert.NotErrorIs(t, ErrDuplicateVote, ErrClaimAlreadyFinalized)
}
