// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package shuffle derives permutations and samples from a random seed.
// The same seed always yields the same result.
package shuffle

// Shuffle cryptographic hash based Fisher–Yates shuffle algorithm.
// The perm is to receive shuffled permutation of [0, len(perm)).
func Shuffle(seed []byte, perm []int) {
	for i := range perm {
		perm[i] = i
	}
	size := len(perm)
	if size < 2 {
		return
	}
	hr := newHrand(seed)
	for i := 0; i < size-1; i++ {
		j := hr.Intn(size-i) + i
		perm[i], perm[j] = perm[j], perm[i]
	}
}

// Permutation returns a shuffled permutation of [0, n).
func Permutation(seed []byte, n int) []int {
	perm := make([]int, n)
	Shuffle(seed, perm)
	return perm
}

// Sample picks k distinct indices out of [0, n) with a partial Fisher–Yates shuffle.
// It panics if k > n.
func Sample(seed []byte, n, k int) []int {
	if k > n {
		panic("k must <= n")
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	hr := newHrand(seed)
	for i := 0; i < k && i < n-1; i++ {
		j := hr.Intn(n-i) + i
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:k]
}
