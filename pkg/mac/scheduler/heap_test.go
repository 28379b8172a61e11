/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package scheduler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

func TestCandidateHeapDrainsInDescendingScoreOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	heap := newCandidateHeap(0)

	const n = 500
	for i := 0; i < n; i++ {
		heap.Push(scoredCandidate{cid: types.ConnectionID(i), score: rng.Float64() * 1e6})
	}
	require.Equal(t, n, heap.Len())

	previous := heap.Pop().score
	for heap.Len() > 0 {
		current := heap.Pop().score
		assert.LessOrEqual(t, current, previous)
		previous = current
	}
}

func TestCandidateHeapSingleElement(t *testing.T) {
	heap := newCandidateHeap(1)
	heap.Push(scoredCandidate{cid: 9, score: 1.5})

	got := heap.Pop()
	assert.Equal(t, types.ConnectionID(9), got.cid)
	assert.Equal(t, 1.5, got.score)
	assert.Zero(t, heap.Len())
}

func TestCandidateHeapExtremeScores(t *testing.T) {
	// Override-class scores (1e12 bonus) must still order correctly against
	// ordinary scores.
	heap := newCandidateHeap(3)
	heap.Push(scoredCandidate{cid: 1, score: 1e4})
	heap.Push(scoredCandidate{cid: 2, score: 1e16})
	heap.Push(scoredCandidate{cid: 3, score: 1e8})

	assert.Equal(t, types.ConnectionID(2), heap.Pop().cid)
	assert.Equal(t, types.ConnectionID(3), heap.Pop().cid)
	assert.Equal(t, types.ConnectionID(1), heap.Pop().cid)
}
