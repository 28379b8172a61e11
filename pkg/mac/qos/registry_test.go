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

package qos

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logutil "github.com/KourosZanbouri/LyapunovScheduler/pkg/common/util/logging"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(logutil.NewTestLogger())
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	registry := newTestRegistry(t)

	require.NoError(t, registry.Register(ContextLowLatency))
	require.NoError(t, registry.Register(ContextBestEffort))
	assert.Equal(t, 2, registry.Len())

	got, ok := registry.ContextByQFI(ContextLowLatency.QFI)
	require.True(t, ok)
	if diff := cmp.Diff(ContextLowLatency, got); diff != "" {
		t.Errorf("unexpected context (-want +got):\n%s", diff)
	}

	_, ok = registry.ContextByQFI(77)
	assert.False(t, ok)
}

func TestRegistryRejectsInvalidQFI(t *testing.T) {
	registry := newTestRegistry(t)

	err := registry.Register(Context{QFI: types.QFINone})
	require.ErrorIs(t, err, ErrInvalidQFI)
	assert.Equal(t, 0, registry.Len())
}

func TestRegistryBindConnection(t *testing.T) {
	registry := newTestRegistry(t)
	require.NoError(t, registry.Register(ContextConversationalVoice))

	cid := types.ConnectionID(101)

	t.Run("bind to unknown QFI fails", func(t *testing.T) {
		err := registry.BindConnection(cid, 42)
		require.ErrorIs(t, err, ErrContextNotFound)
		_, ok := registry.ContextForConnection(cid)
		assert.False(t, ok)
	})

	t.Run("bind and resolve", func(t *testing.T) {
		require.NoError(t, registry.BindConnection(cid, ContextConversationalVoice.QFI))
		assert.Equal(t, ContextConversationalVoice.QFI, registry.QFIForConnection(cid))

		got, ok := registry.ContextForConnection(cid)
		require.True(t, ok)
		assert.Equal(t, ContextConversationalVoice, got)
	})

	t.Run("unbind", func(t *testing.T) {
		registry.UnbindConnection(cid)
		assert.Equal(t, types.QFINone, registry.QFIForConnection(cid))
		_, ok := registry.ContextForConnection(cid)
		assert.False(t, ok)
	})
}

func TestRegistryHandsOutCopies(t *testing.T) {
	registry := newTestRegistry(t)
	require.NoError(t, registry.Register(ContextBestEffort))

	got, ok := registry.ContextByQFI(ContextBestEffort.QFI)
	require.True(t, ok)
	got.PriorityLevel = 1

	// The registered context must be unaffected by mutation of the returned copy.
	again, ok := registry.ContextByQFI(ContextBestEffort.QFI)
	require.True(t, ok)
	assert.Equal(t, ContextBestEffort.PriorityLevel, again.PriorityLevel)
}

func TestRegistryConcurrentReads(t *testing.T) {
	registry := newTestRegistry(t)
	require.NoError(t, registry.Register(ContextLowLatency))
	require.NoError(t, registry.Register(ContextBestEffort))
	for cid := types.ConnectionID(0); cid < 64; cid++ {
		qfi := ContextBestEffort.QFI
		if cid%2 == 0 {
			qfi = ContextLowLatency.QFI
		}
		require.NoError(t, registry.BindConnection(cid, qfi))
	}

	// Multiple scheduler instances query the registry within the same tick.
	var wg sync.WaitGroup
	for reader := 0; reader < 8; reader++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				cid := types.ConnectionID(i % 64)
				ctx, ok := registry.ContextForConnection(cid)
				if assert.True(t, ok) {
					assert.NotZero(t, ctx.QFI)
				}
			}
		}()
	}
	wg.Wait()
}
