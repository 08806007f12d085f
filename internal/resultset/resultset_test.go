// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package resultset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/packetforge/lpmcore/internal/nexthop"
)

func TestZeroCapacityRejected(t *testing.T) {
	_, err := New(0)
	require.ErrorIs(t, err, ErrZeroCapacity)

	_, err = New(-1)
	require.ErrorIs(t, err, ErrZeroCapacity)
}

func TestAppendWithinCapacity(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)

	require.NoError(t, s.Append(nexthop.Match{Length: 8, NextHop: 1}))
	require.NoError(t, s.Append(nexthop.Match{Length: 24, NextHop: 2}))
	require.Equal(t, 2, s.Len())
	require.Equal(t, []nexthop.Match{{Length: 8, NextHop: 1}, {Length: 24, NextHop: 2}}, s.Matches())
}

func TestAppendBeyondCapacityFails(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)

	require.NoError(t, s.Append(nexthop.Match{Length: 8, NextHop: 1}))
	err = s.Append(nexthop.Match{Length: 24, NextHop: 2})
	require.ErrorIs(t, err, ErrCapacityExceeded)
	require.Equal(t, 1, s.Len(), "a rejected append must not mutate the set")
}

func TestResetReusesBackingArray(t *testing.T) {
	s, err := New(4)
	require.NoError(t, err)

	require.NoError(t, s.Append(nexthop.Match{Length: 8, NextHop: 1}))
	s.Reset()
	require.Equal(t, 0, s.Len())
	require.NoError(t, s.Append(nexthop.Match{Length: 16, NextHop: 2}))
	require.Equal(t, []nexthop.Match{{Length: 16, NextHop: 2}}, s.Matches())
}
