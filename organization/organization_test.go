//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

package organization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider() *StaticProvider {
	return NewStaticProvider([]Config{
		{ID: 1, Name: "alpha", GraphEnabled: true},
		{ID: 2, Name: "beta", GraphEnabled: false},
		{ID: 3, Name: "gamma", GraphEnabled: true},
	})
}

func TestStaticProviderGet(t *testing.T) {
	p := testProvider()

	c, err := p.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "beta", c.Name)
	assert.False(t, c.GraphEnabled)

	_, err = p.Get(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStaticProviderAll(t *testing.T) {
	all, err := testProvider().All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].ID)
}

func TestGateSubset(t *testing.T) {
	gate := NewGate(testProvider())

	enabled, err := gate.GraphEnabledOrgs(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, enabled)

	enabled, err = gate.GraphEnabledOrgs(context.Background(), []int64{2})
	require.NoError(t, err)
	assert.Empty(t, enabled)
}

func TestGateAllOrganizations(t *testing.T) {
	gate := NewGate(testProvider())

	// Nil means every organization visible to the caller.
	enabled, err := gate.GraphEnabledOrgs(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, enabled)
}

func TestGateUnknownOrg(t *testing.T) {
	gate := NewGate(testProvider())

	_, err := gate.GraphEnabledOrgs(context.Background(), []int64{1, 99})
	require.ErrorIs(t, err, ErrNotFound)
}
