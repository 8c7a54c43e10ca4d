package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_IsAllowed(t *testing.T) {
	var testCases = []struct {
		description string
		policy      *Policy
		name        string
		expect      bool
	}{
		{description: "nil policy admits all", policy: nil, name: "web", expect: true},
		{description: "empty allow list admits all", policy: &Policy{}, name: "web", expect: true},
		{description: "allow list match", policy: &Policy{AllowList: []string{"web"}}, name: "web", expect: true},
		{description: "allow list miss", policy: &Policy{AllowList: []string{"web"}}, name: "api", expect: false},
		{description: "case insensitive", policy: &Policy{AllowList: []string{"Web"}}, name: "web", expect: true},
		{description: "wildcard", policy: &Policy{AllowList: []string{"ui-*"}}, name: "ui-kit", expect: true},
		{description: "block list wins", policy: &Policy{AllowList: []string{"web"}, BlockList: []string{"web"}}, name: "web", expect: false},
		{description: "block wildcard", policy: &Policy{BlockList: []string{"legacy-*"}}, name: "legacy-admin", expect: false},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, testCase.policy.IsAllowed(testCase.name), testCase.description)
	}
}

func TestFromConfig(t *testing.T) {
	assert.Nil(t, FromConfig(nil))
	assert.Nil(t, FromConfig(&Config{}))
	p := FromConfig(&Config{AllowList: []string{"web"}})
	assert.Equal(t, []string{"web"}, p.AllowList)
}

func TestContext(t *testing.T) {
	p := &Policy{BlockList: []string{"a"}}
	ctx := WithPolicy(context.Background(), p)
	assert.Equal(t, p, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
