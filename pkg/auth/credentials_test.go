// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osbuild/image-builder-mcp/pkg/errors"
)

// envFromMap builds a getenv func backed by a map, so tests never touch the
// real environment.
func envFromMap(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

func TestResolverPrecedence(t *testing.T) {
	t.Parallel()

	fullEnv := map[string]string{
		ClientIDEnv:     "env-id",
		ClientSecretEnv: "env-secret",
	}

	tests := []struct {
		name string
		call CallCredentials
		env  map[string]string
		want *Credentials
	}{
		{
			name: "bearer token wins over everything",
			call: CallCredentials{
				BearerToken:  "call-bearer",
				ClientID:     "header-id",
				ClientSecret: "header-secret",
			},
			env:  fullEnv,
			want: &Credentials{BearerToken: "call-bearer"},
		},
		{
			name: "header pair wins over environment pair",
			call: CallCredentials{
				ClientID:     "header-id",
				ClientSecret: "header-secret",
			},
			env:  fullEnv,
			want: &Credentials{ClientID: "header-id", ClientSecret: "header-secret"},
		},
		{
			name: "pair members resolve independently",
			call: CallCredentials{ClientID: "header-id"},
			env:  fullEnv,
			want: &Credentials{ClientID: "header-id", ClientSecret: "env-secret"},
		},
		{
			name: "environment pair used when call carries nothing",
			call: CallCredentials{},
			env:  fullEnv,
			want: &Credentials{ClientID: "env-id", ClientSecret: "env-secret"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resolver := NewResolverWithEnv(envFromMap(tt.env))

			got, err := resolver.Resolve(tt.call)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolverMissingCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		call        CallCredentials
		env         map[string]string
		wantMissing string
	}{
		{
			name:        "nothing anywhere",
			call:        CallCredentials{},
			env:         nil,
			wantMissing: "client_id",
		},
		{
			name:        "id without secret",
			call:        CallCredentials{ClientID: "header-id"},
			env:         nil,
			wantMissing: "client_secret",
		},
		{
			name:        "secret without id",
			call:        CallCredentials{ClientSecret: "header-secret"},
			env:         nil,
			wantMissing: "client_id",
		},
		{
			name:        "env id without secret",
			call:        CallCredentials{},
			env:         map[string]string{ClientIDEnv: "env-id"},
			wantMissing: "client_secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resolver := NewResolverWithEnv(envFromMap(tt.env))

			got, err := resolver.Resolve(tt.call)

			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.IsMissingCredentials(err), "expected a missing credentials error, got %v", err)

			typed, ok := errors.AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantMissing, typed.Detail["missing"])
			assert.Contains(t, typed.Message, tt.wantMissing)
		})
	}
}

func TestResolverIsPure(t *testing.T) {
	t.Parallel()

	// Resolving twice with identical inputs must give identical results and
	// touch nothing outside the inputs.
	lookups := 0
	resolver := NewResolverWithEnv(func(key string) string {
		lookups++
		return map[string]string{ClientIDEnv: "env-id", ClientSecretEnv: "env-secret"}[key]
	})

	first, err := resolver.Resolve(CallCredentials{})
	require.NoError(t, err)
	second, err := resolver.Resolve(CallCredentials{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 4, lookups, "each resolution reads exactly the two fallback variables")
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := &Credentials{ClientID: "id-a", ClientSecret: "secret-a"}
	sameAsA := &Credentials{ClientID: "id-a", ClientSecret: "secret-a"}
	b := &Credentials{ClientID: "id-b", ClientSecret: "secret-a"}

	assert.Equal(t, a.Fingerprint(), sameAsA.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	// The fingerprint must not leak the raw material.
	assert.NotContains(t, a.Fingerprint(), "id-a")
	assert.NotContains(t, a.Fingerprint(), "secret-a")
	assert.Len(t, a.Fingerprint(), 64)
}

func TestFingerprintSeparatorPreventsCollisions(t *testing.T) {
	t.Parallel()

	// "ab"+"c" and "a"+"bc" must not hash identically.
	first := &Credentials{ClientID: "ab", ClientSecret: "c"}
	second := &Credentials{ClientID: "a", ClientSecret: "bc"}

	assert.NotEqual(t, first.Fingerprint(), second.Fingerprint())
}

func TestCredentialsRedaction(t *testing.T) {
	t.Parallel()

	t.Run("String redacts secret material", func(t *testing.T) {
		t.Parallel()
		pair := &Credentials{ClientID: "my-id", ClientSecret: "my-secret"}
		assert.Contains(t, pair.String(), "my-id")
		assert.NotContains(t, pair.String(), "my-secret")

		bearer := &Credentials{BearerToken: "my-token"}
		assert.NotContains(t, bearer.String(), "my-token")
	})

	t.Run("MarshalJSON redacts secret material", func(t *testing.T) {
		t.Parallel()
		out, err := json.Marshal(&Credentials{ClientID: "my-id", ClientSecret: "my-secret"})
		require.NoError(t, err)
		assert.Contains(t, string(out), "my-id")
		assert.NotContains(t, string(out), "my-secret")
		assert.Contains(t, string(out), "[REDACTED]")
	})

	t.Run("CallCredentials String redacts secret material", func(t *testing.T) {
		t.Parallel()
		call := &CallCredentials{BearerToken: "call-bearer", ClientID: "my-id", ClientSecret: "call-secret"}
		s := call.String()
		assert.Contains(t, s, "my-id")
		assert.NotContains(t, s, "call-bearer")
		assert.NotContains(t, s, "call-secret")
		assert.Contains(t, s, "[REDACTED]")
	})
}
