package scheduler_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmatic/actionsched/pkg/scheduler"
)

func TestCanonicalizeArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "sorts object keys",
			in:   `{"b":2,"a":1}`,
			want: `{"a":1,"b":2}`,
		},
		{
			name: "sorts nested objects recursively",
			in:   `{"z":{"y":2,"x":1},"a":[{"c":3,"b":2}]}`,
			want: `{"a":[{"b":2,"c":3}],"z":{"x":1,"y":2}}`,
		},
		{
			name: "keeps array element order",
			in:   `[3,1,2]`,
			want: `[3,1,2]`,
		},
		{
			name: "passes scalars through",
			in:   `"hello"`,
			want: `"hello"`,
		},
		{
			name: "passes numbers through verbatim",
			in:   `{"n":10000000000,"f":1.5}`,
			want: `{"f":1.5,"n":10000000000}`,
		},
		{
			name: "null stays null",
			in:   `null`,
			want: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := scheduler.CanonicalizeArgs(json.RawMessage(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestCanonicalizeArgsIdempotent(t *testing.T) {
	t.Parallel()

	in := json.RawMessage(`{"to":"a@x.com","meta":{"retries":3,"origin":"test"},"tags":["b","a"]}`)

	once, err := scheduler.CanonicalizeArgs(in)
	require.NoError(t, err)

	twice, err := scheduler.CanonicalizeArgs(once)
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
}

func TestCanonicalizeArgsOrderInsensitive(t *testing.T) {
	t.Parallel()

	a, err := scheduler.CanonicalizeArgs(json.RawMessage(`{"to":"a@x.com","subject":"hi","cc":null}`))
	require.NoError(t, err)

	b, err := scheduler.CanonicalizeArgs(json.RawMessage(`{"cc":null,"subject":"hi","to":"a@x.com"}`))
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
}

func TestCanonicalizeArgsInvalid(t *testing.T) {
	t.Parallel()

	_, err := scheduler.CanonicalizeArgs(json.RawMessage(`{"a":`))
	assert.ErrorIs(t, err, scheduler.ErrInvalidArgs)

	_, err = scheduler.CanonicalizeArgs(json.RawMessage(`{"a":1}trailing`))
	assert.ErrorIs(t, err, scheduler.ErrInvalidArgs)
}

func TestCanonicalizeArgsEmpty(t *testing.T) {
	t.Parallel()

	got, err := scheduler.CanonicalizeArgs(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}
