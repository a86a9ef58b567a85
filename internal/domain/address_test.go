package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestNormalizeAddress_Scenarios(t *testing.T) {
	cases := []struct {
		name string
		raw  *string
		want *string
	}{
		{"plain", ptr("5812 SW Spokane St"), ptr("5812 SW SPOKANE ST")},
		{"dotted compound directional", ptr("5812 S.W. Spokane Street"), ptr("5812 SW SPOKANE ST")},
		{"spelled out compound directional", ptr("5812 South West Spokane St."), ptr("5812 SW SPOKANE ST")},
		{"city state zip tail", ptr("5812 sw spokane street, seattle, wa 98106"), ptr("5812 SW SPOKANE ST")},
		{"ordinal word", ptr("4th Ave SW"), ptr("4TH AVE SW")},
		{"unit with hash", ptr("123 NE 45th Street #201"), ptr("123 NE 45TH ST")},
		{"apt unit", ptr("456 S. Main Ave, Apt 3B, Seattle, WA 98136"), ptr("456 S MAIN AVE")},
		{"spelled ordinal first", ptr("789 First Avenue S"), ptr("789 1ST AVE S")},
		{"spelled compound directional with ordinal", ptr("100 North West 3rd Place"), ptr("100 NW 3RD PL")},
		{"newline before city zip", ptr("222 N.W. Market Street\nSeattle WA 98107"), ptr("222 NW MARKET ST")},
		{"empty string", ptr(""), nil},
		{"nil input", nil, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeAddress(tc.raw)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func TestNormalizeAddress_Idempotent(t *testing.T) {
	inputs := []string{
		"5812 South West Spokane Street, Seattle, WA 98106",
		"123 NE 45th Street #201",
		"789 First Avenue S",
	}
	for _, raw := range inputs {
		first := NormalizeAddress(&raw)
		require.NotNil(t, first)
		second := NormalizeAddress(first)
		require.NotNil(t, second)
		assert.Equal(t, *first, *second)
	}
}
