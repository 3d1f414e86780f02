package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidTenantID(t *testing.T) {
	testCases := []struct {
		id   string
		want bool
	}{
		{"acme", true},
		{"acme-corp", true},
		{"a1", true},
		{"0f4e3da2-57b5-4f3b-9d2b-64c9a62e1c11", true},
		{"", false},
		{"-leading", false},
		{"trailing-", false},
		{"UPPER", false},
		{"has space", false},
		{"slash/evil", false},
	}

	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			assert.Equal(t, tc.want, validTenantID(tc.id))
		})
	}
}

func TestFromSubdomain(t *testing.T) {
	e := NewExtractor(ExtractorConfig{BaseDomain: "example.com"})

	testCases := []struct {
		host string
		want string
		ok   bool
	}{
		{"acme.example.com", "acme", true},
		{"acme.example.com:8443", "acme", true},
		{"example.com", "", false},
		{"a.b.example.com", "", false},
		{"acme.other.com", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.host, func(t *testing.T) {
			c, ok := e.fromSubdomain(&Request{Host: tc.host})
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, c.tenantID)
				assert.Equal(t, SourceSubdomain, c.source)
			}
		})
	}
}

func TestExtractOrdersByPriority(t *testing.T) {
	e := NewExtractor(ExtractorConfig{BaseDomain: "example.com"})

	req := newRequest("/api", "acme.example.com", map[string]string{
		"X-Tenant-ID":        "acme",
		"X-Container-Tenant": "acme",
	})

	candidates := e.extract(req)
	require.Len(t, candidates, 3)
	assert.Equal(t, SourceGatewayHeader, candidates[0].source)
	assert.Equal(t, SourceContainerContext, candidates[1].source)
	assert.Equal(t, SourceSubdomain, candidates[2].source)
}

func TestExtractIgnoresMalformedHeader(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})

	req := newRequest("/api", "api.internal", map[string]string{
		"X-Tenant-ID": "Not A Tenant!",
	})

	assert.Empty(t, e.extract(req))
}
