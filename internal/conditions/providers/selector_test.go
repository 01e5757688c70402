package providers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestQuerySelector(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`
		<div id="a" class="card">
			<span class="v">outer</span>
			<div class="inner"><span class="v">inner</span></div>
		</div>
		<div class="card hot"><span data-x="1">attr</span></div>`))
	require.NoError(t, err)

	tests := map[string]string{
		"span.v":           "outer",
		".inner .v":        "inner",
		"#a .inner span":   "inner",
		"div.hot span":     "attr",
		"span[data-x]":     "attr",
		"span[data-x='1']": "attr",
		"div#a span.v":     "outer",
	}
	for sel, want := range tests {
		n := querySelector(doc, sel)
		require.NotNil(t, n, sel)
		assert.Equal(t, want, strings.TrimSpace(nodeText(n)), sel)
	}

	assert.Nil(t, querySelector(doc, "span[data-x=2]"))
	assert.Nil(t, querySelector(doc, "#missing span"))
	assert.Nil(t, querySelector(doc, "   "))
}
