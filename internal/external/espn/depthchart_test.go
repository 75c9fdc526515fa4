package espn

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractPosition(t *testing.T) {
	html := `
		<div class="PlayerHeader__Team_Info">
			<ul>
				<li>Los Angeles Dodgers</li>
				<li>#50</li>
				<li>Right Fielder</li>
			</ul>
		</div>`
	assert.Equal(t, "RF", extractPosition(docFrom(t, html)))
}

func TestExtractPosition_Pitcher(t *testing.T) {
	html := `<ul class="PlayerHeader__Bio_List"><li>Starting Pitcher</li></ul>`
	assert.Equal(t, "P", extractPosition(docFrom(t, html)))
}

func TestExtractPosition_NoneListed(t *testing.T) {
	html := `<div class="PlayerHeader__Team_Info"><ul><li>New York Yankees</li></ul></div>`
	assert.Equal(t, "", extractPosition(docFrom(t, html)))
}
