package pagefunc

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<html>
<head>
	<title> Test page </title>
	<meta name="description" content="a page for tests">
</head>
<body>
	<h1>Main</h1>
	<h2> Sub </h2>
	<a href="/b">b</a>
	<a href="c.html">c</a>
	<a href="https://other.test/x">x</a>
	<a name="no-href">anchor</a>
</body>
</html>`

func loadDoc(t *testing.T, pageURL string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(testPage))
	require.NoError(t, err)
	doc.Url, err = url.Parse(pageURL)
	require.NoError(t, err)
	return doc
}

func TestLinksDocument(t *testing.T) {
	doc := loadDoc(t, "http://a.test/dir/index.html")

	got, err := Links.Document(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://a.test/b",
		"http://a.test/dir/c.html",
		"https://other.test/x",
	}, got)
}

func TestDefaultDocument(t *testing.T) {
	doc := loadDoc(t, "http://a.test/")

	got, err := Default.Document(doc, "START")
	require.NoError(t, err)

	result, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "START", result["label"])
	assert.Equal(t, "http://a.test/", result["url"])
	assert.Equal(t, "Test page", result["title"])
	assert.Equal(t, "a page for tests", result["description"])
	assert.Equal(t, []string{"Main", "Sub"}, result["headings"])
}

func TestFromScript(t *testing.T) {
	fn := FromScript("custom", "\n  (label) => label \n")
	assert.Equal(t, "custom", fn.Name)
	assert.Equal(t, "(label) => label", fn.Script)
	assert.Nil(t, fn.Document)
}
