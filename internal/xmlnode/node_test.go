package xmlnode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE Root>
<Root Version="2">
  <List>
    <Item Kind="a">first</Item>
    <Item Kind="b">second &amp; more</Item>
  </List>
  <Single><Item Kind="c">only</Item></Single>
  <Title>Effects of <i>in vitro</i> growth</Title>
</Root>`

func TestParse_TreeShape(t *testing.T) {
	root, err := ParseBytes([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "Root", root.Name)
	assert.Equal(t, "2", root.Attr("Version"))
	assert.Equal(t, "", root.Attr("Missing"))
	assert.True(t, root.IsElement())
}

func TestText_MissingPathsAreEmpty(t *testing.T) {
	root, err := ParseBytes([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "first", root.Text("List", "Item"))
	assert.Equal(t, "", root.Text("List", "Nope"))
	assert.Equal(t, "", root.Text("Nope", "Deeper", "Still"))

	var nilNode *Node
	assert.Equal(t, "", nilNode.Text("Anything"))
	assert.Nil(t, nilNode.Find("Anything"))
	assert.Empty(t, nilNode.All("Anything"))
}

func TestText_IncludesInlineMarkup(t *testing.T) {
	root, err := ParseBytes([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "Effects of in vitro growth", root.Text("Title"))
	assert.Equal(t, "second & more", root.All("List", "Item")[1].Text())
}

func TestAll_SingleAndManyAreBothSlices(t *testing.T) {
	root, err := ParseBytes([]byte(sampleDoc))
	require.NoError(t, err)

	many := root.All("List", "Item")
	require.Len(t, many, 2)
	assert.Equal(t, "a", many[0].Attr("Kind"))
	assert.Equal(t, "b", many[1].Attr("Kind"))

	one := root.All("Single", "Item")
	require.Len(t, one, 1)
	assert.Equal(t, "only", one[0].Text())

	assert.Empty(t, root.All("Missing", "Item"))
	assert.Len(t, root.All(), 1)
}

func TestParse_Malformed(t *testing.T) {
	tests := map[string]string{
		"unclosed": "<Root><Open></Root>",
		"empty":    "",
		"not xml":  "this is plain text",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_Latin1Declared(t *testing.T) {
	doc := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><Root><Name>M\xfcller</Name></Root>")
	root, err := ParseBytes(doc)
	require.NoError(t, err)
	assert.Equal(t, "Müller", root.Text("Name"))
}

func TestMarshal_RoundTrip(t *testing.T) {
	root, err := ParseBytes([]byte(sampleDoc))
	require.NoError(t, err)

	out, err := root.Marshal()
	require.NoError(t, err)

	again, err := ParseBytes(out)
	require.NoError(t, err)

	assert.Equal(t, root, again)
	assert.Equal(t, string(out), again.String())
}

func TestMarshal_RejectsCharData(t *testing.T) {
	_, err := (&Node{Data: "text"}).Marshal()
	assert.Error(t, err)

	var nilNode *Node
	assert.Equal(t, "", nilNode.String())
}
