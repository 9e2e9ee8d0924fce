package textclean

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanStripsHTML(t *testing.T) {
	out := Clean("<p>Great app<br>works well</p>")

	assert.NotContains(t, out, "<")
	assert.NotContains(t, out, ">")
	assert.Contains(t, out, "great app")
	assert.Contains(t, out, "works well")
}

func TestCleanRemovesScriptContent(t *testing.T) {
	out := Clean("<div>fine<script>alert('x')</script></div>")

	assert.NotContains(t, out, "alert")
	assert.Contains(t, out, "fine")
}

func TestCleanTransliteratesUnicode(t *testing.T) {
	assert.Equal(t, "cafe resume", Clean("Café Résumé"))
}

func TestCleanLowercases(t *testing.T) {
	assert.Equal(t, "loved it!", Clean("LOVED IT!"))
}

func TestCleanNormalizesWhitespace(t *testing.T) {
	assert.Equal(t, "too many ads", Clean("  too   many\n\tads  "))
}

func TestCleanDropsSpecialCharacters(t *testing.T) {
	out := Clean("5/5 stars @dev #awesome $$$")

	assert.NotContains(t, out, "@")
	assert.NotContains(t, out, "#")
	assert.NotContains(t, out, "$")
	assert.Contains(t, out, "stars")
}

func TestCleanKeepsBasicPunctuation(t *testing.T) {
	assert.Equal(t, "really? yes, really!", Clean("Really? Yes, really!"))
}

func TestCleanEmptyInput(t *testing.T) {
	assert.Equal(t, "", Clean(""))
	assert.Equal(t, "", Clean("   \n\t  "))
}
