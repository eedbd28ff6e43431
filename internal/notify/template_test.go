package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/registration/internal/domain"
)

func TestRender(t *testing.T) {
	reg := testRegistration()
	reg.Skills = "Go & <SQL>"

	body, err := Render(reg)
	require.NoError(t, err)

	assert.Contains(t, body, "<b>Name:</b> Asha")
	assert.Contains(t, body, "<b>Team Size:</b> 2")
	assert.Contains(t, body, "<b>Experience:</b> "+domain.NotSpecified)
	assert.Contains(t, body, "<b>Motivation:</b> "+domain.NotSpecified)
	assert.Contains(t, body, "Go &amp; &lt;SQL&gt;")
	assert.Contains(t, body, "Database ID: "+reg.ID)
}

func TestRenderRequiresID(t *testing.T) {
	reg := testRegistration()
	reg.ID = ""
	_, err := Render(reg)
	assert.Error(t, err)
}
