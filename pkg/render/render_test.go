package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civibridge/order-bridge/internal/domain/order"
	"github.com/civibridge/order-bridge/internal/processor"
)

func TestRenderDefaultTemplate(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)

	html, err := r.Render(processor.ThankYou{
		FormName: "Annual Gala",
		Order: &order.Order{
			ID: 501,
			LineItems: []order.LineItem{{Label: "General Donation"}},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, html, "#501")
	assert.Contains(t, html, "General Donation")
}

func TestRenderDefaultTemplateWithoutOrder(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)

	html, err := r.Render(processor.ThankYou{FormName: "Annual Gala"})
	require.NoError(t, err)
	assert.Contains(t, html, "Annual Gala")
}

func TestRenderCustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.html.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`<p>Thanks, {{ .FormName }}!</p>`), 0o644))

	r, err := New(path)
	require.NoError(t, err)

	html, err := r.Render(processor.ThankYou{FormName: "Annual Gala"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Thanks, Annual Gala!</p>", html)
}

func TestNewMissingTemplate(t *testing.T) {
	_, err := New("/nonexistent/template.tmpl")
	require.Error(t, err)
}
