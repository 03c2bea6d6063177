package workspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/ccbrowser/models"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "login-flow", slugify("Login Flow"))
	assert.Equal(t, "a-b-c", slugify("a__b--c"))
	assert.Equal(t, "recording", slugify("###"))
}

func TestVault_SaveAndFind(t *testing.T) {
	v := NewVault(t.TempDir())

	older := &models.Recording{
		Name:       "checkout flow",
		RecordedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Steps:      []models.Step{{Type: models.StepNavigate, URL: "https://example.com"}},
	}
	newer := &models.Recording{
		Name:       "checkout flow v2",
		RecordedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Steps:      []models.Step{{Type: models.StepNavigate, URL: "https://example.com/v2"}},
	}

	_, err := v.Save(older)
	require.NoError(t, err)
	_, err = v.Save(newer)
	require.NoError(t, err)

	found, err := v.Find("checkout")
	require.NoError(t, err)
	assert.Equal(t, "checkout flow v2", found.Name)
}

func TestVault_Find_NoMatch(t *testing.T) {
	v := NewVault(t.TempDir())
	_, err := v.Find("nothing-here")
	require.Error(t, err)
}

func TestVault_Find_MissingRoot(t *testing.T) {
	v := NewVault("/nonexistent/path/for/ccbrowser-test")
	_, err := v.Find("anything")
	require.Error(t, err)
}
