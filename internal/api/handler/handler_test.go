package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/internal/web"
)

func TestTemplateNamesResolve(t *testing.T) {
	r, err := web.NewRenderer(nil)
	require.NoError(t, err)

	names := []string{
		tmplIndex, tmplGroup, tmplProfile, tmplPostDetail, tmplPostForm, tmplFollow,
		tmplSignup, tmplLogin, tmplLoggedOut, tmplPasswordChange, tmplPasswordDone,
		tmplAboutAuthor, tmplAboutTech, tmpl404, tmpl500,
	}
	for _, name := range names {
		assert.True(t, r.Has(name), name)
	}
	assert.False(t, r.Has("base.html"))
	assert.False(t, r.Has("includes/header.html"))
}
