package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/discovery"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/scrape"
)

func TestBuildUpdate_EmptyNeverOverwrites(t *testing.T) {
	existing := &model.Company{
		ID:      1,
		Name:    "Acme",
		Website: "https://a.example",
		Email:   "old@a.example",
	}

	u := BuildUpdate(existing, Finding{})
	assert.Nil(t, u.Website)
	assert.Nil(t, u.Email)
	assert.Nil(t, u.Description)
	require.NotNil(t, u.Status)
	// Existing website still counts as evidence.
	assert.Equal(t, model.StatusEnriched, *u.Status)
}

func TestBuildUpdate_NewValuesWin(t *testing.T) {
	existing := &model.Company{ID: 1, Name: "Acme"}
	u := BuildUpdate(existing, Finding{
		Website:     "https://acme.com",
		Description: "Acme builds things",
		Email:       "info@acme.com",
		Industry:    "construction",
	})

	require.NotNil(t, u.Website)
	assert.Equal(t, "https://acme.com", *u.Website)
	require.NotNil(t, u.Description)
	assert.Equal(t, "Acme builds things", *u.Description)
	require.NotNil(t, u.Email)
	require.NotNil(t, u.Industry)
	assert.Equal(t, model.StatusEnriched, *u.Status)
}

func TestBuildUpdate_SentinelDescriptionSkipped(t *testing.T) {
	existing := &model.Company{ID: 1, Name: "Acme", Description: "real description"}
	u := BuildUpdate(existing, Finding{Description: "not available"})
	assert.Nil(t, u.Description)
}

func TestBuildUpdate_PhoneOnlyFillsBlank(t *testing.T) {
	withPhone := &model.Company{ID: 1, Phone: "+1 902 555 0100"}
	u := BuildUpdate(withPhone, Finding{Phone: "+1 902 555 0199"})
	assert.Nil(t, u.Phone)

	withoutPhone := &model.Company{ID: 2}
	u = BuildUpdate(withoutPhone, Finding{Phone: "+1 902 555 0199"})
	require.NotNil(t, u.Phone)
}

func TestBuildUpdate_SocialUnionPrefersFewerSegments(t *testing.T) {
	existing := &model.Company{
		ID:      1,
		Socials: model.Socials{model.PlatformLinkedIn: "https://linkedin.com/company/acme/about/"},
	}
	u := BuildUpdate(existing, Finding{
		Socials: model.Socials{
			model.PlatformLinkedIn: "https://linkedin.com/company/acme",
			model.PlatformFacebook: "https://facebook.com/acme",
		},
	})

	require.NotNil(t, u.Socials)
	assert.Equal(t, "https://linkedin.com/company/acme", u.Socials[model.PlatformLinkedIn])
	assert.Equal(t, "https://facebook.com/acme", u.Socials[model.PlatformFacebook])
}

func TestBuildUpdate_UnchangedSocialsOmitted(t *testing.T) {
	existing := &model.Company{
		ID:      1,
		Socials: model.Socials{model.PlatformFacebook: "https://facebook.com/acme"},
	}
	u := BuildUpdate(existing, Finding{
		Socials: model.Socials{model.PlatformFacebook: "https://facebook.com/acme"},
	})
	assert.Nil(t, u.Socials)
}

func TestBuildFinding_FlattensOutcomeAndPage(t *testing.T) {
	out := &discovery.Outcome{
		Website: "https://acme.com",
		Socials: model.Socials{model.PlatformLinkedIn: "https://linkedin.com/company/acme"},
	}
	page := &scrape.PageData{
		Description: "Acme builds things",
		Phone:       "+1 902 555 0134",
		Emails:      []string{"info@acme.com", "sales@acme.com"},
		Socials:     model.Socials{model.PlatformFacebook: "https://facebook.com/acme"},
	}

	f := BuildFinding(out, page, "construction")
	assert.Equal(t, "https://acme.com", f.Website)
	assert.Equal(t, "info@acme.com", f.Email)
	assert.Equal(t, "+1 902 555 0134", f.Phone)
	assert.Equal(t, "construction", f.Industry)
	assert.Len(t, f.Socials, 2)
}

func TestBuildFinding_NilPage(t *testing.T) {
	f := BuildFinding(&discovery.Outcome{Website: "https://acme.com"}, nil, "")
	assert.Equal(t, "https://acme.com", f.Website)
	assert.Empty(t, f.Email)
}

func TestPathSegments(t *testing.T) {
	assert.Equal(t, 0, pathSegments("https://facebook.com"))
	assert.Equal(t, 1, pathSegments("https://facebook.com/acme"))
	assert.Equal(t, 3, pathSegments("https://linkedin.com/company/acme/about/"))
}
