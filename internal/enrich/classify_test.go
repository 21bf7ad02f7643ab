package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/enrich-cli/internal/model"
)

func TestClassify_WebsiteMeansEnriched(t *testing.T) {
	assert.Equal(t, model.StatusEnriched, Classify("https://acme.com", nil, "", "", ""))
}

func TestClassify_SocialAloneMeansEnriched(t *testing.T) {
	socials := model.Socials{model.PlatformLinkedIn: "https://linkedin.com/company/acme"}
	assert.Equal(t, model.StatusEnriched, Classify("", socials, "", "", ""))
}

func TestClassify_EmailMeansPartial(t *testing.T) {
	assert.Equal(t, model.StatusPartiallyEnriched, Classify("", nil, "info@acme.com", "", ""))
}

func TestClassify_DescriptionMeansPartial(t *testing.T) {
	assert.Equal(t, model.StatusPartiallyEnriched, Classify("", nil, "", "Acme builds things", ""))
}

func TestClassify_SentinelDescriptionDoesNotCount(t *testing.T) {
	assert.Equal(t, model.StatusIncomplete, Classify("", nil, "", "not available", ""))
}

func TestClassify_IndustryMeansPartial(t *testing.T) {
	assert.Equal(t, model.StatusPartiallyEnriched, Classify("", nil, "", "", "construction"))
}

func TestClassify_NothingMeansIncomplete(t *testing.T) {
	assert.Equal(t, model.StatusIncomplete, Classify("", model.Socials{}, "", "", ""))
}

func TestClassify_EmptySocialValuesIgnored(t *testing.T) {
	socials := model.Socials{model.PlatformFacebook: ""}
	assert.Equal(t, model.StatusIncomplete, Classify("", socials, "", "", ""))
}
