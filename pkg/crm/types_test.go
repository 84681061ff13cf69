package crm

import (
	"testing"

	"github.com/platinummonkey/selfservice/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestArticleIsNone(t *testing.T) {
	assert.True(t, ArticleNone.IsNone())
	assert.True(t, Article{ServiceID: 3}.IsNone())
	assert.False(t, Article{LmngIdentifier: "lmng-1"}.IsNone())
}

func TestArticleCrmArticle(t *testing.T) {
	article := Article{
		LmngIdentifier: "lmng-1",
		AppleAppStore:  &Medium{URL: "https://apps.example.org/app"},
	}
	assert.Equal(t, &domain.CrmArticle{GUID: "lmng-1", AppleAppStoreURL: "https://apps.example.org/app"}, article.CrmArticle())
}

func TestNewLicenseKey(t *testing.T) {
	assert.Equal(t, NewLicenseKey(1, "RUG"), NewLicenseKey(1, "rug"))
	assert.NotEqual(t, NewLicenseKey(1, "RUG"), NewLicenseKey(2, "RUG"))
}
