package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/prospect-cli/internal/model"
)

func TestIdentityEmailWins(t *testing.T) {
	t.Parallel()

	lead := model.Lead{
		Email:      "J.Smith@Acme.com",
		ProfileURL: "https://linkedin.com/in/jane-smith",
	}
	assert.Equal(t, "email:j.smith@acme.com", Identity(lead))
}

func TestIdentityURLTier(t *testing.T) {
	t.Parallel()

	a := model.Lead{ProfileURL: "https://www.linkedin.com/in/jane-smith/"}
	b := model.Lead{ProfileURL: "http://linkedin.com/in/Jane-Smith?utm=x#top"}
	assert.Equal(t, "url:linkedin.com/in/jane-smith", Identity(a))
	assert.Equal(t, Identity(a), Identity(b))
}

func TestIdentityNameTier(t *testing.T) {
	t.Parallel()

	a := model.Lead{FirstName: "Jānis", LastName: "Bērziņš", CompanyName: "Acme, Inc."}
	b := model.Lead{FirstName: "Janis", LastName: "Berzins", CompanyName: "Acme Inc"}
	c := model.Lead{FirstName: "Janis", LastName: "Berzins", CompanyName: "Widgets GmbH"}

	assert.Equal(t, Identity(a), Identity(b))
	assert.NotEqual(t, Identity(a), Identity(c))
	assert.Len(t, Identity(a), len("name:")+16)
}

func TestNormalizeProfileURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://www.linkedin.com/in/jane-smith/", "linkedin.com/in/jane-smith"},
		{"http://linkedin.com/in/jane-smith", "linkedin.com/in/jane-smith"},
		{"LinkedIn.com/in/Jane-Smith?trk=feed", "linkedin.com/in/jane-smith"},
		{"https://linkedin.com/in/jane#about", "linkedin.com/in/jane"},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeProfileURL(tt.in))
		})
	}
}

func TestNormCompanySuffixes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Acme, Inc.", "acme"},
		{"Acme Inc", "acme"},
		{"Widgets GmbH", "widgets"},
		{"Nord AS", "nord"},
		{"Atlas", "atlas"},
		{"Cisco", "cisco"},
		{"Exemplo Lda", "exemplo"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normCompany(tt.in))
		})
	}
}
