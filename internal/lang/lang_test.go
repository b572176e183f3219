package lang

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		accept string
		want   Code
	}{
		{"query wins", "?lang=en", "kk-KZ", English},
		{"query alias", "?lang=KK", "", Kazakh},
		{"bad query falls through", "?lang=de", "en-US,en;q=0.9", English},
		{"accept weights", "", "de;q=1.0, kk;q=0.8, ru;q=0.5", Kazakh},
		{"accept with region", "", "ru-RU,ru;q=0.9,en-US;q=0.8", Russian},
		{"default", "", "fr-FR", Russian},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/catalog/courses"+tt.query, nil)
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			assert.Equal(t, tt.want, FromRequest(r, Russian))
		})
	}
}

func TestPick(t *testing.T) {
	assert.Equal(t, "Курс", Pick(Kazakh, "Курс", "", "Course"))
	assert.Equal(t, "Course", Pick(English, "Курс", "Курс kz", "Course"))
	assert.Equal(t, "Курс kz", Pick(Kazakh, "Курс", "Курс kz", "Course"))
}
