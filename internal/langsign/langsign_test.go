package langsign

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"app.properties", Default},
		{"app_de.properties", "de"},
		{"app_de_DE.properties", "de_DE"},
		{"weird_a_b_c.properties", "b_c"},
		{"/tmp/msgs/app_fr.properties", "fr"},
		{`C:\work\app_en_GB.properties`, "en_GB"},
		{"app", Default},
		{"app_xy", "xy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromFilename(tt.name))
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "app.properties", FileName("app", Default, ".properties"))
	assert.Equal(t, "app_de.properties", FileName("app", "de", ".properties"))
	assert.Equal(t, "app_de_DE.lang", FileName("app", "de_DE", ".lang"))
	assert.Equal(t, "app_en.properties", FileName("app", "en", ""))
}

func TestFileNameRoundTrip(t *testing.T) {
	for _, sign := range []string{Default, "de", "de_DE"} {
		assert.Equal(t, sign, FromFilename(FileName("greeting", sign, ".properties")))
	}
}

func TestOrder(t *testing.T) {
	got := Order([]string{"fr", "de", Default, "de", "de_AT"})
	assert.Equal(t, []string{Default, "de", "de_AT", "fr"}, got)

	assert.Empty(t, Order(nil))
}

func TestFromSetFile(t *testing.T) {
	tests := []struct {
		base, name string
		want       string
		ok         bool
	}{
		{"app", "app.properties", Default, true},
		{"app", "app_de.properties", "de", true},
		{"app", "app_de_DE.properties", "de_DE", true},
		{"my_app", "my_app.properties", Default, true},
		{"my_app", "my_app_fr.properties", "fr", true},
		{"weird", "weird_a_b_c.properties", "b_c", true},
		{"app", "application.properties", "", false},
		{"app", "app_.properties", "", false},
		{"app", "app_de.txt", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sign, ok := FromSetFile(tt.base, tt.name, ".properties")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, sign)
		})
	}
}
