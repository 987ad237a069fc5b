package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	manager, err := Load("en")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"en", "ru"}, manager.Languages())

	en := manager.Translator("en")
	ru := manager.Translator("ru")

	for _, key := range []string{"menu.choose", "menu.cart", "product.card", "cart.empty", "checkout.thanks", "errors.E300"} {
		assert.NotEqual(t, key, en.T(key), "en is missing %s", key)
		assert.NotEqual(t, key, ru.T(key), "ru is missing %s", key)
	}
}

func TestTranslator(t *testing.T) {
	fsys := fstest.MapFS{
		"loc/en.yaml":   {Data: []byte("en:\n  greet: \"Hello, {{.Name}}\"\n  only_en: \"fallback\"\n")},
		"loc/ru.yml":    {Data: []byte("ru:\n  greet: \"Привет, {{.Name}}\"\n")},
		"loc/notes.txt": {Data: []byte("ignored")},
	}

	manager, err := LoadFromFS(fsys, "loc", "en")
	require.NoError(t, err)

	tests := []struct {
		name     string
		lang     string
		key      string
		wantLang string
		want     string
	}{
		{name: "exact language", lang: "ru", key: "greet", wantLang: "ru", want: "Привет, Ann"},
		{name: "region suffix", lang: "ru-RU", key: "greet", wantLang: "ru", want: "Привет, Ann"},
		{name: "unknown language", lang: "de", key: "greet", wantLang: "en", want: "Hello, Ann"},
		{name: "empty language", lang: "", key: "greet", wantLang: "en", want: "Hello, Ann"},
		{name: "fallback key", lang: "ru", key: "only_en", wantLang: "ru", want: "fallback"},
		{name: "missing key", lang: "en", key: "nope", wantLang: "en", want: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := manager.Translator(tt.lang)
			assert.Equal(t, tt.wantLang, tr.Lang())
			assert.Equal(t, tt.want, tr.Format(tt.key, Vars{"Name": "Ann"}))
		})
	}
}

func TestLoadFromFS_MissingDefault(t *testing.T) {
	fsys := fstest.MapFS{"loc/ru.yaml": {Data: []byte("ru:\n  a: b\n")}}

	_, err := LoadFromFS(fsys, "loc", "en")
	assert.Error(t, err)
}

func TestLoadFromFS_Structure(t *testing.T) {
	fsys := fstest.MapFS{
		"loc/en.yaml":    {Data: []byte("en:\n  cart:\n    total: \"Total: {{.Total}}\"\n    broken: \"{{.Total\"\n")},
		"loc/extra.yaml": {Data: []byte("en:\n  cart:\n    empty: \"Your cart is empty.\"\n")},
	}

	manager, err := LoadFromFS(fsys, "loc", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"en"}, manager.Languages())

	tr := manager.Translator("en")
	assert.Equal(t, "Total: $10.00", tr.Format("cart.total", Vars{"Total": "$10.00"}))
	assert.Equal(t, "Your cart is empty.", tr.T("cart.empty"))
	assert.Equal(t, "{{.Total", tr.Format("cart.broken", Vars{"Total": "x"}))
}

func TestLoadFromFS_RejectsMalformedCatalogs(t *testing.T) {
	tests := map[string]string{
		"list at top level": "- en\n- ru\n",
		"list of messages":  "en:\n  menu:\n    - a\n    - b\n",
		"bare language":     "en: hello\n",
		"invalid yaml":      "en: [\n",
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			fsys := fstest.MapFS{"loc/en.yaml": {Data: []byte(data)}}
			_, err := LoadFromFS(fsys, "loc", "en")
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFS_EmptyDir(t *testing.T) {
	fsys := fstest.MapFS{"loc/readme.md": {Data: []byte("none")}}
	_, err := LoadFromFS(fsys, "loc", "en")
	assert.Error(t, err)
}
