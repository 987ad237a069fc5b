// Package i18n serves the localized bot texts from embedded YAML catalogs.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

const localesDir = "locales"

// Vars fills the {{.Name}} fields of a message template.
type Vars map[string]any

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	T(key string) string
	Format(key string, vars Vars) string
	Lang() string
}

// Manager stores the message catalogs of every loaded language.
type Manager struct {
	catalogs    map[string]*catalog
	defaultLang string
}

// catalog holds the flattened messages of one language and the templates
// compiled from them on first use.
type catalog struct {
	messages  map[string]string
	mu        sync.Mutex
	templates map[string]*template.Template
}

func newCatalog() *catalog {
	return &catalog{
		messages:  make(map[string]string),
		templates: make(map[string]*template.Template),
	}
}

func (c *catalog) template(key string) (*template.Template, bool) {
	text, ok := c.messages[key]
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if tmpl, ok := c.templates[key]; ok {
		return tmpl, tmpl != nil
	}

	tmpl, err := template.New(key).Option("missingkey=zero").Parse(text)
	if err != nil {
		// a broken message is served verbatim by T
		tmpl = nil
	}
	c.templates[key] = tmpl
	return tmpl, tmpl != nil
}

// Load loads the catalogs compiled into the binary.
func Load(defaultLang string) (*Manager, error) {
	return LoadFromFS(embedded, localesDir, defaultLang)
}

// LoadFromFS loads every *.yaml/*.yml file of dir. Each file maps language
// codes to nested message trees; trees of the same language are merged.
func LoadFromFS(fsys fs.FS, dir, defaultLang string) (*Manager, error) {
	if defaultLang == "" {
		defaultLang = "en"
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read dir %s: %w", dir, err)
	}

	m := &Manager{catalogs: make(map[string]*catalog), defaultLang: defaultLang}
	files := 0
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		files++

		if err := m.loadFile(fsys, path.Join(dir, entry.Name())); err != nil {
			return nil, err
		}
	}

	if files == 0 {
		return nil, fmt.Errorf("i18n: no yaml files found in %s", dir)
	}
	if _, ok := m.catalogs[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return m, nil
}

// Translator returns a translator for a Telegram language code such as "ru" or "en-US".
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{}
	}

	code := normalizeLang(lang)
	if _, ok := m.catalogs[code]; !ok {
		code = m.defaultLang
	}

	return translator{
		lang:     code,
		primary:  m.catalogs[code],
		fallback: m.catalogs[m.defaultLang],
	}
}

// Languages returns all loaded languages, sorted.
func (m *Manager) Languages() []string {
	if m == nil {
		return nil
	}

	languages := make([]string, 0, len(m.catalogs))
	for lang := range m.catalogs {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	return languages
}

func (m *Manager) loadFile(fsys fs.FS, name string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("i18n: read file %s: %w", name, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("i18n: parse file %s: %w", name, err)
	}
	if len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("i18n: %s:%d: top level must map languages to messages", name, root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		code := normalizeLang(root.Content[i].Value)
		if code == "" {
			continue
		}

		c, ok := m.catalogs[code]
		if !ok {
			c = newCatalog()
			m.catalogs[code] = c
		}
		if err := collect(name, "", root.Content[i+1], c.messages); err != nil {
			return err
		}
	}

	return nil
}

// collect flattens a message tree into dot-separated keys.
func collect(file, prefix string, node *yaml.Node, out map[string]string) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if prefix == "" {
			return fmt.Errorf("i18n: %s:%d: language without messages", file, node.Line)
		}
		out[prefix] = node.Value
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if key == "" {
				continue
			}
			if prefix != "" {
				key = prefix + "." + key
			}
			if err := collect(file, key, node.Content[i+1], out); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("i18n: %s:%d: unsupported value for %q", file, node.Line, prefix)
	}
}

func normalizeLang(lang string) string {
	code := strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}

func isYAML(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

type translator struct {
	lang     string
	primary  *catalog
	fallback *catalog
}

func (t translator) Lang() string {
	return t.lang
}

// T returns the raw message for key, falling back to the default language
// and then to the key itself.
func (t translator) T(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	for _, c := range []*catalog{t.primary, t.fallback} {
		if c == nil {
			continue
		}
		if text, ok := c.messages[key]; ok {
			return text
		}
	}

	return key
}

// Format renders the message for key as a text/template with vars.
func (t translator) Format(key string, vars Vars) string {
	key = strings.TrimSpace(key)
	for _, c := range []*catalog{t.primary, t.fallback} {
		if c == nil {
			continue
		}
		if _, ok := c.messages[key]; !ok {
			continue
		}

		tmpl, ok := c.template(key)
		if !ok {
			return c.messages[key]
		}

		var b strings.Builder
		if err := tmpl.Execute(&b, map[string]any(vars)); err != nil {
			return c.messages[key]
		}
		return b.String()
	}

	return t.T(key)
}
