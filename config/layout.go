package config

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// LayoutsDir is where layout XML files are looked up by default
var LayoutsDir = filepath.Join("resources", "layouts")

// The 15 in-game keys are three rows of five.
var builtinLayouts = map[string][15]string{
	"QWERTY": {"y", "u", "i", "o", "p", "h", "j", "k", "l", ";", "n", "m", ",", ".", "/"},
	"QWERTZ": {"z", "u", "i", "o", "p", "h", "j", "k", "l", "ö", "n", "m", ",", ".", "-"},
	"AZERTY": {"y", "u", "i", "o", "p", "h", "j", "k", "l", "m", "n", ",", ";", ":", "!"},
}

// BuiltinLayout returns a copy of a compiled-in layout, or nil.
func BuiltinLayout(name string) map[string]string {
	keys, ok := builtinLayouts[strings.ToUpper(name)]
	if !ok {
		return nil
	}
	m := make(map[string]string, len(keys))
	for i, k := range keys {
		m["Key"+strconv.Itoa(i)] = k
	}
	return m
}

// The root element name is not checked.
type layoutFile struct {
	Keys []struct {
		ID    string `xml:"id,attr"`
		Value string `xml:",chardata"`
	} `xml:"key"`
}

// ParseLayout decodes a layout XML document. Keys with an empty id or value
// are skipped.
func ParseLayout(data []byte) (map[string]string, error) {
	var lf layoutFile
	if err := xml.Unmarshal(data, &lf); err != nil {
		return nil, err
	}
	m := make(map[string]string, len(lf.Keys))
	for _, k := range lf.Keys {
		id := strings.TrimSpace(k.ID)
		v := strings.TrimSpace(k.Value)
		if id != "" && v != "" {
			m[id] = v
		}
	}
	return m, nil
}

// LoadLayout reads dir/<name>.xml, falling back to a builtin layout of the
// same name when the file does not exist.
func LoadLayout(dir, name string) (map[string]string, error) {
	path := filepath.Join(dir, strings.ToLower(name)+".xml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if m := BuiltinLayout(name); m != nil {
				return m, nil
			}
			return nil, fault.New("layout not found",
				ftag.With(KindConfiguration),
				fmsg.WithDesc("load layout "+name, "Layout file not found: "+path))
		}
		return nil, err
	}

	m, err := ParseLayout(data)
	if err != nil {
		return nil, fault.Wrap(err,
			ftag.With(KindConfiguration),
			fmsg.WithDesc("parse layout "+name, "Error loading layout '"+name+"'."))
	}
	if len(m) == 0 {
		return nil, fault.New("layout has no keys",
			ftag.With(KindConfiguration),
			fmsg.WithDesc("parse layout "+name, "Layout '"+name+"' defines no keys."))
	}
	return m, nil
}

// ListLayouts returns builtin layout names plus any XML files in dir,
// upper-cased and sorted.
func ListLayouts(dir string) []string {
	seen := map[string]bool{}
	for name := range builtinLayouts {
		seen[name] = true
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}
		seen[strings.ToUpper(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))] = true
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ApplyLayout loads a layout and persists it as the active key mapping.
func (st Store) ApplyLayout(dir, name string) (map[string]string, error) {
	m, err := LoadLayout(dir, name)
	if err != nil {
		return nil, err
	}
	mapping := make(map[string]any, len(m))
	for k, v := range m {
		mapping[k] = v
	}
	err = st.Patch(map[string]any{
		"keyboard_layout": strings.ToUpper(name),
		"key_mapping":     mapping,
	})
	return m, err
}
