package fetcher

import (
	"sort"
	"strings"
)

// DefaultServerID is used for server names missing from the directory.
const DefaultServerID = "531"

// ServerInfo is one entry of the server directory.
type ServerInfo struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	Group string `json:"group"`
}

var builtinServers = []ServerInfo{
	{"Fırtına", "439", "Turkey"},
	{"Lodos", "438", "Turkey"},
	{"Bagjanamu", "418", "Turkey"},
	{"Arkadaşlar", "413", "Turkey"},
	{"Marmara", "409", "Turkey"},
	{"Ezel", "59", "Turkey"},
	{"Barbaros", "57", "Turkey"},
	{"Dandanakan", "51", "Turkey"},
	{"Star", "437", "Sapphire"},
	{"Safir", "436", "Sapphire"},
	{"Oceana", "540", "Sapphire"},
	{"Azure", "732", "Sapphire"},
	{"Lucifer", "431", "Ruby"},
	{"Charon", "426", "Ruby"},
	{"Chimera", "531", "Ruby"},
	{"Kirin", "723", "Ruby"},
	{"Germania", "70", "International"},
	{"Teutonia", "71", "International"},
	{"Europe", "502", "International"},
	{"Italia", "503", "International"},
	{"Iberia", "506", "International"},
	{"Tigerghost", "524", "International"},
	{"Nyx", "541", "International"},
	{"Chione", "733", "International"},
	{"România", "599", "Regional"},
	{"Tara Româneascã", "54", "Regional"},
	{"Magyarország", "700", "Regional"},
	{"Česko", "701", "Regional"},
	{"Polska", "702", "Regional"},
}

// Directory resolves server names to upstream identifiers.
type Directory struct {
	byName map[string]ServerInfo
}

// NewDirectory builds the directory from the built-in table plus overrides.
// Override keys are matched case-insensitively against known names; unknown keys add a "Custom" server.
func NewDirectory(overrides map[string]string) *Directory {
	d := &Directory{byName: make(map[string]ServerInfo, len(builtinServers)+len(overrides))}
	for _, s := range builtinServers {
		d.byName[strings.ToLower(s.Name)] = s
	}
	for name, id := range overrides {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || strings.TrimSpace(id) == "" {
			continue
		}
		info, ok := d.byName[key]
		if !ok {
			info = ServerInfo{Name: strings.TrimSpace(name), Group: "Custom"}
		}
		info.ID = strings.TrimSpace(id)
		d.byName[key] = info
	}
	return d
}

// Resolve returns the upstream id for a server name. ok is false when the name
// is unknown and DefaultServerID was substituted.
func (d *Directory) Resolve(name string) (string, bool) {
	if info, ok := d.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return info.ID, true
	}
	return DefaultServerID, false
}

// List returns every server ordered by group, then name.
func (d *Directory) List() []ServerInfo {
	out := make([]ServerInfo, 0, len(d.byName))
	for _, s := range d.byName {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Name < out[j].Name
	})
	return out
}
