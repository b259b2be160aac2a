package fixture

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Toolchain families.
const (
	ToolchainGCC   = "gcc"
	ToolchainClang = "clang"
	ToolchainMSVC  = "msvc"
)

// OS families.
const (
	OSLinux   = "linux"
	OSMacOS   = "macos"
	OSWindows = "windows"
)

// ToolchainRule maps compilers whose base name starts with Prefix to Family.
type ToolchainRule struct {
	Prefix string `yaml:"prefix" json:"prefix"`
	Family string `yaml:"family" json:"family"`
}

// DefaultToolchainRules resolve the usual driver names. Order matters:
// "clang" has to be tried before "cl".
var DefaultToolchainRules = []ToolchainRule{
	{Prefix: "gcc", Family: ToolchainGCC},
	{Prefix: "g++", Family: ToolchainGCC},
	{Prefix: "clang", Family: ToolchainClang},
	{Prefix: "cl", Family: ToolchainMSVC},
}

var (
	toolchains = map[string]bool{ToolchainGCC: true, ToolchainClang: true, ToolchainMSVC: true}
	osFamilies = map[string]bool{OSLinux: true, OSMacOS: true, OSWindows: true}
)

// OSFamily maps a GOOS value (or an OS family name) to its OS tag.
func OSFamily(goos string) (string, error) {
	switch goos {
	case "linux":
		return OSLinux, nil
	case "darwin", OSMacOS:
		return OSMacOS, nil
	case "windows":
		return OSWindows, nil
	}
	return "", fmt.Errorf("unsupported operating system %q", goos)
}

// TagMapping turns configuration values into fixture tags.
//
// Feature tags come from an explicit table keyed by the raw option
// identifier; options listed in Defaults contribute no tag. An option that is
// in neither is an error, so new options have to be declared before they can
// be tested.
type TagMapping struct {
	Toolchains []ToolchainRule
	Features   map[string]string
	Defaults   []string
}

// Validate checks that every family is known and every feature tag can be
// encoded in a fixture file name.
func (m TagMapping) Validate() error {
	for i, r := range m.toolchainRules() {
		if r.Prefix == "" {
			return fmt.Errorf("toolchain rule %d: prefix is required", i)
		}
		if !toolchains[r.Family] {
			return fmt.Errorf("toolchain rule %d: unknown family %q", i, r.Family)
		}
	}
	for option, tag := range m.Features {
		if err := validateTag(tag); err != nil {
			return fmt.Errorf("feature %s: %w", option, err)
		}
	}
	return nil
}

// ToolchainFamily resolves a compiler to its family tag.
func (m TagMapping) ToolchainFamily(compiler string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(compiler), ".exe")
	for _, r := range m.toolchainRules() {
		if strings.HasPrefix(base, r.Prefix) {
			return r.Family, nil
		}
	}
	return "", fmt.Errorf("no toolchain family for compiler %q", compiler)
}

// Tags derives the ordered target tags: toolchain, OS, then one tag per
// non-default option in the given order. Empty options are skipped and
// duplicate tags collapse.
func (m TagMapping) Tags(compiler, osFamily string, options []string) ([]string, error) {
	family, err := m.ToolchainFamily(compiler)
	if err != nil {
		return nil, err
	}
	if !osFamilies[osFamily] {
		return nil, fmt.Errorf("unknown OS family %q", osFamily)
	}

	tags := []string{family, osFamily}
	seen := map[string]bool{family: true, osFamily: true}
	for _, option := range options {
		tag, err := m.FeatureTag(option)
		if err != nil {
			return nil, err
		}
		if tag != "" && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// FeatureTag returns the tag for one option value. Empty and default
// options have no tag.
func (m TagMapping) FeatureTag(option string) (string, error) {
	if option == "" {
		return "", nil
	}
	for _, d := range m.Defaults {
		if d == option {
			return "", nil
		}
	}
	tag, ok := m.Features[option]
	if !ok {
		return "", fmt.Errorf("option %q has no declared feature tag", option)
	}
	return tag, nil
}

func (m TagMapping) toolchainRules() []ToolchainRule {
	if len(m.Toolchains) == 0 {
		return DefaultToolchainRules
	}
	return m.Toolchains
}

// DeriveFeatureTags builds a feature table from raw option identifiers by
// stripping a marker prefix and lower-casing the rest, e.g.
// "-DCPPTRACE_UNWIND_WITH_LIBUNWIND=On" with prefix "-DCPPTRACE_UNWIND_WITH_"
// and the "=On" suffix dropped. Every option must carry the prefix.
func DeriveFeatureTags(prefix string, options []string) (map[string]string, error) {
	lower := cases.Lower(language.Und)
	out := make(map[string]string, len(options))
	for _, option := range options {
		if option == "" {
			continue
		}
		if !strings.HasPrefix(option, prefix) {
			return nil, fmt.Errorf("option %q lacks prefix %q", option, prefix)
		}
		rest := strings.TrimPrefix(option, prefix)
		if i := strings.IndexByte(rest, '='); i >= 0 {
			rest = rest[:i]
		}
		tag := strings.ReplaceAll(lower.String(rest), TagSeparator, "-")
		if err := validateTag(tag); err != nil {
			return nil, fmt.Errorf("option %q: %w", option, err)
		}
		out[option] = tag
	}
	return out, nil
}

func validateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("empty tag")
	}
	if strings.Contains(tag, TagSeparator) || strings.ContainsAny(tag, `/\.`) {
		return fmt.Errorf("tag %q contains a reserved character", tag)
	}
	return nil
}
