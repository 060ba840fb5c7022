package grammar

import (
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// RulesFile represents the structure of a YAML rules file
type RulesFile struct {
	Options RulesOptions      `yaml:"options,omitempty"`
	Sets    map[string]string `yaml:"sets,omitempty"`
	Rules   []Rule            `yaml:"rules"`
}

// RulesOptions holds the settings shared by all rules of a file.
type RulesOptions struct {
	// Classes selects the meaning of \d \w \s: "unicode" (default) or
	// "ecma".
	Classes         string `yaml:"classes,omitempty"`
	LiteralSpace    bool   `yaml:"literal_space,omitempty"`
	Normalize       bool   `yaml:"normalize,omitempty"`
	CaseInsensitive bool   `yaml:"case_insensitive,omitempty"`
}

// Rule defines one kind of token.
type Rule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	// CaseInsensitive overrides the file-wide setting.
	CaseInsensitive *bool `yaml:"case_insensitive,omitempty"`
	// Precedence overrides the precedence derived from the pattern.
	Precedence *int `yaml:"precedence,omitempty"`
	// Ignore drops the matched input instead of producing a token.
	Ignore bool `yaml:"ignore,omitempty"`
}

func (r Rule) caseSensitive(opts RulesOptions) bool {
	if r.CaseInsensitive != nil {
		return !*r.CaseInsensitive
	}
	return !opts.CaseInsensitive
}

// DefaultRules returns rules for a conventional programming language:
// white space and ### comments are skipped, and identifiers, numbers,
// strings, operators, brackets and marks are recognized.
func DefaultRules() *RulesFile {
	return &RulesFile{
		Sets: map[string]string{
			"Digit": `[0-9]`,
			"Alnum": `[0-9A-Z]`,
		},
		Rules: []Rule{
			{Name: "space", Pattern: `\s+`, Ignore: true},
			{Name: "comment", Pattern: `### .*`, Ignore: true},
			{Name: "identifier", Pattern: `[a-zA-Z_] [a-zA-Z0-9_]*`},
			{Name: "decimal", Pattern: `{Digit}+ (_ {Digit}+)* (\. {Digit}* (_ {Digit}+)*)? (e [+\-]? {Digit}+)?`},
			{Name: "radix", Pattern: `{Digit}+ [xobtr] {Alnum}+ (_ {Alnum}+)* (\. {Alnum}* (_ {Alnum}+)*)?`},
			{Name: "string", Pattern: `" ([^"\\\n] | \\.)* " | ' ([^'\\\n] | \\.)* '`},
			{Name: "operator", Pattern: `[.*/%+\-<>~!&^|?=:$]+`},
			{Name: "open", Pattern: `[(\[{]`},
			{Name: "close", Pattern: `[)\]}]`},
			{Name: "mark", Pattern: `[,;]`},
		},
	}
}

// LoadRulesFile loads and parses a YAML rules file
func LoadRulesFile(filename string) (*RulesFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file '%s': %w", filename, err)
	}

	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML in rules file '%s': %w", filename, err)
	}
	return rules, nil
}

// ParseRules parses the YAML representation of a rules file.
func ParseRules(data []byte) (*RulesFile, error) {
	var rules RulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return &rules, nil
}

// Marshal returns the YAML representation of the rules.
func (rf *RulesFile) Marshal() ([]byte, error) {
	return yaml.Marshal(rf)
}

// Fingerprint hashes the YAML representation of the rules.
func (rf *RulesFile) Fingerprint() (uint64, error) {
	data, err := rf.Marshal()
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}

// ApplyRulesToDefaults overlays rules onto DefaultRules. Rules and sets
// replace the defaults of the same name; new rules are appended. Options
// set in rules take effect.
func ApplyRulesToDefaults(rules *RulesFile) (*RulesFile, error) {
	merged := DefaultRules()

	if rules.Options != (RulesOptions{}) {
		merged.Options = rules.Options
	}
	for name, pattern := range rules.Sets {
		merged.Sets[name] = pattern
	}

	index := make(map[string]int, len(merged.Rules))
	for i, r := range merged.Rules {
		index[r.Name] = i
	}
	seen := make(map[string]bool, len(rules.Rules))
	for _, r := range rules.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule with pattern %q has no name", r.Pattern)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRule, r.Name)
		}
		seen[r.Name] = true
		if i, ok := index[r.Name]; ok {
			merged.Rules[i] = r
			continue
		}
		merged.Rules = append(merged.Rules, r)
	}
	return merged, nil
}
