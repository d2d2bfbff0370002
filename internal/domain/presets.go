package domain

import "strings"

// Preset is a built-in research domain with canned prompt context.
type Preset struct {
	Key         string   `json:"key" yaml:"key"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
	FocusAreas  []string `json:"focus_areas" yaml:"focus_areas"`
}

const (
	// DefaultDomainName is the domain used when nothing else resolves.
	DefaultDomainName = "AI/ML"
	// DefaultDomainKey is the preset key of DefaultDomainName.
	DefaultDomainKey = "ai-ml"
)

// customFocusAreas is the focus phrase supplied for non-preset domains.
const customFocusAreas = "new developments, tools, and updates"

var presets = []Preset{
	{
		Key:         "ai-ml",
		Name:        "AI/ML",
		Description: "Artificial Intelligence and Machine Learning development",
		Keywords: []string{
			"AI libraries",
			"ML frameworks",
			"LLM models",
			"vector databases",
			"transformers",
			"neural networks",
			"deep learning",
		},
		FocusAreas: []string{
			"New libraries and frameworks",
			"Model releases",
			"Research papers",
			"Developer tools",
		},
	},
	{
		Key:         "cryptocurrency",
		Name:        "cryptocurrency",
		Description: "Cryptocurrency and blockchain technology",
		Keywords: []string{
			"blockchain",
			"DeFi",
			"smart contracts",
			"crypto protocols",
			"NFTs",
			"DAOs",
			"exchanges",
		},
		FocusAreas: []string{
			"New protocols",
			"DeFi projects",
			"Regulations",
			"Exchange updates",
		},
	},
	{
		Key:         "web3",
		Name:        "web3",
		Description: "Web3 and decentralized technologies",
		Keywords: []string{
			"decentralized apps",
			"IPFS",
			"decentralized storage",
			"Web3 infrastructure",
			"dApps",
			"DAOs",
		},
		FocusAreas: []string{
			"dApps",
			"Infrastructure",
			"Tools",
			"Communities",
		},
	},
	{
		Key:         "quantum-computing",
		Name:        "quantum-computing",
		Description: "Quantum computing and quantum algorithms",
		Keywords: []string{
			"quantum",
			"qubits",
			"quantum algorithms",
			"quantum hardware",
			"quantum supremacy",
			"quantum error correction",
		},
		FocusAreas: []string{
			"Quantum hardware",
			"Quantum algorithms",
			"Quantum software",
			"Research breakthroughs",
		},
	},
}

// Presets returns the built-in domains in menu order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	for i, p := range presets {
		out[i] = p.clone()
	}
	return out
}

// LookupPreset finds a preset by key, case-insensitively.
func LookupPreset(key string) (Preset, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, p := range presets {
		if p.Key == k {
			return p.clone(), true
		}
	}
	return Preset{}, false
}

// presetByName finds a preset by display name, case-insensitively.
func presetByName(name string) (Preset, bool) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p.clone(), true
		}
	}
	return Preset{}, false
}

func (p Preset) clone() Preset {
	p.Keywords = append([]string(nil), p.Keywords...)
	p.FocusAreas = append([]string(nil), p.FocusAreas...)
	return p
}
