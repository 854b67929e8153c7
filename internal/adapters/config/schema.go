package config

// Projectfile is the schema of kiln.yaml and kiln.toml. kiln.hcl is decoded
// into it by readHCL.
type Projectfile struct {
	Version string             `yaml:"version" toml:"version"`
	Root    string             `yaml:"root"    toml:"root"`
	Tools   []string           `yaml:"tools"   toml:"tools"`
	Env     map[string]any     `yaml:"env"     toml:"env"`
	Steps   map[string]StepDTO `yaml:"steps"   toml:"steps"`
}

// StepDTO declares a step. Target and Sources take a single string or a list.
type StepDTO struct {
	Builder string         `yaml:"builder" toml:"builder"`
	Target  any            `yaml:"target"  toml:"target"`
	Sources any            `yaml:"sources" toml:"sources"`
	Env     map[string]any `yaml:"env"     toml:"env"`
}
