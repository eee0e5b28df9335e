package domain

// Declaration is the format-neutral form of a project's build description.
// The config adapter decodes YAML, HCL or TOML into it.
type Declaration struct {
	Version string
	Paths   map[string]string
	Runners map[string][]string
	Nodes   []NodeDeclaration
	Aliases []AliasDeclaration
}

// NodeDeclaration is one (node_id, outputs, source, dependencies) tuple.
type NodeDeclaration struct {
	// ID is optional; it defaults to the first output path.
	ID           string
	Source       string
	Command      []string
	Outputs      []string
	Dependencies []string
	Environment  map[string]string
}

// AliasDeclaration is one (alias_name, member_ids) tuple.
type AliasDeclaration struct {
	Name    string
	Members []string
}
