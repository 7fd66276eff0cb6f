package models

// Layout describes where a recipe expects its sources and build output,
// relative to the workspace root
type Layout struct {
	SourceFolder string `yaml:"source_folder" toml:"source_folder"`
	BuildFolder  string `yaml:"build_folder" toml:"build_folder"`
	HeaderFolder string `yaml:"header_folder" toml:"header_folder"`
}

// OptionValues lists the accepted values of the shared option
type OptionValues struct {
	Shared []bool `yaml:"shared" toml:"shared"`
}

// Descriptor is the declarative part of a package recipe
type Descriptor struct {
	Name        string       `yaml:"name" toml:"name"`
	Version     string       `yaml:"version" toml:"version"`
	License     string       `yaml:"license" toml:"license"`
	URL         string       `yaml:"url" toml:"url"`
	Description string       `yaml:"description" toml:"description"`
	Author      string       `yaml:"author" toml:"author"`
	Topics      []string     `yaml:"topics" toml:"topics"`
	Settings    []string     `yaml:"settings" toml:"settings"`
	Options     OptionValues `yaml:"options" toml:"options"`
	Defaults    Options      `yaml:"default_options" toml:"default_options"`
	Libs        []string     `yaml:"libs" toml:"libs"`
	Layout      Layout       `yaml:"layout" toml:"layout"`
}

// Reference returns the name/version reference of the descriptor
func (d Descriptor) Reference() string {
	return d.Name + "/" + d.Version
}

// CppInfo is what consumers need to link against a package
type CppInfo struct {
	Libs []string `json:"libs" yaml:"libs"`
}
