package domain

const (
	// ProjectFileName is the name of the YAML project configuration file.
	ProjectFileName = "kiln.yaml"

	// ProjectTOMLFileName is the name of the TOML project configuration file.
	ProjectTOMLFileName = "kiln.toml"

	// ProjectHCLFileName is the name of the HCL project configuration file.
	ProjectHCLFileName = "kiln.hcl"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)
