package domain

import "go.trai.ch/zerr"

// Detail returns an error that reads "<sentinel>: <detail>", for failures
// whose message has to name the offending value.
func Detail(sentinel error, detail string) error {
	return zerr.Wrap(zerr.New(detail), sentinel.Error())
}

var (
	// ErrBuilderAlreadyExists is returned when a tool registers a builder name twice.
	ErrBuilderAlreadyExists = zerr.New("builder already exists")

	// ErrBuilderNotFound is returned when a step references a builder that no loaded tool provides.
	ErrBuilderNotFound = zerr.New("builder not found")

	// ErrScannerAlreadyExists is returned when a tool registers a scanner name twice.
	ErrScannerAlreadyExists = zerr.New("scanner already exists")

	// ErrNoScanner is returned when no loaded tool can scan a file.
	ErrNoScanner = zerr.New("no scanner for file")

	// ErrUnknownTool is returned when the configuration names a tool that is not in the catalog.
	ErrUnknownTool = zerr.New("unknown tool")

	// ErrToolUnavailable is returned when a tool reports that it cannot run in this environment.
	ErrToolUnavailable = zerr.New("tool is not available")

	// ErrMissingConfig is returned when a required configuration key is not set.
	ErrMissingConfig = zerr.New("missing required configuration key")

	// ErrInvalidConfigValue is returned when a configuration value has the wrong type.
	ErrInvalidConfigValue = zerr.New("invalid configuration value")

	// ErrUnsupportedBackend is returned when a generator is asked for a backend it does not know.
	ErrUnsupportedBackend = zerr.New("unsupported backend")

	// ErrUnsupportedOption is returned when an enabled option is not supported by the selected backend.
	ErrUnsupportedOption = zerr.New("unsupported option")

	// ErrSubstitutionCycle is returned when a variable expands to itself.
	ErrSubstitutionCycle = zerr.New("recursive variable substitution")

	// ErrNoSources is returned when a builder is invoked without sources.
	ErrNoSources = zerr.New("no sources given")

	// ErrTargetRequired is returned when a builder cannot derive a target from its sources.
	ErrTargetRequired = zerr.New("target must be given explicitly")

	// ErrSingleTarget is returned when a builder that writes one file receives several targets.
	ErrSingleTarget = zerr.New("builder expects exactly one target")

	// ErrUnknownArchiveExtension is returned when the archive target has an unrecognized suffix.
	ErrUnknownArchiveExtension = zerr.New("Unknown file extension")

	// ErrInvalidZipMethod is returned when ARCHIVE_ZIP_METHOD names no known compression method.
	ErrInvalidZipMethod = zerr.New("Not a valid zip method")

	// ErrMissingDependency is returned when a scanned dependency neither exists nor is produced by a step.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when compile requests form a cycle.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrStepNotFound is returned when a requested step is not defined in the project.
	ErrStepNotFound = zerr.New("step not found")

	// ErrNoStepsSpecified is returned when the run command receives no step names.
	ErrNoStepsSpecified = zerr.New("no steps specified")

	// ErrInvalidStepName is returned when a step name contains invalid characters.
	ErrInvalidStepName = zerr.New("invalid step name")

	// ErrInputNotFound is returned when a source pattern matches no files.
	ErrInputNotFound = zerr.New("input not found")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when no project file is found.
	ErrConfigNotFound = zerr.New("could not find a kiln.yaml, kiln.toml or kiln.hcl project file")

	// ErrBuildExecutionFailed is returned when a build step fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrStepExecutionFailed is returned when the action of a single step fails.
	ErrStepExecutionFailed = zerr.New("step execution failed")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileCreateFailed is returned when an output file cannot be created.
	ErrFileCreateFailed = zerr.New("failed to create file")

	// ErrArchiveWriteFailed is returned when writing an archive entry fails.
	ErrArchiveWriteFailed = zerr.New("failed to write archive entry")

	// ErrArchiveReadFailed is returned when an archive cannot be read back.
	ErrArchiveReadFailed = zerr.New("failed to read archive")

	// ErrMinifyFailed is returned when in-process minification fails.
	ErrMinifyFailed = zerr.New("failed to minify")
)
