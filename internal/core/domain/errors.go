package domain

import "go.trai.ch/zerr"

// Sentinels are wrapped with zerr.Wrap before metadata is attached so that errors.Is keeps matching them.
var (
	// ErrInvalidDeclaration is returned when a declaration entry is malformed.
	ErrInvalidDeclaration = zerr.New("invalid declaration")

	// ErrDuplicateNode is returned when two nodes share an id.
	ErrDuplicateNode = zerr.New("duplicate node")

	// ErrDuplicateOutput is returned when two nodes declare the same output path.
	ErrDuplicateOutput = zerr.New("duplicate output")

	// ErrCycleDetected is returned when a dependency or alias cycle is found.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrUnknownAlias is returned when an alias references a name that is neither a node nor an alias.
	ErrUnknownAlias = zerr.New("unknown alias")

	// ErrUnknownTarget is returned when a requested target is not a node, output path or alias.
	ErrUnknownTarget = zerr.New("unknown target")

	// ErrReservedName is returned when a node or alias uses the reserved name "all".
	ErrReservedName = zerr.New("name 'all' is reserved")

	// ErrInvalidName is returned when a node id or alias name contains invalid characters.
	ErrInvalidName = zerr.New("invalid name")

	// ErrNameConflict is returned when an alias shares its name with a node id or output path.
	ErrNameConflict = zerr.New("alias name conflicts with node id or output")

	// ErrOutputOutsideRoot is returned when an output path escapes the project root.
	ErrOutputOutsideRoot = zerr.New("output path is outside project root")

	// ErrGraphNotValidated is returned when a graph is queried before Validate succeeded.
	ErrGraphNotValidated = zerr.New("graph has not been validated")

	// ErrStageExecutionFailed is returned when the stage executor reports a failure for a node.
	ErrStageExecutionFailed = zerr.New("stage execution failed")

	// ErrMissingDependencyFile is returned when a declared dependency path does not exist at execution time.
	ErrMissingDependencyFile = zerr.New("missing dependency file")

	// ErrMissingOutput is returned when a stage succeeded without producing a declared output.
	ErrMissingOutput = zerr.New("stage did not produce declared output")

	// ErrNoCommand is returned when no program can be derived for a node's source.
	ErrNoCommand = zerr.New("no command for source")

	// ErrBuildFailed is returned when at least one node failed or the run was cancelled.
	ErrBuildFailed = zerr.New("build failed")

	// ErrConfigNotFound is returned when no declaration file is found.
	ErrConfigNotFound = zerr.New("could not find ripple.yaml, ripple.hcl or ripple.toml")

	// ErrConfigReadFailed is returned when the declaration file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read declaration file")

	// ErrConfigParseFailed is returned when the declaration file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse declaration file")

	// ErrUnsupportedFormat is returned for declaration files with an unknown extension.
	ErrUnsupportedFormat = zerr.New("unsupported declaration format")

	// ErrEnsureDirFailed is returned when an output directory cannot be created.
	ErrEnsureDirFailed = zerr.New("failed to create output directory")

	// ErrFingerprintFailed is returned when a path cannot be fingerprinted.
	ErrFingerprintFailed = zerr.New("failed to fingerprint path")

	// ErrStoreOpenFailed is returned when the signature store cannot be opened.
	ErrStoreOpenFailed = zerr.New("failed to open signature store")

	// ErrStoreReadFailed is returned when a node record cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read signature store")

	// ErrStoreWriteFailed is returned when a node record cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write signature store")

	// ErrUnknownStoreBackend is returned for a store backend other than json or sqlite.
	ErrUnknownStoreBackend = zerr.New("unknown signature store backend")

	// ErrCleanFailed is returned when an output cannot be removed.
	ErrCleanFailed = zerr.New("failed to clean output")
)
