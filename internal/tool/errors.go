package tool

import "errors"

var (
	// ErrToolNotFound is returned when a tool is not found in the registry.
	ErrToolNotFound = errors.New("tool not found")

	// ErrEmptyToolName is returned when a tool name is empty.
	ErrEmptyToolName = errors.New("tool name must not be empty")

	// ErrDuplicateTool is returned when registering a tool with a name that
	// already exists in the registry.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrInvalidRisk is returned when a tool declares an unknown risk level.
	ErrInvalidRisk = errors.New("tool declares invalid risk level")

	// ErrPolicyDenied is returned when a tool is not in the configured
	// allow-list.
	ErrPolicyDenied = errors.New("tool not allowed by policy")

	// ErrBadPolicyPattern is returned when an allow-list entry is not a
	// valid glob pattern.
	ErrBadPolicyPattern = errors.New("invalid policy pattern")
)
