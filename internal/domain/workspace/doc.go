/*
Package workspace tracks the workspace sessions terminals can be opened in.

A workspace session is an id bound to an absolute root directory. Entries
are registered at runtime through the API or loaded at startup from a YAML
or TOML file:

	# workspaces.yaml
	workspaces:
	  - id: codemind
	    root_path: /home/dev/codemind

	# workspaces.toml
	[[workspaces]]
	id = "codemind"
	root_path = "/home/dev/codemind"

The Registry satisfies terminal.WorkspaceResolver.
*/
package workspace
