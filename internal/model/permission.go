package model

// Permission represents a string code for a specific organizer action.
type Permission string

const (
	// PermissionTeamsRead allows viewing the team board and its activity log.
	PermissionTeamsRead Permission = "teams:read"

	// PermissionTeamsWrite allows moving members, renaming and deleting teams.
	PermissionTeamsWrite Permission = "teams:write"
)
