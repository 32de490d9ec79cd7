// Package reshape turns raw task records into the two warehouse tables.
//
// Extraction flattens each record into a types.NormalizedTask. The all-tasks
// table keeps every single-assignee task. The completed-tasks table keeps
// only tasks that are done, estimated, assigned to exactly one person,
// leaf-equivalent under the parent-rollup rule, and not already credited to
// another sprint.
package reshape
