package model

import "fmt"

// SnapshotKey builds the durable-cache key for an enrichment query.
// Key layout: zip|limit|active flag. The same parameters always map to
// the same key so a refresh replaces its predecessor wholesale.
func SnapshotKey(zip string, limit int, activeOnly bool) string {
	return fmt.Sprintf("%s|%d|%t", zip, limit, activeOnly)
}
