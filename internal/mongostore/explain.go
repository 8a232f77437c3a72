// =============================================================================
// Retail Schema Loader - Query Explain
// =============================================================================
//
// Execution-statistics dumps for the benchmark report. The explain command
// runs server-side against a find on the named collection; the
// executionStats section is returned as indented relaxed extended JSON.
//
// =============================================================================

package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// ExplainFind runs a find through the explain command at executionStats
// verbosity and returns the stats section, pretty-printed.
//
// PARAMETERS:
//   - collection: The collection name to explain against.
//   - filter: The find filter, as it would be passed to Find.
func (s *Store) ExplainFind(ctx context.Context, collection string, filter interface{}) (string, error) {
	cmd := bson.D{
		{Key: "explain", Value: bson.D{
			{Key: "find", Value: collection},
			{Key: "filter", Value: filter},
		}},
		{Key: "verbosity", Value: "executionStats"},
	}

	var result bson.M
	if err := s.db.RunCommand(ctx, cmd).Decode(&result); err != nil {
		return "", fmt.Errorf("explain on %q failed: %w", collection, err)
	}

	stats, ok := result["executionStats"]
	if !ok {
		return "", fmt.Errorf("explain on %q returned no executionStats section", collection)
	}

	pretty, err := bson.MarshalExtJSONIndent(stats, false, false, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render executionStats: %w", err)
	}
	return string(pretty), nil
}
