package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibdninja/internal/inspector"
)

// TestInstantAddDropColumnHistory builds a table through a sequence of
// instant ADD/DROP COLUMN statements against a real server, then opens the
// exported tablespace and checks that the dictionary records the resulting
// row-version history.
func TestInstantAddDropColumnHistory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	path := BuildIBD(t, Options{
		Schema: "ibdninja",
		Table:  "widgets",
		DDL: []string{
			"CREATE TABLE ibdninja.widgets (" +
				"id BIGINT PRIMARY KEY, " +
				"name VARCHAR(64) NOT NULL" +
				") ENGINE=InnoDB ROW_FORMAT=DYNAMIC",
			"INSERT INTO ibdninja.widgets VALUES (1, 'bolt'), (2, 'nut')",
			"ALTER TABLE ibdninja.widgets ADD COLUMN weight INT NULL, ALGORITHM=INSTANT",
			"INSERT INTO ibdninja.widgets VALUES (3, 'washer', 5)",
			"ALTER TABLE ibdninja.widgets DROP COLUMN name, ALGORITHM=INSTANT",
			"INSERT INTO ibdninja.widgets (id, weight) VALUES (4, 9)",
		},
	})

	sess, err := inspector.Open(path)
	require.NoError(t, err)
	defer sess.Close()

	tbl := sess.FindTable("widgets")
	require.NotNil(t, tbl)
	assert.True(t, tbl.HasInstantCols())
	assert.Greater(t, tbl.CurrentRowVersion, uint32(0))

	stats, _, err := sess.AnalyzeTable(tbl, true)
	require.NoError(t, err)
	primary, ok := stats["PRIMARY"]
	require.True(t, ok)
	assert.GreaterOrEqual(t, primary.Leaf.NRecs, uint32(4))
	assert.Greater(t, primary.Leaf.DroppedColBytes, uint64(0))
}
