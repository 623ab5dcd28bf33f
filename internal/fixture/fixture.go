// Package fixture spins up a real MySQL server in a container to produce
// genuine .ibd tablespace files for integration tests. Schema changes are
// driven through a live connection, the resulting table is exported, and
// its .ibd file is copied out for the inspector packages to read directly,
// with no server in the loop.
package fixture

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
)

// Options configures one fixture build.
type Options struct {
	// Image is the MySQL container image to run. Defaults to "mysql:8.0".
	Image string
	// Schema and Table name the object the DDL statements create.
	Schema string
	Table string
	// DDL is run in order against Schema once the server is up: typically
	// a CREATE TABLE followed by a sequence of ALTER TABLE ... ADD/DROP
	// COLUMN statements, to produce instant-add/drop column history in
	// the resulting tablespace.
	DDL []string
}

// Server is a running MySQL container plus a direct SQL connection to it.
// Server.BuildIBD can be called several times on one Server so repeated
// schema changes accumulate instant-add/drop history on the same table.
type Server struct {
	container *mysql.MySQLContainer
	db        *sql.DB
	dsn       string
}

// StartServer launches a MySQL container and waits for it to accept
// connections. Callers should only call this from integration tests
// guarded by testing.Short().
func StartServer(t *testing.T, ctx context.Context, image string) *Server {
	t.Helper()
	if image == "" {
		image = "mysql:8.0"
	}

	c, err := mysql.Run(ctx, image,
		mysql.WithDatabase("ibdninja"),
		mysql.WithUsername("root"),
		mysql.WithPassword("ibdninja"),
	)
	require.NoError(t, err, "failed to start MySQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(c); err != nil {
			t.Logf("failed to terminate MySQL container: %v", err)
		}
	})

	dsn, err := c.ConnectionString(ctx, "multiStatements=true")
	require.NoError(t, err, "failed to get connection string")

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err, "failed to open DB connection")
	require.NoError(t, db.PingContext(ctx), "failed to ping MySQL container")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close DB connection: %v", err)
		}
	})

	return &Server{container: c, db: db, dsn: dsn}
}

// BuildIBD runs opts.DDL against the server, flushes the named table for
// export, copies its .ibd file out of the container into dir, and returns
// the local path to the copy. The table is left unlocked before returning.
func (s *Server) BuildIBD(t *testing.T, ctx context.Context, opts Options, dir string) string {
	t.Helper()

	for _, stmt := range opts.DDL {
		_, err := s.db.ExecContext(ctx, stmt)
		require.NoErrorf(t, err, "DDL statement failed: %s", stmt)
	}

	qualified := fmt.Sprintf("`%s`.`%s`", opts.Schema, opts.Table)
	_, err := s.db.ExecContext(ctx, "FLUSH TABLES "+qualified+" FOR EXPORT")
	require.NoError(t, err, "FLUSH TABLES ... FOR EXPORT failed")

	remotePath := fmt.Sprintf("/var/lib/mysql/%s/%s.ibd", opts.Schema, opts.Table)
	rc, err := s.container.CopyFileFromContainer(ctx, remotePath)
	require.NoErrorf(t, err, "copy %s out of container", remotePath)
	defer rc.Close()

	localPath := filepath.Join(dir, opts.Table+".ibd")
	out, err := os.Create(localPath)
	require.NoError(t, err)
	defer out.Close()
	_, err = io.Copy(out, rc)
	require.NoError(t, err, "write local .ibd copy")

	_, err = s.db.ExecContext(ctx, "UNLOCK TABLES")
	require.NoError(t, err, "UNLOCK TABLES failed")

	return localPath
}

// BuildIBD is a convenience wrapper that starts a fresh server, builds one
// .ibd file, and returns its path under t.TempDir().
func BuildIBD(t *testing.T, opts Options) string {
	t.Helper()
	ctx := context.Background()
	s := StartServer(t, ctx, opts.Image)
	return s.BuildIBD(t, ctx, opts, t.TempDir())
}
