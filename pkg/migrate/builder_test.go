package migrate

import (
	"testing"

	"github.com/baderkha/blazing-transfer/pkg/migrate/config"
	"github.com/baderkha/blazing-transfer/pkg/migrate/config/sourcecfg"
	"github.com/baderkha/blazing-transfer/pkg/migrate/config/targetcfg"
	"github.com/baderkha/blazing-transfer/pkg/migrate/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkingJob() *JobConfig {
	return &JobConfig{
		Include: []string{"orders*"},
		SourceConfig: sourcecfg.Source{
			Driver:   sourcecfg.DriverPostgres,
			Postgres: &sourcecfg.Postgres{Host: "db", UserName: "app", DB: "shop"},
		},
		Target: targetcfg.Blazing{Host: "blazing", UserName: "analyst", Password: "pw"},
		Importer: config.Importer{
			Kind:    config.ImporterChunking,
			Staging: config.Staging{UploadFolder: "/blazing/uploads"},
		},
	}
}

func TestPrepareStagingUserFromTarget(t *testing.T) {
	cfg := chunkingJob()
	filter, err := prepare(cfg)
	require.NoError(t, err)
	assert.Equal(t, "analyst", cfg.Importer.Staging.User)
	assert.Equal(t, config.DefaultUserFolder, cfg.Importer.Staging.UserFolder)
	assert.Equal(t, []string{"orders*"}, filter.Include)

	cfg = chunkingJob()
	cfg.Importer.Staging.User = "loader"
	_, err = prepare(cfg)
	require.NoError(t, err)
	assert.Equal(t, "loader", cfg.Importer.Staging.User)
}

func TestPrepareConfigErrors(t *testing.T) {
	cfg := chunkingJob()
	cfg.Importer.Staging.UploadFolder = ""
	_, err := prepare(cfg)
	assert.Equal(t, errs.KindConfig, errs.KindOf(err))

	cfg = chunkingJob()
	cfg.Exclude = []string{"["}
	_, err = prepare(cfg)
	assert.Equal(t, errs.KindConfig, errs.KindOf(err))
}
