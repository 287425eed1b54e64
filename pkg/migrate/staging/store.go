package staging

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/baderkha/blazing-transfer/pkg/migrate/config"
	"github.com/spf13/afero"
)

// Store : a staging area shared with the destination.
// dir is always relative to the store, callers pick one unique per table
type Store interface {
	Write(ctx context.Context, dir string, name string, payload []byte) error
	// Location : how the destination addresses dir in a load statement
	Location(dir string) string
	Remove(ctx context.Context, dir string) error
}

// FromConfig : builds the store an importer config asks for
func FromConfig(cfg config.Staging) (Store, error) {
	switch cfg.Kind {
	case config.StagingFS, "":
		return NewFsStore(afero.NewOsFs(), cfg.UploadFolder, cfg.User, cfg.UserFolder), nil
	case config.StagingS3:
		sess, err := session.NewSession(aws.NewConfig())
		if err != nil {
			return nil, fmt.Errorf("staging : could not open aws session : %w", err)
		}
		return NewS3Store(s3.New(sess), cfg.Bucket, cfg.Prefix), nil
	}
	return nil, fmt.Errorf("staging : unsupported kind %s", cfg.Kind)
}
