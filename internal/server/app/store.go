package app

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/Miura55/freee-labor-bot/internal/server/awsutil"
	"github.com/Miura55/freee-labor-bot/internal/server/config"
	"github.com/Miura55/freee-labor-bot/internal/server/repository/dynamo"
	"github.com/Miura55/freee-labor-bot/internal/server/repository/sqlite"
	"github.com/Miura55/freee-labor-bot/internal/server/service"
)

// Store is a repository that must be closed after use.
type Store interface {
	service.Repository
	io.Closer
}

// OpenStore opens the backend selected by cfg.StoreBackend.
func OpenStore(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		awsConf, err := awsutil.Load(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			return nil, fmt.Errorf("aws config: %w", err)
		}
		return &dynamo.Repo{DB: dynamodb.NewFromConfig(awsConf), Table: cfg.DynamoTable}, nil
	case config.BackendSQLite, "":
		repo, err := sqlite.New(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
