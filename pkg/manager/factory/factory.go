// Package factory selects and initializes a collection manager from
// configuration.
package factory

import (
	"fmt"
	"strings"

	"github.com/nimburion/docmap/pkg/config"
	"github.com/nimburion/docmap/pkg/manager"
	"github.com/nimburion/docmap/pkg/manager/dynamodb"
	"github.com/nimburion/docmap/pkg/manager/memory"
	"github.com/nimburion/docmap/pkg/manager/mongodb"
	"github.com/nimburion/docmap/pkg/observability/logger"
)

// NewManager initializes the manager named by cfg.Provider. It does not
// manage fallback between providers.
func NewManager(cfg config.StoreConfig, log logger.Logger) (manager.Manager, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.ProviderMemory:
		return memory.NewManager(log), nil
	case config.ProviderMongoDB:
		return mongodb.NewManager(mongodb.Config{
			URL:              cfg.URL,
			Database:         cfg.DatabaseName,
			ConnectTimeout:   cfg.ConnectTimeout,
			OperationTimeout: cfg.OperationTimeout,
		}, log)
	case config.ProviderDynamoDB:
		return dynamodb.NewManager(dynamodb.Config{
			Region:           cfg.Region,
			Endpoint:         cfg.Endpoint,
			AccessKeyID:      cfg.AccessKeyID,
			SecretAccessKey:  cfg.SecretAccessKey,
			SessionToken:     cfg.SessionToken,
			KeyAttribute:     cfg.KeyAttribute,
			TTLAttribute:     cfg.TTLAttribute,
			OperationTimeout: cfg.OperationTimeout,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported store.provider %q (supported: mongodb, dynamodb, memory)", cfg.Provider)
	}
}
