package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/shenikar/silent_signal_system/internal/config"
	"google.golang.org/api/option"
)

// NewFirestoreClient создает клиент Cloud Firestore для проекта из конфигурации.
// Без явного файла ключа используются Application Default Credentials.
func NewFirestoreClient(ctx context.Context, appCfg *config.Config) (*firestore.Client, error) {
	var opts []option.ClientOption
	if appCfg.FirestoreCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(appCfg.FirestoreCredentials))
	}

	client, err := firestore.NewClientWithDatabase(ctx, appCfg.FirestoreProjectID, appCfg.FirestoreDatabase, opts...)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать клиент firestore: %w", err)
	}
	return client, nil
}
