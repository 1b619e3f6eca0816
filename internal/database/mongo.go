// Package database はMongoDBクライアントの生成を提供する。
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	connectTimeout = 10 * time.Second
	retryAttempts  = 3
	retryInterval  = 5 * time.Second
)

// Connect はMongoDBに接続し、指定データベースのハンドルを返す。
// 接続確認（Ping）まで行い、失敗時は一定間隔でリトライする。
// 返されるハンドルはプロセス起動時に1回だけ生成し、各コンポーネントに
// 依存として注入して使い回す。ドライバの規約により並行利用は安全。
func Connect(ctx context.Context, mongoURL, databaseName string) (*mongo.Database, error) {
	var lastErr error

	for range retryAttempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(mongoURL).
				SetConnectTimeout(connectTimeout).
				SetRetryWrites(true).
				SetRetryReads(true),
		)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return client.Database(databaseName), nil
			} else {
				lastErr = err
				_ = client.Disconnect(ctx)
			}
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	return nil, fmt.Errorf("failed to connect to mongodb: %w", lastErr)
}
