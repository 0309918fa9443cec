// Package backend opens the store.Client selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/projectatomic/commissaire-bootstrap/internal/config"
	"github.com/projectatomic/commissaire-bootstrap/internal/store"
	"github.com/projectatomic/commissaire-bootstrap/internal/store/etcdstore"
	"github.com/projectatomic/commissaire-bootstrap/internal/store/s3store"
	"github.com/projectatomic/commissaire-bootstrap/internal/store/sqlstore"
)

// Open connects to the configured backend. Backends that talk HTTP do not
// contact the server here; the first request reports connection problems.
func Open(ctx context.Context, cfg config.StoreConfig) (store.Client, error) {
	switch cfg.Backend {
	case config.BackendEtcd:
		s, err := etcdstore.New(etcdstore.Config{
			Endpoints:   cfg.Etcd.Endpoints,
			Username:    cfg.Etcd.Username,
			Password:    cfg.Etcd.Password,
			CertFile:    cfg.Etcd.CertFile,
			KeyFile:     cfg.Etcd.KeyFile,
			CAFile:      cfg.Etcd.CAFile,
			DialTimeout: cfg.Etcd.DialTimeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendSQLite:
		s, err := sqlstore.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		s, err := sqlstore.OpenPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendS3:
		s, err := s3store.New(s3store.Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendMemory:
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
