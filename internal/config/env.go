package config

import (
	"strconv"
	"strings"
)

// ApplyEnv overrides settings from environment variables. Unset or empty
// variables leave the current value alone.
func (c *Config) ApplyEnv(getenv func(string) string) {
	get := func(name string) string { return strings.TrimSpace(getenv(name)) }

	setString(&c.RootPrefix, get("COMMISSAIRE_ROOT_PREFIX"))
	setString(&c.PlanFile, get("COMMISSAIRE_PLAN_FILE"))
	if v := get("COMMISSAIRE_STORE_BACKEND"); v != "" {
		c.Store.Backend = Backend(strings.ToLower(v))
	}

	// etcdctl's own variables, so an operator's existing shell works.
	if v := firstNonEmpty(get("ETCDCTL_ENDPOINTS"), get("ETCDCTL_ENDPOINT"), get("ETCDCTL_PEERS")); v != "" {
		c.Store.Etcd.Endpoints = splitList(v)
	}
	if v := get("ETCDCTL_USERNAME"); v != "" {
		user, pass, found := strings.Cut(v, ":")
		c.Store.Etcd.Username = user
		if found {
			c.Store.Etcd.Password = pass
		}
	}
	setString(&c.Store.Etcd.CertFile, get("ETCDCTL_CERT_FILE"))
	setString(&c.Store.Etcd.KeyFile, get("ETCDCTL_KEY_FILE"))
	setString(&c.Store.Etcd.CAFile, get("ETCDCTL_CA_FILE"))

	setString(&c.Store.SQLite.Path, get("COMMISSAIRE_SQLITE_PATH"))
	setString(&c.Store.Postgres.DSN, get("COMMISSAIRE_POSTGRES_DSN"))

	setString(&c.Store.S3.Endpoint, get("COMMISSAIRE_S3_ENDPOINT"))
	setString(&c.Store.S3.Region, get("COMMISSAIRE_S3_REGION"))
	setString(&c.Store.S3.AccessKey, firstNonEmpty(get("COMMISSAIRE_S3_ACCESS_KEY"), get("MINIO_ROOT_USER")))
	setString(&c.Store.S3.SecretKey, firstNonEmpty(get("COMMISSAIRE_S3_SECRET_KEY"), get("MINIO_ROOT_PASSWORD")))
	setString(&c.Store.S3.Bucket, get("COMMISSAIRE_S3_BUCKET"))
	if v := get("COMMISSAIRE_S3_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Store.S3.UseSSL = b
		}
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
