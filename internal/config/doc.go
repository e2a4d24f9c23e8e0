// Package config loads the token service configuration.
//
// # Configuration Sources
//
// Values are resolved in increasing order of precedence:
//
//	1. Defaults (see Default)
//	2. A YAML file: $TOKENAUTH_CONFIG, ./config.yaml or ./configs/config.yaml
//	3. Environment variables prefixed with TOKENAUTH_
//
// A .env file in the working directory is loaded into the environment before
// step 3 without overriding variables that are already set.
//
// # Environment Variables
//
//	TOKENAUTH_SERVER_PORT=10000            (bare PORT is honoured when this is unset)
//	TOKENAUTH_STORE_DRIVER=file            file | memory
//	TOKENAUTH_STORE_FILE=data/tokens.json
//	TOKENAUTH_STORE_RELOAD_ON_READ=true
//	TOKENAUTH_STORE_DEFAULT_VALIDITY_DAYS=365
//	TOKENAUTH_STORE_TIMEZONE=UTC
//	TOKENAUTH_SECURITY_ALLOWED_ORIGINS=*
//	TOKENAUTH_SECURITY_ADMIN_KEY_HASH=     bcrypt hash, see cmd/hashadminkey
//	TOKENAUTH_LOGGING_LEVEL=info
//	TOKENAUTH_TELEMETRY_TRACE_EXPORTER=none
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
