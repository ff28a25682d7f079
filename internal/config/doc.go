// Package config resolves the admin console's settings.
//
// Settings are layered. Built-in defaults come first, then the YAML file,
// then a few environment overrides. A partial file only replaces the keys it
// names, and LoadOrDefault treats a missing file as empty.
//
// The file is looked up at VERIFY_CONFIG, then
// $XDG_CONFIG_HOME/verify-console/config.yaml, then
// ~/.config/verify-console/config.yaml. LoadDotEnv reads ./.env beforehand so
// local secrets can stay out of the file; values written as ${NAME} are
// expanded from the environment when the file is parsed.
//
// Full example with defaults:
//
//	api:
//	  base_url: "https://backend-api.getnobis.com/api/v2"
//	  timeout: "30s"
//	auth:
//	  token: "${VERIFY_ADMIN_TOKEN}"    # wins over token_file
//	  token_file: "~/.local/share/verify-console/token"
//	directory:
//	  page_size: 25                     # 1..100
//	deletion:
//	  max_failed_confirmations: 5       # per client, within lockout_window
//	  lockout_window: "15m"
//	journal:
//	  path: "~/.local/share/verify-console/journal.db"
//	logging:
//	  level: "info"                     # debug, info, warn, error
//	  format: "text"                    # text, json
//
// VERIFY_API_URL, VERIFY_TOKEN and VERIFY_JOURNAL override api.base_url,
// auth.token and journal.path after the file is read.
package config
