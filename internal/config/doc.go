// Package config manages persistent defaults for the proxmox-ssl-setup CLI,
// stored in YAML format at ~/.config/proxmox-ssl-setup/config.yaml.
//
// The config file only holds non-secret defaults (node name, endpoint URL,
// contact email, poll tuning). Credentials are always supplied via flags or
// prompts and are never written here.
//
// Example config.yaml:
//
//	target: ve
//	node: pve1
//	api_url: https://pve1.example.com:8006
//	email: admin@example.com
//	directory: https://acme-v02.api.letsencrypt.org/directory
//	wait_seconds: 30
//	poll_interval_seconds: 10
//	poll_attempts: 12
//
// Loading a missing file returns the built-in defaults; sparse files are
// filled in field by field. Config operations are NOT thread-safe.
package config
