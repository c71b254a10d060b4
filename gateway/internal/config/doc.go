// Package config loads the gateway configuration from the `gateway:` section
// of config.yaml.
//
// Config fields:
//   - HTTPPort       — port for the REST API and WebSocket hub (default 8080)
//   - MQTT           — mesh broker settings; empty broker disables the source
//   - Thresholds     — warning/critical levels per metric
//   - OfflineTimeout — silence interval before a machine is declared offline (default 15s)
//   - SweepPeriod    — liveness scan interval (default 5s)
//   - AlertCapacity  — alert ledger bound (default 200)
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) hot-reloads the file; the gateway applies only
// the threshold levels from a reload.
package config
