// Package config loads the configuration of the HLX client and server.
//
// # Overview
//
// Files are YAML; JSON files load too since JSON is valid YAML. A Loader
// applies defaults, then each file layer in order, then environment
// overrides. Fields absent from a layer keep the value of the layer
// below.
//
//	loader := config.NewLoader()
//	loader.AddLayer("configs/base.yaml")
//	loader.AddLayer("configs/site.yaml")
//	cfg, err := loader.LoadServer()
//
// # Environment Overrides
//
// Variables use the HLX prefix:
//
//	HLX_LISTEN           server listen address
//	HLX_ADDRESS          client target address
//	HLX_NATS_URL         NATS server URL; empty disables NATS
//	HLX_NATS_USERNAME    NATS credentials
//	HLX_NATS_PASSWORD
//	HLX_NATS_TOKEN
//	HLX_METRICS_PORT     Prometheus port; 0 disables
//	HLX_WEBSOCKET_ADDR   event stream address; empty disables
//	HLX_JOURNAL_PATH     event journal file; empty disables
//	HLX_LOG_LEVEL        debug, info, warn, error
//	HLX_LOG_FORMAT       json, text
//
// # Example
//
//	listen: ":4999"
//	egress_capacity: 1024
//	names:
//	  zones: {1: Kitchen, 2: Patio}
//	  sources: {1: Streamer}
//	nats:
//	  url: nats://localhost:4222
//	  backup_bucket: hlx-backup
//	websocket:
//	  addr: ":8090"
//	journal:
//	  path: /var/log/hlx/events.jsonl
//	  append: true
//	discovery:
//	  enabled: true
//	  instance: rack-1
package config
