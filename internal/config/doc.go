// Package config loads weft configuration.
//
// Configuration lives in weft.json, weft.yaml or weft.yml. Every field is
// optional; missing fields take the defaults from New.
//
// # Configuration File Structure
//
//	{
//	  "maxReloadDepth": 10,
//	  "frameInterval": "16ms",
//	  "wrapperTag": "div",
//	  "keyAttribute": "key",
//	  "refAttribute": "ref",
//	  "scrollAttribute": "data-preserve-scroll",
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "metrics": {
//	    "namespace": "weft",
//	    "enabled": true
//	  },
//	  "devtools": {
//	    "addr": "localhost:7070",
//	    "eventBuffer": 256
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	logger := cfg.Logger(os.Stderr)
//	c := component.New("app", render, component.WithConfig(cfg.Component()))
package config
