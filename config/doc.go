// Package config loads runtime settings for the thread library.
//
// Two file formats are accepted, chosen by extension: HCL (.hcl) and YAML
// (.yaml, .yml). Both share one schema:
//
//	registry {
//	  threads     = 16
//	  mutexes     = 8
//	  semaphores  = 8
//	  timers      = 4
//	  main_thread = "user"
//	}
//
//	log {
//	  debug = false
//	}
//
//	web {
//	  port     = 8080
//	  callback = "serve"
//	}
//
// Every block and attribute is optional; missing values keep their Default.
// HCL files can read environment variables through the env object, for
// example port = env.STL_PORT.
package config
