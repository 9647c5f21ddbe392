// Command dbinit reconciles the td_source key column and seeds baseline
// reference data when a service starts.
//
//	dbinit serve                  start the probes and run the startup hook
//	dbinit bootstrap [--dry-run]  run the hook once and print the report
//	dbinit reports [run-id]       list or show published reports
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
