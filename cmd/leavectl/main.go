/*
main.go - leavectl entry point

PURPOSE:
  Command-line front-end for the leave backend. Every command builds a
  workflow engine over the shared HTTP client and a file-persisted session,
  so a login survives between invocations the way a browser session would.

CONFIGURATION (viper; flag > env > config file > default):
  server URL   --server / LEAVECTL_SERVER / server: in config.yml
  config file  $XDG_CONFIG_HOME/leavecore/config.yml

EXAMPLES:
  leavectl login employee@attendly.test
  leavectl apply --type 1 --from 2026-09-07 --to 2026-09-09 --reason "family visit"
  leavectl balances
  leavectl approvals approve 3
*/
package main

func main() {
	Execute()
}
