// Command toolgate is a governance proxy for stdio MCP servers.
package main

import "github.com/Sentinel-Gate/toolgate/cmd/toolgate/cmd"

func main() {
	cmd.Execute()
}
