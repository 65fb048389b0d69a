// Command crypto-mcp serves cryptocurrency price tools over MCP.
package main

import "crypto-mcp/internal/cli"

func main() {
	cli.Execute()
}
