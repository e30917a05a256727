// Command traits resolves default methods of capability contracts.
package main

import "github.com/mesh-intelligence/traits/internal/cli"

func main() {
	cli.Execute()
}
