// Command policymeshctl compiles, validates, and evaluates ABAC policy
// fixtures against the policy engine.
package main

import "github.com/policymesh/engine/cmd/policymeshctl/cmd"

func main() {
	cmd.Execute()
}
