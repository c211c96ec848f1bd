/*
Copyright © 2025 slasshy
*/
package main

import "github.com/slasshy/vault/cmd"

func main() {
	cmd.Execute()
}
