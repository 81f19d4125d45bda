package main

import "github.com/storefront-tools/demo-provisioner/cmd"

func main() {
	cmd.Init()
}
