package main

import "github.com/jengzang/geolife-backend-go/cmd"

func main() {
	cmd.Execute()
}
