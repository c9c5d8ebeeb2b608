package main

import "service-map/cmd"

func main() {
	cmd.Execute()
}
