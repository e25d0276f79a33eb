package main

import "kafkaload/cmd"

func main() {
	cmd.Execute()
}
