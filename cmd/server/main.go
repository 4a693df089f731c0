package main

import "hrify/internal/app/server"

func main() {
	server.Run()
}
