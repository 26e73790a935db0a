package main

import "member-admin-api/internal/app"

func main() {
	app.Run()
}
