package main

import "blocks/internal/app"

func main() {
	app.Execute()
}
