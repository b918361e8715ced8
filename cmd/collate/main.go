package main

import (
	"os"

	"horse.fit/collate/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
